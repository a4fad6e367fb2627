package storage

import (
	"context"
	"fmt"

	"github.com/valter-silva-au/weekboard/pkg/models"
)

// InsertPlan writes a new weekly plan. Week starts are unique.
func (db *DB) InsertPlan(ctx context.Context, p *models.WeeklyPlan) error {
	_, err := db.ExecContext(ctx,
		"INSERT INTO weekly_plans (id, title, week_start, created_at) VALUES (?, ?, ?, ?)",
		p.ID, p.Title, formatTime(p.WeekStart), formatTime(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting plan %s: %w", p.ID, err)
	}
	return nil
}

// ListPlans returns every plan ordered by week start.
func (db *DB) ListPlans(ctx context.Context) ([]*models.WeeklyPlan, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, title, week_start, created_at FROM weekly_plans ORDER BY week_start")
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	defer rows.Close()

	var plans []*models.WeeklyPlan
	for rows.Next() {
		var p models.WeeklyPlan
		var weekStart, createdAt string
		if err := rows.Scan(&p.ID, &p.Title, &weekStart, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		if p.WeekStart, err = parseTime(weekStart); err != nil {
			return nil, fmt.Errorf("scanning plan %s: %w", p.ID, err)
		}
		if p.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("scanning plan %s: %w", p.ID, err)
		}
		plans = append(plans, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plans: %w", err)
	}
	return plans, nil
}

// InsertStep writes a new formula step.
func (db *DB) InsertStep(ctx context.Context, s *models.FormulaStep) error {
	_, err := db.ExecContext(ctx,
		"INSERT INTO formula_steps (id, name, rank) VALUES (?, ?, ?)",
		s.ID, s.Name, s.Rank,
	)
	if err != nil {
		return fmt.Errorf("inserting step %s: %w", s.ID, err)
	}
	return nil
}

// ListSteps returns every formula step, highest rank first.
func (db *DB) ListSteps(ctx context.Context) ([]*models.FormulaStep, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, name, rank FROM formula_steps ORDER BY rank DESC, id")
	if err != nil {
		return nil, fmt.Errorf("listing steps: %w", err)
	}
	defer rows.Close()

	var steps []*models.FormulaStep
	for rows.Next() {
		var s models.FormulaStep
		if err := rows.Scan(&s.ID, &s.Name, &s.Rank); err != nil {
			return nil, fmt.Errorf("scanning step: %w", err)
		}
		steps = append(steps, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating steps: %w", err)
	}
	return steps, nil
}
