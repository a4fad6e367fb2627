package models

import "time"

// WeeklyPlan is a planning-period scope. Plans are ordered by WeekStart.
type WeeklyPlan struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	WeekStart time.Time `json:"week_start"`
	CreatedAt time.Time `json:"created_at"`
}

// FormulaStep is one step of a plan's classification scheme. Only Rank is
// interpreted by the engine; higher ranks sort first.
type FormulaStep struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Rank int    `json:"rank"`
}
