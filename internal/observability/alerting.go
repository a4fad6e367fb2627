package observability

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/valter-silva-au/weekboard/pkg/models"
)

// ErrUnknownAlert is returned when dismissing a key the ledger never saw.
var ErrUnknownAlert = errors.New("unknown alert")

// AlertLedger is the persisted key set the deduplicator consults. Defining
// it here keeps observability independent of the storage package.
type AlertLedger interface {
	Load() error
	Save() error
	Get(kind models.AlertKind, key string) (models.AlertRecord, bool)
	Put(rec models.AlertRecord)
	Delete(kind models.AlertKind, key string)
	Records() []models.AlertRecord
}

// ReminderClearer clears a task's reminder after it fires.
type ReminderClearer interface {
	ClearReminder(ctx context.Context, taskID string) error
}

// AlertDeduplicator fires overdue and reminder alerts at most once per
// composite key and remembers dismissals across restarts.
type AlertDeduplicator interface {
	// Scan checks tasks at now and returns the alerts that fired for the
	// first time. complete reports whether tasks is the full task set;
	// ledger keys for absent tasks are only dropped when it is.
	Scan(ctx context.Context, now time.Time, tasks []*models.Task, complete bool) ([]models.Alert, error)
	Dismiss(kind models.AlertKind, key string) error
	// Active returns fired alerts that have not been dismissed.
	Active() ([]models.Alert, error)
}

type alertDeduplicator struct {
	ledger  AlertLedger
	clearer ReminderClearer
	log     EventLog
	now     func() time.Time
}

// NewAlertDeduplicator creates an AlertDeduplicator over ledger. clearer and
// log may be nil.
func NewAlertDeduplicator(ledger AlertLedger, clearer ReminderClearer, log EventLog) AlertDeduplicator {
	return &alertDeduplicator{
		ledger:  ledger,
		clearer: clearer,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (d *alertDeduplicator) Scan(ctx context.Context, now time.Time, tasks []*models.Task, complete bool) ([]models.Alert, error) {
	if err := d.ledger.Load(); err != nil {
		return nil, fmt.Errorf("scanning alerts: %w", err)
	}

	byID := make(map[string]*models.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	d.prune(byID, complete)

	var fired []models.Alert
	var errs []error
	for _, t := range tasks {
		if t.Deleted() {
			continue
		}

		if t.Status != models.StatusComplete && t.DueAt != nil && t.DueAt.Before(now) {
			key := models.OverdueKey(t.ID, *t.DueAt)
			if _, seen := d.ledger.Get(models.AlertOverdue, key); !seen {
				fired = append(fired, d.fire(models.AlertOverdue, key, t, *t.DueAt, now))
			}
		}

		if t.ReminderAt != nil && !t.ReminderAt.After(now) {
			key := models.ReminderKey(t.ID)
			if _, seen := d.ledger.Get(models.AlertReminder, key); !seen {
				fired = append(fired, d.fire(models.AlertReminder, key, t, *t.ReminderAt, now))
			}
			if d.clearer != nil {
				if err := d.clearer.ClearReminder(ctx, t.ID); err != nil {
					errs = append(errs, fmt.Errorf("clearing reminder of %s: %w", t.ID, err))
				}
			}
		}
	}

	if err := d.ledger.Save(); err != nil {
		return fired, fmt.Errorf("scanning alerts: %w", err)
	}
	if len(errs) > 0 {
		return fired, errors.Join(errs...)
	}
	return fired, nil
}

func (d *alertDeduplicator) fire(kind models.AlertKind, key string, t *models.Task, trigger, now time.Time) models.Alert {
	rec := models.AlertRecord{
		Kind:      kind,
		Key:       key,
		TaskID:    t.ID,
		Title:     t.Title,
		TriggerAt: trigger.UTC(),
		FiredAt:   now.UTC(),
	}
	d.ledger.Put(rec)
	d.write("alert.fired", rec)
	return rec.Alert()
}

// prune drops keys whose task is complete, deleted, or confirmed gone. A
// reminder key outlives completion while the task still carries the
// reminder, so a reminder whose clear failed cannot fire twice.
func (d *alertDeduplicator) prune(byID map[string]*models.Task, complete bool) {
	for _, rec := range d.ledger.Records() {
		t, ok := byID[rec.TaskID]
		switch {
		case !ok:
			if complete {
				d.ledger.Delete(rec.Kind, rec.Key)
			}
		case t.Deleted():
			d.ledger.Delete(rec.Kind, rec.Key)
		case t.Status == models.StatusComplete:
			if rec.Kind == models.AlertReminder && t.ReminderAt != nil {
				continue
			}
			d.ledger.Delete(rec.Kind, rec.Key)
		}
	}
}

func (d *alertDeduplicator) Dismiss(kind models.AlertKind, key string) error {
	if err := d.ledger.Load(); err != nil {
		return fmt.Errorf("dismissing alert: %w", err)
	}
	rec, ok := d.ledger.Get(kind, key)
	if !ok {
		return fmt.Errorf("dismissing %s alert %q: %w", kind, key, ErrUnknownAlert)
	}
	if rec.Dismissed() {
		return nil
	}
	now := d.now()
	rec.DismissedAt = &now
	d.ledger.Put(rec)
	if err := d.ledger.Save(); err != nil {
		return fmt.Errorf("dismissing alert: %w", err)
	}
	d.write("alert.dismissed", rec)
	return nil
}

func (d *alertDeduplicator) Active() ([]models.Alert, error) {
	if err := d.ledger.Load(); err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}
	var out []models.Alert
	for _, rec := range d.ledger.Records() {
		if !rec.Dismissed() {
			out = append(out, rec.Alert())
		}
	}
	slices.SortFunc(out, func(a, b models.Alert) int {
		if c := a.FiredAt.Compare(b.FiredAt); c != 0 {
			return c
		}
		return strings.Compare(a.Key, b.Key)
	})
	return out, nil
}

func (d *alertDeduplicator) write(eventType string, rec models.AlertRecord) {
	if d.log == nil {
		return
	}
	_ = d.log.Write(Event{
		Time:    d.now(),
		Level:   LevelFor(eventType),
		Type:    eventType,
		Message: rec.Alert().Message(),
		Data: map[string]any{
			"kind":    string(rec.Kind),
			"key":     rec.Key,
			"task_id": rec.TaskID,
		},
	})
}
