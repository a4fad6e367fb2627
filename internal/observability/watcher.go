package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/valter-silva-au/weekboard/pkg/models"
)

// TaskSource supplies the task set each alert scan runs over.
type TaskSource interface {
	// AlertTasks returns the tasks and whether the set is complete.
	AlertTasks(ctx context.Context) ([]*models.Task, bool, error)
}

// Watcher runs the alert scan on a fixed interval and forwards fired alerts
// to a Notifier.
type Watcher struct {
	source   TaskSource
	dedup    AlertDeduplicator
	notifier Notifier
	now      func() time.Time
	// OnAlerts, when set, receives every non-empty batch of fired alerts.
	OnAlerts func([]models.Alert)
	// OnError, when set, receives scan and notification errors.
	OnError func(error)
	// Lock, when set, is held for the whole of each tick. Share it with
	// anything else that touches the source or the ledger.
	Lock sync.Locker
}

// NewWatcher creates a Watcher. notifier may be nil.
func NewWatcher(source TaskSource, dedup AlertDeduplicator, notifier Notifier) *Watcher {
	return &Watcher{
		source:   source,
		dedup:    dedup,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Tick runs one scan and notifies about the alerts it fired.
func (w *Watcher) Tick(ctx context.Context) ([]models.Alert, error) {
	if w.Lock != nil {
		w.Lock.Lock()
		defer w.Lock.Unlock()
	}
	tasks, complete, err := w.source.AlertTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading tasks for alert scan: %w", err)
	}
	alerts, scanErr := w.dedup.Scan(ctx, w.now(), tasks, complete)
	if len(alerts) > 0 {
		if w.OnAlerts != nil {
			w.OnAlerts(alerts)
		}
		if w.notifier != nil {
			if err := w.notifier.Notify(alerts); err != nil {
				return alerts, fmt.Errorf("sending notifications: %w", err)
			}
		}
	}
	return alerts, scanErr
}

// Run ticks immediately and then every interval until ctx is done. Each
// tick runs to completion before the next one starts.
func (w *Watcher) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("alert interval must be positive, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := w.Tick(ctx); err != nil && w.OnError != nil {
			w.OnError(err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
