package cli

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/weekboard/internal/core"
	"github.com/valter-silva-au/weekboard/internal/observability"
)

// BoardSettings are the configuration values the commands need.
type BoardSettings struct {
	DefaultSort  core.SortMode
	WeekStartsOn time.Weekday
	Location     *time.Location
	HTTPAddr     string
	AlertEvery   time.Duration
}

// location returns the configured location, defaulting to UTC.
func (s BoardSettings) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// Service instances, set during app initialization in app.go.
var (
	BasePath string
	Engine   *core.Engine
	Settings = BoardSettings{DefaultSort: core.SortManual, WeekStartsOn: time.Monday, AlertEvery: time.Minute}
	// Lock is shared by every long-running surface that touches Engine.
	Lock sync.Locker = &sync.Mutex{}
)

// Observability service instances, set during app initialization in app.go.
var (
	EventLog    observability.EventLog
	Alerts      observability.AlertDeduplicator
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
	// NewAlertSource builds the task source the watcher scans. With reload
	// set it rereads the store before each scan.
	NewAlertSource func(reload bool) observability.TaskSource
)

func requireEngine() error {
	if Engine == nil {
		return fmt.Errorf("board engine not initialized")
	}
	return nil
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
