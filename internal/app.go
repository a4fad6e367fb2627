// Package internal provides the App struct that wires all components of the
// board together and initializes the CLI layer.
package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/valter-silva-au/weekboard/internal/cli"
	"github.com/valter-silva-au/weekboard/internal/core"
	"github.com/valter-silva-au/weekboard/internal/observability"
	"github.com/valter-silva-au/weekboard/internal/storage"
	"github.com/valter-silva-au/weekboard/pkg/models"
)

// App holds all service dependencies for the board.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.GlobalConfig

	// Storage layer
	DB     *storage.DB
	Ledger *storage.FileAlertLedger

	// Core services
	Engine *core.Engine

	// Observability
	EventLog    observability.EventLog
	Alerts      observability.AlertDeduplicator
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier

	// Mu serialises engine access between the HTTP server, the MCP server
	// and the alert watcher.
	Mu sync.Mutex

	logger core.EventLogger
}

// NewApp creates and wires all components of the board. basePath is the
// directory holding .boardconfig and, by default, the database and the
// alert ledger.
func NewApp(basePath string) (*App, error) {
	ctx := context.Background()
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	// --- Observability ---
	eventLogPath := filepath.Join(basePath, ".wb_events.jsonl")
	app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
	if err != nil {
		// Non-fatal: disable observability if log can't be created.
		app.EventLog = nil
	}
	if app.EventLog != nil {
		app.logger = &eventLogAdapter{log: app.EventLog}
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}
	if cfg.Notifications.Enabled && cfg.Notifications.Slack.WebhookURL != "" {
		app.Notifier = observability.NewSlackNotifier(cfg.Notifications.Slack.WebhookURL)
	}

	// --- Storage layer ---
	app.DB, err = storage.Open(resolvePath(basePath, cfg.DBPath))
	if err != nil {
		app.Close()
		return nil, err
	}
	if err := app.DB.Init(ctx); err != nil {
		app.Close()
		return nil, err
	}

	// --- Core services ---
	if err := app.ReloadEngine(ctx); err != nil {
		app.Close()
		return nil, err
	}

	// --- Alerting ---
	app.Ledger = storage.NewFileAlertLedger(resolvePath(basePath, cfg.Alerts.LedgerPath))
	if err := app.Ledger.Load(); err != nil {
		app.Close()
		return nil, err
	}
	app.Alerts = observability.NewAlertDeduplicator(app.Ledger, &engineAlertSource{app: app}, app.EventLog)

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Lock = &app.Mu
	cli.Settings = cli.BoardSettings{
		DefaultSort:  sortModeOrManual(cfg.DefaultSort),
		WeekStartsOn: cfg.WeekStartsOn,
		Location:     core.Location(cfg),
		HTTPAddr:     cfg.HTTPAddr,
		AlertEvery:   cfg.Alerts.Interval,
	}
	cli.EventLog = app.EventLog
	cli.Alerts = app.Alerts
	cli.MetricsCalc = app.MetricsCalc
	cli.Notifier = app.Notifier
	cli.NewAlertSource = func(reload bool) observability.TaskSource {
		return &engineAlertSource{app: app, reload: reload}
	}

	return app, nil
}

// ReloadEngine rebuilds the engine from the store and runs the board-load
// transitions: archiving finished periods and spawning recurring tasks.
func (a *App) ReloadEngine(ctx context.Context) error {
	engine, err := core.LoadEngine(ctx, a.DB, a.DB, a.logger)
	if err != nil {
		return err
	}
	if _, err := engine.Refresh(ctx, a.Config.WeekStartsOn, core.Location(a.Config)); err != nil {
		return fmt.Errorf("refreshing board: %w", err)
	}
	a.Engine = engine
	cli.Engine = engine
	return nil
}

// Close releases resources held by the App. It is safe to call on a
// partially initialized App.
func (a *App) Close() error {
	var firstErr error
	if a.EventLog != nil {
		if err := a.EventLog.Close(); err != nil {
			firstErr = err
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ResolveBasePath determines the board's base directory. It checks the
// WB_HOME env var, then the nearest directory containing .boardconfig, and
// falls back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv("WB_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}

func resolvePath(basePath, p string) string {
	if p == ":memory:" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(basePath, p)
}

func sortModeOrManual(s string) core.SortMode {
	mode, err := core.ParseSortMode(s)
	if err != nil {
		return core.SortManual
	}
	return mode
}

// --- Adapters ---

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	return a.log.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   observability.LevelFor(eventType),
		Type:    eventType,
		Message: eventType,
		Data:    data,
	})
}

// engineAlertSource feeds the app's current engine to the alert watcher
// and clears fired reminders through it. With reload set, every scan first
// reloads the board and the ledger so changes made by other processes are
// seen.
type engineAlertSource struct {
	app    *App
	reload bool
}

func (s *engineAlertSource) AlertTasks(ctx context.Context) ([]*models.Task, bool, error) {
	if s.reload {
		if err := s.app.ReloadEngine(ctx); err != nil {
			return nil, false, err
		}
		if err := s.app.Ledger.Load(); err != nil {
			return nil, false, err
		}
	}
	b := s.app.Engine.Board()
	return b.Tasks(), b.Complete(), nil
}

func (s *engineAlertSource) ClearReminder(ctx context.Context, taskID string) error {
	return s.app.Engine.ClearReminder(ctx, taskID)
}
