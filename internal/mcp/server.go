// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the board as tools for AI assistants.
package mcp

import (
	"context"
	"fmt"
	"sync"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/weekboard/internal/core"
	"github.com/valter-silva-au/weekboard/internal/observability"
	"github.com/valter-silva-au/weekboard/pkg/models"
)

// Config carries the board settings the tools need.
type Config struct {
	DefaultSort  core.SortMode
	WeekStartsOn time.Weekday
	Location     *time.Location
}

// Server wraps the engine and exposes it as MCP tools. Every tool holds lock
// while it touches the engine.
type Server struct {
	server  *gomcp.Server
	engine  *core.Engine
	alerts  observability.AlertDeduplicator
	metrics observability.MetricsCalculator
	lock    sync.Locker
	cfg     Config
}

// NewServer creates a new MCP server over engine. metrics may be nil if
// observability is disabled.
func NewServer(engine *core.Engine, alerts observability.AlertDeduplicator, metrics observability.MetricsCalculator, lock sync.Locker, cfg Config, version string) *Server {
	if version == "" {
		version = "dev"
	}
	if lock == nil {
		lock = &sync.Mutex{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	s := &Server{
		engine:  engine,
		alerts:  alerts,
		metrics: metrics,
		lock:    lock,
		cfg:     cfg,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "wb", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type taskOutput struct {
	ID                  string  `json:"id"`
	Title               string  `json:"title"`
	Description         string  `json:"description,omitempty"`
	Category            string  `json:"category,omitempty"`
	Bugged              bool    `json:"bugged"`
	Status              string  `json:"status"`
	Order               float64 `json:"order"`
	Priority            string  `json:"priority"`
	WeeklyPlanID        string  `json:"weekly_plan_id,omitempty"`
	FormulaStepID       string  `json:"formula_step_id,omitempty"`
	DueAt               string  `json:"due_at,omitempty"`
	ReminderAt          string  `json:"reminder_at,omitempty"`
	ForwardedFromTaskID string  `json:"forwarded_from_task_id,omitempty"`
	ForwardedToTaskID   string  `json:"forwarded_to_task_id,omitempty"`
	ArchivedAt          string  `json:"archived_at,omitempty"`
	Created             string  `json:"created"`
	Updated             string  `json:"updated"`
}

type columnOutput struct {
	Status string       `json:"status"`
	Tasks  []taskOutput `json:"tasks"`
}

type listBoardInput struct {
	View   string `json:"view,omitempty" jsonschema:"board view: default, main or plan. Defaults to default, or plan when plan_id is set."`
	PlanID string `json:"plan_id,omitempty" jsonschema:"weekly plan id for the plan view"`
	Sort   string `json:"sort,omitempty" jsonschema:"sort mode: manual, priority_formula, formula or overdue"`
}

type listBoardOutput struct {
	View    string         `json:"view"`
	Sort    string         `json:"sort"`
	Columns []columnOutput `json:"columns"`
}

type getTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"required,the task id"`
}

type addTaskInput struct {
	Title        string `json:"title" jsonschema:"required,the task title"`
	Description  string `json:"description,omitempty" jsonschema:"free-form description"`
	Category     string `json:"category,omitempty" jsonschema:"category label"`
	Priority     string `json:"priority,omitempty" jsonschema:"none, low, medium or high"`
	WeeklyPlanID string `json:"weekly_plan_id,omitempty" jsonschema:"weekly plan to scope the task to"`
	DueAt        string `json:"due_at,omitempty" jsonschema:"due instant in RFC3339"`
	ReminderAt   string `json:"reminder_at,omitempty" jsonschema:"reminder instant in RFC3339"`
}

type moveTaskInput struct {
	TaskID     string `json:"task_id" jsonschema:"required,the task to move"`
	OverTaskID string `json:"over_task_id,omitempty" jsonschema:"drop onto this card"`
	Status     string `json:"status,omitempty" jsonschema:"drop onto this column: todo, in_progress, complete"`
	View       string `json:"view,omitempty" jsonschema:"board view the gesture happens in"`
	PlanID     string `json:"plan_id,omitempty" jsonschema:"weekly plan id for the plan view"`
}

type moveTaskOutput struct {
	Outcome string     `json:"outcome"`
	Task    taskOutput `json:"task"`
}

type reorderInput struct {
	Status  string   `json:"status" jsonschema:"required,the partition status"`
	TaskIDs []string `json:"task_ids" jsonschema:"required,every task id in the partition, in the new order"`
	View    string   `json:"view,omitempty" jsonschema:"board view the partition belongs to"`
	PlanID  string   `json:"plan_id,omitempty" jsonschema:"weekly plan id for the plan view"`
}

type reorderOutput struct {
	Status string       `json:"status"`
	Tasks  []taskOutput `json:"tasks"`
}

type forwardInput struct {
	TaskIDs   []string `json:"task_ids" jsonschema:"required,tasks to forward"`
	PlanID    string   `json:"plan_id,omitempty" jsonschema:"existing destination plan"`
	WeekStart string   `json:"week_start,omitempty" jsonschema:"create a destination plan for this RFC3339 week start"`
	Title     string   `json:"title,omitempty" jsonschema:"title for a newly created plan"`
}

type forwardItemOutput struct {
	SourceID string `json:"source_id"`
	CloneID  string `json:"clone_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

type forwardOutput struct {
	PlanID    string              `json:"plan_id"`
	Forwarded int                 `json:"forwarded"`
	Items     []forwardItemOutput `json:"items"`
}

type archiveInput struct {
	Cutoff string `json:"cutoff,omitempty" jsonschema:"RFC3339 cutoff. Defaults to the start of the current period."`
}

type archiveOutput struct {
	Cutoff   string   `json:"cutoff"`
	Archived []string `json:"archived"`
	Count    int      `json:"count"`
}

type alertOutput struct {
	Kind      string `json:"kind"`
	Key       string `json:"key"`
	TaskID    string `json:"task_id"`
	Message   string `json:"message"`
	TriggerAt string `json:"trigger_at"`
	FiredAt   string `json:"fired_at"`
}

type alertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

type emptyInput struct{}

type dismissInput struct {
	Kind string `json:"kind" jsonschema:"required,overdue or reminder"`
	Key  string `json:"key" jsonschema:"required,the alert key"`
}

type messageOutput struct {
	Message string `json:"message"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	TasksCreated     int            `json:"tasks_created"`
	TasksMoved       int            `json:"tasks_moved"`
	MovesByStatus    map[string]int `json:"moves_by_status"`
	Reorders         int            `json:"reorders"`
	TasksForwarded   int            `json:"tasks_forwarded"`
	TasksArchived    int            `json:"tasks_archived"`
	TasksRestored    int            `json:"tasks_restored"`
	RecurringSpawned int            `json:"recurring_spawned"`
	AlertsFired      int            `json:"alerts_fired"`
	AlertsByKind     map[string]int `json:"alerts_by_kind"`
	AlertsDismissed  int            `json:"alerts_dismissed"`
	PersistFailures  int            `json:"persist_failures"`
	EventCount       int            `json:"event_count"`
	OldestEvent      string         `json:"oldest_event,omitempty"`
	NewestEvent      string         `json:"newest_event,omitempty"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_board",
		Description: "List the board's columns (todo, in_progress, complete) for a view, each sorted by the chosen mode.",
	}, s.handleListBoard)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_task",
		Description: "Get a task by ID, including archived and forwarded ones.",
	}, s.handleGetTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "add_task",
		Description: "Create a task in todo, placed last in its column.",
	}, s.handleAddTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "move_task",
		Description: "Drag a task onto another card or onto a column. Dropping on a card in the same column reorders.",
	}, s.handleMoveTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "reorder_partition",
		Description: "Set the manual order of one status column. task_ids must list every task in the column exactly once.",
	}, s.handleReorder)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "forward_tasks",
		Description: "Forward unfinished tasks into a weekly plan. Each task forwards fully or not at all.",
	}, s.handleForward)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "archive_completed",
		Description: "Archive complete tasks created before the cutoff.",
	}, s.handleArchive)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "restore_task",
		Description: "Bring an archived task back onto the board.",
	}, s.handleRestore)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "scan_alerts",
		Description: "Evaluate overdue and reminder alerts and return the ones that fired now.",
	}, s.handleScanAlerts)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_alerts",
		Description: "List alerts that have fired and are not yet dismissed.",
	}, s.handleListAlerts)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "dismiss_alert",
		Description: "Dismiss a fired alert by kind and key. A dismissed alert does not fire again.",
	}, s.handleDismissAlert)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get board activity metrics from the event log: moves, forwards, archives and alerts.",
	}, s.handleGetMetrics)
}

// --- Tool handlers ---

func (s *Server) handleListBoard(_ context.Context, _ *gomcp.CallToolRequest, input listBoardInput) (*gomcp.CallToolResult, listBoardOutput, error) {
	v, err := core.ParseView(input.View, input.PlanID)
	if err != nil {
		return errorResult(err.Error()), listBoardOutput{}, nil
	}
	mode := s.cfg.DefaultSort
	if input.Sort != "" {
		if mode, err = core.ParseSortMode(input.Sort); err != nil {
			return errorResult(err.Error()), listBoardOutput{}, nil
		}
	}

	s.lock.Lock()
	cols := s.engine.Columns(v, mode)
	out := listBoardOutput{View: v.String(), Sort: string(mode), Columns: make([]columnOutput, len(cols))}
	for i, c := range cols {
		out.Columns[i] = columnOutput{Status: string(c.Status), Tasks: tasksToOutput(c.Tasks)}
	}
	s.lock.Unlock()

	return nil, out, nil
}

func (s *Server) handleGetTask(_ context.Context, _ *gomcp.CallToolRequest, input getTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), taskOutput{}, nil
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	task, err := s.engine.GetTask(input.TaskID)
	if err != nil {
		return errorResult(fmt.Sprintf("getting task %s: %s", input.TaskID, err)), taskOutput{}, nil
	}
	return nil, taskToOutput(task), nil
}

func (s *Server) handleAddTask(ctx context.Context, _ *gomcp.CallToolRequest, input addTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	priority, err := models.ParsePriority(input.Priority)
	if err != nil {
		return errorResult(err.Error()), taskOutput{}, nil
	}
	in := core.NewTaskInput{
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Priority:    priority,
	}
	if input.WeeklyPlanID != "" {
		in.WeeklyPlanID = models.StringPtr(input.WeeklyPlanID)
	}
	if in.DueAt, err = parseOptionalTime("due_at", input.DueAt); err != nil {
		return errorResult(err.Error()), taskOutput{}, nil
	}
	if in.ReminderAt, err = parseOptionalTime("reminder_at", input.ReminderAt); err != nil {
		return errorResult(err.Error()), taskOutput{}, nil
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	task, err := s.engine.AddTask(ctx, in)
	if err != nil {
		return errorResult(err.Error()), taskOutput{}, nil
	}
	return nil, taskToOutput(task), nil
}

func (s *Server) handleMoveTask(ctx context.Context, _ *gomcp.CallToolRequest, input moveTaskInput) (*gomcp.CallToolResult, moveTaskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), moveTaskOutput{}, nil
	}
	v, err := core.ParseView(input.View, input.PlanID)
	if err != nil {
		return errorResult(err.Error()), moveTaskOutput{}, nil
	}

	var target core.DropTarget
	switch {
	case input.OverTaskID != "":
		target = core.CardTarget(input.OverTaskID)
	case input.Status != "":
		status, err := models.ParseTaskStatus(input.Status)
		if err != nil {
			return errorResult(err.Error()), moveTaskOutput{}, nil
		}
		target = core.ColumnTarget(status)
	default:
		return errorResult("one of over_task_id or status is required"), moveTaskOutput{}, nil
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	outcome, err := s.engine.Move(ctx, v, input.TaskID, target)
	if err != nil {
		return errorResult(err.Error()), moveTaskOutput{}, nil
	}
	out := moveTaskOutput{Outcome: outcome.String()}
	if t := s.engine.Board().Task(input.TaskID); t != nil {
		out.Task = taskToOutput(t)
	}
	return nil, out, nil
}

func (s *Server) handleReorder(ctx context.Context, _ *gomcp.CallToolRequest, input reorderInput) (*gomcp.CallToolResult, reorderOutput, error) {
	status, err := models.ParseTaskStatus(input.Status)
	if err != nil {
		return errorResult(err.Error()), reorderOutput{}, nil
	}
	v, err := core.ParseView(input.View, input.PlanID)
	if err != nil {
		return errorResult(err.Error()), reorderOutput{}, nil
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.engine.ReorderPartition(ctx, status, v, input.TaskIDs); err != nil {
		return errorResult(err.Error()), reorderOutput{}, nil
	}
	return nil, reorderOutput{
		Status: string(status),
		Tasks:  tasksToOutput(s.engine.Board().Partition(status, v)),
	}, nil
}

func (s *Server) handleForward(ctx context.Context, _ *gomcp.CallToolRequest, input forwardInput) (*gomcp.CallToolResult, forwardOutput, error) {
	if len(input.TaskIDs) == 0 {
		return errorResult("task_ids is required"), forwardOutput{}, nil
	}
	dest := core.ExistingPlan(input.PlanID)
	if input.WeekStart != "" {
		ws, err := time.Parse(time.RFC3339, input.WeekStart)
		if err != nil {
			return errorResult(fmt.Sprintf("parsing week_start: %s", err)), forwardOutput{}, nil
		}
		dest = core.NewPlan(ws, input.Title)
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	report, err := s.engine.Forward(ctx, input.TaskIDs, dest)
	if err != nil {
		return errorResult(err.Error()), forwardOutput{}, nil
	}

	out := forwardOutput{
		PlanID:    report.PlanID,
		Forwarded: len(report.Clones()),
		Items:     make([]forwardItemOutput, 0, len(report.Items)),
	}
	for _, it := range report.Items {
		item := forwardItemOutput{SourceID: it.SourceID}
		if it.Clone != nil {
			item.CloneID = it.Clone.ID
		}
		if it.Err != nil {
			item.Error = it.Err.Error()
		}
		out.Items = append(out.Items, item)
	}
	return nil, out, nil
}

func (s *Server) handleArchive(ctx context.Context, _ *gomcp.CallToolRequest, input archiveInput) (*gomcp.CallToolResult, archiveOutput, error) {
	custom, err := parseOptionalTime("cutoff", input.Cutoff)
	if err != nil {
		return errorResult(err.Error()), archiveOutput{}, nil
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	cutoff := core.PeriodStart(s.engine.Now(), s.cfg.WeekStartsOn, s.cfg.Location)
	if custom != nil {
		cutoff = *custom
	}
	ids, err := s.engine.Archive(ctx, cutoff)
	if err != nil {
		return errorResult(err.Error()), archiveOutput{}, nil
	}
	if ids == nil {
		ids = []string{}
	}
	return nil, archiveOutput{Cutoff: cutoff.Format(time.RFC3339), Archived: ids, Count: len(ids)}, nil
}

func (s *Server) handleRestore(ctx context.Context, _ *gomcp.CallToolRequest, input getTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), taskOutput{}, nil
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	task, err := s.engine.Restore(ctx, input.TaskID)
	if err != nil {
		return errorResult(err.Error()), taskOutput{}, nil
	}
	return nil, taskToOutput(task), nil
}

func (s *Server) handleScanAlerts(ctx context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, alertsOutput, error) {
	if s.alerts == nil {
		return errorResult("alerting not available"), emptyAlertsOutput(), nil
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	b := s.engine.Board()
	fired, err := s.alerts.Scan(ctx, s.engine.Now(), b.Tasks(), b.Complete())
	if err != nil {
		return errorResult(fmt.Sprintf("scanning alerts: %s", err)), emptyAlertsOutput(), nil
	}
	return nil, alertsToOutput(fired), nil
}

func (s *Server) handleListAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, alertsOutput, error) {
	if s.alerts == nil {
		return errorResult("alerting not available"), emptyAlertsOutput(), nil
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	active, err := s.alerts.Active()
	if err != nil {
		return errorResult(fmt.Sprintf("listing alerts: %s", err)), emptyAlertsOutput(), nil
	}
	return nil, alertsToOutput(active), nil
}

func (s *Server) handleDismissAlert(_ context.Context, _ *gomcp.CallToolRequest, input dismissInput) (*gomcp.CallToolResult, messageOutput, error) {
	if s.alerts == nil {
		return errorResult("alerting not available"), messageOutput{}, nil
	}
	kind, err := models.ParseAlertKind(input.Kind)
	if err != nil {
		return errorResult(err.Error()), messageOutput{}, nil
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.alerts.Dismiss(kind, input.Key); err != nil {
		return errorResult(err.Error()), messageOutput{}, nil
	}
	return nil, messageOutput{Message: fmt.Sprintf("%s alert %s dismissed", kind, input.Key)}, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metrics == nil {
		return errorResult("metrics calculator not available (observability may be disabled)"), emptyMetricsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}

	sinceTime, err := parseSince(sinceStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	m, err := s.metrics.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		TasksCreated:     m.TasksCreated,
		TasksMoved:       m.TasksMoved,
		MovesByStatus:    m.MovesByStatus,
		Reorders:         m.Reorders,
		TasksForwarded:   m.TasksForwarded,
		TasksArchived:    m.TasksArchived,
		TasksRestored:    m.TasksRestored,
		RecurringSpawned: m.RecurringSpawned,
		AlertsFired:      m.AlertsFired,
		AlertsByKind:     m.AlertsByKind,
		AlertsDismissed:  m.AlertsDismissed,
		PersistFailures:  m.PersistFailures,
		EventCount:       m.EventCount,
	}
	if m.OldestEvent != nil {
		out.OldestEvent = m.OldestEvent.Format(time.RFC3339)
	}
	if m.NewestEvent != nil {
		out.NewestEvent = m.NewestEvent.Format(time.RFC3339)
	}

	return nil, out, nil
}

// --- Helpers ---

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func taskToOutput(t *models.Task) taskOutput {
	return taskOutput{
		ID:                  t.ID,
		Title:               t.Title,
		Description:         t.Description,
		Category:            t.Category,
		Bugged:              t.Bugged,
		Status:              string(t.Status),
		Order:               t.Order,
		Priority:            string(t.Priority),
		WeeklyPlanID:        deref(t.WeeklyPlanID),
		FormulaStepID:       deref(t.FormulaStepID),
		DueAt:               formatOptional(t.DueAt),
		ReminderAt:          formatOptional(t.ReminderAt),
		ForwardedFromTaskID: deref(t.ForwardedFromTaskID),
		ForwardedToTaskID:   deref(t.ForwardedToTaskID),
		ArchivedAt:          formatOptional(t.ArchivedAt),
		Created:             t.CreatedAt.UTC().Format(time.RFC3339),
		Updated:             t.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func tasksToOutput(tasks []*models.Task) []taskOutput {
	out := make([]taskOutput, len(tasks))
	for i, t := range tasks {
		out[i] = taskToOutput(t)
	}
	return out
}

func alertsToOutput(alerts []models.Alert) alertsOutput {
	out := alertsOutput{Alerts: make([]alertOutput, len(alerts)), Count: len(alerts)}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			Kind:      string(a.Kind),
			Key:       a.Key,
			TaskID:    a.TaskID,
			Message:   a.Message(),
			TriggerAt: a.TriggerAt.UTC().Format(time.RFC3339),
			FiredAt:   a.FiredAt.UTC().Format(time.RFC3339),
		}
	}
	return out
}

func emptyAlertsOutput() alertsOutput {
	return alertsOutput{Alerts: []alertOutput{}}
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{
		MovesByStatus: make(map[string]int),
		AlertsByKind:  make(map[string]int),
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

func parseOptionalTime(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", field, err)
	}
	return &t, nil
}

// parseSince parses a human-friendly duration string like "7d", "30d", or "24h"
// into the corresponding time in the past.
func parseSince(s string) (time.Time, error) {
	now := time.Now().UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
