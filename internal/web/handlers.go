package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/valter-silva-au/weekboard/internal/core"
	"github.com/valter-silva-au/weekboard/internal/observability"
	"github.com/valter-silva-au/weekboard/pkg/models"
)

type createTaskRequest struct {
	Title         string                 `json:"title"`
	Description   string                 `json:"description"`
	Category      string                 `json:"category"`
	Bugged        bool                   `json:"bugged"`
	Priority      string                 `json:"priority"`
	WeeklyPlanID  *string                `json:"weekly_plan_id"`
	FormulaStepID *string                `json:"formula_step_id"`
	DueAt         *time.Time             `json:"due_at"`
	ReminderAt    *time.Time             `json:"reminder_at"`
	Recurrence    *models.RecurrenceRule `json:"recurrence"`
}

// moveRequest names what the task was dropped on: a card when OverTaskID is
// set, otherwise the Status column.
type moveRequest struct {
	OverTaskID string `json:"over_task_id"`
	Status     string `json:"status"`
}

type reorderRequest struct {
	TaskIDs []string `json:"task_ids" binding:"required"`
}

type forwardRequest struct {
	TaskIDs   []string   `json:"task_ids" binding:"required"`
	PlanID    string     `json:"plan_id"`
	WeekStart *time.Time `json:"week_start"`
	Title     string     `json:"title"`
}

type forwardItem struct {
	SourceID string       `json:"source_id"`
	Clone    *models.Task `json:"clone,omitempty"`
	Error    string       `json:"error,omitempty"`
}

type archiveRequest struct {
	Cutoff *time.Time `json:"cutoff"`
}

type createPlanRequest struct {
	Title     string    `json:"title"`
	WeekStart time.Time `json:"week_start" binding:"required"`
}

type createStepRequest struct {
	Name string `json:"name" binding:"required"`
	Rank int    `json:"rank"`
}

type dismissRequest struct {
	Kind string `json:"kind" binding:"required"`
	Key  string `json:"key" binding:"required"`
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrTaskNotFound), errors.Is(err, core.ErrPlanNotFound),
		errors.Is(err, observability.ErrUnknownAlert):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTaskComplete), errors.Is(err, core.ErrTaskDeleted),
		errors.Is(err, core.ErrAlreadyForwarded), errors.Is(err, core.ErrNotArchived),
		errors.Is(err, core.ErrDuplicatePlan):
		return http.StatusConflict
	case errors.Is(err, core.ErrNotInPartition), errors.Is(err, core.ErrInvalidPermutation),
		errors.Is(err, core.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, code int, err error) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

func (s *Server) withLock(fn func()) {
	s.lock.Lock()
	defer s.lock.Unlock()
	fn()
}

// viewFromQuery reads the view selection from the query string.
func viewFromQuery(c *gin.Context) (core.View, error) {
	v, err := core.ParseView(c.Query("view"), c.Query("plan"))
	if err != nil {
		return v, err
	}
	v.IncludeSuperseded = c.Query("superseded") == "true"
	return v, nil
}

func (s *Server) handleBoard(c *gin.Context) {
	v, err := viewFromQuery(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	mode := s.cfg.DefaultSort
	if q := c.Query("sort"); q != "" {
		if mode, err = core.ParseSortMode(q); err != nil {
			fail(c, http.StatusBadRequest, err)
			return
		}
	}

	var cols []core.Column
	s.withLock(func() { cols = s.engine.Columns(v, mode) })

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"view":    v.String(),
		"sort":    mode,
		"columns": cols,
	})
}

func (s *Server) handleRefresh(c *gin.Context) {
	var res *core.RefreshResult
	var err error
	s.withLock(func() {
		res, err = s.engine.Refresh(c.Request.Context(), s.cfg.WeekStartsOn, s.cfg.Location)
	})
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"cutoff":   res.Cutoff,
		"archived": res.Archived,
		"spawned":  res.Spawned,
	})
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	priority, err := models.ParsePriority(req.Priority)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}

	var t *models.Task
	s.withLock(func() {
		t, err = s.engine.AddTask(c.Request.Context(), core.NewTaskInput{
			Title:         req.Title,
			Description:   req.Description,
			Category:      req.Category,
			Bugged:        req.Bugged,
			Priority:      priority,
			WeeklyPlanID:  req.WeeklyPlanID,
			FormulaStepID: req.FormulaStepID,
			DueAt:         req.DueAt,
			ReminderAt:    req.ReminderAt,
			Recurrence:    req.Recurrence,
		})
	})
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": t})
}

func (s *Server) handleGetTask(c *gin.Context) {
	var t *models.Task
	var err error
	s.withLock(func() { t, err = s.engine.GetTask(c.Param("id")) })
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": t})
}

// handlePatchTask applies a partial update. Keys absent from the body are
// left alone; keys sent as null clear the field.
func (s *Server) handlePatchTask(c *gin.Context) {
	var patch models.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}

	var t *models.Task
	var err error
	s.withLock(func() { t, err = s.engine.UpdateTask(c.Request.Context(), c.Param("id"), patch) })
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": t})
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	var err error
	s.withLock(func() { err = s.engine.DeleteTask(c.Request.Context(), c.Param("id")) })
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Task deleted"})
}

func (s *Server) handleMoveTask(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	v, err := viewFromQuery(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}

	var target core.DropTarget
	switch {
	case req.OverTaskID != "":
		target = core.CardTarget(req.OverTaskID)
	case req.Status != "":
		status, err := models.ParseTaskStatus(req.Status)
		if err != nil {
			fail(c, http.StatusBadRequest, err)
			return
		}
		target = core.ColumnTarget(status)
	default:
		fail(c, http.StatusBadRequest, errors.New("one of over_task_id or status is required"))
		return
	}

	id := c.Param("id")
	var outcome core.DropOutcome
	var t *models.Task
	s.withLock(func() {
		outcome, err = s.engine.Move(c.Request.Context(), v, id, target)
		if err == nil {
			t = s.engine.Board().Task(id)
		}
	})
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "outcome": outcome.String(), "data": t})
}

func (s *Server) handleRestoreTask(c *gin.Context) {
	var t *models.Task
	var err error
	s.withLock(func() { t, err = s.engine.Restore(c.Request.Context(), c.Param("id")) })
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": t})
}

func (s *Server) handleReorder(c *gin.Context) {
	status, err := models.ParseTaskStatus(c.Param("status"))
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	v, err := viewFromQuery(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}

	var tasks []*models.Task
	s.withLock(func() {
		err = s.engine.ReorderPartition(c.Request.Context(), status, v, req.TaskIDs)
		tasks = s.engine.Board().Partition(status, v)
	})
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": status, "tasks": tasks})
}

func (s *Server) handleForward(c *gin.Context) {
	var req forwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	dest := core.ExistingPlan(req.PlanID)
	if req.WeekStart != nil {
		dest = core.NewPlan(*req.WeekStart, req.Title)
	}

	var report *core.ForwardReport
	var err error
	s.withLock(func() { report, err = s.engine.Forward(c.Request.Context(), req.TaskIDs, dest) })
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}

	items := make([]forwardItem, 0, len(report.Items))
	for _, it := range report.Items {
		fi := forwardItem{SourceID: it.SourceID, Clone: it.Clone}
		if it.Err != nil {
			fi.Error = it.Err.Error()
		}
		items = append(items, fi)
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   len(report.Failed()) == 0,
		"plan_id":   report.PlanID,
		"forwarded": len(report.Clones()),
		"items":     items,
	})
}

// handleArchive archives complete tasks created before the cutoff, which
// defaults to the start of the current planning period.
func (s *Server) handleArchive(c *gin.Context) {
	var req archiveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, err)
			return
		}
	}

	var ids []string
	var cutoff time.Time
	var err error
	s.withLock(func() {
		cutoff = core.PeriodStart(s.engine.Now(), s.cfg.WeekStartsOn, s.cfg.Location)
		if req.Cutoff != nil {
			cutoff = *req.Cutoff
		}
		ids, err = s.engine.Archive(c.Request.Context(), cutoff)
	})
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cutoff": cutoff, "archived": ids})
}

func (s *Server) handleListPlans(c *gin.Context) {
	var plans []*models.WeeklyPlan
	s.withLock(func() { plans = s.engine.Board().Plans() })
	c.JSON(http.StatusOK, gin.H{"success": true, "data": plans, "count": len(plans)})
}

func (s *Server) handleCreatePlan(c *gin.Context) {
	var req createPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	var p *models.WeeklyPlan
	var err error
	s.withLock(func() { p, err = s.engine.CreatePlan(c.Request.Context(), req.Title, req.WeekStart) })
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": p})
}

func (s *Server) handleListSteps(c *gin.Context) {
	var steps []*models.FormulaStep
	s.withLock(func() { steps = s.engine.Board().Steps() })
	c.JSON(http.StatusOK, gin.H{"success": true, "data": steps, "count": len(steps)})
}

func (s *Server) handleCreateStep(c *gin.Context) {
	var req createStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	var step *models.FormulaStep
	var err error
	s.withLock(func() { step, err = s.engine.AddStep(c.Request.Context(), req.Name, req.Rank) })
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": step})
}

func (s *Server) handleListAlerts(c *gin.Context) {
	var alerts []models.Alert
	var err error
	s.withLock(func() { alerts, err = s.alerts.Active() })
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": alerts, "count": len(alerts)})
}

func (s *Server) handleScanAlerts(c *gin.Context) {
	var fired []models.Alert
	var err error
	s.withLock(func() {
		b := s.engine.Board()
		fired, err = s.alerts.Scan(c.Request.Context(), s.engine.Now(), b.Tasks(), b.Complete())
	})
	if fired == nil {
		fired = []models.Alert{}
	}
	if err != nil {
		c.JSON(statusFor(err), gin.H{"success": false, "error": err.Error(), "data": fired})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": fired, "count": len(fired)})
}

func (s *Server) handleDismissAlert(c *gin.Context) {
	var req dismissRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	kind, err := models.ParseAlertKind(req.Kind)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	s.withLock(func() { err = s.alerts.Dismiss(kind, req.Key) })
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Alert dismissed"})
}

func (s *Server) handleMetrics(c *gin.Context) {
	if s.metrics == nil {
		fail(c, http.StatusNotFound, errors.New("metrics are not enabled"))
		return
	}
	var since time.Time
	if q := c.Query("since"); q != "" {
		var err error
		if since, err = time.Parse(time.RFC3339, q); err != nil {
			fail(c, http.StatusBadRequest, err)
			return
		}
	}
	m, err := s.metrics.Calculate(since)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": m})
}
