// Package web serves the board's HTTP JSON API.
package web

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/valter-silva-au/weekboard/internal/core"
	"github.com/valter-silva-au/weekboard/internal/observability"
)

// Config carries the board settings the handlers need.
type Config struct {
	DefaultSort  core.SortMode
	WeekStartsOn time.Weekday
	Location     *time.Location
}

// Server is the board's HTTP server. Every handler holds lock for the
// duration of its engine access, so the engine sees a single writer.
type Server struct {
	engine  *core.Engine
	alerts  observability.AlertDeduplicator
	metrics observability.MetricsCalculator
	lock    sync.Locker
	cfg     Config
	router  *gin.Engine
}

// NewServer creates the server and registers its routes. lock is shared with
// any background work on the same engine, such as the alert watcher.
func NewServer(engine *core.Engine, alerts observability.AlertDeduplicator, metrics observability.MetricsCalculator, lock sync.Locker, cfg Config) *Server {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if lock == nil {
		lock = &sync.Mutex{}
	}

	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		engine:  engine,
		alerts:  alerts,
		metrics: metrics,
		lock:    lock,
		cfg:     cfg,
		router:  router,
	}

	api := router.Group("/api")
	{
		api.GET("/board", s.handleBoard)
		api.POST("/refresh", s.handleRefresh)

		api.POST("/tasks", s.handleCreateTask)
		api.GET("/tasks/:id", s.handleGetTask)
		api.PATCH("/tasks/:id", s.handlePatchTask)
		api.DELETE("/tasks/:id", s.handleDeleteTask)
		api.POST("/tasks/:id/move", s.handleMoveTask)
		api.POST("/tasks/:id/restore", s.handleRestoreTask)
		api.POST("/partitions/:status/reorder", s.handleReorder)

		api.POST("/forward", s.handleForward)
		api.POST("/archive", s.handleArchive)

		api.GET("/plans", s.handleListPlans)
		api.POST("/plans", s.handleCreatePlan)
		api.GET("/steps", s.handleListSteps)
		api.POST("/steps", s.handleCreateStep)

		api.GET("/alerts", s.handleListAlerts)
		api.POST("/alerts/scan", s.handleScanAlerts)
		api.POST("/alerts/dismiss", s.handleDismissAlert)

		api.GET("/metrics", s.handleMetrics)
	}

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() *gin.Engine {
	return s.router
}

// Run starts the server on addr.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}
