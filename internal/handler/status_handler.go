package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-management/internal/dbmanager"
	"github.com/noah-isme/student-management/internal/metrics"
	"github.com/noah-isme/student-management/pkg/config"
	appErrors "github.com/noah-isme/student-management/pkg/errors"
	"github.com/noah-isme/student-management/pkg/jobs"
	"github.com/noah-isme/student-management/pkg/response"
)

// ConnectionManager is what the status endpoints read from and act on.
type ConnectionManager interface {
	IsReady() bool
	Driver() string
	LatestEvent() *dbmanager.Event
	Submit(action dbmanager.Action) (string, error)
	Task(id string) (jobs.Status, error)
	TestConnection(ctx context.Context, cfg config.DatabaseConfig) bool
	Init()
}

// SettingsSaver persists database settings.
type SettingsSaver interface {
	Save(cfg config.DatabaseConfig) error
}

// StatusHandler exposes connection health, events, settings and admin actions.
type StatusHandler struct {
	manager  ConnectionManager
	settings SettingsSaver
	metrics  *metrics.Metrics
}

// NewStatusHandler constructs a StatusHandler.
func NewStatusHandler(manager ConnectionManager, settings SettingsSaver, m *metrics.Metrics) *StatusHandler {
	return &StatusHandler{manager: manager, settings: settings, metrics: m}
}

// Health responds with a generic OK payload for liveness checks.
func (h *StatusHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports 200 only while the database connection is usable.
func (h *StatusHandler) Ready(c *gin.Context) {
	if !h.manager.IsReady() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "driver": h.manager.Driver()})
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *StatusHandler) Prometheus(c *gin.Context) {
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// LatestEvent returns the most recent connection manager event.
func (h *StatusHandler) LatestEvent(c *gin.Context) {
	ev := h.manager.LatestEvent()
	if ev == nil {
		c.Status(http.StatusNoContent)
		return
	}
	response.JSON(c, http.StatusOK, ev)
}

// RunAction schedules an admin action and returns its task ID.
func (h *StatusHandler) RunAction(c *gin.Context) {
	action, err := dbmanager.ParseAction(c.Param("action"))
	if err != nil {
		response.Error(c, err)
		return
	}
	taskID, err := h.manager.Submit(action)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, gin.H{"taskId": taskID, "action": action})
}

// TaskStatus reports the state of a previously scheduled admin action.
func (h *StatusHandler) TaskStatus(c *gin.Context) {
	st, err := h.manager.Task(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, st)
}

// TestSettings checks whether the posted settings can reach a database.
func (h *StatusHandler) TestSettings(c *gin.Context) {
	cfg, ok := bindSettings(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"reachable": h.manager.TestConnection(c.Request.Context(), cfg)})
}

// SaveSettings stores the posted settings and reconnects with them.
func (h *StatusHandler) SaveSettings(c *gin.Context) {
	cfg, ok := bindSettings(c)
	if !ok {
		return
	}
	if err := h.settings.Save(cfg); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to save settings"))
		return
	}
	h.manager.Init()
	response.Accepted(c, gin.H{"saved": true, "driver": cfg.Driver, "host": cfg.Address()})
}

func bindSettings(c *gin.Context) (config.DatabaseConfig, bool) {
	var cfg config.DatabaseConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidArgument, "invalid settings payload"))
		return cfg, false
	}
	if err := cfg.Validate(); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return cfg, false
	}
	return cfg, true
}
