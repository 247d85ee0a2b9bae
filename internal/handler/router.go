package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/student-management/internal/metrics"
	"github.com/noah-isme/student-management/internal/middleware"
	"github.com/noah-isme/student-management/pkg/logger"
	"github.com/noah-isme/student-management/pkg/middleware/requestid"
)

// NewRouter wires the status endpoints.
func NewRouter(manager ConnectionManager, settings SettingsSaver, m *metrics.Metrics, logr *zap.Logger) *gin.Engine {
	h := NewStatusHandler(manager, settings, m)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestid.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(m))

	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	r.GET("/metrics", h.Prometheus)
	r.GET("/events/latest", h.LatestEvent)
	r.POST("/settings/test", h.TestSettings)
	r.PUT("/settings", h.SaveSettings)
	r.POST("/admin/:action", h.RunAction)
	r.GET("/admin/tasks/:id", h.TaskStatus)

	return r
}
