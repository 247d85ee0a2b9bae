package logger

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/noah-isme/student-management/pkg/config"
	"github.com/noah-isme/student-management/pkg/middleware/requestid"
)

// New builds the process logger. Production defaults to JSON and development to
// coloured console output; LOG_FORMAT overrides either.
func New(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	encoding := "console"
	if cfg.Env == config.EnvProduction {
		zapCfg = zap.NewProductionConfig()
		encoding = "json"
	}
	if cfg.Log.Format == "json" || cfg.Log.Format == "console" {
		encoding = cfg.Log.Format
	}

	zapCfg.Encoding = encoding
	if encoding == "console" && cfg.Env != config.EnvProduction {
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zapCfg.Level = zap.NewAtomicLevelAt(levelOf(cfg.Log.Level, zapCfg.Level.Level()))
	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapCfg.Build()
}

// unknown levels fall back to info
func levelOf(raw string, fallback zapcore.Level) zapcore.Level {
	if raw == "" {
		return fallback
	}
	lvl, err := zapcore.ParseLevel(raw)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// Critical logs at error level with a marker field for data-integrity failures.
func Critical(l *zap.Logger, msg string, fields ...zap.Field) {
	l.Error(msg, append(fields, zap.Bool("critical", true))...)
}

// GinMiddleware logs each status server request. Server errors are raised to warn.
func GinMiddleware(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := l.Debug
		if status >= http.StatusInternalServerError {
			entry = l.Warn
		}
		entry("http_request",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", requestid.Value(c)),
		)
	}
}
