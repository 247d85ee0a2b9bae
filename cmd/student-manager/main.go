package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	sqlassets "github.com/noah-isme/student-management/assets/sql"
	"github.com/noah-isme/student-management/internal/dbmanager"
	"github.com/noah-isme/student-management/internal/handler"
	"github.com/noah-isme/student-management/internal/metrics"
	"github.com/noah-isme/student-management/internal/repository"
	"github.com/noah-isme/student-management/internal/viewstate"
	"github.com/noah-isme/student-management/pkg/config"
	"github.com/noah-isme/student-management/pkg/logger"
	"github.com/noah-isme/student-management/pkg/observable"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	settings, err := config.NewSettingsStore(cfg.SettingsFile, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to open database settings", "path", cfg.SettingsFile, "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	manager := dbmanager.New(dbmanager.Options{
		Settings:       settings,
		Resources:      resourceResolver(cfg.SQLDialect),
		Logger:         logr,
		Metrics:        m,
		Interval:       cfg.Monitor.Interval,
		CheckTimeout:   cfg.Monitor.CheckTimeout,
		ConnectTimeout: cfg.Monitor.TestConnectionTimeout,
	})
	manager.Start(ctx)
	manager.Init()
	settings.Watch(func(config.DatabaseConfig) { manager.Init() })

	repoOpts := repository.Options{Logger: logr, Metrics: m}
	viewOpts := viewstate.Options{Logger: logr}

	students := viewstate.NewStudentController(manager, repository.NewStudentRepository(manager, repoOpts), viewOpts)
	courses := viewstate.NewCourseController(manager, repository.NewCourseRepository(manager, repoOpts), viewOpts)
	instructors := viewstate.NewInstructorController(manager, repository.NewInstructorRepository(manager, repoOpts), viewOpts)
	attendance := viewstate.NewAttendanceController(manager, repository.NewAttendanceRepository(manager, repoOpts), viewOpts)

	go logState(ctx, logr, "students", students.Subscribe())
	go logState(ctx, logr, "courses", courses.Subscribe())
	go logState(ctx, logr, "instructors", instructors.Subscribe())
	go logState(ctx, logr, "attendance", attendance.Subscribe())

	var srv *http.Server
	if cfg.Status.Enabled {
		if cfg.Env == config.EnvProduction {
			gin.SetMode(gin.ReleaseMode)
		}
		srv = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Status.Port),
			Handler:           handler.NewRouter(manager, settings, m, logr),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logr.Sugar().Infow("status server starting", "addr", srv.Addr, "env", cfg.Env)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logr.Sugar().Errorw("status server failed", "error", err)
				stop()
			}
		}()
	}

	logr.Info("student manager running", zap.String("settings", settings.Path()))
	<-ctx.Done()
	logr.Info("shutting down")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logr.Warn("status server shutdown", zap.Error(err))
		}
		cancel()
	}

	students.Close()
	courses.Close()
	instructors.Close()
	attendance.Close()
	manager.Close()
}

// resourceResolver picks the SQL dialect from the active driver unless dialect overrides it.
func resourceResolver(dialect string) dbmanager.ResourceResolver {
	return func(driver string) (dbmanager.ResourceSource, error) {
		if dialect != "" {
			driver = dialect
		}
		src, err := sqlassets.NewSource(driver)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
}

func logState[T any](ctx context.Context, logr *zap.Logger, name string, sub *observable.Subscription[viewstate.State[T]]) {
	defer sub.Cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-sub.C():
			if !ok {
				return
			}
			if s.Loading {
				continue
			}
			if s.Error != "" {
				logr.Warn("view state error", zap.String("view", name), zap.String("error", s.Error))
				continue
			}
			logr.Debug("view state updated", zap.String("view", name), zap.Int("items", len(s.Items)))
		}
	}
}
