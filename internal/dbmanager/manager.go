// Package dbmanager owns the pooled database connection, its health monitor and the
// administrative schema actions, and broadcasts their outcomes as events.
package dbmanager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/student-management/internal/metrics"
	"github.com/noah-isme/student-management/pkg/config"
	"github.com/noah-isme/student-management/pkg/database"
	apperrors "github.com/noah-isme/student-management/pkg/errors"
	"github.com/noah-isme/student-management/pkg/jobs"
	"github.com/noah-isme/student-management/pkg/observable"
)

const (
	defaultInterval       = 5 * time.Second
	defaultCheckTimeout   = time.Second
	defaultConnectTimeout = 5 * time.Second

	jobConnect = "connect"
	jobAdmin   = "admin"
)

// SettingsLoader supplies the latest persisted connection settings.
type SettingsLoader interface {
	Load() (config.DatabaseConfig, error)
}

// ResourceSource returns the raw text of a named SQL resource.
type ResourceSource interface {
	Read(name string) (string, error)
}

// ResourceResolver selects the resource source for a configured driver.
type ResourceResolver func(driver string) (ResourceSource, error)

// Opener builds a pool for cfg that has answered a ping within timeout.
type Opener func(ctx context.Context, cfg config.DatabaseConfig, timeout time.Duration) (*sqlx.DB, error)

// Prober checks reachability of cfg without keeping a pool.
type Prober func(ctx context.Context, cfg config.DatabaseConfig, timeout time.Duration) error

// Options configures a Manager. Zero durations take the defaults.
type Options struct {
	Settings  SettingsLoader
	Resources ResourceResolver
	Open      Opener
	Probe     Prober
	Logger    *zap.Logger
	Metrics   *metrics.Metrics

	Interval       time.Duration
	CheckTimeout   time.Duration
	ConnectTimeout time.Duration
}

// Manager is the single owner of the connection pool and its configuration.
type Manager struct {
	settings  SettingsLoader
	resources ResourceResolver
	open      Opener
	probe     Prober
	logger    *zap.Logger
	metrics   *metrics.Metrics

	interval       time.Duration
	checkTimeout   time.Duration
	connectTimeout time.Duration

	connectMu sync.Mutex

	mu            sync.Mutex
	db            *sqlx.DB
	current       *config.DatabaseConfig
	initialized   bool
	generation    uint64
	monitorCancel context.CancelFunc
	monitorDone   chan struct{}

	transitionMu sync.Mutex
	status       *observable.Value[bool]
	events       *observable.Value[*Event]

	tasks *jobs.Queue
}

// New constructs a Manager. Call Start before Init or Submit.
func New(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Open == nil {
		opts.Open = database.Open
	}
	if opts.Probe == nil {
		opts.Probe = database.TestConnection
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.CheckTimeout <= 0 {
		opts.CheckTimeout = defaultCheckTimeout
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}

	m := &Manager{
		settings:       opts.Settings,
		resources:      opts.Resources,
		open:           opts.Open,
		probe:          opts.Probe,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
		interval:       opts.Interval,
		checkTimeout:   opts.CheckTimeout,
		connectTimeout: opts.ConnectTimeout,
		status:         observable.NewValue(false),
		events:         observable.NewValue[*Event](nil),
	}
	m.tasks = jobs.NewQueue("dbmanager", m.handle, jobs.QueueConfig{
		Workers:    2,
		BufferSize: 16,
		Logger:     opts.Logger,
	})
	return m
}

// Start launches the background task workers.
func (m *Manager) Start(ctx context.Context) {
	m.tasks.Start(ctx)
}

// Init schedules a (re)connect with the latest stored settings. Failures are only
// observable through the connection status and the logs.
func (m *Manager) Init() {
	if _, err := m.tasks.TryEnqueue(jobs.Job{Type: jobConnect}); err != nil {
		m.logger.Warn("failed to schedule database init", zap.Error(err))
	}
}

// Connect establishes the pool synchronously. It is a no-op when already initialized
// with identical settings, and disposes the previous pool before opening a new one.
func (m *Manager) Connect(ctx context.Context) {
	m.connectMu.Lock()
	defer m.connectMu.Unlock()

	if m.settings == nil {
		m.logger.Warn("database settings not configured")
		m.setConnected(false, "Database settings not found")
		return
	}
	cfg, err := m.settings.Load()
	if err != nil {
		m.logger.Error("failed to load database settings", zap.Error(err))
		m.setConnected(false, "Database settings not found")
		return
	}

	m.mu.Lock()
	unchanged := m.initialized && m.current != nil && m.current.Equal(cfg)
	m.mu.Unlock()
	if unchanged {
		return
	}

	gen := m.dispose()

	db, err := m.open(ctx, cfg, m.connectTimeout)
	if err != nil {
		m.logger.Error("failed to connect to database",
			zap.String("driver", cfg.Driver),
			zap.String("host", cfg.Address()),
			zap.Error(err),
		)
		m.setConnected(false, fmt.Sprintf("Failed to connect to database: %v", err))
		return
	}

	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		m.logger.Info("database disposed while connecting, discarding new pool", zap.String("driver", cfg.Driver))
		if err := db.Close(); err != nil {
			m.logger.Warn("failed to close database pool", zap.Error(err))
		}
		return
	}
	m.db = db
	m.current = &cfg
	m.initialized = true
	m.startMonitorLocked()
	m.mu.Unlock()

	m.logger.Info("database connected", zap.String("driver", cfg.Driver), zap.String("host", cfg.Address()))
	m.setConnected(true, "Connection established")
}

// TestConnection reports whether cfg is reachable. The active pool is never touched.
func (m *Manager) TestConnection(ctx context.Context, cfg config.DatabaseConfig) bool {
	if err := m.probe(ctx, cfg, m.connectTimeout); err != nil {
		m.logger.Warn("test connection failed", zap.String("driver", cfg.Driver), zap.String("host", cfg.Address()), zap.Error(err))
		return false
	}
	return true
}

// IsReady is true when initialization succeeded and the last check passed.
func (m *Manager) IsReady() bool {
	m.mu.Lock()
	initialized := m.initialized
	m.mu.Unlock()
	return initialized && m.status.Get()
}

// DB returns the active pool, or ErrConnectionUnavailable when not ready.
func (m *Manager) DB() (*sqlx.DB, error) {
	if !m.IsReady() {
		return nil, apperrors.ErrConnectionUnavailable
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil {
		return nil, apperrors.ErrConnectionUnavailable
	}
	return m.db, nil
}

// Driver reports the driver of the active configuration, or "" when disconnected.
func (m *Manager) Driver() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ""
	}
	return m.current.Driver
}

// Dispose stops the monitor, then closes the pool. A connect still in progress
// discards the pool it opens. Safe to call repeatedly.
func (m *Manager) Dispose() {
	m.dispose()
}

// dispose tears down the active pool and returns the new generation.
func (m *Manager) dispose() uint64 {
	m.mu.Lock()
	m.generation++
	gen := m.generation
	cancel, done, db := m.monitorCancel, m.monitorDone, m.db
	m.monitorCancel, m.monitorDone, m.db = nil, nil, nil
	m.current = nil
	m.initialized = false
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	if db != nil {
		if err := db.Close(); err != nil {
			m.logger.Warn("failed to close database pool", zap.Error(err))
		}
		m.setConnected(false, "Connection closed")
	}
	return gen
}

// Close joins outstanding tasks, disposes the pool and ends all subscriptions.
func (m *Manager) Close() {
	m.tasks.Stop()
	m.Dispose()
	m.status.Close()
	m.events.Close()
}

// Connected returns the last known connection status.
func (m *Manager) Connected() bool {
	return m.status.Get()
}

// LatestEvent returns the most recent event, or nil before the first one.
func (m *Manager) LatestEvent() *Event {
	return m.events.Get()
}

// SubscribeStatus streams connection status, starting with the current value.
func (m *Manager) SubscribeStatus() *observable.Subscription[bool] {
	return m.status.Subscribe()
}

// SubscribeEvents streams events, starting with the latest one (possibly nil).
func (m *Manager) SubscribeEvents() *observable.Subscription[*Event] {
	return m.events.Subscribe()
}

func (m *Manager) emit(kind EventKind, success bool, message string) {
	m.events.Set(newEvent(kind, success, message))
	m.metrics.RecordEvent(string(kind), success)
}

func (m *Manager) resourceSource() (ResourceSource, error) {
	if m.resources == nil {
		return nil, errors.New("no sql resources configured")
	}
	return m.resources(m.Driver())
}

func (m *Manager) handle(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case jobConnect:
		m.Connect(ctx)
	case jobAdmin:
		action, ok := job.Payload.(Action)
		if !ok {
			return fmt.Errorf("unexpected admin payload %T", job.Payload)
		}
		return m.Run(ctx, action)
	default:
		return fmt.Errorf("unknown job type %q", job.Type)
	}
	return nil
}
