package dbmanager

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-management/pkg/config"
	apperrors "github.com/noah-isme/student-management/pkg/errors"
	"github.com/noah-isme/student-management/pkg/jobs"
)

type stubSettings struct {
	mu  sync.Mutex
	cfg config.DatabaseConfig
	err error
}

func (s *stubSettings) Load() (config.DatabaseConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg, s.err
}

func (s *stubSettings) set(cfg config.DatabaseConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

type stubResources map[string]string

func (r stubResources) Read(name string) (string, error) {
	text, ok := r[name]
	if !ok {
		return "", errors.New("missing " + name)
	}
	return text, nil
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp),
		sqlmock.MonitorPingsOption(true),
	)
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock
}

func newTestManager(t *testing.T, settings *stubSettings, db *sqlx.DB, resources stubResources) *Manager {
	m := New(Options{
		Settings: settings,
		Resources: func(string) (ResourceSource, error) {
			return resources, nil
		},
		Open: func(context.Context, config.DatabaseConfig, time.Duration) (*sqlx.DB, error) {
			if db == nil {
				return nil, errors.New("connection refused")
			}
			return db, nil
		},
		Interval: time.Hour,
	})
	m.Start(context.Background())
	t.Cleanup(m.Close)
	return m
}

func TestConnectMarksReadyAndEmitsTransition(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectClose()
	m := newTestManager(t, &stubSettings{cfg: config.DefaultDatabaseConfig()}, db, nil)

	assert.False(t, m.IsReady())
	m.Connect(context.Background())

	assert.True(t, m.IsReady())
	ev := m.LatestEvent()
	require.NotNil(t, ev)
	assert.Equal(t, EventConnectionChanged, ev.Kind)
	assert.True(t, ev.Success)

	// identical settings: no-op
	m.Connect(context.Background())
	assert.Equal(t, ev.ID, m.LatestEvent().ID)
}

func TestConnectFailureIsSwallowed(t *testing.T) {
	m := newTestManager(t, &stubSettings{cfg: config.DefaultDatabaseConfig()}, nil, nil)

	m.Connect(context.Background())
	assert.False(t, m.IsReady())
	assert.Nil(t, m.LatestEvent())

	_, err := m.DB()
	assert.ErrorIs(t, err, apperrors.ErrConnectionUnavailable)
}

func TestHealthCheckFailureEmitsOnce(t *testing.T) {
	db, mock := newMockDB(t)
	m := newTestManager(t, &stubSettings{cfg: config.DefaultDatabaseConfig()}, db, nil)
	m.Connect(context.Background())

	mock.ExpectPing().WillReturnError(errors.New("broken pipe"))
	mock.ExpectPing().WillReturnError(errors.New("broken pipe"))

	m.checkConnection(context.Background())
	first := m.LatestEvent()
	require.NotNil(t, first)
	assert.Equal(t, EventConnectionChanged, first.Kind)
	assert.False(t, first.Success)
	assert.False(t, m.IsReady())

	m.checkConnection(context.Background())
	assert.Equal(t, first.ID, m.LatestEvent().ID)

	mock.ExpectPing()
	mock.ExpectClose()
	m.checkConnection(context.Background())
	recovered := m.LatestEvent()
	assert.NotEqual(t, first.ID, recovered.ID)
	assert.True(t, recovered.Success)
	assert.True(t, m.IsReady())
}

func TestSettingsChangeSchedulesReinit(t *testing.T) {
	first, firstMock := newMockDB(t)
	firstMock.ExpectClose()
	second, secondMock := newMockDB(t)
	secondMock.ExpectClose()

	settings := &stubSettings{cfg: config.DefaultDatabaseConfig()}
	var mu sync.Mutex
	pools := []*sqlx.DB{first, second}
	m := New(Options{
		Settings: settings,
		Open: func(context.Context, config.DatabaseConfig, time.Duration) (*sqlx.DB, error) {
			mu.Lock()
			defer mu.Unlock()
			db := pools[0]
			pools = pools[1:]
			return db, nil
		},
		Interval: time.Hour,
	})
	m.Start(context.Background())
	defer m.Close()

	m.Connect(context.Background())
	changed := config.DefaultDatabaseConfig()
	changed.Port = 3309
	settings.set(changed)

	m.checkConnection(context.Background())
	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.initialized && m.current != nil && m.current.Port == 3309
	}, time.Second, 10*time.Millisecond)
	assert.NoError(t, firstMock.ExpectationsWereMet())
}

func TestDisposeIsIdempotent(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectClose()
	m := newTestManager(t, &stubSettings{cfg: config.DefaultDatabaseConfig()}, db, nil)
	m.Connect(context.Background())

	m.Dispose()
	m.Dispose()
	assert.False(t, m.IsReady())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDisposeDuringConnectDiscardsNewPool(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectClose()

	opening := make(chan struct{})
	release := make(chan struct{})
	m := New(Options{
		Settings: &stubSettings{cfg: config.DefaultDatabaseConfig()},
		Open: func(context.Context, config.DatabaseConfig, time.Duration) (*sqlx.DB, error) {
			close(opening)
			<-release
			return db, nil
		},
		Interval: time.Millisecond,
	})
	m.Start(context.Background())
	t.Cleanup(m.Close)

	connected := make(chan struct{})
	go func() {
		defer close(connected)
		m.Connect(context.Background())
	}()

	<-opening
	m.Dispose()
	close(release)
	<-connected

	assert.False(t, m.IsReady())
	assert.Empty(t, m.Driver())
	_, err := m.DB()
	assert.ErrorIs(t, err, apperrors.ErrConnectionUnavailable)

	m.mu.Lock()
	monitorRunning := m.monitorCancel != nil
	m.mu.Unlock()
	assert.False(t, monitorRunning)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminActionsRequireReady(t *testing.T) {
	m := newTestManager(t, &stubSettings{cfg: config.DefaultDatabaseConfig()}, nil, nil)

	cases := map[Action]EventKind{
		ActionInitialize: EventInitializationCompleted,
		ActionReset:      EventResetCompleted,
		ActionDemoData:   EventDemoDataLoaded,
	}
	for action, kind := range cases {
		err := m.Run(context.Background(), action)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrConnectionUnavailable)

		ev := m.LatestEvent()
		require.NotNil(t, ev)
		assert.Equal(t, kind, ev.Kind)
		assert.False(t, ev.Success)
		assert.Contains(t, ev.Message, "Database not connected")
	}
}

func TestInitializeDatabaseRunsSchemaAndObjects(t *testing.T) {
	db, mock := newMockDB(t)
	resources := stubResources{
		"schema":             "CREATE TABLE a (id INT);\nCREATE TABLE b (id INT);",
		"course_objects":     "-- views\nCREATE VIEW v AS SELECT 1;\nDELIMITER //\nCREATE PROCEDURE p() BEGIN SELECT 1; END //\nDELIMITER ;",
		"enrollment_objects": "CREATE VIEW e AS SELECT 2",
		"student_objects":    "CREATE VIEW s AS SELECT 3",
	}
	m := newTestManager(t, &stubSettings{cfg: config.DefaultDatabaseConfig()}, db, resources)
	m.Connect(context.Background())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE a (id INT)")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE b (id INT)")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE VIEW v AS SELECT 1")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE PROCEDURE p() BEGIN SELECT 1; END")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec("CREATE VIEW e").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec("CREATE VIEW s").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectClose()

	require.NoError(t, m.InitializeDatabase(context.Background()))
	ev := m.LatestEvent()
	assert.Equal(t, EventInitializationCompleted, ev.Kind)
	assert.True(t, ev.Success)
	assert.Equal(t, "Database initialized successfully", ev.Message)
}

func TestResetFailureOfInnerInitializeFailsReset(t *testing.T) {
	db, mock := newMockDB(t)
	resources := stubResources{
		"drop_tables": "DROP TABLE IF EXISTS a",
		"schema":      "CREATE TABLE a (id INT)",
	}
	m := newTestManager(t, &stubSettings{cfg: config.DefaultDatabaseConfig()}, db, resources)
	m.Connect(context.Background())

	mock.ExpectBegin()
	mock.ExpectExec("DROP TABLE IF EXISTS a").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE a (id INT)")).WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()
	mock.ExpectClose()

	err := m.ResetDatabase(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStorage)

	ev := m.LatestEvent()
	assert.Equal(t, EventResetCompleted, ev.Kind)
	assert.False(t, ev.Success)
	assert.Contains(t, ev.Message, "Failed to reset database")
}

func TestSubmitRunsTrackedTask(t *testing.T) {
	db, mock := newMockDB(t)
	resources := stubResources{"demo_data": "INSERT INTO a VALUES (1);\nINSERT INTO a VALUES (2);"}
	m := newTestManager(t, &stubSettings{cfg: config.DefaultDatabaseConfig()}, db, resources)
	m.Connect(context.Background())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO a VALUES (1)")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO a VALUES (2)")).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()
	mock.ExpectClose()

	id, err := m.Submit(ActionDemoData)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.Eventually(t, func() bool {
		ev := m.LatestEvent()
		return ev != nil && ev.Kind == EventDemoDataLoaded
	}, time.Second, 10*time.Millisecond)
	assert.True(t, m.LatestEvent().Success)
	require.Eventually(t, func() bool {
		st, err := m.Task(id)
		return err == nil && st.State == jobs.StateSucceeded
	}, time.Second, 10*time.Millisecond)

	_, err = m.Task("unknown")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = m.Submit(Action("shutdown"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestTestConnectionNeverTouchesActivePool(t *testing.T) {
	var probed config.DatabaseConfig
	m := New(Options{
		Probe: func(_ context.Context, cfg config.DatabaseConfig, timeout time.Duration) error {
			probed = cfg
			assert.Equal(t, 5*time.Second, timeout)
			if cfg.Host == "down" {
				return errors.New("timeout")
			}
			return nil
		},
	})

	cfg := config.DefaultDatabaseConfig()
	assert.True(t, m.TestConnection(context.Background(), cfg))
	assert.Equal(t, cfg, probed)

	cfg.Host = "down"
	assert.False(t, m.TestConnection(context.Background(), cfg))
	assert.False(t, m.IsReady())
}

func TestSubscribersReplayLatestEvent(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectClose()
	m := newTestManager(t, &stubSettings{cfg: config.DefaultDatabaseConfig()}, db, nil)
	m.Connect(context.Background())

	sub := m.SubscribeEvents()
	defer sub.Cancel()
	select {
	case ev := <-sub.C():
		require.NotNil(t, ev)
		assert.Equal(t, EventConnectionChanged, ev.Kind)
	case <-time.After(time.Second):
		t.Fatal("late subscriber did not receive the latest event")
	}
}
