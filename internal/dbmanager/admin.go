package dbmanager

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	sqlassets "github.com/noah-isme/student-management/assets/sql"
	apperrors "github.com/noah-isme/student-management/pkg/errors"
	"github.com/noah-isme/student-management/pkg/jobs"
)

// Action names an administrative operation that can be run as a tracked task.
type Action string

const (
	ActionInitialize Action = "initialize"
	ActionReset      Action = "reset"
	ActionDemoData   Action = "demo_data"
)

// ParseAction converts a raw action name.
func ParseAction(raw string) (Action, error) {
	switch a := Action(raw); a {
	case ActionInitialize, ActionReset, ActionDemoData:
		return a, nil
	default:
		return "", apperrors.Clone(apperrors.ErrInvalidArgument, fmt.Sprintf("unknown action %q", raw))
	}
}

type adminSpec struct {
	kind       EventKind
	verb       string
	successMsg string
	failPrefix string
}

var adminSpecs = map[Action]adminSpec{
	ActionInitialize: {EventInitializationCompleted, "initialize", "Database initialized successfully", "Failed to initialize database"},
	ActionReset:      {EventResetCompleted, "reset", "Database reset successfully", "Failed to reset database"},
	ActionDemoData:   {EventDemoDataLoaded, "load demo data", "Demo data loaded successfully", "Failed to load demo data"},
}

// InitializeDatabase creates the schema and every database object.
func (m *Manager) InitializeDatabase(ctx context.Context) error {
	return m.Run(ctx, ActionInitialize)
}

// ResetDatabase drops every table and object, then initializes again.
func (m *Manager) ResetDatabase(ctx context.Context) error {
	return m.Run(ctx, ActionReset)
}

// LoadDemoData inserts the demo records.
func (m *Manager) LoadDemoData(ctx context.Context) error {
	return m.Run(ctx, ActionDemoData)
}

// Submit schedules action on the manager's task workers and returns the task ID.
// Close waits for submitted tasks that are already running.
func (m *Manager) Submit(action Action) (string, error) {
	if _, ok := adminSpecs[action]; !ok {
		return "", apperrors.Clone(apperrors.ErrInvalidArgument, fmt.Sprintf("unknown action %q", action))
	}
	id, err := m.tasks.Enqueue(jobs.Job{Type: jobAdmin, Payload: action})
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrInternal.Code, "failed to schedule action")
	}
	return id, nil
}

// Task returns the tracked state of a submitted action.
func (m *Manager) Task(id string) (jobs.Status, error) {
	st, ok := m.tasks.Status(id)
	if !ok {
		return jobs.Status{}, apperrors.Clone(apperrors.ErrNotFound, fmt.Sprintf("task %s not found", id))
	}
	return st, nil
}

// Run executes action and emits exactly one terminal event describing the outcome.
func (m *Manager) Run(ctx context.Context, action Action) error {
	spec, ok := adminSpecs[action]
	if !ok {
		return apperrors.Clone(apperrors.ErrInvalidArgument, fmt.Sprintf("unknown action %q", action))
	}

	db, err := m.DB()
	if err != nil {
		msg := fmt.Sprintf("Database not connected. Cannot %s.", spec.verb)
		m.logger.Warn("admin action rejected", zap.String("action", string(action)), zap.String("reason", msg))
		m.emit(spec.kind, false, msg)
		return apperrors.Clone(apperrors.ErrConnectionUnavailable, msg)
	}

	start := time.Now()
	switch action {
	case ActionInitialize:
		err = m.initialize(ctx, db)
	case ActionReset:
		err = m.reset(ctx, db)
	case ActionDemoData:
		err = m.loadDemoData(ctx, db)
	}
	m.metrics.ObserveAdmin(string(action), time.Since(start))

	if err != nil {
		msg := fmt.Sprintf("%s: %v", spec.failPrefix, err)
		m.logger.Error("admin action failed", zap.String("action", string(action)), zap.Error(err))
		m.emit(spec.kind, false, msg)
		return apperrors.Wrap(err, apperrors.ErrStorage.Code, msg)
	}

	m.logger.Info("admin action completed", zap.String("action", string(action)))
	m.emit(spec.kind, true, spec.successMsg)
	return nil
}

func (m *Manager) initialize(ctx context.Context, db *sqlx.DB) error {
	src, err := m.resourceSource()
	if err != nil {
		return err
	}

	schema, err := src.Read(sqlassets.Schema)
	if err != nil {
		return err
	}
	if err := execBatch(ctx, db, SplitStatements(schema)); err != nil {
		return fmt.Errorf("schema: %w", err)
	}

	for _, name := range sqlassets.ObjectResources {
		script, err := src.Read(name)
		if err != nil {
			return err
		}
		if err := execBatch(ctx, db, ParseObjectStatements(script)); err != nil {
			return fmt.Errorf("process %s: %w", name, err)
		}
		m.logger.Debug("database objects created", zap.String("resource", name))
	}
	return nil
}

func (m *Manager) reset(ctx context.Context, db *sqlx.DB) error {
	src, err := m.resourceSource()
	if err != nil {
		return err
	}
	script, err := src.Read(sqlassets.DropTables)
	if err != nil {
		return err
	}
	if err := execBatch(ctx, db, SplitStatements(script)); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	if err := m.initialize(ctx, db); err != nil {
		return fmt.Errorf("reinitialize after reset: %w", err)
	}
	return nil
}

func (m *Manager) loadDemoData(ctx context.Context, db *sqlx.DB) error {
	src, err := m.resourceSource()
	if err != nil {
		return err
	}
	script, err := src.Read(sqlassets.DemoData)
	if err != nil {
		return err
	}
	return execBatch(ctx, db, SplitStatements(script))
}

// execBatch runs statements in one transaction. Engines that auto-commit DDL
// still stop at the first failing statement.
func execBatch(ctx context.Context, db *sqlx.DB, statements []string) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", abbreviate(stmt), err)
		}
	}
	return tx.Commit()
}

func abbreviate(stmt string) string {
	const limit = 60
	if len(stmt) <= limit {
		return stmt
	}
	return stmt[:limit] + "..."
}
