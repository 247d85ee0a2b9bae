package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/student-management/internal/metrics"
	"github.com/noah-isme/student-management/internal/models"
	"github.com/noah-isme/student-management/pkg/database"
	apperrors "github.com/noah-isme/student-management/pkg/errors"
	"github.com/noah-isme/student-management/pkg/logger"
)

const dateLayout = "2006-01-02"

// Connection is the part of the connection manager repositories depend on.
type Connection interface {
	IsReady() bool
	DB() (*sqlx.DB, error)
}

// Options carries the collaborators shared by every repository.
type Options struct {
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Clock   models.Clock
}

type base struct {
	name    string
	conn    Connection
	logger  *zap.Logger
	metrics *metrics.Metrics
	clock   models.Clock
}

func newBase(name string, conn Connection, opts Options) base {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = models.SystemClock{}
	}
	return base{name: name, conn: conn, logger: opts.Logger, metrics: opts.Metrics, clock: opts.Clock}
}

func (b *base) db() (*sqlx.DB, error) {
	if b.conn == nil || !b.conn.IsReady() {
		return nil, apperrors.ErrConnectionUnavailable
	}
	return b.conn.DB()
}

// withTx runs fn in a transaction that commits only when fn succeeds.
func (b *base) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	db, err := b.db()
	if err != nil {
		return err
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// finish logs and records the outcome of op and converts err into a typed error.
func (b *base) finish(op string, start time.Time, err error, fallback string, fields ...zap.Field) error {
	fields = append(fields, zap.String("repository", b.name), zap.String("operation", op))
	if err == nil {
		b.logger.Info(b.name+" "+op+" succeeded", fields...)
		b.metrics.ObserveOperation(b.name, op, "ok", time.Since(start))
		return nil
	}

	typed := classify(err, fallback)
	fields = append(fields, zap.String("code", typed.Code), zap.Error(err))
	switch typed.Code {
	case apperrors.ErrNotFound.Code, apperrors.ErrValidation.Code, apperrors.ErrConnectionUnavailable.Code:
		b.logger.Warn(b.name+" "+op+" rejected", fields...)
	case apperrors.ErrInvalidEnum.Code:
		logger.Critical(b.logger, "corrupt "+b.name+" row", fields...)
	default:
		b.logger.Error(b.name+" "+op+" failed", fields...)
	}
	b.metrics.ObserveOperation(b.name, op, typed.Code, time.Since(start))
	return typed
}

func classify(err error, fallback string) *apperrors.Error {
	var typed *apperrors.Error
	if errors.As(err, &typed) {
		return typed
	}
	var enumErr *models.InvalidEnumValueError
	if errors.As(err, &enumErr) {
		return apperrors.Wrap(err, apperrors.ErrInvalidEnum.Code, enumErr.Error())
	}
	switch {
	case database.IsUniqueViolation(err):
		return apperrors.Wrap(err, apperrors.ErrConflict.Code, "A record with the same unique value already exists")
	case database.IsForeignKeyViolation(err):
		return apperrors.Wrap(err, apperrors.ErrReferential.Code, "Referenced record does not exist")
	default:
		return apperrors.Wrap(err, apperrors.ErrStorage.Code, fallback)
	}
}

func notFound(entity string, id int64) *apperrors.Error {
	return apperrors.Clone(apperrors.ErrNotFound, fmt.Sprintf("%s with ID %d not found", entity, id))
}

func missingID(entity string) *apperrors.Error {
	return apperrors.Clone(apperrors.ErrInvalidArgument, entity+" ID cannot be null")
}

// insert runs query and returns the generated id. Postgres has no LastInsertId, so RETURNING is used there.
func insert(ctx context.Context, tx *sqlx.Tx, query string, args ...interface{}) (int64, error) {
	if tx.DriverName() == "postgres" {
		var id int64
		if err := tx.QueryRowxContext(ctx, tx.Rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// execAffecting runs query and reports sql.ErrNoRows when nothing matched.
func execAffecting(ctx context.Context, tx *sqlx.Tx, query string, args ...interface{}) error {
	res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func exists(ctx context.Context, tx *sqlx.Tx, table string, id int64) (bool, error) {
	var found int
	err := tx.GetContext(ctx, &found, tx.Rebind("SELECT 1 FROM "+table+" WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// likeEscaper makes wildcards in a search term literal. Search predicates declare ESCAPE '!'.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func likePattern(query string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(query))) + "%"
}

func sqlDate(t time.Time) string {
	return models.DateOf(t).Format(dateLayout)
}

func (b *base) getByID(ctx context.Context, dest interface{}, query, entity string, id int64) error {
	return b.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, dest, tx.Rebind(query), id)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(entity, id)
		}
		return err
	})
}

func (b *base) selectAll(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return b.withTx(ctx, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, dest, tx.Rebind(query), args...)
	})
}

func (b *base) deleteByID(ctx context.Context, table, entity string, id int64) error {
	return b.withTx(ctx, func(tx *sqlx.Tx) error {
		err := execAffecting(ctx, tx, "DELETE FROM "+table+" WHERE id = ?", id)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(entity, id)
		}
		return err
	})
}

// requireExisting returns a NotFound error unless table has a row with id.
func requireExisting(ctx context.Context, tx *sqlx.Tx, table, entity string, id int64) error {
	ok, err := exists(ctx, tx, table, id)
	if err != nil {
		return err
	}
	if !ok {
		return notFound(entity, id)
	}
	return nil
}

// requireReference returns a ReferentialError unless table has a row with id.
func requireReference(ctx context.Context, tx *sqlx.Tx, table, entity string, id int64) error {
	ok, err := exists(ctx, tx, table, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Clone(apperrors.ErrReferential, fmt.Sprintf("%s with ID %d does not exist", entity, id))
	}
	return nil
}
