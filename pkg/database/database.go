package database

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/noah-isme/student-management/pkg/config"
)

// DriverName maps a configured driver to the name registered with database/sql.
func DriverName(driver string) (string, error) {
	switch driver {
	case config.DriverMySQL:
		return "mysql", nil
	case config.DriverPostgres:
		return "postgres", nil
	case config.DriverSQLite:
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unsupported driver %q", driver)
	}
}

// DSN builds the data source name for cfg.
func DSN(cfg config.DatabaseConfig, connectTimeout time.Duration) (string, error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		mc := mysql.NewConfig()
		mc.User = cfg.Username
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
		mc.DBName = cfg.DatabaseName
		mc.ParseTime = true
		mc.Loc = time.UTC
		if connectTimeout > 0 {
			mc.Timeout = connectTimeout
		}
		return mc.FormatDSN(), nil
	case config.DriverPostgres:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Host,
			cfg.Port,
			cfg.Username,
			cfg.Password,
			cfg.DatabaseName,
		)
		if connectTimeout > 0 {
			dsn += fmt.Sprintf(" connect_timeout=%d", int(connectTimeout.Seconds()))
		}
		return dsn, nil
	case config.DriverSQLite:
		return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", cfg.DatabaseName), nil
	default:
		return "", fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}

// Open returns a pooled client for cfg that has answered a ping within timeout.
func Open(ctx context.Context, cfg config.DatabaseConfig, timeout time.Duration) (*sqlx.DB, error) {
	driverName, err := DriverName(cfg.Driver)
	if err != nil {
		return nil, err
	}
	dsn, err := DSN(cfg, timeout)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	if cfg.MaximumPoolSize > 0 {
		db.SetMaxOpenConns(cfg.MaximumPoolSize)
		db.SetMaxIdleConns(cfg.MaximumPoolSize)
	}

	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// TestConnection opens a single-connection pool against cfg, pings it and always closes it.
func TestConnection(ctx context.Context, cfg config.DatabaseConfig, timeout time.Duration) error {
	probe := cfg
	probe.MaximumPoolSize = 1
	db, err := Open(ctx, probe, timeout)
	if err != nil {
		return err
	}
	return db.Close()
}
