package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/saltyorg/tablekit/internal/config"
)

// ErrUnsupportedDriver is returned by Open for drivers other than mysql, sqlite and postgres.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// DB wraps the single database connection shared by every table accessor
type DB struct {
	*sql.DB
	driver  string
	dialect Dialect
}

// Open creates the database connection described by cfg and verifies it
// with a ping bounded by cfg.ConnectTimeout.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	dialect, ok := DialectFor(cfg.Driver)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}

	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(dialect.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection for the whole process; statements never run concurrently
	// on separate sessions.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Debug().
		Str("driver", dialect.Name).
		Str("target", describeTarget(dialect.Name, cfg)).
		Msg("Database connection established")

	return &DB{
		DB:      conn,
		driver:  dialect.Name,
		dialect: dialect,
	}, nil
}

// Driver returns the normalized driver name (mysql, sqlite or postgres)
func (db *DB) Driver() string {
	return db.driver
}

// Dialect returns the SQL rules for the connected driver
func (db *DB) Dialect() Dialect {
	return db.dialect
}

func describeTarget(driver string, cfg config.DatabaseConfig) string {
	if driver == DriverSQLite {
		return cfg.Path
	}
	return fmt.Sprintf("%s@%s/%s", cfg.User, hostPort(cfg), cfg.Name)
}
