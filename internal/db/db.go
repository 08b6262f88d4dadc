// Package db owns the connection to the employee database and executes rendered statements.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/rshade/empsearch/internal/engine/cache"
	"github.com/rshade/empsearch/internal/resultset"
)

// defaultPingTimeout bounds the connectivity check in Open.
const defaultPingTimeout = 5 * time.Second

// Config selects and locates the backing store.
type Config struct {
	Driver string
	DSN    string
	// MaxOpenConns caps the pool; 0 leaves the driver default. SQLite is always capped at 1.
	MaxOpenConns int
}

// ExecutionError is returned when the backing store fails to run a statement.
type ExecutionError struct {
	SQL string
	Err error
}

// Error implements error.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("query execution failed: %v", e.Err)
}

// Unwrap returns the driver error.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// DB is an open connection pool bound to one dialect.
type DB struct {
	conn    *sql.DB
	dialect Dialect
	logger  zerolog.Logger
}

// Open connects to the configured database and verifies it is reachable.
func Open(ctx context.Context, cfg Config, logger zerolog.Logger) (*DB, error) {
	dialect, err := ParseDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, errors.New("database dsn cannot be empty")
	}

	conn, err := sql.Open(dialect.DriverName(), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}
	switch {
	case dialect == DialectSQLite:
		// each connection to an in-memory sqlite database is a separate database
		conn.SetMaxOpenConns(1)
	case cfg.MaxOpenConns > 0:
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err = conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", dialect, err)
	}

	return New(conn, dialect, logger), nil
}

// New wraps an existing pool.
func New(conn *sql.DB, dialect Dialect, logger zerolog.Logger) *DB {
	return &DB{
		conn:    conn,
		dialect: dialect,
		logger:  logger.With().Str("component", "db").Logger(),
	}
}

// Dialect returns the SQL dialect of the connection.
func (d *DB) Dialect() Dialect {
	return d.dialect
}

// Execute runs stmt and returns its rows in result order. Any failure is an *ExecutionError.
func (d *DB) Execute(ctx context.Context, stmt cache.Statement) ([]resultset.Row, error) {
	start := time.Now()

	rows, err := d.conn.QueryContext(ctx, stmt.SQL, stmt.Bindings...)
	if err != nil {
		return nil, &ExecutionError{SQL: stmt.SQL, Err: err}
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, &ExecutionError{SQL: stmt.SQL, Err: err}
	}

	d.logger.Debug().Ctx(ctx).
		Str("operation", "execute").
		Int("rows", len(out)).
		Dur("duration", time.Since(start)).
		Msg("query executed")
	return out, nil
}

// Close releases the connection pool.
func (d *DB) Close() error {
	return d.conn.Close()
}

func scanRows(rows *sql.Rows) ([]resultset.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []resultset.Row{}
	values := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err = rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := make(resultset.Row, len(cols))
		for i, col := range cols {
			v, normErr := resultset.Normalize(values[i])
			if normErr != nil {
				return nil, fmt.Errorf("column %q: %w", col, normErr)
			}
			row[i] = resultset.Field{Name: col, Value: v}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
