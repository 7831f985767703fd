package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rosterforge/engine/pkg/config"
	"github.com/rosterforge/engine/pkg/logger"
)

// DB wraps sqlx.DB with additional functionality
type DB struct {
	*sqlx.DB
	logger *logger.Logger
}

// New creates a new database connection
func New(cfg *config.DatabaseConfig, log *logger.Logger) (*DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return &DB{
		DB:     db,
		logger: log,
	}, nil
}

// NewWithDSN creates a new database connection with a DSN string.
// Used for test infrastructure where the DSN comes from a test container.
func NewWithDSN(dsn string, log *logger.Logger) (*DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{
		DB:     db,
		logger: log,
	}, nil
}

// NewForTest wraps an already-open *sqlx.DB (typically backed by
// DATA-DOG/go-sqlmock) so Store adapter tests can exercise the same
// GetContext/SelectContext/Transaction plumbing production code uses,
// without a real Postgres connection.
func NewForTest(sqlxDB *sqlx.DB, log *logger.Logger) *DB {
	return &DB{DB: sqlxDB, logger: log}
}

// Ping checks the database connection
func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// Health returns the health status of the database
func (db *DB) Health(ctx context.Context) map[string]string {
	status := map[string]string{
		"status": "up",
	}

	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		status["status"] = "down"
		status["error"] = err.Error()
	}

	return status
}

// txKeyType is an unexported type for the transaction context key, avoiding
// collisions with context keys defined in other packages.
type txKeyType struct{}

var txKey = txKeyType{}

// contextWithTx returns a context carrying tx, for use by Transaction below
// and by Store adapters that need to pin several calls to one transaction.
func contextWithTx(ctx context.Context, tx *sqlx.Tx) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

func (db *DB) getTx(ctx context.Context) *sqlx.Tx {
	tx, _ := ctx.Value(txKey).(*sqlx.Tx)
	return tx
}

// Transaction executes fn within a transaction. Queries issued through the
// DB methods below (GetContext, SelectContext, etc.) during fn's execution
// pick up the transaction automatically if ctx is threaded through, via
// WithTx.
func (db *DB) Transaction(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// WithTx returns a context that binds tx for subsequent DB method calls,
// letting a Store adapter compose several statements into one transaction
// without passing *sqlx.Tx through every method signature.
func (db *DB) WithTx(ctx context.Context, tx *sqlx.Tx) context.Context {
	return contextWithTx(ctx, tx)
}

// GetContext gets a single record, using the transaction from context if available
func (db *DB) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	if tx := db.getTx(ctx); tx != nil {
		return tx.GetContext(ctx, dest, query, args...)
	}
	return db.DB.GetContext(ctx, dest, query, args...)
}

// SelectContext gets multiple records, using the transaction from context if available
func (db *DB) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	if tx := db.getTx(ctx); tx != nil {
		return tx.SelectContext(ctx, dest, query, args...)
	}
	return db.DB.SelectContext(ctx, dest, query, args...)
}

// QueryRowxContext queries a single row, using the transaction from context if available
func (db *DB) QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	if tx := db.getTx(ctx); tx != nil {
		return tx.QueryRowxContext(ctx, query, args...)
	}
	return db.DB.QueryRowxContext(ctx, query, args...)
}

// QueryContext executes a query, using the transaction from context if available
func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	if tx := db.getTx(ctx); tx != nil {
		return tx.QueryxContext(ctx, query, args...)
	}
	return db.DB.QueryxContext(ctx, query, args...)
}

// QueryxContext executes a query, using the transaction from context if available
func (db *DB) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	if tx := db.getTx(ctx); tx != nil {
		return tx.QueryxContext(ctx, query, args...)
	}
	return db.DB.QueryxContext(ctx, query, args...)
}

// QueryRowContext queries a single row, using the transaction from context if available
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	if tx := db.getTx(ctx); tx != nil {
		return tx.QueryRowxContext(ctx, query, args...)
	}
	return db.DB.QueryRowxContext(ctx, query, args...)
}

// ExecContext executes a query, using the transaction from context if available
func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if tx := db.getTx(ctx); tx != nil {
		return tx.ExecContext(ctx, query, args...)
	}
	return db.DB.ExecContext(ctx, query, args...)
}
