// Package db reads schemas from live databases and applies migrations to them.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/tordrt/erdsql/internal/schema"
)

// SchemaExtractor reads the current schema of a database.
type SchemaExtractor interface {
	// ExtractSchema extracts the given tables, or every table when tables is empty.
	ExtractSchema(ctx context.Context, tables []string) (*schema.Schema, error)
}

// Applier executes migration statements.
type Applier interface {
	// Apply runs stmts in order inside a single transaction.
	Apply(ctx context.Context, stmts []string) error
}

// Option configures a client.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for statement tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// StatementError reports the statement that failed during Apply.
type StatementError struct {
	Index     int
	Statement string
	Err       error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("statement %d failed: %v\n%s", e.Index+1, e.Err, e.Statement)
}

func (e *StatementError) Unwrap() error {
	return e.Err
}

// applySQL runs stmts in one database/sql transaction. Engines with implicit
// DDL commits, such as MySQL, cannot roll back statements that already ran.
func applySQL(ctx context.Context, db *sql.DB, logger *slog.Logger, stmts []string) error {
	if len(stmts) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for i, stmt := range stmts {
		logger.DebugContext(ctx, "executing statement", "index", i+1, "sql", stmt)
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.WarnContext(ctx, "failed to roll back transaction", "error", rbErr)
			}
			return &StatementError{Index: i, Statement: stmt, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	logger.InfoContext(ctx, "migration applied", "statements", len(stmts))
	return nil
}
