package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
)

// PostgresClient manages the connection to PostgreSQL
type PostgresClient struct {
	conn   *pgx.Conn
	logger *slog.Logger
}

// NewPostgresClient creates a new PostgreSQL client
func NewPostgresClient(ctx context.Context, connString string, opts ...Option) (*PostgresClient, error) {
	o := buildOptions(opts)

	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	o.logger.DebugContext(ctx, "connected to database", "driver", "pgx")
	return &PostgresClient{conn: conn, logger: o.logger}, nil
}

// Close closes the database connection
func (c *PostgresClient) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}

// GetConnection returns the underlying connection
func (c *PostgresClient) GetConnection() *pgx.Conn {
	return c.conn
}

// Apply runs stmts in one transaction. PostgreSQL DDL is transactional, so a
// failing statement leaves the database untouched.
func (c *PostgresClient) Apply(ctx context.Context, stmts []string) error {
	if len(stmts) == 0 {
		return nil
	}

	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for i, stmt := range stmts {
		c.logger.DebugContext(ctx, "executing statement", "index", i+1, "sql", stmt)
		if _, err := tx.Exec(ctx, stmt); err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				c.logger.WarnContext(ctx, "failed to roll back transaction", "error", rbErr)
			}
			return &StatementError{Index: i, Statement: stmt, Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	c.logger.InfoContext(ctx, "migration applied", "statements", len(stmts))
	return nil
}
