package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteClient manages the connection to SQLite
type SQLiteClient struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteClient creates a new SQLite client
func NewSQLiteClient(ctx context.Context, path string, opts ...Option) (*SQLiteClient, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	client := NewSQLiteClientFromDB(db, opts...)
	client.logger.DebugContext(ctx, "connected to database", "driver", "sqlite3", "path", path)
	return client, nil
}

// NewSQLiteClientFromDB wraps an already opened database handle.
func NewSQLiteClientFromDB(db *sql.DB, opts ...Option) *SQLiteClient {
	o := buildOptions(opts)
	return &SQLiteClient{db: db, logger: o.logger}
}

// Close closes the database connection
func (c *SQLiteClient) Close() error {
	return c.db.Close()
}

// GetDB returns the underlying database connection
func (c *SQLiteClient) GetDB() *sql.DB {
	return c.db
}

// Apply runs stmts in one transaction.
func (c *SQLiteClient) Apply(ctx context.Context, stmts []string) error {
	return applySQL(ctx, c.db, c.logger, stmts)
}
