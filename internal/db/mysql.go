package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/go-sql-driver/mysql"
)

// MySQLClient manages the connection to MySQL
type MySQLClient struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewMySQLClient creates a new MySQL client
func NewMySQLClient(ctx context.Context, connString string, opts ...Option) (*MySQLClient, error) {
	db, err := sql.Open("mysql", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	client := NewMySQLClientFromDB(db, opts...)
	client.logger.DebugContext(ctx, "connected to database", "driver", "mysql")
	return client, nil
}

// NewMySQLClientFromDB wraps an already opened database handle.
func NewMySQLClientFromDB(db *sql.DB, opts ...Option) *MySQLClient {
	o := buildOptions(opts)
	return &MySQLClient{db: db, logger: o.logger}
}

// Close closes the database connection
func (c *MySQLClient) Close() error {
	return c.db.Close()
}

// GetDB returns the underlying database connection
func (c *MySQLClient) GetDB() *sql.DB {
	return c.db
}

// Apply runs stmts in one transaction. MySQL commits implicitly after each
// DDL statement, so statements before a failure stay applied.
func (c *MySQLClient) Apply(ctx context.Context, stmts []string) error {
	return applySQL(ctx, c.db, c.logger, stmts)
}

// ParseDatabaseName returns the database named in a MySQL DSN.
func ParseDatabaseName(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("failed to parse DSN: %w", err)
	}
	if cfg.DBName == "" {
		return "", fmt.Errorf("DSN does not name a database")
	}
	return cfg.DBName, nil
}
