package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/tordrt/erdsql/internal/dialect"
	"github.com/tordrt/erdsql/internal/schema"
)

// tableReader is the per-engine half of schema extraction.
type tableReader interface {
	listTables(ctx context.Context) ([]string, error)
	extractColumns(ctx context.Context, table string) ([]schema.Column, error)
	extractPrimaryKey(ctx context.Context, table string) ([]string, error)
	extractRelations(ctx context.Context, table string) ([]schema.Relation, error)
	extractIndexes(ctx context.Context, table string) ([]schema.Index, error)
}

// extractSchema walks the requested tables, or all tables when none are
// requested, and returns them in the order they were listed.
func extractSchema(ctx context.Context, r tableReader, d dialect.Dialect, requested []string, logger *slog.Logger) (*schema.Schema, error) {
	tableNames := requested
	if len(tableNames) == 0 {
		names, err := r.listTables(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get table names: %w", err)
		}
		tableNames = names
	}

	s := &schema.Schema{}
	for _, name := range tableNames {
		table, err := extractTable(ctx, r, name)
		if err != nil {
			return nil, fmt.Errorf("failed to extract table %s: %w", name, err)
		}
		finishTable(table, d)
		logger.DebugContext(ctx, "extracted table", "table", name, "columns", len(table.Columns), "relations", len(table.Relations))
		s.PutTable(*table)
	}
	return s, nil
}

func extractTable(ctx context.Context, r tableReader, name string) (*schema.Table, error) {
	table := &schema.Table{Name: name}
	var err error

	if table.Columns, err = r.extractColumns(ctx, name); err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	if table.PrimaryKey, err = r.extractPrimaryKey(ctx, name); err != nil {
		return nil, fmt.Errorf("failed to extract primary key: %w", err)
	}
	if table.Relations, err = r.extractRelations(ctx, name); err != nil {
		return nil, fmt.Errorf("failed to extract relations: %w", err)
	}
	if table.Indexes, err = r.extractIndexes(ctx, name); err != nil {
		return nil, fmt.Errorf("failed to extract indexes: %w", err)
	}
	return table, nil
}

// scanStrings collects a single string column from rows and closes them.
func scanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func defaultFrom(v sql.NullString) schema.Default {
	if !v.Valid {
		return schema.NoDefault()
	}
	return schema.DefaultOf(v.String)
}
