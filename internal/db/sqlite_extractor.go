package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/tordrt/erdsql/internal/dialect"
	"github.com/tordrt/erdsql/internal/schema"
)

// SQLiteExtractor handles schema extraction from SQLite
type SQLiteExtractor struct {
	client *SQLiteClient
}

// NewSQLiteExtractor creates a new SQLite schema extractor
func NewSQLiteExtractor(client *SQLiteClient) *SQLiteExtractor {
	return &SQLiteExtractor{
		client: client,
	}
}

// ExtractSchema extracts the complete schema for specified tables
// If tables is empty, extracts all tables in the database
func (e *SQLiteExtractor) ExtractSchema(ctx context.Context, tables []string) (*schema.Schema, error) {
	return extractSchema(ctx, e, dialect.SQLite, tables, e.client.logger)
}

func (e *SQLiteExtractor) listTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`
	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return scanStrings(rows)
}

func pragma(name, arg string) string {
	return fmt.Sprintf(`PRAGMA %s("%s")`, name, strings.ReplaceAll(arg, `"`, `""`))
}

type tableInfoRow struct {
	name    string
	colType string
	notNull bool
	dflt    sql.NullString
	pkOrder int
}

func (e *SQLiteExtractor) tableInfo(ctx context.Context, tableName string) ([]tableInfoRow, error) {
	rows, err := e.client.GetDB().QueryContext(ctx, pragma("table_info", tableName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tableInfoRow
	for rows.Next() {
		var (
			cid     int
			r       tableInfoRow
			notNull int
		)
		if err := rows.Scan(&cid, &r.name, &r.colType, &notNull, &r.dflt, &r.pkOrder); err != nil {
			return nil, err
		}
		r.notNull = notNull != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// extractColumns extracts column information for a table
func (e *SQLiteExtractor) extractColumns(ctx context.Context, tableName string) ([]schema.Column, error) {
	info, err := e.tableInfo(ctx, tableName)
	if err != nil {
		return nil, err
	}

	unique, err := e.uniqueColumns(ctx, tableName)
	if err != nil {
		return nil, err
	}

	columns := make([]schema.Column, 0, len(info))
	for _, r := range info {
		columns = append(columns, schema.Column{
			Name:    r.name,
			Type:    r.colType,
			NotNull: r.notNull,
			Unique:  unique[r.name] && r.pkOrder == 0,
			Default: defaultFrom(r.dflt),
		})
	}
	return columns, nil
}

// uniqueColumns returns the columns covered by a single-column unique index,
// including the automatic indexes behind inline UNIQUE constraints.
func (e *SQLiteExtractor) uniqueColumns(ctx context.Context, tableName string) (map[string]bool, error) {
	list, err := e.indexList(ctx, tableName)
	if err != nil {
		return nil, err
	}

	unique := make(map[string]bool)
	for _, idx := range list {
		if !idx.unique || idx.origin == "pk" {
			continue
		}
		cols, err := e.indexColumns(ctx, idx.name)
		if err != nil {
			return nil, err
		}
		if len(cols) == 1 {
			unique[cols[0]] = true
		}
	}
	return unique, nil
}

type indexListRow struct {
	name   string
	unique bool
	origin string
}

func (e *SQLiteExtractor) indexList(ctx context.Context, tableName string) ([]indexListRow, error) {
	rows, err := e.client.GetDB().QueryContext(ctx, pragma("index_list", tableName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []indexListRow
	for rows.Next() {
		var (
			seq, unique, partial int
			r                    indexListRow
		)
		if err := rows.Scan(&seq, &r.name, &unique, &r.origin, &partial); err != nil {
			return nil, err
		}
		r.unique = unique == 1
		out = append(out, r)
	}
	return out, rows.Err()
}

func (e *SQLiteExtractor) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	rows, err := e.client.GetDB().QueryContext(ctx, pragma("index_info", indexName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			seqno, cid int
			colName    sql.NullString
		)
		if err := rows.Scan(&seqno, &cid, &colName); err != nil {
			return nil, err
		}
		if colName.Valid {
			columns = append(columns, colName.String)
		}
	}
	return columns, rows.Err()
}

// extractPrimaryKey extracts primary key columns in key order
func (e *SQLiteExtractor) extractPrimaryKey(ctx context.Context, tableName string) ([]string, error) {
	info, err := e.tableInfo(ctx, tableName)
	if err != nil {
		return nil, err
	}

	var keyed []tableInfoRow
	for _, r := range info {
		if r.pkOrder > 0 {
			keyed = append(keyed, r)
		}
	}
	sort.Slice(keyed, func(i, j int) bool { return keyed[i].pkOrder < keyed[j].pkOrder })

	pk := make([]string, 0, len(keyed))
	for _, r := range keyed {
		pk = append(pk, r.name)
	}
	return pk, nil
}

// extractRelations extracts foreign key relationships. A reference without an
// explicit target column points at the target's primary key.
func (e *SQLiteExtractor) extractRelations(ctx context.Context, tableName string) ([]schema.Relation, error) {
	rows, err := e.client.GetDB().QueryContext(ctx, pragma("foreign_key_list", tableName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var relations []schema.Relation
	for rows.Next() {
		var (
			id, seq                   int
			targetTable, fromCol      string
			toCol                     sql.NullString
			onUpdate, onDelete, match string
		)
		if err := rows.Scan(&id, &seq, &targetTable, &fromCol, &toCol, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}
		relations = append(relations, schema.Relation{
			SourceColumn: fromCol,
			TargetTable:  targetTable,
			TargetColumn: toCol.String,
			Cardinality:  "N:1",
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range relations {
		if relations[i].TargetColumn != "" {
			continue
		}
		pk, err := e.extractPrimaryKey(ctx, relations[i].TargetTable)
		if err != nil {
			return nil, err
		}
		if len(pk) > 0 {
			relations[i].TargetColumn = pk[0]
		}
	}
	return relations, nil
}

// extractIndexes extracts explicitly created index information
func (e *SQLiteExtractor) extractIndexes(ctx context.Context, tableName string) ([]schema.Index, error) {
	list, err := e.indexList(ctx, tableName)
	if err != nil {
		return nil, err
	}

	var indexes []schema.Index
	for _, r := range list {
		// Skip auto-generated constraint indexes
		if strings.HasPrefix(r.name, "sqlite_autoindex") {
			continue
		}
		columns, err := e.indexColumns(ctx, r.name)
		if err != nil {
			return nil, err
		}
		if len(columns) > 0 {
			indexes = append(indexes, schema.Index{
				Name:     r.name,
				IsUnique: r.unique,
				Columns:  columns,
			})
		}
	}
	sort.Slice(indexes, func(i, j int) bool { return indexes[i].Name < indexes[j].Name })
	return indexes, nil
}
