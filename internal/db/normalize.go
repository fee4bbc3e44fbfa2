package db

import (
	"regexp"
	"strings"

	"github.com/tordrt/erdsql/internal/dialect"
	"github.com/tordrt/erdsql/internal/schema"
)

// castSuffix matches PostgreSQL casts such as ::character varying or ::text[].
var castSuffix = regexp.MustCompile(`::[\w\s]+(\[\])?$`)

// finishTable brings an extracted table in line with what the diagram parser
// produces: canonical types, key markers on columns, primary keys NOT NULL.
func finishTable(table *schema.Table, d dialect.Dialect) {
	pk := make(map[string]bool, len(table.PrimaryKey))
	for _, name := range table.PrimaryKey {
		pk[name] = true
	}
	fk := make(map[string]bool, len(table.Relations))
	for _, rel := range table.Relations {
		fk[rel.SourceColumn] = true
	}

	for i := range table.Columns {
		col := &table.Columns[i]
		col.Type = dialect.Canonical(col.Type)
		if pk[col.Name] {
			col.PrimaryKey = true
			col.NotNull = true
			col.Unique = false
		}
		if fk[col.Name] {
			col.ForeignKey = true
		}
		if col.Default.Valid {
			col.Default = normalizeDefault(col.Default.Value, col.Type, d)
		}
	}
}

// normalizeDefault rewrites an engine-reported default to the form a diagram
// would carry. Sequence defaults are treated as no default.
func normalizeDefault(value, canonicalType string, d dialect.Dialect) schema.Default {
	v := strings.TrimSpace(value)
	if v == "" || strings.EqualFold(v, "NULL") {
		return schema.NoDefault()
	}

	switch d {
	case dialect.Postgres:
		if strings.HasPrefix(strings.ToLower(v), "nextval(") {
			return schema.NoDefault()
		}
		v = castSuffix.ReplaceAllString(v, "")
	case dialect.MySQL:
		// MySQL 8 reports string literals without quotes.
		if isStringType(canonicalType) && !strings.HasPrefix(v, "'") && !strings.HasSuffix(v, ")") {
			v = "'" + strings.ReplaceAll(v, "'", "''") + "'"
		}
	}

	for len(v) >= 2 && v[0] == '(' && v[len(v)-1] == ')' && strings.Count(v, "(") == 1 {
		v = strings.TrimSpace(v[1 : len(v)-1])
	}
	return schema.DefaultOf(v)
}

func isStringType(t string) bool {
	switch t {
	case "varchar", "char", "text":
		return true
	}
	return false
}
