// Package dialect identifies the SQL engines erdsql can emit statements for
// and maps canonical diagram types to engine-specific SQL types.
//
// Tags are case-insensitive. Unknown tags resolve to ANSI so that type
// mapping and statement synthesis always have a defined behavior.
package dialect

import "strings"

// Dialect identifies a target SQL dialect.
type Dialect string

const (
	ANSI     Dialect = "ansi"
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
	TSQL     Dialect = "tsql"
	SQLite   Dialect = "sqlite"
)

// All lists every supported dialect, ANSI first.
var All = []Dialect{ANSI, MySQL, Postgres, TSQL, SQLite}

// AlterStyle is the statement shape used to modify an existing column.
type AlterStyle int

const (
	// AlterInline emits one ALTER COLUMN carrying the type and an explicit
	// NOT NULL or NULL keyword.
	AlterInline AlterStyle = iota
	// AlterModify emits one MODIFY COLUMN carrying type, nullability and default.
	AlterModify
	// AlterSplit emits independent type, nullability and default statements.
	AlterSplit
)

// Parse resolves a dialect tag. Empty and unrecognized tags resolve to ANSI.
func Parse(tag string) Dialect {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "mysql", "mariadb":
		return MySQL
	case "postgres", "postgresql", "pg":
		return Postgres
	case "tsql", "sqlserver", "mssql":
		return TSQL
	case "sqlite", "sqlite3":
		return SQLite
	default:
		return ANSI
	}
}

// String returns the dialect tag.
func (d Dialect) String() string {
	if d == "" {
		return string(ANSI)
	}
	return string(d)
}

// AlterStyle returns how d modifies an existing column.
func (d Dialect) AlterStyle() AlterStyle {
	switch d {
	case MySQL:
		return AlterModify
	case Postgres:
		return AlterSplit
	case TSQL, SQLite, ANSI:
		return AlterInline
	default:
		return AlterInline
	}
}
