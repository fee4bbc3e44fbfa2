package dialect

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		tag  string
		want Dialect
	}{
		{"", ANSI},
		{"ansi", ANSI},
		{"MySQL", MySQL},
		{"mariadb", MySQL},
		{"postgres", Postgres},
		{"PostgreSQL", Postgres},
		{"pg", Postgres},
		{"tsql", TSQL},
		{"sqlserver", TSQL},
		{"mssql", TSQL},
		{"sqlite", SQLite},
		{" sqlite3 ", SQLite},
		{"oracle", ANSI},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			if got := Parse(tt.tag); got != tt.want {
				t.Errorf("Parse(%q) = %q, want %q", tt.tag, got, tt.want)
			}
		})
	}
}

func TestAlterStyle(t *testing.T) {
	assert.Equal(t, AlterModify, MySQL.AlterStyle())
	assert.Equal(t, AlterSplit, Postgres.AlterStyle())
	assert.Equal(t, AlterInline, TSQL.AlterStyle())
	assert.Equal(t, AlterInline, SQLite.AlterStyle())
	assert.Equal(t, AlterInline, ANSI.AlterStyle())
	assert.Equal(t, AlterInline, Dialect("").AlterStyle())
	assert.Equal(t, "ansi", Dialect("").String())
}

func TestMapType(t *testing.T) {
	// One row per canonical type: ANSI, MySQL, Postgres, TSQL, SQLite.
	tests := []struct {
		canonical string
		want      [5]string
	}{
		{"int", [5]string{"INT", "INT", "INT", "INT", "INTEGER"}},
		{"integer", [5]string{"INT", "INT", "INT", "INT", "INTEGER"}},
		{"bigint", [5]string{"BIGINT", "BIGINT", "BIGINT", "BIGINT", "BIGINT"}},
		{"smallint", [5]string{"SMALLINT", "SMALLINT", "SMALLINT", "SMALLINT", "SMALLINT"}},
		{"varchar", [5]string{"VARCHAR(255)", "VARCHAR(255)", "VARCHAR(255)", "VARCHAR(255)", "VARCHAR(255)"}},
		{"string", [5]string{"VARCHAR(255)", "VARCHAR(255)", "VARCHAR(255)", "VARCHAR(255)", "VARCHAR(255)"}},
		{"text", [5]string{"TEXT", "TEXT", "TEXT", "TEXT", "TEXT"}},
		{"char", [5]string{"CHAR(1)", "CHAR(1)", "CHAR(1)", "CHAR(1)", "CHAR(1)"}},
		{"decimal", [5]string{"DECIMAL(10,2)", "DECIMAL(10,2)", "DECIMAL(10,2)", "DECIMAL(10,2)", "DECIMAL(10,2)"}},
		{"numeric", [5]string{"DECIMAL(10,2)", "DECIMAL(10,2)", "DECIMAL(10,2)", "DECIMAL(10,2)", "DECIMAL(10,2)"}},
		{"float", [5]string{"FLOAT", "FLOAT", "FLOAT", "FLOAT", "FLOAT"}},
		{"double", [5]string{"FLOAT", "DOUBLE", "DOUBLE", "FLOAT", "FLOAT"}},
		{"boolean", [5]string{"BIT", "BIT", "BOOLEAN", "BIT", "BOOLEAN"}},
		{"date", [5]string{"DATE", "DATE", "DATE", "DATE", "DATE"}},
		{"time", [5]string{"TIME", "TIME", "TIME", "TIME", "TIME"}},
		{"datetime", [5]string{"TIMESTAMP", "DATETIME", "TIMESTAMP", "DATETIME", "TIMESTAMP"}},
		{"timestamp", [5]string{"TIMESTAMP", "TIMESTAMP", "TIMESTAMP", "TIMESTAMP", "TIMESTAMP"}},
		{"uuid", [5]string{"VARCHAR(36)", "VARCHAR(36)", "UUID", "UNIQUEIDENTIFIER", "VARCHAR(36)"}},
		{"json", [5]string{"JSON", "JSON", "JSON", "JSON", "JSON"}},
		{"geometry", [5]string{"GEOMETRY", "GEOMETRY", "GEOMETRY", "GEOMETRY", "GEOMETRY"}},
		{"VarChar", [5]string{"VARCHAR(255)", "VARCHAR(255)", "VARCHAR(255)", "VARCHAR(255)", "VARCHAR(255)"}},
	}

	for _, tt := range tests {
		for i, d := range All {
			t.Run(tt.canonical+"/"+d.String(), func(t *testing.T) {
				if got := MapType(tt.canonical, d); got != tt.want[i] {
					t.Errorf("MapType(%q, %s) = %q, want %q", tt.canonical, d, got, tt.want[i])
				}
			})
		}
	}
}

func TestMapper(t *testing.T) {
	m := NewMapper(MySQL, map[string]string{
		" VARCHAR ": "VARCHAR(100)",
		"uuid":      "BINARY(16)",
		"text":      "",
	})

	assert.Equal(t, MySQL, m.Dialect())
	assert.Equal(t, "VARCHAR(100)", m.Map("varchar"))
	assert.Equal(t, "BINARY(16)", m.Map("UUID"))
	assert.Equal(t, "TEXT", m.Map("text"), "empty override falls back to the built-in mapping")
	assert.Equal(t, "INT", m.Map("int"))
}

func TestLoadTypeMappings(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "types.yaml")
		require.NoError(t, os.WriteFile(path, []byte("VARCHAR: VARCHAR(100)\nuuid: \"CHAR(36)\"\n"), 0o644))

		got, err := LoadTypeMappings(path)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"varchar": "VARCHAR(100)", "uuid": "CHAR(36)"}, got)
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "types.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"Boolean": " TINYINT(1) "}`), 0o644))

		got, err := LoadTypeMappings(path)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"boolean": "TINYINT(1)"}, got)
	})

	t.Run("not a mapping", func(t *testing.T) {
		path := filepath.Join(dir, "list.yaml")
		require.NoError(t, os.WriteFile(path, []byte("- int\n- text\n"), 0o644))

		_, err := LoadTypeMappings(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse type mappings")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadTypeMappings(filepath.Join(dir, "missing.yaml"))
		require.Error(t, err)
	})
}

func TestMergeTypeMappings(t *testing.T) {
	got := MergeTypeMappings(
		map[string]string{"varchar": "VARCHAR(255)", "int": "INT"},
		map[string]string{"VARCHAR": "VARCHAR(64)", "": "ignored"},
	)
	assert.Equal(t, map[string]string{"varchar": "VARCHAR(64)", "int": "INT"}, got)
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		sqlType string
		want    string
	}{
		{"integer", "int"},
		{"int(11)", "int"},
		{"int(10) unsigned", "int"},
		{"bigint unsigned", "bigint"},
		{"tinyint(1)", "boolean"},
		{"tinyint(4)", "smallint"},
		{"character varying(80)", "varchar"},
		{"VARCHAR(255)", "varchar"},
		{"nvarchar(max)", "varchar"},
		{"varchar2(20)", "varchar"},
		{"bpchar", "char"},
		{"numeric(10,2)", "decimal"},
		{"double precision", "double"},
		{"timestamp with time zone", "timestamp"},
		{"timestamp(6) without time zone", "timestamp"},
		{"datetime2", "datetime"},
		{"bytea", "blob"},
		{"jsonb", "json"},
		{"integer[]", "array"},
		{"geography", "geography"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.sqlType, func(t *testing.T) {
			if got := Canonical(tt.sqlType); got != tt.want {
				t.Errorf("Canonical(%q) = %q, want %q", tt.sqlType, got, tt.want)
			}
		})
	}
}

// Every canonical type the mapping table knows round-trips through Canonical.
func TestCanonical_InvertsMapType(t *testing.T) {
	for _, canonical := range []string{"int", "bigint", "smallint", "varchar", "text", "char", "decimal", "float", "date", "time", "timestamp"} {
		for _, d := range All {
			assert.Equal(t, canonical, Canonical(MapType(canonical, d)), "%s in %s", canonical, d)
		}
	}
}

var knownTypes = map[string]bool{
	"int": true, "integer": true, "bigint": true, "smallint": true,
	"varchar": true, "string": true, "text": true, "char": true,
	"decimal": true, "numeric": true, "float": true, "double": true,
	"boolean": true, "date": true, "time": true, "datetime": true,
	"timestamp": true, "uuid": true,
}

func TestProperty_MapTypeTotal(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("unknown types map to their upper-cased spelling", prop.ForAll(
		func(canonical string, i int) bool {
			d := All[i]
			got := MapType(canonical, d)
			if got != MapType(canonical, d) {
				return false
			}
			if knownTypes[strings.ToLower(canonical)] {
				return got != ""
			}
			return got == strings.ToUpper(canonical)
		},
		gen.Identifier(),
		gen.IntRange(0, len(All)-1),
	))

	properties.Property("unrecognized dialect tags behave as ANSI", prop.ForAll(
		func(canonical, tag string) bool {
			if Parse(tag) != ANSI {
				return true
			}
			return MapType(canonical, Parse(tag)) == MapType(canonical, ANSI)
		},
		gen.Identifier(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
