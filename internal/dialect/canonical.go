package dialect

import "strings"

// canonicalTypes maps base SQL type names (upper case, no length) to diagram keywords.
var canonicalTypes = map[string]string{
	"INT":                         "int",
	"INTEGER":                     "int",
	"INT4":                        "int",
	"MEDIUMINT":                   "int",
	"SERIAL":                      "int",
	"BIGINT":                      "bigint",
	"INT8":                        "bigint",
	"BIGSERIAL":                   "bigint",
	"SMALLINT":                    "smallint",
	"INT2":                        "smallint",
	"TINYINT":                     "smallint",
	"DECIMAL":                     "decimal",
	"NUMERIC":                     "decimal",
	"MONEY":                       "decimal",
	"FLOAT":                       "float",
	"FLOAT4":                      "float",
	"REAL":                        "float",
	"DOUBLE":                      "double",
	"DOUBLE PRECISION":            "double",
	"FLOAT8":                      "double",
	"VARCHAR":                     "varchar",
	"NVARCHAR":                    "varchar",
	"CHARACTER VARYING":           "varchar",
	"CHAR":                        "char",
	"NCHAR":                       "char",
	"CHARACTER":                   "char",
	"BPCHAR":                      "char",
	"TEXT":                        "text",
	"NTEXT":                       "text",
	"MEDIUMTEXT":                  "text",
	"LONGTEXT":                    "text",
	"CLOB":                        "text",
	"DATE":                        "date",
	"TIME":                        "time",
	"TIMETZ":                      "time",
	"TIME WITHOUT TIME ZONE":      "time",
	"TIME WITH TIME ZONE":         "time",
	"DATETIME":                    "datetime",
	"DATETIME2":                   "datetime",
	"SMALLDATETIME":               "datetime",
	"TIMESTAMP":                   "timestamp",
	"TIMESTAMPTZ":                 "timestamp",
	"TIMESTAMP WITHOUT TIME ZONE": "timestamp",
	"TIMESTAMP WITH TIME ZONE":    "timestamp",
	"BOOLEAN":                     "boolean",
	"BOOL":                        "boolean",
	"BIT":                         "boolean",
	"UUID":                        "uuid",
	"UNIQUEIDENTIFIER":            "uuid",
	"BINARY":                      "binary",
	"VARBINARY":                   "varbinary",
	"BLOB":                        "blob",
	"BYTEA":                       "blob",
	"JSON":                        "json",
	"JSONB":                       "json",
}

// Canonical reduces an engine-reported SQL type such as "character varying(80)"
// or "int(11) unsigned" to a diagram keyword. Unknown types are lower-cased
// with any length or precision suffix removed.
func Canonical(sqlType string) string {
	t := strings.ToUpper(strings.TrimSpace(sqlType))
	if t == "" {
		return ""
	}
	if strings.HasSuffix(t, "[]") {
		return "array"
	}
	// MySQL reports booleans as tinyint(1).
	if t == "TINYINT(1)" {
		return "boolean"
	}
	base := t
	if i := strings.IndexByte(base, '('); i >= 0 {
		rest := ""
		if j := strings.IndexByte(base[i:], ')'); j >= 0 {
			rest = base[i+j+1:]
		}
		base = strings.TrimSpace(base[:i] + rest)
	}
	base = strings.TrimSpace(strings.TrimSuffix(base, " UNSIGNED"))
	if c, ok := canonicalTypes[base]; ok {
		return c
	}
	// Vendor spellings such as VARCHAR2 or TIMESTAMP_NTZ reduce to their family.
	for _, prefix := range []string{"VARCHAR", "NVARCHAR", "TIMESTAMP", "DATETIME"} {
		if strings.HasPrefix(base, prefix) {
			return canonicalTypes[prefix]
		}
	}
	return strings.ToLower(base)
}
