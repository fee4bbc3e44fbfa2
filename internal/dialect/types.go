package dialect

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// MapType returns the SQL type for a canonical diagram type in dialect d.
// It never fails: unknown types are returned upper-cased.
func MapType(canonical string, d Dialect) string {
	switch strings.ToLower(canonical) {
	case "int", "integer":
		if d == SQLite {
			return "INTEGER"
		}
		return "INT"
	case "bigint":
		return "BIGINT"
	case "smallint":
		return "SMALLINT"
	case "varchar", "string":
		return "VARCHAR(255)"
	case "text":
		return "TEXT"
	case "char":
		return "CHAR(1)"
	case "decimal", "numeric":
		return "DECIMAL(10,2)"
	case "float":
		return "FLOAT"
	case "double":
		if d == MySQL || d == Postgres {
			return "DOUBLE"
		}
		return "FLOAT"
	case "boolean":
		if d == Postgres || d == SQLite {
			return "BOOLEAN"
		}
		return "BIT"
	case "date":
		return "DATE"
	case "time":
		return "TIME"
	case "datetime":
		if d == MySQL || d == TSQL {
			return "DATETIME"
		}
		return "TIMESTAMP"
	case "timestamp":
		return "TIMESTAMP"
	case "uuid":
		switch d {
		case Postgres:
			return "UUID"
		case TSQL:
			return "UNIQUEIDENTIFIER"
		default:
			return "VARCHAR(36)"
		}
	default:
		return strings.ToUpper(canonical)
	}
}

// Mapper maps canonical types for one dialect, consulting user overrides first.
type Mapper struct {
	dialect   Dialect
	overrides map[string]string
}

// NewMapper creates a mapper for d. Override keys are canonical types and
// are matched case-insensitively.
func NewMapper(d Dialect, overrides map[string]string) *Mapper {
	return &Mapper{
		dialect:   d,
		overrides: MergeTypeMappings(nil, overrides),
	}
}

// Dialect returns the dialect the mapper emits for.
func (m *Mapper) Dialect() Dialect {
	return m.dialect
}

// Map returns the SQL type for a canonical type.
func (m *Mapper) Map(canonical string) string {
	if sqlType, ok := m.overrides[normalizeTypeKey(canonical)]; ok && sqlType != "" {
		return sqlType
	}
	return MapType(canonical, m.dialect)
}

// LoadTypeMappings reads a YAML or JSON object of canonical type -> SQL type.
func LoadTypeMappings(path string) (map[string]string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read type mappings file: %w", err)
	}
	return ParseTypeMappings(data)
}

// ParseTypeMappings decodes a YAML or JSON object of canonical type -> SQL type.
func ParseTypeMappings(data []byte) (map[string]string, error) {
	var mappings map[string]string
	if err := json.Unmarshal(data, &mappings); err != nil {
		if err := yaml.Unmarshal(data, &mappings); err != nil {
			return nil, fmt.Errorf("failed to parse type mappings: %w", err)
		}
	}
	return MergeTypeMappings(nil, mappings), nil
}

// MergeTypeMappings merges base and overrides, with overrides winning.
func MergeTypeMappings(base, override map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(override))
	for key, value := range base {
		if k := normalizeTypeKey(key); k != "" {
			out[k] = strings.TrimSpace(value)
		}
	}
	for key, value := range override {
		if k := normalizeTypeKey(key); k != "" {
			out[k] = strings.TrimSpace(value)
		}
	}
	return out
}

func normalizeTypeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
