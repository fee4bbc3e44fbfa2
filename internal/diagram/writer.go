package diagram

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/erdsql/internal/schema"
)

// Writer renders a schema as diagram text
type Writer struct {
	writer io.Writer
}

// NewWriter creates a new diagram writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{writer: w}
}

// Format writes the schema: entities first, then relationships, then indexes as comments
func (f *Writer) Format(s *schema.Schema) error {
	if _, err := fmt.Fprintln(f.writer, "erDiagram"); err != nil {
		return err
	}

	for _, table := range s.Tables {
		f.formatTable(table)
	}

	hasRelations := false
	for _, table := range s.Tables {
		for _, rel := range table.Relations {
			_, _ = fmt.Fprintf(f.writer, "    %s %s %s : %s\n", rel.TargetTable, relationArrow(rel.Cardinality), table.Name, rel.SourceColumn)
			hasRelations = true
		}
	}
	if hasRelations {
		_, _ = fmt.Fprintln(f.writer)
	}

	f.formatIndexes(s)
	return nil
}

// String renders the schema to a string.
func String(s *schema.Schema) string {
	var sb strings.Builder
	_ = NewWriter(&sb).Format(s)
	return sb.String()
}

func (f *Writer) formatTable(table schema.Table) {
	_, _ = fmt.Fprintf(f.writer, "    %s {\n", table.Name)
	for _, col := range table.Columns {
		_, _ = fmt.Fprintf(f.writer, "        %s\n", f.formatColumn(col))
	}
	_, _ = fmt.Fprintln(f.writer, "    }")
	_, _ = fmt.Fprintln(f.writer)
}

func (f *Writer) formatColumn(col schema.Column) string {
	typeName := strings.ReplaceAll(col.Type, " ", "_")
	if typeName == "" {
		typeName = "unknown"
	}
	parts := []string{typeName, col.Name}

	// PK implies uniqueness, so UK only follows FK or stands alone.
	switch {
	case col.PrimaryKey:
		parts = append(parts, "PK")
	case col.ForeignKey:
		parts = append(parts, "FK")
	}
	if col.Unique && !col.PrimaryKey {
		parts = append(parts, "UK")
	}

	var attrs []string
	if col.NotNull && !col.PrimaryKey {
		attrs = append(attrs, "NOT NULL")
	}
	if col.Default.Valid {
		attrs = append(attrs, "DEFAULT "+col.Default.Value)
	}
	if len(attrs) > 0 {
		parts = append(parts, `"`+strings.ReplaceAll(strings.Join(attrs, ", "), `"`, "'")+`"`)
	}

	return strings.Join(parts, " ")
}

func (f *Writer) formatIndexes(s *schema.Schema) {
	total := 0
	for _, table := range s.Tables {
		total += len(table.Indexes)
	}
	if total == 0 {
		return
	}

	_, _ = io.WriteString(f.writer, "%% Indexes\n")
	for _, table := range s.Tables {
		for _, idx := range table.Indexes {
			kind := "INDEX"
			if idx.IsUnique {
				kind = "UNIQUE"
			}
			_, _ = fmt.Fprintf(f.writer, "%%%%   %s.%s %s (%s)\n", table.Name, idx.Name, kind, strings.Join(idx.Columns, ", "))
		}
	}
}

func relationArrow(cardinality string) string {
	if cardinality == "1:1" {
		return "||--||"
	}
	return "||--o{"
}
