package formatter

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/tordrt/erdsql/internal/diff"
	"github.com/tordrt/erdsql/internal/schema"
)

// TextFormatter formats a change set as a compact +/-/~ summary
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes the change set. Tables are listed dropped, added, then
// changed, each group in name order.
func (f *TextFormatter) Format(cs *diff.ChangeSet) error {
	if cs.IsEmpty() {
		_, err := fmt.Fprintln(f.writer, "No changes")
		return err
	}

	for _, name := range cs.TablesDropped {
		_, _ = fmt.Fprintf(f.writer, "- TABLE %s\n", name)
	}
	for _, name := range cs.TablesAdded {
		_, _ = fmt.Fprintf(f.writer, "+ TABLE %s\n", name)
	}

	for _, table := range changedTables(cs) {
		_, _ = fmt.Fprintf(f.writer, "~ TABLE %s\n", table)
		for _, col := range cs.ColumnsAdded[table] {
			_, _ = fmt.Fprintf(f.writer, "    + %s: %s\n", col.Name, DescribeColumn(col))
		}
		for _, col := range cs.ColumnsDropped[table] {
			_, _ = fmt.Fprintf(f.writer, "    - %s\n", col)
		}
		for _, change := range cs.ColumnsModified[table] {
			_, _ = fmt.Fprintf(f.writer, "    ~ %s: %s\n", change.After.Name, strings.Join(DescribeChange(change), ", "))
		}
	}
	return nil
}

// changedTables returns every table with column-level changes, sorted.
func changedTables(cs *diff.ChangeSet) []string {
	seen := make(map[string]bool)
	var tables []string
	for _, group := range [][]string{cs.AddedColumnTables(), cs.DroppedColumnTables(), cs.ModifiedColumnTables()} {
		for _, t := range group {
			if !seen[t] {
				seen[t] = true
				tables = append(tables, t)
			}
		}
	}
	sort.Strings(tables)
	return tables
}

// DescribeColumn renders a column's type and constraints, e.g. "varchar NOT NULL DEFAULT 'x'".
func DescribeColumn(col schema.Column) string {
	parts := []string{col.Type}

	if col.PrimaryKey {
		parts = append(parts, "PK")
	}
	if col.ForeignKey {
		parts = append(parts, "FK")
	}
	if col.Unique {
		parts = append(parts, "UNIQUE")
	}
	if col.NotNull && !col.PrimaryKey {
		parts = append(parts, "NOT NULL")
	}
	if col.Default.Valid {
		parts = append(parts, "DEFAULT "+col.Default.Value)
	}

	return strings.Join(parts, " ")
}

// DescribeChange lists what differs between the two sides of a column change.
func DescribeChange(c diff.ColumnChange) []string {
	var parts []string
	if c.TypeChanged() {
		parts = append(parts, fmt.Sprintf("type %s -> %s", c.Before.Type, c.After.Type))
	}
	if c.NullabilityChanged() {
		parts = append(parts, fmt.Sprintf("%s -> %s", nullWord(c.Before), nullWord(c.After)))
	}
	if c.DefaultChanged() {
		parts = append(parts, fmt.Sprintf("default %s -> %s", defaultWord(c.Before), defaultWord(c.After)))
	}
	parts = appendFlag(parts, "PK", c.Before.PrimaryKey, c.After.PrimaryKey)
	parts = appendFlag(parts, "FK", c.Before.ForeignKey, c.After.ForeignKey)
	parts = appendFlag(parts, "UNIQUE", c.Before.Unique, c.After.Unique)
	return parts
}

func appendFlag(parts []string, name string, before, after bool) []string {
	switch {
	case !before && after:
		return append(parts, name+" added")
	case before && !after:
		return append(parts, name+" removed")
	}
	return parts
}

func nullWord(col schema.Column) string {
	if col.NotNull {
		return "NOT NULL"
	}
	return "NULL"
}

func defaultWord(col schema.Column) string {
	if col.Default.Valid {
		return col.Default.Value
	}
	return "none"
}
