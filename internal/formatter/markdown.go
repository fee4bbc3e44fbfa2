package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/erdsql/internal/diff"
)

// Report is everything a migration report shows.
type Report struct {
	Changes    *diff.ChangeSet
	Validation *diff.ValidationResult // optional
	Dialect    string
	SQL        string // optional
}

// MarkdownFormatter formats a migration report as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the report in markdown format
func (f *MarkdownFormatter) Format(r Report) error {
	cs := r.Changes
	if cs == nil {
		cs = &diff.ChangeSet{}
	}

	_, _ = fmt.Fprintln(f.writer, "# Schema Migration")
	_, _ = fmt.Fprintln(f.writer)
	if r.Dialect != "" {
		_, _ = fmt.Fprintf(f.writer, "**Dialect:** %s\n\n", r.Dialect)
	}

	f.formatSummary(cs)
	f.formatTables(cs)
	f.formatColumns(cs)
	if r.Validation != nil {
		f.formatValidation(r.Validation)
	}

	if r.SQL != "" {
		_, _ = fmt.Fprintln(f.writer, "## SQL")
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "```sql")
		_, _ = fmt.Fprintln(f.writer, strings.TrimRight(r.SQL, "\n"))
		_, err := fmt.Fprintln(f.writer, "```")
		return err
	}
	return nil
}

func (f *MarkdownFormatter) formatSummary(cs *diff.ChangeSet) {
	_, _ = fmt.Fprintln(f.writer, "## Summary")
	_, _ = fmt.Fprintln(f.writer)

	if cs.IsEmpty() {
		_, _ = fmt.Fprintln(f.writer, "No changes detected.")
		_, _ = fmt.Fprintln(f.writer)
		return
	}

	_, _ = fmt.Fprintf(f.writer, "- Tables added: %d\n", len(cs.TablesAdded))
	_, _ = fmt.Fprintf(f.writer, "- Tables dropped: %d\n", len(cs.TablesDropped))
	_, _ = fmt.Fprintf(f.writer, "- Columns added: %d\n", countColumns(cs.ColumnsAdded))
	_, _ = fmt.Fprintf(f.writer, "- Columns dropped: %d\n", countColumns(cs.ColumnsDropped))
	_, _ = fmt.Fprintf(f.writer, "- Columns modified: %d\n", countColumns(cs.ColumnsModified))
	_, _ = fmt.Fprintln(f.writer)
}

func countColumns[V any](m map[string][]V) int {
	n := 0
	for _, cols := range m {
		n += len(cols)
	}
	return n
}

func (f *MarkdownFormatter) formatTables(cs *diff.ChangeSet) {
	if len(cs.TablesAdded) > 0 {
		_, _ = fmt.Fprintln(f.writer, "## Tables Added")
		_, _ = fmt.Fprintln(f.writer)
		for _, name := range cs.TablesAdded {
			_, _ = fmt.Fprintf(f.writer, "- **%s**\n", name)
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	if len(cs.TablesDropped) > 0 {
		_, _ = fmt.Fprintln(f.writer, "## Tables Dropped")
		_, _ = fmt.Fprintln(f.writer)
		for _, name := range cs.TablesDropped {
			_, _ = fmt.Fprintf(f.writer, "- **%s**\n", name)
		}
		_, _ = fmt.Fprintln(f.writer)
	}
}

func (f *MarkdownFormatter) formatColumns(cs *diff.ChangeSet) {
	tables := changedTables(cs)
	if len(tables) == 0 {
		return
	}

	_, _ = fmt.Fprintln(f.writer, "## Column Changes")
	_, _ = fmt.Fprintln(f.writer)

	for _, table := range tables {
		_, _ = fmt.Fprintf(f.writer, "### %s\n\n", table)
		for _, col := range cs.ColumnsAdded[table] {
			_, _ = fmt.Fprintf(f.writer, "- added **%s:** %s\n", col.Name, DescribeColumn(col))
		}
		for _, col := range cs.ColumnsDropped[table] {
			_, _ = fmt.Fprintf(f.writer, "- dropped **%s**\n", col)
		}
		for _, change := range cs.ColumnsModified[table] {
			_, _ = fmt.Fprintf(f.writer, "- modified **%s:** %s\n", change.After.Name, strings.Join(DescribeChange(change), ", "))
		}
		_, _ = fmt.Fprintln(f.writer)
	}
}

func (f *MarkdownFormatter) formatValidation(v *diff.ValidationResult) {
	if !v.HasErrors() && !v.HasWarnings() {
		return
	}

	_, _ = fmt.Fprintln(f.writer, "## Validation")
	_, _ = fmt.Fprintln(f.writer)

	for _, group := range []struct {
		title    string
		findings []*diff.ValidationError
	}{
		{"Errors", v.Errors},
		{"Warnings", v.Warnings},
	} {
		if len(group.findings) == 0 {
			continue
		}
		_, _ = fmt.Fprintf(f.writer, "### %s\n\n", group.title)
		for _, finding := range group.findings {
			target := finding.Table
			if finding.Column != "" {
				target += "." + finding.Column
			}
			breaking := ""
			if finding.Breaking {
				breaking = " **(breaking)**"
			}
			_, _ = fmt.Fprintf(f.writer, "- `%s`: %s%s\n", target, finding.Message, breaking)
		}
		_, _ = fmt.Fprintln(f.writer)
	}
}
