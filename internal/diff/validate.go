package diff

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBreakingChanges is returned by callers that refuse to emit breaking migrations.
var ErrBreakingChanges = errors.New("change set contains breaking changes")

// ValidationError represents a finding about a change set.
type ValidationError struct {
	Table   string
	Column  string
	Message string
	// Breaking indicates the change can lose data or fail on existing rows.
	Breaking bool
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of change validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// HasBreakingChanges returns true if there are any breaking changes.
func (r *ValidationResult) HasBreakingChanges() bool {
	for _, e := range r.Errors {
		if e.Breaking {
			return true
		}
	}
	for _, w := range r.Warnings {
		if w.Breaking {
			return true
		}
	}
	return false
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	writeFindings(&sb, "Errors", r.Errors)
	writeFindings(&sb, "Warnings", r.Warnings)
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

func writeFindings(sb *strings.Builder, title string, findings []*ValidationError) {
	if len(findings) == 0 {
		return
	}
	sb.WriteString(title)
	sb.WriteString(":\n")
	for _, f := range findings {
		sb.WriteString("  - ")
		sb.WriteString(f.Error())
		if f.Breaking {
			sb.WriteString(" [BREAKING]")
		}
		sb.WriteString("\n")
	}
}

// ValidateOption configures change validation.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	allowDropColumn    bool
	allowDropTable     bool
	allowNullToNotNull bool
}

// AllowDropColumn reports dropped columns as warnings instead of errors.
func AllowDropColumn() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropColumn = true
	}
}

// AllowDropTable reports dropped tables as warnings instead of errors.
func AllowDropTable() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropTable = true
	}
}

// AllowNullToNotNull reports NULL -> NOT NULL changes as warnings instead of errors.
func AllowNullToNotNull() ValidateOption {
	return func(c *validateConfig) {
		c.allowNullToNotNull = true
	}
}

// Validate inspects a change set for changes that can fail or lose data when
// applied to a populated database. Findings follow the change set's ordering.
//
// Example:
//
//	result := diff.Validate(cs, diff.AllowDropColumn())
//	if result.HasErrors() {
//	    return diff.ErrBreakingChanges
//	}
func Validate(cs *ChangeSet, opts ...ValidateOption) *ValidationResult {
	cfg := &validateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	result := &ValidationResult{}
	report := func(allowed bool, finding *ValidationError) {
		if allowed {
			result.Warnings = append(result.Warnings, finding)
		} else {
			result.Errors = append(result.Errors, finding)
		}
	}

	for _, name := range cs.TablesDropped {
		report(cfg.allowDropTable, &ValidationError{
			Table:    name,
			Message:  "table will be dropped",
			Breaking: true,
		})
	}

	for _, table := range cs.AddedColumnTables() {
		for _, col := range cs.ColumnsAdded[table] {
			if col.NotNull && !col.Default.Valid {
				result.Warnings = append(result.Warnings, &ValidationError{
					Table:   table,
					Column:  col.Name,
					Message: "new NOT NULL column without default value may fail if table has data",
				})
			}
		}
	}

	for _, table := range cs.DroppedColumnTables() {
		for _, col := range cs.ColumnsDropped[table] {
			report(cfg.allowDropColumn, &ValidationError{
				Table:    table,
				Column:   col,
				Message:  "column will be dropped",
				Breaking: true,
			})
		}
	}

	for _, table := range cs.ModifiedColumnTables() {
		for _, change := range cs.ColumnsModified[table] {
			name := change.After.Name
			if change.TypeChanged() {
				result.Warnings = append(result.Warnings, &ValidationError{
					Table:   table,
					Column:  name,
					Message: fmt.Sprintf("column type changing from %s to %s", change.Before.Type, change.After.Type),
				})
			}
			if !change.Before.NotNull && change.After.NotNull {
				report(cfg.allowNullToNotNull, &ValidationError{
					Table:    table,
					Column:   name,
					Message:  "column changing from NULL to NOT NULL may fail if column has NULL values",
					Breaking: true,
				})
			}
			if !change.Before.Unique && change.After.Unique {
				result.Warnings = append(result.Warnings, &ValidationError{
					Table:   table,
					Column:  name,
					Message: "adding UNIQUE constraint may fail if duplicate values exist",
				})
			}
		}
	}

	return result
}
