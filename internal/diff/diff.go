// Package diff computes the structural difference between two schemas.
package diff

import (
	"sort"

	"github.com/tordrt/erdsql/internal/schema"
)

// ColumnChange is a column present in both schemas whose attributes differ.
type ColumnChange struct {
	Before schema.Column
	After  schema.Column
}

// TypeChanged reports whether the canonical type differs.
func (c ColumnChange) TypeChanged() bool {
	return c.Before.Type != c.After.Type
}

// NullabilityChanged reports whether NOT NULL differs.
func (c ColumnChange) NullabilityChanged() bool {
	return c.Before.NotNull != c.After.NotNull
}

// DefaultChanged reports whether the default differs, including added or removed defaults.
func (c ColumnChange) DefaultChanged() bool {
	return c.Before.Default != c.After.Default
}

// ChangeSet is the result of diffing two schemas.
//
// Table lists are sorted. Per-table column lists are sorted by column name.
// Only tables present in both schemas appear in the column maps, and a table
// appears in a column map only when it has at least one entry there.
type ChangeSet struct {
	TablesAdded     []string
	TablesDropped   []string
	ColumnsAdded    map[string][]schema.Column
	ColumnsDropped  map[string][]string
	ColumnsModified map[string][]ColumnChange
}

// IsEmpty reports whether the change set carries no changes at all.
func (cs *ChangeSet) IsEmpty() bool {
	return len(cs.TablesAdded) == 0 &&
		len(cs.TablesDropped) == 0 &&
		len(cs.ColumnsAdded) == 0 &&
		len(cs.ColumnsDropped) == 0 &&
		len(cs.ColumnsModified) == 0
}

// AddedColumnTables returns the tables with added columns, sorted.
func (cs *ChangeSet) AddedColumnTables() []string {
	return sortedKeys(cs.ColumnsAdded)
}

// DroppedColumnTables returns the tables with dropped columns, sorted.
func (cs *ChangeSet) DroppedColumnTables() []string {
	return sortedKeys(cs.ColumnsDropped)
}

// ModifiedColumnTables returns the tables with modified columns, sorted.
func (cs *ChangeSet) ModifiedColumnTables() []string {
	return sortedKeys(cs.ColumnsModified)
}

// Diff compares before and after. A nil schema is treated as empty.
func Diff(before, after *schema.Schema) *ChangeSet {
	if before == nil {
		before = &schema.Schema{}
	}
	if after == nil {
		after = &schema.Schema{}
	}

	cs := &ChangeSet{
		TablesAdded:     []string{},
		TablesDropped:   []string{},
		ColumnsAdded:    make(map[string][]schema.Column),
		ColumnsDropped:  make(map[string][]string),
		ColumnsModified: make(map[string][]ColumnChange),
	}

	beforeNames := before.TableNames()
	afterNames := after.TableNames()

	for _, name := range afterNames {
		if !before.HasTable(name) {
			cs.TablesAdded = append(cs.TablesAdded, name)
		}
	}
	for _, name := range beforeNames {
		if !after.HasTable(name) {
			cs.TablesDropped = append(cs.TablesDropped, name)
		}
	}

	for _, name := range afterNames {
		beforeTable, ok := before.Table(name)
		if !ok {
			continue
		}
		afterTable, _ := after.Table(name)
		diffTable(cs, beforeTable, afterTable)
	}

	return cs
}

func diffTable(cs *ChangeSet, before, after *schema.Table) {
	beforeCols := sortedStrings(before.ColumnNames())
	afterCols := sortedStrings(after.ColumnNames())

	var added []schema.Column
	var modified []ColumnChange
	for _, name := range afterCols {
		afterCol, _ := after.Column(name)
		beforeCol, ok := before.Column(name)
		if !ok {
			added = append(added, afterCol)
			continue
		}
		if beforeCol != afterCol {
			modified = append(modified, ColumnChange{Before: beforeCol, After: afterCol})
		}
	}

	var dropped []string
	for _, name := range beforeCols {
		if _, ok := after.Column(name); !ok {
			dropped = append(dropped, name)
		}
	}

	if len(added) > 0 {
		cs.ColumnsAdded[after.Name] = added
	}
	if len(dropped) > 0 {
		cs.ColumnsDropped[after.Name] = dropped
	}
	if len(modified) > 0 {
		cs.ColumnsModified[after.Name] = modified
	}
}

func sortedStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
