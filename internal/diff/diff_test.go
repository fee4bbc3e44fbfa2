package diff

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/tordrt/erdsql/internal/schema"
)

func table(name string, cols ...schema.Column) schema.Table {
	return schema.Table{Name: name, Columns: cols}
}

func pk(name, typ string) schema.Column {
	return schema.Column{Name: name, Type: typ, PrimaryKey: true, NotNull: true}
}

func col(name, typ string) schema.Column {
	return schema.Column{Name: name, Type: typ}
}

func TestDiff_AddedColumn(t *testing.T) {
	before := &schema.Schema{Tables: []schema.Table{table("User", pk("id", "int"), col("name", "varchar"))}}
	email := schema.Column{Name: "email", Type: "varchar", NotNull: true}
	after := &schema.Schema{Tables: []schema.Table{table("User", pk("id", "int"), col("name", "varchar"), email)}}

	cs := Diff(before, after)

	assert.Empty(t, cs.TablesAdded)
	assert.Empty(t, cs.TablesDropped)
	assert.Equal(t, map[string][]schema.Column{"User": {email}}, cs.ColumnsAdded)
	assert.Empty(t, cs.ColumnsDropped)
	assert.Empty(t, cs.ColumnsModified)
}

func TestDiff_DroppedTable(t *testing.T) {
	before := &schema.Schema{Tables: []schema.Table{table("User", pk("id", "int")), table("Order", pk("id", "int"))}}
	after := &schema.Schema{Tables: []schema.Table{table("User", pk("id", "int"))}}

	cs := Diff(before, after)

	assert.Equal(t, []string{"Order"}, cs.TablesDropped)
	assert.Empty(t, cs.TablesAdded)
	assert.NotContains(t, cs.ColumnsAdded, "Order")
	assert.NotContains(t, cs.ColumnsDropped, "Order")
	assert.NotContains(t, cs.ColumnsModified, "Order")
}

func TestDiff_TablesSorted(t *testing.T) {
	before := &schema.Schema{Tables: []schema.Table{table("zeta"), table("alpha"), table("mid")}}
	after := &schema.Schema{Tables: []schema.Table{table("mid"), table("yak"), table("beta")}}

	cs := Diff(before, after)

	assert.Equal(t, []string{"beta", "yak"}, cs.TablesAdded)
	assert.Equal(t, []string{"alpha", "zeta"}, cs.TablesDropped)
}

func TestDiff_ModifiedColumn(t *testing.T) {
	tests := []struct {
		name        string
		before      schema.Column
		after       schema.Column
		typeChanged bool
		nullChanged bool
		defChanged  bool
	}{
		{
			name:        "type",
			before:      col("count", "int"),
			after:       col("count", "bigint"),
			typeChanged: true,
		},
		{
			name:        "nullability",
			before:      col("count", "int"),
			after:       schema.Column{Name: "count", Type: "int", NotNull: true},
			nullChanged: true,
		},
		{
			name:       "default added",
			before:     col("count", "int"),
			after:      schema.Column{Name: "count", Type: "int", Default: schema.DefaultOf("0")},
			defChanged: true,
		},
		{
			name:   "key marker",
			before: col("count", "int"),
			after:  schema.Column{Name: "count", Type: "int", Unique: true},
		},
		{
			name:       "empty default is still a default",
			before:     col("count", "int"),
			after:      schema.Column{Name: "count", Type: "int", Default: schema.DefaultOf("")},
			defChanged: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := Diff(
				&schema.Schema{Tables: []schema.Table{table("T", tt.before)}},
				&schema.Schema{Tables: []schema.Table{table("T", tt.after)}},
			)

			require.Len(t, cs.ColumnsModified["T"], 1)
			change := cs.ColumnsModified["T"][0]
			assert.Equal(t, tt.before, change.Before)
			assert.Equal(t, tt.after, change.After)
			assert.Equal(t, tt.typeChanged, change.TypeChanged())
			assert.Equal(t, tt.nullChanged, change.NullabilityChanged())
			assert.Equal(t, tt.defChanged, change.DefaultChanged())
			assert.Empty(t, cs.ColumnsAdded)
			assert.Empty(t, cs.ColumnsDropped)
		})
	}
}

func TestDiff_ColumnsSorted(t *testing.T) {
	before := &schema.Schema{Tables: []schema.Table{
		table("T", col("zz", "int"), col("mm", "int"), col("bb", "int"), col("keep", "int")),
	}}
	after := &schema.Schema{Tables: []schema.Table{
		table("T", col("yy", "int"), col("keep", "int"), col("aa", "int"), col("mm", "text"), col("bb", "text")),
	}}

	cs := Diff(before, after)

	var added []string
	for _, c := range cs.ColumnsAdded["T"] {
		added = append(added, c.Name)
	}
	var modified []string
	for _, c := range cs.ColumnsModified["T"] {
		modified = append(modified, c.After.Name)
	}
	assert.Equal(t, []string{"aa", "yy"}, added)
	assert.Equal(t, []string{"zz"}, cs.ColumnsDropped["T"])
	assert.Equal(t, []string{"bb", "mm"}, modified)
}

func TestDiff_Empty(t *testing.T) {
	for _, tc := range []struct {
		name          string
		before, after *schema.Schema
	}{
		{"empty schemas", &schema.Schema{}, &schema.Schema{}},
		{"nil schemas", nil, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cs := Diff(tc.before, tc.after)
			assert.True(t, cs.IsEmpty())
			assert.Empty(t, cs.TablesAdded)
			assert.Empty(t, cs.TablesDropped)
		})
	}
}

func TestDiff_UnchangedTableHasNoEntries(t *testing.T) {
	s := &schema.Schema{Tables: []schema.Table{table("User", pk("id", "int")), table("Team", pk("id", "int"))}}
	other := &schema.Schema{Tables: []schema.Table{table("User", pk("id", "int")), table("Team", pk("id", "bigint"))}}

	cs := Diff(s, other)

	assert.NotContains(t, cs.ColumnsModified, "User")
	assert.Contains(t, cs.ColumnsModified, "Team")
	assert.Equal(t, []string{"Team"}, cs.ModifiedColumnTables())
}

var (
	genTypes  = []string{"int", "bigint", "varchar", "text", "uuid", "boolean"}
	genValues = []string{"0", "1", "'x'", "CURRENT_TIMESTAMP", ""}
)

func drawColumn(t *rapid.T, name string) schema.Column {
	c := schema.Column{
		Name:       name,
		Type:       rapid.SampledFrom(genTypes).Draw(t, "type"),
		PrimaryKey: rapid.Bool().Draw(t, "pk"),
		ForeignKey: rapid.Bool().Draw(t, "fk"),
		Unique:     rapid.Bool().Draw(t, "unique"),
		NotNull:    rapid.Bool().Draw(t, "notnull"),
	}
	if c.PrimaryKey {
		c.NotNull = true
	}
	if rapid.Bool().Draw(t, "hasdefault") {
		c.Default = schema.DefaultOf(rapid.SampledFrom(genValues).Draw(t, "default"))
	}
	return c
}

// drawSchema builds a schema over a small name space so that two drawn
// schemas overlap in tables and columns.
func drawSchema(t *rapid.T, label string) *schema.Schema {
	s := &schema.Schema{}
	tables := rapid.SliceOfDistinct(rapid.SampledFrom([]string{"a", "b", "c", "d", "e"}), rapid.ID[string]).Draw(t, label+"_tables")
	for _, name := range tables {
		tbl := schema.Table{Name: name}
		cols := rapid.SliceOfDistinct(rapid.SampledFrom([]string{"id", "name", "email", "x", "y", "z"}), rapid.ID[string]).Draw(t, label+"_"+name+"_cols")
		for _, c := range cols {
			tbl.PutColumn(drawColumn(t, c))
		}
		s.PutTable(tbl)
	}
	return s
}

// shuffled returns a copy of s with tables and columns in a different insertion order.
func shuffled(t *rapid.T, s *schema.Schema) *schema.Schema {
	out := &schema.Schema{}
	for _, i := range rapid.Permutation(indexes(len(s.Tables))).Draw(t, "table_order") {
		src := s.Tables[i]
		tbl := schema.Table{Name: src.Name}
		for _, j := range rapid.Permutation(indexes(len(src.Columns))).Draw(t, "column_order") {
			tbl.PutColumn(src.Columns[j])
		}
		out.PutTable(tbl)
	}
	return out
}

func indexes(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestProperty_DiffIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := drawSchema(t, "s")
		cs := Diff(s, s)
		if !cs.IsEmpty() {
			t.Fatalf("Diff(S, S) not empty: %+v", cs)
		}
	})
}

func TestProperty_DiffIgnoresInsertionOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		before := drawSchema(t, "before")
		after := drawSchema(t, "after")

		want := fmt.Sprintf("%+v", Diff(before, after))
		got := fmt.Sprintf("%+v", Diff(shuffled(t, before), shuffled(t, after)))
		if got != want {
			t.Fatalf("diff depends on insertion order:\n%s\n%s", want, got)
		}
		if !Diff(shuffled(t, before), before).IsEmpty() {
			t.Fatalf("reordering alone produced changes")
		}
	})
}
