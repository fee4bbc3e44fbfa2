package schema

import "sort"

// Schema represents a complete database schema.
// Tables keep the order in which they were defined; names are unique and case-sensitive.
type Schema struct {
	Tables []Table
}

// Table represents a database table
type Table struct {
	Name       string
	Columns    []Column
	Relations  []Relation
	Indexes    []Index
	PrimaryKey []string
}

// Column represents a table column
type Column struct {
	Name       string
	Type       string // canonical lowercase keyword, e.g. "varchar"
	PrimaryKey bool
	ForeignKey bool
	Unique     bool
	NotNull    bool
	Default    Default
}

// Default is an optional column default. The zero value means "no default",
// which is distinct from a default whose text happens to be empty or "NULL".
type Default struct {
	Value string
	Valid bool
}

// NoDefault returns an absent default.
func NoDefault() Default {
	return Default{}
}

// DefaultOf returns a present default with the given SQL text.
func DefaultOf(value string) Default {
	return Default{Value: value, Valid: true}
}

// Relation represents a foreign key relationship
type Relation struct {
	TargetTable  string
	TargetColumn string
	SourceColumn string
	Cardinality  string // 1:1, N:1
}

// Index represents a database index
type Index struct {
	Name     string
	Columns  []string
	IsUnique bool
}

// Table returns the table with the given name.
func (s *Schema) Table(name string) (*Table, bool) {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i], true
		}
	}
	return nil, false
}

// HasTable reports whether a table with the given name exists.
func (s *Schema) HasTable(name string) bool {
	_, ok := s.Table(name)
	return ok
}

// PutTable stores t, replacing any table with the same name in place.
// It returns a pointer to the stored table.
func (s *Schema) PutTable(t Table) *Table {
	for i := range s.Tables {
		if s.Tables[i].Name == t.Name {
			s.Tables[i] = t
			return &s.Tables[i]
		}
	}
	s.Tables = append(s.Tables, t)
	return &s.Tables[len(s.Tables)-1]
}

// TableNames returns all table names in ascending order.
func (s *Schema) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for _, t := range s.Tables {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// PutColumn stores c, replacing any column with the same name in place so
// the original insertion position is kept.
func (t *Table) PutColumn(c Column) {
	for i := range t.Columns {
		if t.Columns[i].Name == c.Name {
			t.Columns[i] = c
			return
		}
	}
	t.Columns = append(t.Columns, c)
}

// ColumnNames returns the column names in insertion order.
func (t *Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

// PrimaryKeyColumns returns the primary key column names. When PrimaryKey is
// set it wins; otherwise the columns flagged PrimaryKey are collected in
// insertion order.
func (t *Table) PrimaryKeyColumns() []string {
	if len(t.PrimaryKey) > 0 {
		return t.PrimaryKey
	}
	var pk []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			pk = append(pk, c.Name)
		}
	}
	return pk
}
