// Package ddl turns change sets and schemas into dialect-aware SQL.
//
// Output is a sequence of blocks. Each block is a one-line SQL comment naming
// what it touches, followed by one or more statements. Blocks are separated
// by a blank line. Emission order is fixed and depends only on sorted table
// and column names, never on map iteration order:
//
//  1. DROP TABLE for dropped tables
//  2. CREATE TABLE for added tables
//  3. ADD COLUMN
//  4. DROP COLUMN
//  5. column modifications, shaped per dialect
package ddl

import (
	"strings"

	"github.com/tordrt/erdsql/internal/dialect"
	"github.com/tordrt/erdsql/internal/diff"
	"github.com/tordrt/erdsql/internal/schema"
)

// NoChanges is emitted in place of an empty migration.
const NoChanges = "-- No changes detected"

// NoTables is emitted by CreateScript for a schema without tables.
const NoTables = "-- No tables defined"

// Block is a commented group of statements.
type Block struct {
	Comment    string
	Statements []string
}

// String renders the comment line followed by the statements.
func (b Block) String() string {
	lines := make([]string, 0, len(b.Statements)+1)
	lines = append(lines, "-- "+b.Comment)
	lines = append(lines, b.Statements...)
	return strings.Join(lines, "\n")
}

// Generator renders SQL for a single dialect.
type Generator struct {
	dialect   dialect.Dialect
	overrides map[string]string
	mapper    *dialect.Mapper
}

// Option configures a Generator.
type Option func(*Generator)

// WithTypeOverrides replaces the built-in SQL type for the given canonical types.
func WithTypeOverrides(overrides map[string]string) Option {
	return func(g *Generator) {
		g.overrides = dialect.MergeTypeMappings(g.overrides, overrides)
	}
}

// New creates a generator for d.
func New(d dialect.Dialect, opts ...Option) *Generator {
	g := &Generator{dialect: d}
	for _, opt := range opts {
		opt(g)
	}
	g.mapper = dialect.NewMapper(d, g.overrides)
	return g
}

// Dialect returns the dialect the generator emits.
func (g *Generator) Dialect() dialect.Dialect {
	return g.dialect
}

// Synthesize renders the statements that turn the "before" schema of cs into after.
func Synthesize(cs *diff.ChangeSet, after *schema.Schema, d dialect.Dialect) string {
	return New(d).Synthesize(cs, after)
}

// Synthesize renders the statements that turn the "before" schema of cs into after.
// An empty change set renders as NoChanges.
func (g *Generator) Synthesize(cs *diff.ChangeSet, after *schema.Schema) string {
	return render(g.Blocks(cs, after), NoChanges)
}

// Blocks returns the migration as ordered blocks.
func (g *Generator) Blocks(cs *diff.ChangeSet, after *schema.Schema) []Block {
	if after == nil {
		after = &schema.Schema{}
	}
	var blocks []Block

	for _, name := range cs.TablesDropped {
		blocks = append(blocks, Block{
			Comment:    "Dropping table: " + name,
			Statements: []string{"DROP TABLE " + name + ";"},
		})
	}

	for _, name := range cs.TablesAdded {
		table, ok := after.Table(name)
		if !ok {
			table = &schema.Table{Name: name}
		}
		blocks = append(blocks, Block{
			Comment:    "Creating new table: " + name,
			Statements: []string{g.createTable(table, nil)},
		})
	}

	for _, table := range cs.AddedColumnTables() {
		for _, col := range cs.ColumnsAdded[table] {
			blocks = append(blocks, Block{
				Comment:    "Adding column to " + table + ": " + col.Name,
				Statements: []string{"ALTER TABLE " + table + " ADD COLUMN " + g.addColumnDef(col) + ";"},
			})
		}
	}

	for _, table := range cs.DroppedColumnTables() {
		for _, col := range cs.ColumnsDropped[table] {
			blocks = append(blocks, Block{
				Comment:    "Dropping column from " + table + ": " + col,
				Statements: []string{"ALTER TABLE " + table + " DROP COLUMN " + col + ";"},
			})
		}
	}

	for _, table := range cs.ModifiedColumnTables() {
		for _, change := range cs.ColumnsModified[table] {
			blocks = append(blocks, Block{
				Comment:    "Modifying column " + table + "." + change.After.Name,
				Statements: g.modifyColumn(table, change),
			})
		}
	}

	return blocks
}

// Statements flattens blocks into executable statements, dropping comments.
func Statements(blocks []Block) []string {
	var stmts []string
	for _, b := range blocks {
		stmts = append(stmts, b.Statements...)
	}
	return stmts
}

func render(blocks []Block, empty string) string {
	if len(blocks) == 0 {
		return empty
	}
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = b.String()
	}
	return strings.Join(parts, "\n\n")
}

// addColumnDef renders `name TYPE [NOT NULL] [UNIQUE] [DEFAULT v]`.
func (g *Generator) addColumnDef(col schema.Column) string {
	var sb strings.Builder
	sb.WriteString(col.Name)
	sb.WriteString(" ")
	sb.WriteString(g.mapper.Map(col.Type))
	if col.NotNull {
		sb.WriteString(" NOT NULL")
	}
	if col.Unique {
		sb.WriteString(" UNIQUE")
	}
	if col.Default.Valid {
		sb.WriteString(" DEFAULT ")
		sb.WriteString(col.Default.Value)
	}
	return sb.String()
}

func (g *Generator) modifyColumn(table string, change diff.ColumnChange) []string {
	col := change.After
	sqlType := g.mapper.Map(col.Type)
	prefix := "ALTER TABLE " + table + " "

	switch g.dialect.AlterStyle() {
	case dialect.AlterModify:
		stmt := prefix + "MODIFY COLUMN " + col.Name + " " + sqlType + nullability(col)
		if col.Default.Valid {
			stmt += " DEFAULT " + col.Default.Value
		}
		return []string{stmt + ";"}

	case dialect.AlterSplit:
		alter := prefix + "ALTER COLUMN " + col.Name
		// TYPE always leads; nullability and default follow only when they changed.
		stmts := []string{alter + " TYPE " + sqlType + ";"}
		if change.NullabilityChanged() {
			if col.NotNull {
				stmts = append(stmts, alter+" SET NOT NULL;")
			} else {
				stmts = append(stmts, alter+" DROP NOT NULL;")
			}
		}
		if change.DefaultChanged() {
			if col.Default.Valid {
				stmts = append(stmts, alter+" SET DEFAULT "+col.Default.Value+";")
			} else {
				stmts = append(stmts, alter+" DROP DEFAULT;")
			}
		}
		return stmts

	default:
		return []string{prefix + "ALTER COLUMN " + col.Name + " " + sqlType + nullability(col) + ";"}
	}
}

func nullability(col schema.Column) string {
	if col.NotNull {
		return " NOT NULL"
	}
	return " NULL"
}
