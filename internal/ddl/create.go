package ddl

import (
	"strings"

	"github.com/tordrt/erdsql/internal/dialect"
	"github.com/tordrt/erdsql/internal/schema"
)

// CreateScript renders the full DDL for s: one CREATE TABLE per table in
// definition order, followed by the foreign key constraints of its relations.
// SQLite cannot add constraints to an existing table, so there the foreign
// keys are written inside CREATE TABLE instead.
func (g *Generator) CreateScript(s *schema.Schema) string {
	return render(g.CreateBlocks(s), NoTables)
}

// CreateBlocks returns the full DDL for s as ordered blocks.
func (g *Generator) CreateBlocks(s *schema.Schema) []Block {
	if s == nil {
		return nil
	}
	inlineFKs := g.dialect == dialect.SQLite

	var blocks []Block
	for i := range s.Tables {
		table := &s.Tables[i]
		var fks []schema.Relation
		if inlineFKs {
			fks = table.Relations
		}
		blocks = append(blocks, Block{
			Comment:    "Creating table: " + table.Name,
			Statements: []string{g.createTable(table, fks)},
		})
	}

	if inlineFKs {
		return blocks
	}

	for _, table := range s.Tables {
		for _, rel := range table.Relations {
			blocks = append(blocks, Block{
				Comment: "Foreign key: " + table.Name + "." + rel.SourceColumn + " -> " + rel.TargetTable + "." + rel.TargetColumn,
				Statements: []string{
					"ALTER TABLE " + table.Name + " ADD CONSTRAINT " + constraintName(table.Name, rel) +
						" FOREIGN KEY (" + rel.SourceColumn + ") REFERENCES " + rel.TargetTable + "(" + rel.TargetColumn + ");",
				},
			})
		}
	}
	return blocks
}

// createTable renders CREATE TABLE with columns in insertion order. A single
// primary key column is marked inline; a composite key becomes a trailing
// PRIMARY KEY clause. fks are rendered as trailing FOREIGN KEY clauses.
func (g *Generator) createTable(table *schema.Table, fks []schema.Relation) string {
	pk := table.PrimaryKeyColumns()
	composite := len(pk) > 1
	inPK := make(map[string]bool, len(pk))
	for _, name := range pk {
		inPK[name] = true
	}

	var defs []string
	for _, col := range table.Columns {
		var sb strings.Builder
		sb.WriteString(col.Name)
		sb.WriteString(" ")
		sb.WriteString(g.mapper.Map(col.Type))

		if inPK[col.Name] && !composite {
			sb.WriteString(" PRIMARY KEY")
		} else {
			if col.NotNull || inPK[col.Name] {
				sb.WriteString(" NOT NULL")
			}
			if col.Unique && !inPK[col.Name] {
				sb.WriteString(" UNIQUE")
			}
		}
		if col.Default.Valid {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(col.Default.Value)
		}
		defs = append(defs, sb.String())
	}

	if composite {
		defs = append(defs, "PRIMARY KEY ("+strings.Join(pk, ", ")+")")
	}
	for _, rel := range fks {
		defs = append(defs, "FOREIGN KEY ("+rel.SourceColumn+") REFERENCES "+rel.TargetTable+"("+rel.TargetColumn+")")
	}

	if len(defs) == 0 {
		return "CREATE TABLE " + table.Name + " ();"
	}
	return "CREATE TABLE " + table.Name + " (\n    " + strings.Join(defs, ",\n    ") + "\n);"
}

func constraintName(table string, rel schema.Relation) string {
	return "FK_" + table + "_" + rel.SourceColumn
}
