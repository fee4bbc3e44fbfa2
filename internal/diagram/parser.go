// Package diagram reads and writes entity-relationship diagram text.
//
// The grammar is line oriented:
//
//	erDiagram
//	User {
//	    int id PK
//	    varchar email UK "NOT NULL"
//	    timestamp created_at "NOT NULL, DEFAULT CURRENT_TIMESTAMP"
//	}
//	User ||--o{ Order : user_id
//
// Parsing is lenient. Lines that do not fit the grammar are skipped rather
// than reported, so a partially malformed document still yields every table
// and column that could be read.
package diagram

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/tordrt/erdsql/internal/schema"
)

const (
	diagramKeyword = "erdiagram"
	commentMarker  = "%%"
)

var (
	entityPattern       = regexp.MustCompile(`^(\w+)\s*\{`)
	columnPattern       = regexp.MustCompile(`^([A-Za-z_][\w]*(?:\([^)]*\))?(?:\[\])?)\s+(\w+)((?:\s*,?\s*(?:PK|FK|UK)\b)*)\s*(?:"([^"]*)")?`)
	markerPattern       = regexp.MustCompile(`PK|FK|UK`)
	notNullPattern      = regexp.MustCompile(`(?i)\bNOT\s+NULL\b`)
	// Wrapping parentheses are dropped, a call's trailing () is kept.
	defaultPattern      = regexp.MustCompile(`(?i)\bDEFAULT\s+\(?([^\s,()]+(?:\(\))?)`)
	relationshipPattern = regexp.MustCompile(`^(\w+)\s+([|}o]{2})(?:--|\.\.)([|{o]{2})\s+(\w+)\s*:\s*(.*)$`)
)

type scanState int

const (
	outsideEntity scanState = iota
	insideEntity
)

// relationshipLine is a relationship as written, resolved once all tables are known.
type relationshipLine struct {
	parent string
	child  string
	many   bool
	label  string
}

// Parse reads diagram text into a Schema. It never fails; see the package
// documentation for how malformed input is handled.
func Parse(text string) *schema.Schema {
	s := &schema.Schema{}
	state := outsideEntity
	var current *schema.Table
	var relationships []relationshipLine

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)

		if line == "" || strings.HasPrefix(line, commentMarker) {
			continue
		}
		if strings.ToLower(line) == diagramKeyword {
			continue
		}

		if m := entityPattern.FindStringSubmatch(line); m != nil {
			// Last definition wins.
			current = s.PutTable(schema.Table{Name: m[1]})
			state = insideEntity
			if strings.HasSuffix(line, "}") {
				// `Name {}` on one line: an empty entity.
				current = nil
				state = outsideEntity
			}
			continue
		}

		if line == "}" {
			current = nil
			state = outsideEntity
			continue
		}

		switch state {
		case insideEntity:
			if col, ok := parseColumn(line); ok {
				current.PutColumn(col)
			}
		case outsideEntity:
			if rel, ok := parseRelationship(line); ok {
				relationships = append(relationships, rel)
			}
		}
	}

	for i := range s.Tables {
		s.Tables[i].PrimaryKey = s.Tables[i].PrimaryKeyColumns()
	}
	resolveRelationships(s, relationships)

	return s
}

// ParseReader reads all of r and parses it. Only read errors are returned.
func ParseReader(r io.Reader) (*schema.Schema, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read diagram: %w", err)
	}
	return Parse(string(data)), nil
}

// parseColumn parses `type name [PK|FK|UK ...] ["attributes"]`.
func parseColumn(line string) (schema.Column, bool) {
	m := columnPattern.FindStringSubmatch(line)
	if m == nil {
		return schema.Column{}, false
	}

	col := schema.Column{
		Name: m[2],
		Type: strings.ToLower(m[1]),
	}

	for _, marker := range markerPattern.FindAllString(m[3], -1) {
		switch marker {
		case "PK":
			col.PrimaryKey = true
		case "FK":
			col.ForeignKey = true
		case "UK":
			col.Unique = true
		}
	}

	if attrs := m[4]; attrs != "" {
		col.NotNull = notNullPattern.MatchString(attrs)
		if d := defaultPattern.FindStringSubmatch(attrs); d != nil {
			col.Default = schema.DefaultOf(d[1])
		}
	}

	// Primary keys are implicitly NOT NULL.
	if col.PrimaryKey {
		col.NotNull = true
	}

	return col, true
}

func parseRelationship(line string) (relationshipLine, bool) {
	m := relationshipPattern.FindStringSubmatch(line)
	if m == nil {
		return relationshipLine{}, false
	}
	label := strings.Trim(strings.TrimSpace(m[5]), `"`)
	if fields := strings.Fields(label); len(fields) > 0 {
		label = fields[0]
	} else {
		label = ""
	}
	return relationshipLine{
		parent: m[1],
		child:  m[4],
		many:   strings.Contains(m[3], "{"),
		label:  label,
	}, true
}

// resolveRelationships attaches relationships to their child tables. Lines
// naming unknown tables, or whose source column cannot be found, are dropped.
func resolveRelationships(s *schema.Schema, lines []relationshipLine) {
	for _, rl := range lines {
		parent, ok := s.Table(rl.parent)
		if !ok {
			continue
		}
		child, ok := s.Table(rl.child)
		if !ok {
			continue
		}

		source := ""
		if _, ok := child.Column(rl.label); ok {
			source = rl.label
		} else {
			for _, c := range child.Columns {
				if c.ForeignKey {
					source = c.Name
					break
				}
			}
		}
		if source == "" {
			continue
		}

		target := "id"
		if pk := parent.PrimaryKeyColumns(); len(pk) == 1 {
			target = pk[0]
		}

		cardinality := "1:1"
		if rl.many {
			cardinality = "N:1"
		}

		child.Relations = append(child.Relations, schema.Relation{
			SourceColumn: source,
			TargetTable:  parent.Name,
			TargetColumn: target,
			Cardinality:  cardinality,
		})
	}
}
