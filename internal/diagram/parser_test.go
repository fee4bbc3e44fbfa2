package diagram

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/erdsql/internal/schema"
)

func TestParse_Columns(t *testing.T) {
	s := Parse(`erDiagram
    User {
        int id PK
        varchar email UK "NOT NULL"
        int team_id FK
        varchar(100) display_name
        timestamp created_at "NOT NULL, DEFAULT CURRENT_TIMESTAMP"
        varchar status "default 'active'"
        timestamp updated_at "DEFAULT now()"
        int score "DEFAULT (0)"
    }
`)

	require.Len(t, s.Tables, 1)
	user := &s.Tables[0]
	assert.Equal(t, "User", user.Name)
	assert.Equal(t, []string{"id", "email", "team_id", "display_name", "created_at", "status", "updated_at", "score"}, user.ColumnNames())
	assert.Equal(t, []string{"id"}, user.PrimaryKey)

	tests := []struct {
		name string
		want schema.Column
	}{
		{"id", schema.Column{Name: "id", Type: "int", PrimaryKey: true, NotNull: true}},
		{"email", schema.Column{Name: "email", Type: "varchar", Unique: true, NotNull: true}},
		{"team_id", schema.Column{Name: "team_id", Type: "int", ForeignKey: true}},
		{"display_name", schema.Column{Name: "display_name", Type: "varchar(100)"}},
		{"created_at", schema.Column{Name: "created_at", Type: "timestamp", NotNull: true, Default: schema.DefaultOf("CURRENT_TIMESTAMP")}},
		{"status", schema.Column{Name: "status", Type: "varchar", Default: schema.DefaultOf("'active'")}},
		{"updated_at", schema.Column{Name: "updated_at", Type: "timestamp", Default: schema.DefaultOf("now()")}},
		{"score", schema.Column{Name: "score", Type: "int", Default: schema.DefaultOf("0")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := user.Column(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Lenient(t *testing.T) {
	s := Parse(`%% a comment
ERDIAGRAM
    User {
        int id PK
        int
        123 broken
        !!!
        %% commented out column
        varchar name
    }
    this line is ignored
    Empty {}
    Blank {
    }
`)

	require.Len(t, s.Tables, 3)
	user, ok := s.Table("User")
	require.True(t, ok)
	assert.Equal(t, []string{"id", "name"}, user.ColumnNames())

	for _, name := range []string{"Empty", "Blank"} {
		table, ok := s.Table(name)
		require.True(t, ok, name)
		assert.Empty(t, table.Columns)
	}
}

func TestParse_Empty(t *testing.T) {
	for _, text := range []string{"", "erDiagram", "\n\n   \n"} {
		s := Parse(text)
		assert.Empty(t, s.Tables, "%q", text)
	}
}

func TestParse_LastDefinitionWins(t *testing.T) {
	s := Parse(`erDiagram
    User {
        int id PK
        varchar name
    }
    Team {
        int id PK
    }
    User {
        bigint id PK
    }
`)

	require.Len(t, s.Tables, 2)
	assert.Equal(t, []string{"Team", "User"}, s.TableNames())
	assert.Equal(t, "User", s.Tables[0].Name, "redefinition keeps the original position")

	user, _ := s.Table("User")
	assert.Equal(t, []string{"id"}, user.ColumnNames())
	col, _ := user.Column("id")
	assert.Equal(t, "bigint", col.Type)
}

func TestParse_CompositePrimaryKey(t *testing.T) {
	s := Parse(`erDiagram
    Membership {
        int user_id PK, FK
        int team_id PK,FK
        varchar role
    }
`)

	table, ok := s.Table("Membership")
	require.True(t, ok)
	assert.Equal(t, []string{"user_id", "team_id"}, table.PrimaryKey)

	col, _ := table.Column("team_id")
	assert.True(t, col.PrimaryKey)
	assert.True(t, col.ForeignKey)
	assert.True(t, col.NotNull)
}

func TestParse_Relationships(t *testing.T) {
	s := Parse(`erDiagram
    User {
        int id PK
    }
    Profile {
        int id PK
        int owner_id FK
    }
    Order {
        int id PK
        int user_id FK
    }
    Membership {
        int user_id PK
        int team_id PK
    }
    Invite {
        int id PK
        int membership_id FK
    }
    User ||--o{ Order : user_id
    User ||--|| Profile : "owner"
    Membership ||..o{ Invite : membership_id
    Ghost ||--o{ Order : ghost_id
`)

	tests := []struct {
		table string
		want  []schema.Relation
	}{
		{"Order", []schema.Relation{{SourceColumn: "user_id", TargetTable: "User", TargetColumn: "id", Cardinality: "N:1"}}},
		// Unknown label: the first FK column is used.
		{"Profile", []schema.Relation{{SourceColumn: "owner_id", TargetTable: "User", TargetColumn: "id", Cardinality: "1:1"}}},
		// Composite parent key: the target column falls back to id.
		{"Invite", []schema.Relation{{SourceColumn: "membership_id", TargetTable: "Membership", TargetColumn: "id", Cardinality: "N:1"}}},
		{"User", nil},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			table, ok := s.Table(tt.table)
			require.True(t, ok)
			assert.Equal(t, tt.want, table.Relations)
		})
	}
}

func TestParseReader(t *testing.T) {
	s, err := ParseReader(strings.NewReader("erDiagram\n  A {\n    int id PK\n  }\n"))
	require.NoError(t, err)
	assert.True(t, s.HasTable("A"))
}

var (
	propertyTypes = []string{"int", "bigint", "varchar", "text", "uuid", "decimal(10,2)", "timestamp"}
	propertyAttrs = []string{"", ` "NOT NULL"`, ` "DEFAULT 0"`, ` "NOT NULL, DEFAULT 'x'"`, ` "nullable"`}
	propertyMarks = []string{"", " PK", " FK", " UK", " PK, FK", " FK UK"}
)

func TestProperty_PrimaryKeyImpliesNotNull(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("parsed primary key columns are NOT NULL", prop.ForAll(
		func(name string, typ, mark, attr int) bool {
			text := fmt.Sprintf("erDiagram\nT {\n    %s %s%s%s\n}\n", propertyTypes[typ], name, propertyMarks[mark], propertyAttrs[attr])
			table, ok := Parse(text).Table("T")
			if !ok || len(table.Columns) != 1 {
				return false
			}
			col := table.Columns[0]
			if col.PrimaryKey != strings.Contains(propertyMarks[mark], "PK") {
				return false
			}
			return !col.PrimaryKey || col.NotNull
		},
		gen.Identifier(),
		gen.IntRange(0, len(propertyTypes)-1),
		gen.IntRange(0, len(propertyMarks)-1),
		gen.IntRange(0, len(propertyAttrs)-1),
	))

	properties.TestingRun(t)
}
