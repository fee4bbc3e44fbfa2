//go:build integration
// +build integration

package integration

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tordrt/erdsql"
	"github.com/tordrt/erdsql/internal/db"
)

const shopDiagram = `erDiagram
    users {
        int id PK
        varchar username UK "NOT NULL"
        varchar status "NOT NULL, DEFAULT 'active'"
    }
    orders {
        int id PK
        int user_id FK "NOT NULL"
        decimal total
    }
    users ||--o{ orders : user_id
`

const shopDiagramV2 = `erDiagram
    users {
        int id PK
        varchar username UK "NOT NULL"
        varchar status "NOT NULL, DEFAULT 'active'"
        varchar email
    }
    orders {
        int id PK
        int user_id FK "NOT NULL"
        decimal total
    }
    products {
        int id PK
        varchar name "NOT NULL"
    }
    users ||--o{ orders : user_id
`

func newSQLiteURL(t *testing.T) string {
	t.Helper()
	return "sqlite://" + filepath.Join(t.TempDir(), "shop.db")
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbURL := newSQLiteURL(t)
	want := erdsql.Parse(shopDiagram)

	script := erdsql.CreateScript(want, &erdsql.DDLOptions{Dialect: "sqlite"})
	if err := erdsql.ApplyMigration(ctx, dbURL, []string{script}, nil); err != nil {
		t.Fatalf("Failed to apply create script: %v", err)
	}

	s, err := erdsql.Introspect(ctx, dbURL, nil)
	if err != nil {
		t.Fatalf("Failed to extract schema: %v", err)
	}

	verifyTablesExist(t, s, []string{"users", "orders"})
	users := findTable(s, "users")
	if users == nil {
		t.Fatal("Users table not found")
	}
	verifyPrimaryKey(t, users, []string{"id"})
	verifyColumns(t, users, []string{"id", "username", "status"})
	verifyNotNull(t, users, "status")
	verifyUniqueConstraint(t, s, "users", "username")
	verifyForeignKey(t, s, "orders", "user_id", "users")

	verifyNoChanges(t, s, want)
}

func TestSQLiteMigrate(t *testing.T) {
	ctx := context.Background()
	dbURL := newSQLiteURL(t)

	v1 := erdsql.Parse(shopDiagram)
	create := erdsql.CreateScript(v1, &erdsql.DDLOptions{Dialect: "sqlite"})
	if err := erdsql.ApplyMigration(ctx, dbURL, []string{create}, nil); err != nil {
		t.Fatalf("Failed to apply create script: %v", err)
	}

	before, err := erdsql.Introspect(ctx, dbURL, nil)
	if err != nil {
		t.Fatalf("Failed to extract schema: %v", err)
	}
	v2 := erdsql.Parse(shopDiagramV2)
	stmts := erdsql.MigrationStatements(before, v2, &erdsql.DDLOptions{Dialect: "sqlite"})
	if len(stmts) != 2 {
		t.Fatalf("Expected 2 statements, got %q", stmts)
	}
	if err := erdsql.ApplyMigration(ctx, dbURL, stmts, nil); err != nil {
		t.Fatalf("Failed to apply migration: %v", err)
	}

	after, err := erdsql.Introspect(ctx, dbURL, &erdsql.Options{ExcludeTables: []string{"products"}})
	if err != nil {
		t.Fatalf("Failed to extract schema: %v", err)
	}
	verifyTablesExist(t, after, []string{"users", "orders"})
	verifyColumns(t, findTable(after, "users"), []string{"email"})
}

func TestSQLiteApplyRollback(t *testing.T) {
	ctx := context.Background()
	dbURL := newSQLiteURL(t)

	err := erdsql.ApplyMigration(ctx, dbURL, []string{
		"CREATE TABLE users (id INTEGER PRIMARY KEY);",
		"ALTER TABLE missing ADD COLUMN name TEXT;",
	}, nil)
	if err == nil {
		t.Fatal("Expected error but got none")
	}

	s, err := erdsql.Introspect(ctx, dbURL, nil)
	if err != nil {
		t.Fatalf("Failed to extract schema: %v", err)
	}
	if len(s.Tables) != 0 {
		t.Errorf("Expected rollback to leave no tables, got %d", len(s.Tables))
	}
}

func TestSQLiteSpecificTables(t *testing.T) {
	ctx := context.Background()
	dbURL := newSQLiteURL(t)

	script := erdsql.CreateScript(erdsql.Parse(shopDiagramV2), &erdsql.DDLOptions{Dialect: "sqlite"})
	if err := erdsql.ApplyMigration(ctx, dbURL, []string{script}, nil); err != nil {
		t.Fatalf("Failed to apply create script: %v", err)
	}

	client, err := db.NewSQLiteClient(ctx, dbURL[len("sqlite://"):])
	if err != nil {
		t.Fatalf("Failed to connect to SQLite: %v", err)
	}
	defer client.Close()

	s, err := db.NewSQLiteExtractor(client).ExtractSchema(ctx, []string{"users", "products"})
	if err != nil {
		t.Fatalf("Failed to extract schema: %v", err)
	}

	if len(s.Tables) != 2 {
		t.Errorf("Expected 2 tables, got %d", len(s.Tables))
	}
	if findTable(s, "orders") != nil {
		t.Error("Should not include orders table")
	}
}
