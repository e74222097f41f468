package db

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if err := conn.Close(); err != nil {
			t.Errorf("Failed to close database: %v", err)
		}
	})
	return conn
}

func TestInitializeDatabase(t *testing.T) {
	conn := testDB(t)

	if err := InitializeDatabase(conn); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	for _, table := range []string{"quotes", "quotes_fts", "track_event", "migrations"} {
		var name string
		err := conn.QueryRow(
			"SELECT name FROM sqlite_master WHERE name = ?", table).Scan(&name)
		if err != nil {
			t.Errorf("Expected table %s to exist: %v", table, err)
		}
	}

	// Running again must be a no-op
	if err := InitializeDatabase(conn); err != nil {
		t.Fatalf("Re-initialization failed: %v", err)
	}
}

func TestMigrationStatus(t *testing.T) {
	conn := testDB(t)
	manager := NewMigrationManager(conn)

	status, err := manager.GetMigrationStatus()
	if err != nil {
		t.Fatalf("Failed to get status: %v", err)
	}
	if len(status.Applied) != 0 {
		t.Errorf("Expected no applied migrations, got %d", len(status.Applied))
	}
	if len(status.Pending) != len(status.Available) {
		t.Errorf("Expected all migrations pending, got %d of %d", len(status.Pending), len(status.Available))
	}
	if len(status.Available) < 2 {
		t.Errorf("Expected at least 2 embedded migrations, got %d", len(status.Available))
	}

	if err := manager.ApplyPendingMigrations(); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	status, err = manager.GetMigrationStatus()
	if err != nil {
		t.Fatalf("Failed to get status: %v", err)
	}
	if len(status.Pending) != 0 {
		t.Errorf("Expected no pending migrations, got %d", len(status.Pending))
	}
	if len(status.Applied) != len(status.Available) {
		t.Errorf("Expected all migrations applied, got %d of %d", len(status.Applied), len(status.Available))
	}
	for _, m := range status.Applied {
		if m.AppliedAt == nil {
			t.Errorf("Expected applied timestamp for migration %d", m.Version)
		}
	}
}

func TestMigrationManagerFromPath(t *testing.T) {
	conn := testDB(t)
	dir := t.TempDir()

	migration := "CREATE TABLE custom_table (id INTEGER PRIMARY KEY);"
	if err := os.WriteFile(filepath.Join(dir, "001_custom.sql"), []byte(migration), 0644); err != nil {
		t.Fatalf("Failed to write migration: %v", err)
	}
	// Files outside the naming convention are skipped
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	manager := NewMigrationManagerFromPath(conn, dir)
	if err := manager.ApplyPendingMigrations(); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	var name string
	if err := conn.QueryRow("SELECT name FROM sqlite_master WHERE name = 'custom_table'").Scan(&name); err != nil {
		t.Errorf("Expected custom_table to exist: %v", err)
	}
}

func TestParseMigrationEntry(t *testing.T) {
	read := func(string) ([]byte, error) { return []byte("SELECT 1;"), nil }

	m, ok, err := parseMigrationEntry("003_add_index.sql", read)
	if err != nil || !ok {
		t.Fatalf("Expected parse to succeed, ok=%v err=%v", ok, err)
	}
	if m.Version != 3 || m.Name != "add_index" {
		t.Errorf("Unexpected migration %+v", m)
	}

	for _, name := range []string{"README.md", "nounderscore.sql", "abc_def.sql"} {
		if _, ok, _ := parseMigrationEntry(name, read); ok {
			t.Errorf("Expected %s to be skipped", name)
		}
	}
}
