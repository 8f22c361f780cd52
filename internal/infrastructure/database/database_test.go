package database

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(Config{
		Path:        filepath.Join(t.TempDir(), "printwatch.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("closing database: %v", err)
		}
	})
	return db
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "printwatch.db")

	db, err := Open(Config{Path: path, BusyTimeout: 5})
	if err != nil {
		t.Fatalf("opening database in nested directory: %v", err)
	}
	defer db.Close()

	if db.Path() != path {
		t.Errorf("expected path %s, got %s", path, db.Path())
	}
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)

	if err := db.HealthCheck(context.Background()); err != nil {
		t.Errorf("expected healthy database, got %v", err)
	}
}

func TestMigrate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("applying migrations: %v", err)
	}

	// The initial schema creates the core tables.
	for _, table := range []string{"printers", "status_history", "error_ledger"} {
		var name string
		err := db.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		if err != nil {
			t.Errorf("expected table %s to exist: %v", table, err)
		}
	}

	var count int
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("querying schema_migrations: %v", err)
	}
	if count == 0 {
		t.Error("expected at least one recorded migration")
	}
}

func TestMigrateIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("first migration run: %v", err)
	}

	var before int
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM schema_migrations").Scan(&before); err != nil {
		t.Fatalf("counting migrations: %v", err)
	}

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second migration run: %v", err)
	}

	var after int
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM schema_migrations").Scan(&after); err != nil {
		t.Fatalf("counting migrations: %v", err)
	}
	if before != after {
		t.Errorf("expected migration count unchanged, got %d then %d", before, after)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("applying migrations: %v", err)
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO status_history (printer_id, status, message, error_code, created_at)
		VALUES ('no-such-printer', 'ready', '', '', '2026-03-01T12:00:00Z')
	`)
	if err == nil {
		t.Error("expected foreign key violation for orphan history row")
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename  string
		version   string
		name      string
		direction string
		ok        bool
	}{
		{"20260301_120000_initial_schema.up.sql", "20260301_120000", "initial_schema", "up", true},
		{"20260301_120000_initial_schema.down.sql", "20260301_120000", "initial_schema", "down", true},
		{"20260415_093000_add_supply_levels.up.sql", "20260415_093000", "add_supply_levels", "up", true},
		{"no_direction.sql", "", "", "", false},
		{"20260301_missing_parts.up.sql", "20260301_missing", "parts", "up", true},
		{"short.up.sql", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, direction, ok := parseMigrationFilename(tt.filename)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if !ok {
				return
			}
			if version != tt.version || name != tt.name || direction != tt.direction {
				t.Errorf("got (%s, %s, %s), want (%s, %s, %s)",
					version, name, direction, tt.version, tt.name, tt.direction)
			}
		})
	}
}
