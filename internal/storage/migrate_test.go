package storage

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestRunMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrate.db")

	if err := RunMigrations(path); err != nil {
		t.Fatalf("first run: %v", err)
	}
	// A second run finds nothing to apply and must not fail.
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second run: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"expenses", "feature_requests"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %q missing: %v", table, err)
		}
	}
}

func TestRunMigrationsBadSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.db")
	src := fstest.MapFS{
		"migrations/0001_bad.up.sql": &fstest.MapFile{Data: []byte("CREATE TABL nope")},
	}

	if err := runMigrations(path, src, "migrations"); err == nil {
		t.Fatal("expected error from invalid migration SQL")
	}
}
