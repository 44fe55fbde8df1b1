package database

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/robalobadob/colorguess/assets"
)

func TestMigrateIdempotent(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "nested", "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	for i := 0; i < 2; i++ {
		if err := Migrate(db, assets.Migrations()); err != nil {
			t.Fatalf("migrate pass %d: %v", i, err)
		}
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("_migrations rows = %d, want 1", n)
	}
	if _, err := db.Exec(`SELECT id FROM results LIMIT 1`); err != nil {
		t.Errorf("results table missing: %v", err)
	}
}

func TestMigrateRollsBackBadFile(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	fsys := fstest.MapFS{"001_bad.sql": {Data: []byte("CREATE TABLE ok (x INT); NOT SQL;")}}
	if err := Migrate(db, fsys); err == nil {
		t.Fatal("expected error for invalid migration")
	}
	var n int
	_ = db.QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&n)
	if n != 0 {
		t.Errorf("failed migration was recorded")
	}
}
