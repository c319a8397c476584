package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"binday/internal/model"
)

func TestMigrateRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate-roundtrip.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("first migrate up failed: %v", err)
	}
	if err := MigrateDown(db); err != nil {
		t.Fatalf("migrate down failed: %v", err)
	}
	if err := MigrateUp(db); err != nil {
		t.Fatalf("second migrate up failed: %v", err)
	}

	store, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	if err := store.Upsert(context.Background(), model.Reminder{
		ID:         "rt-1",
		OwnerID:    "42",
		EventTitle: "Restmüll",
		EventStart: start,
		State:      model.StatePending,
		CreatedAt:  start.Add(-24 * time.Hour),
	}); err != nil {
		t.Fatalf("upsert after re-migrate: %v", err)
	}
}

func TestMigrateUpIsRerunnable(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate-rerun.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	if err := MigrateUp(db); err != nil {
		t.Fatalf("second migrate up must be a no-op: %v", err)
	}
}
