package vm

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// TelemetryStore persists one row per GC cycle — scavenge, old-space
// collection, or program GC — to a local SQLite database: one
// CREATE TABLE IF NOT EXISTS database/sql connection, opened once and
// reused for the process lifetime. The driver is modernc.org/sqlite
// (pure Go, no cgo), so embedders cross-compile without a C toolchain.
type TelemetryStore struct {
	db *sql.DB
}

// OpenTelemetryStore opens (creating if necessary) a SQLite database at
// path and ensures its schema exists. An empty path opens an in-memory
// database, useful for tests and for embedders that don't want GC
// telemetry to survive a restart.
func OpenTelemetryStore(path string) (*TelemetryStore, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("vm: opening telemetry store %s: %w", dsn, err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS gc_cycles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	compact INTEGER NOT NULL DEFAULT 0,
	survivors INTEGER NOT NULL DEFAULT 0,
	promoted INTEGER NOT NULL DEFAULT 0,
	marked INTEGER NOT NULL DEFAULT 0,
	swept INTEGER NOT NULL DEFAULT 0,
	used_after INTEGER NOT NULL DEFAULT 0,
	widened INTEGER NOT NULL DEFAULT 0
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("vm: creating telemetry schema: %w", err)
	}
	return &TelemetryStore{db: db}, nil
}

// Close releases the underlying database handle.
func (t *TelemetryStore) Close() error {
	return t.db.Close()
}

// RecordScavenge inserts a row for one scavenger cycle.
func (t *TelemetryStore) RecordScavenge(stats ScavengeStats) error {
	_, err := t.db.Exec(
		`INSERT INTO gc_cycles (kind, survivors, promoted) VALUES ('scavenge', ?, ?)`,
		stats.Survivors, stats.Promoted,
	)
	if err != nil {
		return fmt.Errorf("vm: recording scavenge telemetry: %w", err)
	}
	return nil
}

// RecordOldSpaceGC inserts a row for one old-space collection cycle.
func (t *TelemetryStore) RecordOldSpaceGC(stats OldSpaceGCStats) error {
	compact := 0
	if stats.WasCompact {
		compact = 1
	}
	widen := 0
	if stats.Widened {
		widen = 1
	}
	_, err := t.db.Exec(
		`INSERT INTO gc_cycles (kind, compact, marked, swept, used_after, widened) VALUES ('oldspace', ?, ?, ?, ?, ?)`,
		compact, stats.Marked, stats.Swept, stats.UsedAfter, widen,
	)
	if err != nil {
		return fmt.Errorf("vm: recording old-space GC telemetry: %w", err)
	}
	return nil
}

// RecordProgramGC inserts a row for one program GC cycle.
func (t *TelemetryStore) RecordProgramGC(stats ProgramGCStats) error {
	_, err := t.db.Exec(
		`INSERT INTO gc_cycles (kind, survivors, promoted) VALUES ('program', ?, ?)`,
		stats.StacksChained, stats.Relocated,
	)
	if err != nil {
		return fmt.Errorf("vm: recording program GC telemetry: %w", err)
	}
	return nil
}

// CycleCount returns the total number of recorded GC cycles, used by
// tests to assert telemetry is actually being written.
func (t *TelemetryStore) CycleCount() (int, error) {
	var n int
	if err := t.db.QueryRow(`SELECT COUNT(*) FROM gc_cycles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("vm: counting telemetry rows: %w", err)
	}
	return n, nil
}
