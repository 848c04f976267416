package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mindloop-ai/mindloop/core"
	"github.com/mindloop-ai/mindloop/logging"
)

// restoreFailureAlertThreshold is how many consecutive restore failures
// trigger the operator alert.
const restoreFailureAlertThreshold = 2

// SQLiteStore is a durable StateStore keeping the latest snapshot in a
// single-row table. A meta table carries a consecutive restore-failure
// counter that survives restarts; crossing the threshold logs an explicit
// operator alert (no auto-destructive recovery is attempted).
type SQLiteStore struct {
	db     *sql.DB
	logger logging.Logger
}

// SQLiteOptions configures a SQLiteStore.
type SQLiteOptions struct {
	Logger logging.Logger
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string, optFns ...func(o *SQLiteOptions)) (*SQLiteStore, error) {
	opts := SQLiteOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db, logger: opts.Logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id       INTEGER PRIMARY KEY CHECK (id = 1),
		blob     TEXT NOT NULL,
		saved_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`
	_, err := s.db.Exec(schema)
	return err
}

// Persist upserts the snapshot as the single stored row.
func (s *SQLiteStore) Persist(ctx context.Context, snap *core.Snapshot) error {
	blob, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, blob, saved_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET blob = excluded.blob, saved_at = excluded.saved_at`,
		string(blob), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	return nil
}

// Restore loads the stored snapshot. Decode failures increment the
// consecutive-failure counter before returning a CorruptStateError; a
// successful restore resets it.
func (s *SQLiteStore) Restore(ctx context.Context) (*core.Snapshot, error) {
	var blob string
	err := s.db.QueryRowContext(ctx, `SELECT blob FROM snapshots WHERE id = 1`).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap core.Snapshot
	if err := json.Unmarshal([]byte(blob), &snap); err != nil {
		failures := s.bumpRestoreFailures(ctx)
		if failures >= restoreFailureAlertThreshold {
			s.logger.Error("OPERATOR ALERT: persisted state corrupt across restarts",
				"consecutive_failures", failures, "error", err.Error())
		}
		return nil, &core.CorruptStateError{Err: err}
	}
	s.resetRestoreFailures(ctx)
	return &snap, nil
}

// RestoreFailures returns the current consecutive restore-failure count.
func (s *SQLiteStore) RestoreFailures(ctx context.Context) int {
	var v string
	if err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'restore_failures'`).Scan(&v); err != nil {
		return 0
	}
	n, _ := strconv.Atoi(v)
	return n
}

func (s *SQLiteStore) bumpRestoreFailures(ctx context.Context) int {
	n := s.RestoreFailures(ctx) + 1
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES ('restore_failures', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		strconv.Itoa(n))
	if err != nil {
		s.logger.Warn("failed to record restore failure", "error", err.Error())
	}
	return n
}

func (s *SQLiteStore) resetRestoreFailures(ctx context.Context) {
	_, err := s.db.ExecContext(ctx, `DELETE FROM meta WHERE key = 'restore_failures'`)
	if err != nil {
		s.logger.Warn("failed to reset restore failure counter", "error", err.Error())
	}
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }
