package callback

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDedupStore is a persistent duplicate-suppression store. It survives
// restarts, which matters because the gateway re-delivers callbacks it
// considers unacknowledged. Its Seen method satisfies Options.IsDuplicate.
type SQLiteDedupStore struct {
	db     *sql.DB
	window time.Duration
}

// NewSQLiteDedupStore opens (or creates) the store at dbPath. Identifiers
// older than window are treated as unseen and pruned by Cleanup.
func NewSQLiteDedupStore(dbPath string, window time.Duration) (*SQLiteDedupStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("callback: failed to create directory %s: %w", dir, err)
	}

	// WAL keeps concurrent webhook deliveries from tripping over SQLITE_BUSY.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_timeout=20000", dbPath)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("callback: failed to open dedup store: %w", err)
	}

	store := &SQLiteDedupStore{db: db, window: window}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteDedupStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS processed_callbacks (
		id      TEXT PRIMARY KEY,
		seen_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_processed_callbacks_seen_at ON processed_callbacks(seen_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("callback: failed to initialize dedup schema: %w", err)
	}
	return nil
}

// Seen reports whether id was recorded within the window, recording it on
// first sight. The INSERT-or-ignore is atomic at the database level, so
// concurrent deliveries of the same callback cannot both pass.
func (s *SQLiteDedupStore) Seen(ctx context.Context, id string) (bool, error) {
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO processed_callbacks (id, seen_at) VALUES (?, ?)", id, now)
	if err != nil {
		return false, fmt.Errorf("callback: dedup insert failed: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("callback: dedup insert failed: %w", err)
	}
	if inserted > 0 {
		return false, nil
	}

	// Already present: duplicate only if still within the window, otherwise
	// restart the window for the identifier.
	var seenAt time.Time
	err = s.db.QueryRowContext(ctx,
		"SELECT seen_at FROM processed_callbacks WHERE id = ?", id).Scan(&seenAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("callback: dedup lookup failed: %w", err)
	}

	if now.Sub(seenAt) <= s.window {
		return true, nil
	}

	if _, err := s.db.ExecContext(ctx,
		"UPDATE processed_callbacks SET seen_at = ? WHERE id = ?", now, id); err != nil {
		return false, fmt.Errorf("callback: dedup update failed: %w", err)
	}
	return false, nil
}

// Cleanup removes identifiers older than the window.
func (s *SQLiteDedupStore) Cleanup(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-s.window)
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM processed_callbacks WHERE seen_at < ?", cutoff); err != nil {
		return fmt.Errorf("callback: dedup cleanup failed: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteDedupStore) Close() error {
	return s.db.Close()
}
