package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteScrollStore keeps scroll offsets in scroll.sqlite, one row per (session, key).
type SQLiteScrollStore struct {
	db      *sql.DB
	session string
	now     func() time.Time
}

func openSQLiteScrollStore(s Store, opts ScrollOptions) (*SQLiteScrollStore, error) {
	ctx := context.Background()
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.scrollDBPath())
	if err != nil {
		return nil, err
	}
	// WAL + busy_timeout: two viewers in different terminals may share the file.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateScrollSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	st := &SQLiteScrollStore{db: db, session: opts.Session, now: opts.now}
	if opts.TTL > 0 {
		cutoff := st.now().Add(-opts.TTL).UnixMilli()
		if _, err := db.ExecContext(ctx, `DELETE FROM scroll_positions WHERE updated_at_unixms < ?`, cutoff); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return st, nil
}

func migrateScrollSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scroll_positions (
			session_id TEXT NOT NULL,
			list_key TEXT NOT NULL,
			scroll_offset INTEGER NOT NULL,
			updated_at_unixms INTEGER NOT NULL,
			PRIMARY KEY(session_id, list_key)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_scroll_updated ON scroll_positions(updated_at_unixms);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteScrollStore) Save(key string, offset int) error {
	key, err := checkSave(key, offset)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(context.Background(),
		`INSERT OR REPLACE INTO scroll_positions(session_id, list_key, scroll_offset, updated_at_unixms) VALUES(?, ?, ?, ?)`,
		s.session, key, offset, s.now().UnixMilli())
	return err
}

func (s *SQLiteScrollStore) Restore(key string) (int, bool, error) {
	var offset int
	err := s.db.QueryRowContext(context.Background(),
		`SELECT scroll_offset FROM scroll_positions WHERE session_id = ? AND list_key = ?`,
		s.session, strings.TrimSpace(key)).Scan(&offset)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return offset, true, nil
}

func (s *SQLiteScrollStore) Reset() error {
	_, err := s.db.ExecContext(context.Background(), `DELETE FROM scroll_positions WHERE session_id = ?`, s.session)
	return err
}

func (s *SQLiteScrollStore) Close() error {
	return s.db.Close()
}
