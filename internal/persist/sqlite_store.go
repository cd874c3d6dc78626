package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/l1jgo/geocoin/internal/world"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps one encoded session blob per slot in a local SQLite file.
type SQLiteStore struct {
	sqlDB *sql.DB
	slot  string
}

// OpenSQLite opens (creating if needed) the database at path and applies
// embedded migrations.
func OpenSQLite(ctx context.Context, path, slot string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	dsn := cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := RunSQLiteMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return &SQLiteStore{sqlDB: sqlDB, slot: slot}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, ss *world.SessionState) error {
	blob, err := EncodeSession(ss)
	if err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO sessions (slot, blob, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET blob = excluded.blob, saved_at = excluded.saved_at`,
		s.slot, blob, time.Now().UTC().UnixMilli(),
	); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*world.SessionState, error) {
	var blob []byte
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT blob FROM sessions WHERE slot = ?`, s.slot,
	).Scan(&blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return DecodeSession(blob)
}

// SavedAt returns when the slot was last written.
func (s *SQLiteStore) SavedAt(ctx context.Context) (time.Time, error) {
	var ms int64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT saved_at FROM sessions WHERE slot = ?`, s.slot,
	).Scan(&ms)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, ErrNoSession
		}
		return time.Time{}, fmt.Errorf("load saved_at: %w", err)
	}
	return time.UnixMilli(ms).UTC(), nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}
