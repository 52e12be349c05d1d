package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"staffeval/internal/platform/db"
	"staffeval/internal/platform/db/migrations"
)

type SQLiteStore struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// OpenSQLite opens the key/value store in the database file at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	sqlDB, err := db.OpenSQLite(ctx, path, migrations.SQLite, "sqlite")
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{sqlDB: sqlDB, now: time.Now}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s == nil || s.sqlDB == nil {
		return "", false, ErrClosed
	}
	var value string
	err := s.sqlDB.QueryRowContext(ctx, "SELECT value FROM kv_entries WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) Apply(ctx context.Context, ops ...Op) error {
	if s == nil || s.sqlDB == nil {
		return ErrClosed
	}
	if len(ops) == 0 {
		return nil
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	stamp := s.now().UTC().UnixMilli()
	for _, op := range ops {
		if op.Value == nil {
			_, err = tx.ExecContext(ctx, "DELETE FROM kv_entries WHERE key = ?", op.Key)
		} else {
			_, err = tx.ExecContext(ctx, `
INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
				op.Key, *op.Value, stamp)
		}
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", op.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Scan(ctx context.Context, prefix string) (map[string]string, error) {
	if s == nil || s.sqlDB == nil {
		return nil, ErrClosed
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT key, value FROM kv_entries WHERE key LIKE ? ESCAPE '\' ORDER BY key`,
		escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", prefix, err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		// LIKE folds ASCII case in SQLite.
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		out[key] = value
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}
