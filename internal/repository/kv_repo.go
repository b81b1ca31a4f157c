package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type KVSQLite struct {
	db  *sql.DB
	now func() time.Time
}

func NewKVSQLite(db *sql.DB) *KVSQLite {
	return &KVSQLite{db: db, now: time.Now}
}

// Ensure implementation of KVStore interface at compile time.
var _ KVStore = (*KVSQLite)(nil)

const (
	upsertKVSQL = `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value=excluded.value,
			updated_at=excluded.updated_at
	`

	selectKVSQL = `SELECT value FROM kv_store WHERE key=?`
)

// Get returns the stored value for key. A missing row is not an error.
func (r *KVSQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	if err := r.db.QueryRowContext(ctx, selectKVSQL, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("select kv %q: %w", key, err)
	}
	return value, true, nil
}

// Set inserts or replaces the value for key.
func (r *KVSQLite) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	if _, err := r.db.ExecContext(ctx, upsertKVSQL, key, value, r.now().UTC()); err != nil {
		return fmt.Errorf("upsert kv %q: %w", key, err)
	}
	return nil
}
