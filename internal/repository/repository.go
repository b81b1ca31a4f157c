package repository

import (
	"context"
	"database/sql"
	"time"

	"heat_controller/internal/models"
)

// KVStore is a durable string-keyed blob store. Get reports found=false for an absent key.
type KVStore interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

type NoticeRepo interface {
	Append(ctx context.Context, n models.Notice) error
	List(ctx context.Context, from, to time.Time, kind string) ([]models.Notice, error)
}

type Repository struct {
	KV         KVStore
	NoticeRepo NoticeRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		KV:         NewKVSQLite(db),
		NoticeRepo: NewNoticeSQLite(db),
	}
}
