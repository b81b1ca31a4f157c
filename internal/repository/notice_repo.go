package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"heat_controller/internal/models"
)

// noticeTimeLayout is the SQLite TIMESTAMP text form used for both writes and range filters.
const noticeTimeLayout = "2006-01-02 15:04:05"

type NoticeSQLite struct {
	db *sql.DB
}

func NewNoticeSQLite(db *sql.DB) *NoticeSQLite { return &NoticeSQLite{db: db} }

var _ NoticeRepo = (*NoticeSQLite)(nil)

// Append inserts a new notice. If ID or OccurredAt are empty, they're set.
func (r *NoticeSQLite) Append(ctx context.Context, n models.Notice) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.OccurredAt.IsZero() {
		n.OccurredAt = time.Now().UTC()
	} else {
		n.OccurredAt = n.OccurredAt.UTC()
	}

	var metaPtr *string
	if n.Metadata != nil {
		if b, err := json.Marshal(n.Metadata); err == nil {
			s := string(b)
			metaPtr = &s
		}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notices (id, occurred_at, kind, message, meta)
		VALUES (?, ?, ?, ?, ?)
	`,
		n.ID,
		n.OccurredAt.Format(noticeTimeLayout),
		strings.ToUpper(strings.TrimSpace(n.Kind)),
		n.Message,
		metaPtr,
	)
	return err
}

// List returns notices filtered by [from, to] (inclusive) and/or kind, ordered ASC.
func (r *NoticeSQLite) List(ctx context.Context, from, to time.Time, kind string) ([]models.Notice, error) {
	var (
		conds []string
		args  []any
	)

	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, from.UTC().Format(noticeTimeLayout))
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, to.UTC().Format(noticeTimeLayout))
	}
	if kind = strings.ToUpper(strings.TrimSpace(kind)); kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, kind)
	}

	q := `SELECT id, occurred_at, kind, message, meta FROM notices`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Notice, 0, 16)
	for rows.Next() {
		var n models.Notice
		var metaStr sql.NullString
		if err := rows.Scan(&n.ID, &n.OccurredAt, &n.Kind, &n.Message, &metaStr); err != nil {
			return nil, err
		}
		n.OccurredAt = n.OccurredAt.UTC()

		if metaStr.Valid && metaStr.String != "" {
			var v any
			if err := json.Unmarshal([]byte(metaStr.String), &v); err == nil {
				n.Metadata = v
			} else {
				n.Metadata = metaStr.String // keep raw if malformed
			}
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
