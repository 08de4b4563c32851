package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"booksearch/internal/models"

	"github.com/google/uuid"
)

const sqliteTimeLayout = "2006-01-02 15:04:05"

const insertActivitySQL = `
		INSERT INTO activity (id, occurred_at, user_id, type, book_id, message, meta)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

type ActivitySQLite struct {
	db *sql.DB
}

func NewActivitySQLite(db *sql.DB) *ActivitySQLite { return &ActivitySQLite{db: db} }

// Append inserts a new activity entry. If ID or OccurredAt are empty, they're set.
func (r *ActivitySQLite) Append(ctx context.Context, a models.Activity) error {
	a = normalizeActivity(a)

	_, err := r.db.ExecContext(ctx, insertActivitySQL,
		a.ID,
		a.OccurredAt.Format(sqliteTimeLayout),
		a.UserID,
		a.Type,
		a.BookID,
		a.Description,
		marshalMeta(a.Metadata),
	)
	return err
}

// List returns entries filtered by user, [from, to] (inclusive) and type, ordered ASC.
func (r *ActivitySQLite) List(ctx context.Context, userID string, from, to time.Time, typ string) ([]models.Activity, error) {
	var (
		conds []string
		args  []any
	)

	if userID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, userID)
	}
	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, from.UTC().Format(sqliteTimeLayout))
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, to.UTC().Format(sqliteTimeLayout))
	}
	if typ = strings.ToUpper(strings.TrimSpace(typ)); typ != "" {
		conds = append(conds, "type = ?")
		args = append(args, typ)
	}

	q := `SELECT id, occurred_at, user_id, type, book_id, message, meta FROM activity`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC, rowid ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Activity, 0, 64)
	for rows.Next() {
		var a models.Activity
		var metaStr sql.NullString
		if err := rows.Scan(&a.ID, &a.OccurredAt, &a.UserID, &a.Type, &a.BookID, &a.Description, &metaStr); err != nil {
			return nil, err
		}
		a.OccurredAt = a.OccurredAt.UTC()
		if metaStr.Valid {
			a.Metadata = unmarshalMeta(metaStr.String)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func normalizeActivity(a models.Activity) models.Activity {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.OccurredAt.IsZero() {
		a.OccurredAt = time.Now().UTC()
	} else {
		a.OccurredAt = a.OccurredAt.UTC()
	}
	a.Type = strings.ToUpper(strings.TrimSpace(a.Type))
	return a
}

func marshalMeta(v any) *string {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}

func unmarshalMeta(s string) any {
	if s == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s // keep raw if malformed
	}
	return v
}
