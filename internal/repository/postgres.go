package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"

	"booksearch/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgQuerier is the subset of *pgxpool.Pool the postgres repositories use.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const pgUniqueViolation = "23505"

const (
	pgInsertUserSQL = `
		INSERT INTO users (id, username, email, password_hash, saved_books, created_at, updated_at)
		VALUES ($1, $2, $3, $4, '[]'::jsonb, $5, $5)
	`
	pgSelectUserByIDSQL       = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	pgSelectUserByEmailSQL    = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	pgSelectUserByUsernameSQL = `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	pgSelectUsersSQL          = `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id`
	pgSelectSavedBooksSQL     = `SELECT saved_books FROM users ORDER BY created_at, id`

	pgAddSavedBookSQL = `
		UPDATE users SET
			saved_books = CASE
				WHEN saved_books @> jsonb_build_array(jsonb_build_object('bookId', $1::text))
				THEN saved_books
				ELSE saved_books || jsonb_build_array($2::jsonb)
			END,
			updated_at = $3
		WHERE id = $4
		RETURNING ` + userColumns

	pgRemoveSavedBookSQL = `
		UPDATE users SET
			saved_books = COALESCE((
				SELECT jsonb_agg(elem ORDER BY ord)
				FROM jsonb_array_elements(users.saved_books) WITH ORDINALITY AS t(elem, ord)
				WHERE elem->>'bookId' IS DISTINCT FROM $1::text
			), '[]'::jsonb),
			updated_at = $2
		WHERE id = $3
		RETURNING ` + userColumns
)

type UserPostgres struct {
	q   pgQuerier
	now func() time.Time
}

var _ CredentialStore = (*UserPostgres)(nil)

func NewUserPostgres(q pgQuerier) *UserPostgres {
	return &UserPostgres{q: q, now: time.Now}
}

func (r *UserPostgres) Create(ctx context.Context, nu models.NewUser) (*models.User, error) {
	now := r.now().UTC()
	u := &models.User{
		ID:           uuid.NewString(),
		Username:     nu.Username,
		Email:        nu.Email,
		PasswordHash: nu.PasswordHash,
		SavedBooks:   []models.SavedBook{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := r.q.Exec(ctx, pgInsertUserSQL, u.ID, u.Username, u.Email, u.PasswordHash, now); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, fmt.Errorf("insert user %q: %w", nu.Username, ErrDuplicateKey)
		}
		return nil, fmt.Errorf("insert user %q: %w", nu.Username, err)
	}
	return u, nil
}

func (r *UserPostgres) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, pgSelectUserByIDSQL, id)
}

func (r *UserPostgres) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, pgSelectUserByEmailSQL, email)
}

func (r *UserPostgres) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, pgSelectUserByUsernameSQL, username)
}

func (r *UserPostgres) findOne(ctx context.Context, query, key string) (*models.User, error) {
	u, err := scanPgUser(r.q.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user %q: %w", key, err)
	}
	return u, nil
}

func (r *UserPostgres) AtomicUpdate(ctx context.Context, id string, m Mutation) (*models.User, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	now := r.now().UTC()

	var row pgx.Row
	switch m.Kind {
	case AddToSavedSet:
		doc, err := json.Marshal(m.Book)
		if err != nil {
			return nil, fmt.Errorf("encode book %q: %w", m.BookID, err)
		}
		row = r.q.QueryRow(ctx, pgAddSavedBookSQL, m.BookID, string(doc), now, id)
	case RemoveFromSavedSet:
		row = r.q.QueryRow(ctx, pgRemoveSavedBookSQL, m.BookID, now, id)
	}

	u, err := scanPgUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s for user %q: %w", m.Kind, id, err)
	}
	return u, nil
}

func (r *UserPostgres) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.q.Query(ctx, pgSelectUsersSQL)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	out := make([]models.User, 0, 16)
	for rows.Next() {
		u, err := scanPgUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}

func (r *UserPostgres) SavedBooks(ctx context.Context) iter.Seq2[models.SavedBook, error] {
	return func(yield func(models.SavedBook, error) bool) {
		rows, err := r.q.Query(ctx, pgSelectSavedBooksSQL)
		if err != nil {
			yield(models.SavedBook{}, fmt.Errorf("select saved books: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var raw []byte
			if err := rows.Scan(&raw); err != nil {
				yield(models.SavedBook{}, fmt.Errorf("scan saved books: %w", err))
				return
			}
			books, err := decodeSavedBooks(raw)
			if err != nil {
				yield(models.SavedBook{}, err)
				return
			}
			for _, b := range books {
				if !yield(b, nil) {
					return
				}
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.SavedBook{}, fmt.Errorf("iterate saved books: %w", err))
		}
	}
}

func scanPgUser(s rowScanner) (*models.User, error) {
	var (
		u   models.User
		raw []byte
	)
	if err := s.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &raw, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	books, err := decodeSavedBooks(raw)
	if err != nil {
		return nil, err
	}
	u.SavedBooks = books
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

type ActivityPostgres struct {
	q pgQuerier
}

var _ ActivityRepo = (*ActivityPostgres)(nil)

func NewActivityPostgres(q pgQuerier) *ActivityPostgres { return &ActivityPostgres{q: q} }

func (r *ActivityPostgres) Append(ctx context.Context, a models.Activity) error {
	a = normalizeActivity(a)
	_, err := r.q.Exec(ctx, `
		INSERT INTO activity (id, occurred_at, user_id, type, book_id, message, meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, a.ID, a.OccurredAt, a.UserID, a.Type, a.BookID, a.Description, marshalMeta(a.Metadata))
	return err
}

func (r *ActivityPostgres) List(ctx context.Context, userID string, from, to time.Time, typ string) ([]models.Activity, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, cond+" $"+strconv.Itoa(len(args)))
	}

	if userID != "" {
		add("user_id =", userID)
	}
	if !from.IsZero() {
		add("occurred_at >=", from.UTC())
	}
	if !to.IsZero() {
		add("occurred_at <=", to.UTC())
	}
	if typ = strings.ToUpper(strings.TrimSpace(typ)); typ != "" {
		add("type =", typ)
	}

	q := `SELECT id, occurred_at, user_id, type, book_id, message, meta::text FROM activity`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC, id ASC"

	rows, err := r.q.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Activity, 0, 64)
	for rows.Next() {
		var a models.Activity
		var meta *string
		if err := rows.Scan(&a.ID, &a.OccurredAt, &a.UserID, &a.Type, &a.BookID, &a.Description, &meta); err != nil {
			return nil, err
		}
		a.OccurredAt = a.OccurredAt.UTC()
		if meta != nil {
			a.Metadata = unmarshalMeta(*meta)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
