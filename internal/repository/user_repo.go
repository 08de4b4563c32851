package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"booksearch/internal/models"

	"github.com/google/uuid"
)

type UserSQLite struct {
	db  *sql.DB
	now func() time.Time
}

func NewUserSQLite(db *sql.DB) *UserSQLite {
	return &UserSQLite{db: db, now: time.Now}
}

// Ensure implementation of CredentialStore interface at compile time.
var _ CredentialStore = (*UserSQLite)(nil)

const userColumns = `id, username, email, password_hash, saved_books, created_at, updated_at`

const (
	insertUserSQL = `INSERT INTO users (id, username, email, password_hash, saved_books, created_at, updated_at)
VALUES (?, ?, ?, ?, '[]', ?, ?)`
	selectUserByIDSQL       = `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	selectUserByEmailSQL    = `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	selectUserByUsernameSQL = `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	selectUsersSQL          = `SELECT ` + userColumns + ` FROM users ORDER BY rowid`
	selectSavedBooksSQL     = `SELECT saved_books FROM users ORDER BY rowid`

	// The membership test and the write run as one statement, so concurrent
	// adds of the same bookId cannot both append.
	addSavedBookSQL = `UPDATE users SET
    saved_books = CASE
        WHEN EXISTS (SELECT 1 FROM json_each(users.saved_books) WHERE json_extract(value, '$.bookId') = ?)
        THEN saved_books
        ELSE json_insert(saved_books, '$[#]', json(?))
    END,
    updated_at = ?
WHERE id = ?
RETURNING ` + userColumns

	removeSavedBookSQL = `UPDATE users SET
    saved_books = (
        SELECT COALESCE(json_group_array(json(value)), '[]')
        FROM json_each(users.saved_books)
        WHERE json_extract(value, '$.bookId') IS NOT ?
    ),
    updated_at = ?
WHERE id = ?
RETURNING ` + userColumns
)

// Create inserts a new user with an empty saved set.
func (r *UserSQLite) Create(ctx context.Context, nu models.NewUser) (*models.User, error) {
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
	_, err := r.db.ExecContext(ctx, insertUserSQL, u.ID, u.Username, u.Email, u.PasswordHash, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("insert user %q: %w", nu.Username, ErrDuplicateKey)
		}
		return nil, fmt.Errorf("insert user %q: %w", nu.Username, err)
	}
	return u, nil
}

// FindByID fetches a user by id. Returns (nil, nil) if not found.
func (r *UserSQLite) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, selectUserByIDSQL, id)
}

func (r *UserSQLite) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, selectUserByEmailSQL, email)
}

func (r *UserSQLite) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, selectUserByUsernameSQL, username)
}

func (r *UserSQLite) findOne(ctx context.Context, query, key string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user %q: %w", key, err)
	}
	return u, nil
}

// AtomicUpdate applies m with a single UPDATE ... RETURNING statement.
func (r *UserSQLite) AtomicUpdate(ctx context.Context, id string, m Mutation) (*models.User, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	now := r.now().UTC()

	var row *sql.Row
	switch m.Kind {
	case AddToSavedSet:
		doc, err := json.Marshal(m.Book)
		if err != nil {
			return nil, fmt.Errorf("encode book %q: %w", m.BookID, err)
		}
		row = r.db.QueryRowContext(ctx, addSavedBookSQL, m.BookID, string(doc), now, id)
	case RemoveFromSavedSet:
		row = r.db.QueryRowContext(ctx, removeSavedBookSQL, m.BookID, now, id)
	}

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s for user %q: %w", m.Kind, id, err)
	}
	return u, nil
}

func (r *UserSQLite) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, selectUsersSQL)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	out := make([]models.User, 0, 16)
	for rows.Next() {
		u, err := scanUser(rows)
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

func (r *UserSQLite) SavedBooks(ctx context.Context) iter.Seq2[models.SavedBook, error] {
	return func(yield func(models.SavedBook, error) bool) {
		rows, err := r.db.QueryContext(ctx, selectSavedBooksSQL)
		if err != nil {
			yield(models.SavedBook{}, fmt.Errorf("select saved books: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var raw string
			if err := rows.Scan(&raw); err != nil {
				yield(models.SavedBook{}, fmt.Errorf("scan saved books: %w", err))
				return
			}
			books, err := decodeSavedBooks([]byte(raw))
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (*models.User, error) {
	var (
		u   models.User
		raw string
	)
	if err := s.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &raw, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	books, err := decodeSavedBooks([]byte(raw))
	if err != nil {
		return nil, err
	}
	u.SavedBooks = books
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

func decodeSavedBooks(raw []byte) ([]models.SavedBook, error) {
	books := []models.SavedBook{}
	if len(raw) == 0 {
		return books, nil
	}
	if err := json.Unmarshal(raw, &books); err != nil {
		return nil, fmt.Errorf("decode saved books: %w", err)
	}
	return books, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
