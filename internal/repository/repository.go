package repository

import (
	"context"
	"database/sql"
	"errors"
	"iter"
	"time"

	"booksearch/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicateKey is returned by Create when the username or email is already taken.
var ErrDuplicateKey = errors.New("duplicate key")

// CredentialStore holds user documents with their embedded saved books.
// Lookups return (nil, nil) when the document is absent.
type CredentialStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, u models.NewUser) (*models.User, error)
	// AtomicUpdate applies m to one user document in a single store operation
	// and returns the updated document, or (nil, nil) if id does not resolve.
	AtomicUpdate(ctx context.Context, id string, m Mutation) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	// SavedBooks scans every user's saved set in store order. Each range
	// re-runs the scan. Callers must not use the store while ranging.
	SavedBooks(ctx context.Context) iter.Seq2[models.SavedBook, error]
}

type ActivityRepo interface {
	Append(ctx context.Context, a models.Activity) error
	List(ctx context.Context, userID string, from, to time.Time, typ string) ([]models.Activity, error)
}

type Repository struct {
	Users    CredentialStore
	Activity ActivityRepo
}

// NewRepository builds the sqlite-backed repositories.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Users:    NewUserSQLite(db),
		Activity: NewActivitySQLite(db),
	}
}

func NewPostgresRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Users:    NewUserPostgres(pool),
		Activity: NewActivityPostgres(pool),
	}
}

func NewMemoryRepository() *Repository {
	return &Repository{
		Users:    NewMemoryStore(),
		Activity: NewActivityMemory(),
	}
}
