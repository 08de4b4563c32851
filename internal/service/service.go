package service

import (
	"context"
	"iter"

	"booksearch/internal/catalog"
	"booksearch/internal/events"
	"booksearch/internal/logger"
	"booksearch/internal/models"
	"booksearch/internal/repository"
)

// Authorization covers registration, login and user lookup.
type Authorization interface {
	Register(ctx context.Context, in RegisterInput) (*Session, error)
	Login(ctx context.Context, in LoginInput) (*Session, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	FindUser(ctx context.Context, caller models.Identity, q UserQuery) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// Authenticator resolves an Authorization header to an identity.
type Authenticator interface {
	Resolve(header string) (models.Identity, error)
}

// Library is the saved-book reconciler.
type Library interface {
	AddBook(ctx context.Context, userID string, book models.SavedBook) (*models.User, error)
	RemoveBook(ctx context.Context, userID, bookID string) (*models.User, error)
	ListBooks(ctx context.Context) iter.Seq2[models.SavedBook, error]
	CollectBooks(ctx context.Context) ([]models.SavedBook, error)
	UserBooks(ctx context.Context, userID string) ([]models.SavedBook, error)
}

// Catalog queries the external book catalog.
type Catalog interface {
	Search(ctx context.Context, query string) ([]models.BookRecord, error)
}

// ActivityLog exposes the append-only saved-book history.
type ActivityLog interface {
	List(ctx context.Context, userID string, f LogFilter) ([]models.Activity, error)
}

// Service aggregates all sub-services.
type Service struct {
	Authorization
	Authenticator
	Library
	Catalog
	ActivityLog
}

// Deps are the collaborators NewService wires together.
type Deps struct {
	Repos     *repository.Repository
	Tokens    *TokenService
	Catalog   catalog.Provider
	Publisher events.Publisher
	Log       *logger.Logger
}

func NewService(d Deps) *Service {
	return &Service{
		Authorization: NewAuthService(d.Repos.Users, d.Tokens),
		Authenticator: NewGate(d.Tokens),
		Library:       NewLibraryService(d.Repos.Users, d.Repos.Activity, d.Publisher, d.Log),
		Catalog:       NewSearchService(d.Catalog),
		ActivityLog:   NewActivityService(d.Repos.Activity),
	}
}
