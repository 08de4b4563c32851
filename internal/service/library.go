package service

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"booksearch/internal/events"
	"booksearch/internal/logger"
	"booksearch/internal/models"
	"booksearch/internal/repository"
)

// LibraryService reconciles users' saved-book sets. Every mutation is one
// AtomicUpdate on the store; activity and change events are best effort and
// never fail the request.
type LibraryService struct {
	users    repository.CredentialStore
	activity repository.ActivityRepo
	events   events.Publisher
	log      *logger.Logger
	now      func() time.Time
}

func NewLibraryService(users repository.CredentialStore, activity repository.ActivityRepo, pub events.Publisher, log *logger.Logger) *LibraryService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &LibraryService{users: users, activity: activity, events: pub, log: log, now: time.Now}
}

// AddBook adds book to the user's saved set unless an entry with the same
// bookId is already there, in which case the existing entry is kept.
func (s *LibraryService) AddBook(ctx context.Context, userID string, book models.SavedBook) (*models.User, error) {
	book.BookID = strings.TrimSpace(book.BookID)
	if book.BookID == "" {
		return nil, invalidInput("bookId is required")
	}
	if strings.TrimSpace(book.Title) == "" {
		return nil, invalidInput("title is required")
	}
	if book.Authors == nil {
		book.Authors = []string{}
	}

	u, err := s.apply(ctx, userID, repository.AddToSaved(book))
	if err != nil {
		return nil, err
	}
	s.record(ctx, u, models.ActivityBookSaved, events.BookSaved, book.BookID, book.Title)
	return u, nil
}

// RemoveBook drops every entry with bookID. Removing an absent book succeeds.
func (s *LibraryService) RemoveBook(ctx context.Context, userID, bookID string) (*models.User, error) {
	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		return nil, invalidInput("bookId is required")
	}

	u, err := s.apply(ctx, userID, repository.RemoveFromSaved(bookID))
	if err != nil {
		return nil, err
	}
	s.record(ctx, u, models.ActivityBookDeleted, events.BookDeleted, bookID, "")
	return u, nil
}

func (s *LibraryService) apply(ctx context.Context, userID string, m repository.Mutation) (*models.User, error) {
	if userID == "" {
		return nil, ErrUserNotFound
	}
	u, err := s.users.AtomicUpdate(ctx, userID, m)
	if err != nil {
		return nil, storeFailure(m.Kind.String(), err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// ListBooks flattens every user's saved books in store order. The sequence is
// lazy and can be ranged more than once; each range rescans the store.
func (s *LibraryService) ListBooks(ctx context.Context) iter.Seq2[models.SavedBook, error] {
	return func(yield func(models.SavedBook, error) bool) {
		for b, err := range s.users.SavedBooks(ctx) {
			if err != nil {
				yield(models.SavedBook{}, storeFailure("list books", err))
				return
			}
			if !yield(b, nil) {
				return
			}
		}
	}
}

// CollectBooks materializes ListBooks.
func (s *LibraryService) CollectBooks(ctx context.Context) ([]models.SavedBook, error) {
	out := make([]models.SavedBook, 0, 32)
	for b, err := range s.ListBooks(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// UserBooks returns one user's saved set.
func (s *LibraryService) UserBooks(ctx context.Context, userID string) ([]models.SavedBook, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, storeFailure("find user", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u.View().SavedBooks, nil
}

func (s *LibraryService) record(ctx context.Context, u *models.User, activityType, eventType, bookID, title string) {
	now := s.now().UTC()

	if s.activity != nil {
		desc := fmt.Sprintf("%s %s", strings.ToLower(strings.TrimPrefix(activityType, "BOOK_")), bookID)
		err := s.activity.Append(ctx, models.Activity{
			OccurredAt:  now,
			UserID:      u.ID,
			Type:        activityType,
			BookID:      bookID,
			Description: desc,
			Metadata:    map[string]any{"bookCount": u.BookCount()},
		})
		if err != nil && s.log != nil {
			s.log.Warnw("activity_append_failed", "user_id", u.ID, "book_id", bookID, "error", err)
		}
	}

	err := s.events.Publish(ctx, events.BookEvent{
		Type:       eventType,
		UserID:     u.ID,
		BookID:     bookID,
		Title:      title,
		BookCount:  u.BookCount(),
		OccurredAt: now,
	})
	if err != nil && s.log != nil {
		s.log.Warnw("book_event_publish_failed", "user_id", u.ID, "book_id", bookID, "type", eventType, "error", err)
	}
}
