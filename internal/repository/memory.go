package repository

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"
	"time"

	"booksearch/internal/models"

	"github.com/google/uuid"
)

// MemoryStore is an in-process CredentialStore. Every mutation runs under
// one write lock, which makes AtomicUpdate linearizable per document.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*models.User
	order []string
	now   func() time.Time
}

var _ CredentialStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*models.User),
		now:   time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, nu models.NewUser) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == nu.Username || u.Email == nu.Email {
			return nil, fmt.Errorf("insert user %q: %w", nu.Username, ErrDuplicateKey)
		}
	}

	now := s.now().UTC()
	u := &models.User{
		ID:           uuid.NewString(),
		Username:     nu.Username,
		Email:        nu.Email,
		PasswordHash: nu.PasswordHash,
		SavedBooks:   []models.SavedBook{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[u.ID] = u
	s.order = append(s.order, u.ID)
	return cloneUser(u), nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return s.findBy(func(u *models.User) bool { return u.Email == email }), nil
}

func (s *MemoryStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return s.findBy(func(u *models.User) bool { return u.Username == username }), nil
}

func (s *MemoryStore) findBy(match func(*models.User) bool) *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		if u := s.users[id]; match(u) {
			return cloneUser(u)
		}
	}
	return nil
}

func (s *MemoryStore) AtomicUpdate(_ context.Context, id string, m Mutation) (*models.User, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	u.SavedBooks = m.Apply(u.SavedBooks)
	u.UpdatedAt = s.now().UTC()
	return cloneUser(u), nil
}

func (s *MemoryStore) List(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.User, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *cloneUser(s.users[id]))
	}
	return out, nil
}

// SavedBooks snapshots one user at a time, so the lock is never held while
// the consumer runs.
func (s *MemoryStore) SavedBooks(ctx context.Context) iter.Seq2[models.SavedBook, error] {
	return func(yield func(models.SavedBook, error) bool) {
		for i := 0; ; i++ {
			if err := ctx.Err(); err != nil {
				yield(models.SavedBook{}, err)
				return
			}
			s.mu.RLock()
			if i >= len(s.order) {
				s.mu.RUnlock()
				return
			}
			books := slices.Clone(s.users[s.order[i]].SavedBooks)
			s.mu.RUnlock()

			for _, b := range books {
				if !yield(b, nil) {
					return
				}
			}
		}
	}
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.SavedBooks = slices.Clone(u.SavedBooks)
	if c.SavedBooks == nil {
		c.SavedBooks = []models.SavedBook{}
	}
	return &c
}

// ActivityMemory keeps the activity log in process memory.
type ActivityMemory struct {
	mu      sync.RWMutex
	entries []models.Activity
}

var _ ActivityRepo = (*ActivityMemory)(nil)

func NewActivityMemory() *ActivityMemory { return &ActivityMemory{} }

func (r *ActivityMemory) Append(_ context.Context, a models.Activity) error {
	a = normalizeActivity(a)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, a)
	return nil
}

func (r *ActivityMemory) List(_ context.Context, userID string, from, to time.Time, typ string) ([]models.Activity, error) {
	typ = strings.ToUpper(strings.TrimSpace(typ))

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Activity, 0, len(r.entries))
	for _, a := range r.entries {
		switch {
		case userID != "" && a.UserID != userID:
		case !from.IsZero() && a.OccurredAt.Before(from.UTC()):
		case !to.IsZero() && a.OccurredAt.After(to.UTC()):
		case typ != "" && a.Type != typ:
		default:
			out = append(out, a)
		}
	}
	slices.SortStableFunc(out, func(x, y models.Activity) int { return x.OccurredAt.Compare(y.OccurredAt) })
	return out, nil
}
