package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"testing"

	"booksearch/internal/events"
	"booksearch/internal/logger"
	"booksearch/internal/models"
	"booksearch/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.BookEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.BookEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

type libraryFixture struct {
	lib      *LibraryService
	store    *repository.MemoryStore
	activity *fakeActivityRepo
	pub      *recordingPublisher
}

func newLibrary(t *testing.T) libraryFixture {
	t.Helper()
	store := repository.NewMemoryStore()
	activity := &fakeActivityRepo{}
	pub := &recordingPublisher{}
	return libraryFixture{
		lib:      NewLibraryService(store, activity, pub, logger.Nop()),
		store:    store,
		activity: activity,
		pub:      pub,
	}
}

func (f libraryFixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := f.store.Create(context.Background(), models.NewUser{Username: name, Email: name + "@x.com", PasswordHash: "h"})
	require.NoError(t, err)
	return u
}

func sb(id, title string) models.SavedBook {
	return models.SavedBook{BookID: id, Title: title, Authors: []string{"Author " + id}}
}

func bookIDs(books []models.SavedBook) []string {
	out := make([]string, 0, len(books))
	for _, b := range books {
		out = append(out, b.BookID)
	}
	return out
}

func TestLibrary_AddBookHasSetSemantics(t *testing.T) {
	f := newLibrary(t)
	u := f.user(t, "alice")
	ctx := context.Background()

	got, err := f.lib.AddBook(ctx, u.ID, sb("b1", "Dune"))
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, bookIDs(got.SavedBooks))

	got, err = f.lib.AddBook(ctx, u.ID, sb("b1", "Dune, second edition"))
	require.NoError(t, err)
	require.Equal(t, 1, got.BookCount())
	assert.Equal(t, "Dune", got.SavedBooks[0].Title, "existing entry must be left untouched")

	got, err = f.lib.AddBook(ctx, u.ID, sb("b2", "Emma"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b1", "b2"}, bookIDs(got.SavedBooks))
}

func TestLibrary_RemoveBookIsIdempotent(t *testing.T) {
	f := newLibrary(t)
	u := f.user(t, "alice")
	ctx := context.Background()

	_, err := f.lib.AddBook(ctx, u.ID, sb("b1", "Dune"))
	require.NoError(t, err)

	first, err := f.lib.RemoveBook(ctx, u.ID, "b1")
	require.NoError(t, err)
	second, err := f.lib.RemoveBook(ctx, u.ID, "b1")
	require.NoError(t, err)

	assert.Empty(t, first.SavedBooks)
	assert.Equal(t, first.SavedBooks, second.SavedBooks)

	never, err := f.lib.RemoveBook(ctx, u.ID, "never-saved")
	require.NoError(t, err)
	assert.Equal(t, 0, never.BookCount())
}

func TestLibrary_AddThenRemoveRestoresSet(t *testing.T) {
	f := newLibrary(t)
	u := f.user(t, "alice")
	ctx := context.Background()

	_, _ = f.lib.AddBook(ctx, u.ID, sb("keep", "Keep"))
	before, _ := f.store.FindByID(ctx, u.ID)

	_, err := f.lib.AddBook(ctx, u.ID, sb("tmp", "Temp"))
	require.NoError(t, err)
	after, err := f.lib.RemoveBook(ctx, u.ID, "tmp")
	require.NoError(t, err)

	assert.Equal(t, before.SavedBooks, after.SavedBooks)
}

func TestLibrary_SaveGetDeleteScenario(t *testing.T) {
	f := newLibrary(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	ctx := context.Background()

	_, err := f.lib.AddBook(ctx, alice.ID, sb("b1", "Dune"))
	require.NoError(t, err)
	_, err = f.lib.AddBook(ctx, bob.ID, sb("b1", "Dune"))
	require.NoError(t, err)
	_, err = f.lib.AddBook(ctx, bob.ID, sb("b2", "Emma"))
	require.NoError(t, err)

	all, err := f.lib.CollectBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b1", "b1", "b2"}, bookIDs(all))

	_, err = f.lib.RemoveBook(ctx, bob.ID, "b1")
	require.NoError(t, err)

	all, err = f.lib.CollectBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b1", "b2"}, bookIDs(all))

	mine, err := f.lib.UserBooks(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b2"}, bookIDs(mine))
}

func TestLibrary_ConcurrentSavesAndDeletesConverge(t *testing.T) {
	f := newLibrary(t)
	u := f.user(t, "alice")
	ctx := context.Background()

	// b-odd are saved, b-even are saved then deleted; order between workers is arbitrary
	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("b-%d", i)
			_, _ = f.lib.AddBook(ctx, u.ID, sb(id, id))
			_, _ = f.lib.AddBook(ctx, u.ID, sb(id, id))
			if i%2 == 0 {
				_, _ = f.lib.RemoveBook(ctx, u.ID, id)
			}
		}(i)
	}
	wg.Wait()

	final, err := f.store.FindByID(ctx, u.ID)
	require.NoError(t, err)
	want := make([]string, 0, n/2)
	for i := 1; i < n; i += 2 {
		want = append(want, fmt.Sprintf("b-%d", i))
	}
	assert.ElementsMatch(t, want, bookIDs(final.SavedBooks))
}

func TestLibrary_UnknownUser(t *testing.T) {
	f := newLibrary(t)
	ctx := context.Background()

	_, err := f.lib.AddBook(ctx, "ghost", sb("b1", "Dune"))
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = f.lib.RemoveBook(ctx, "ghost", "b1")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = f.lib.UserBooks(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)

	assert.Empty(t, f.activity.appended)
	assert.Empty(t, f.pub.events)
}

func TestLibrary_InvalidInput(t *testing.T) {
	f := newLibrary(t)
	u := f.user(t, "alice")
	ctx := context.Background()

	_, err := f.lib.AddBook(ctx, u.ID, models.SavedBook{Title: "no id"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.lib.AddBook(ctx, u.ID, models.SavedBook{BookID: "b1"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.lib.RemoveBook(ctx, u.ID, "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLibrary_StoreFailureIsNotUserNotFound(t *testing.T) {
	boom := errors.New("connection reset")
	store := &mockUserStore{
		AtomicUpdateFn: func(string, repository.Mutation) (*models.User, error) { return nil, boom },
		SavedBooksFn: func() iter.Seq2[models.SavedBook, error] {
			return func(yield func(models.SavedBook, error) bool) {
				if !yield(sb("b1", "Dune"), nil) {
					return
				}
				yield(models.SavedBook{}, boom)
			}
		},
	}
	lib := NewLibraryService(store, nil, nil, nil)
	ctx := context.Background()

	_, err := lib.AddBook(ctx, "u1", sb("b1", "Dune"))
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrUserNotFound)

	_, err = lib.CollectBooks(ctx)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestLibrary_ListBooksIsLazyAndRestartable(t *testing.T) {
	f := newLibrary(t)
	a := f.user(t, "a")
	ctx := context.Background()
	_, _ = f.lib.AddBook(ctx, a.ID, sb("x", "X"))
	_, _ = f.lib.AddBook(ctx, a.ID, sb("y", "Y"))

	seq := f.lib.ListBooks(ctx)

	var first []string
	for b, err := range seq {
		require.NoError(t, err)
		first = append(first, b.BookID)
		break
	}
	assert.Equal(t, []string{"x"}, first)

	_, _ = f.lib.AddBook(ctx, a.ID, sb("z", "Z"))
	var again []string
	for b, err := range seq {
		require.NoError(t, err)
		again = append(again, b.BookID)
	}
	assert.Equal(t, []string{"x", "y", "z"}, again)
}

func TestLibrary_RecordsActivityAndEvents(t *testing.T) {
	f := newLibrary(t)
	u := f.user(t, "alice")
	ctx := context.Background()

	_, err := f.lib.AddBook(ctx, u.ID, sb("b1", "Dune"))
	require.NoError(t, err)
	_, err = f.lib.RemoveBook(ctx, u.ID, "b1")
	require.NoError(t, err)

	require.Len(t, f.activity.appended, 2)
	assert.Equal(t, models.ActivityBookSaved, f.activity.appended[0].Type)
	assert.Equal(t, models.ActivityBookDeleted, f.activity.appended[1].Type)
	assert.Equal(t, u.ID, f.activity.appended[0].UserID)

	require.Len(t, f.pub.events, 2)
	assert.Equal(t, events.BookSaved, f.pub.events[0].Type)
	assert.Equal(t, "Dune", f.pub.events[0].Title)
	assert.Equal(t, 1, f.pub.events[0].BookCount)
	assert.Equal(t, events.BookDeleted, f.pub.events[1].Type)
	assert.Equal(t, 0, f.pub.events[1].BookCount)
}

func TestLibrary_SideEffectFailuresDoNotFailMutation(t *testing.T) {
	f := newLibrary(t)
	f.activity.appendErr = errors.New("log full")
	f.pub.err = errors.New("broker down")
	u := f.user(t, "alice")

	got, err := f.lib.AddBook(context.Background(), u.ID, sb("b1", "Dune"))
	require.NoError(t, err)
	assert.Equal(t, 1, got.BookCount())
}
