package repository

import (
	"errors"
	"fmt"

	"booksearch/internal/models"
)

// MutationKind tags the variant carried by a Mutation.
type MutationKind int

const (
	AddToSavedSet MutationKind = iota + 1
	RemoveFromSavedSet
)

func (k MutationKind) String() string {
	switch k {
	case AddToSavedSet:
		return "addToSavedSet"
	case RemoveFromSavedSet:
		return "removeFromSavedSet"
	default:
		return fmt.Sprintf("MutationKind(%d)", int(k))
	}
}

var errInvalidMutation = errors.New("invalid mutation")

// Mutation is a single change to a user's saved set.
type Mutation struct {
	Kind   MutationKind
	Book   models.SavedBook // AddToSavedSet only
	BookID string
}

func AddToSaved(b models.SavedBook) Mutation {
	return Mutation{Kind: AddToSavedSet, Book: b, BookID: b.BookID}
}

func RemoveFromSaved(bookID string) Mutation {
	return Mutation{Kind: RemoveFromSavedSet, BookID: bookID}
}

func (m Mutation) Validate() error {
	if m.BookID == "" {
		return fmt.Errorf("%w: empty book id", errInvalidMutation)
	}
	switch m.Kind {
	case AddToSavedSet:
		if m.Book.BookID != m.BookID {
			return fmt.Errorf("%w: book id mismatch", errInvalidMutation)
		}
	case RemoveFromSavedSet:
	default:
		return fmt.Errorf("%w: %s", errInvalidMutation, m.Kind)
	}
	return nil
}

// Apply returns the saved set after m. The input slice is not modified.
func (m Mutation) Apply(books []models.SavedBook) []models.SavedBook {
	out := make([]models.SavedBook, 0, len(books)+1)
	switch m.Kind {
	case AddToSavedSet:
		for _, b := range books {
			if b.BookID == m.BookID {
				return append(out, books...)
			}
		}
		out = append(out, books...)
		return append(out, m.Book)
	case RemoveFromSavedSet:
		for _, b := range books {
			if b.BookID != m.BookID {
				out = append(out, b)
			}
		}
		return out
	default:
		return append(out, books...)
	}
}
