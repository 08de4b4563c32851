// Package catalog queries external book catalogs and normalizes their results.
package catalog

import (
	"context"
	"errors"
	"strings"

	"booksearch/internal/models"
)

// ErrUpstreamUnavailable is returned when the catalog backend cannot be reached
// or answers with something other than a usable result set.
var ErrUpstreamUnavailable = errors.New("catalog upstream unavailable")

// NoAuthor replaces a missing or empty author list.
const NoAuthor = "No author to display"

// Provider runs a free-text search against a book catalog.
type Provider interface {
	Search(ctx context.Context, query string) ([]models.BookRecord, error)
}

// ProviderFunc adapts a plain function to Provider.
type ProviderFunc func(ctx context.Context, query string) ([]models.BookRecord, error)

func (f ProviderFunc) Search(ctx context.Context, query string) ([]models.BookRecord, error) {
	return f(ctx, query)
}

// Normalize fills the defaults every consumer relies on. Records without an id
// are dropped.
func Normalize(in []models.BookRecord) []models.BookRecord {
	out := make([]models.BookRecord, 0, len(in))
	for _, r := range in {
		r.BookID = strings.TrimSpace(r.BookID)
		if r.BookID == "" {
			continue
		}
		authors := make([]string, 0, len(r.Authors))
		for _, a := range r.Authors {
			if a = strings.TrimSpace(a); a != "" {
				authors = append(authors, a)
			}
		}
		if len(authors) == 0 {
			authors = []string{NoAuthor}
		}
		r.Authors = authors
		out = append(out, r)
	}
	return out
}
