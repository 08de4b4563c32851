package service

import (
	"context"
	"strings"

	"booksearch/internal/catalog"
	"booksearch/internal/models"
)

const maxQueryLen = 256

type SearchService struct {
	provider catalog.Provider
}

func NewSearchService(p catalog.Provider) *SearchService {
	return &SearchService{provider: p}
}

// Search runs query against the configured catalog. Upstream failures surface
// as ErrUpstreamUnavailable.
func (s *SearchService) Search(ctx context.Context, query string) ([]models.BookRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalidInput("query is required")
	}
	if len(query) > maxQueryLen {
		return nil, invalidInput("query longer than %d bytes", maxQueryLen)
	}
	return s.provider.Search(ctx, query)
}
