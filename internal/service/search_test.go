package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"booksearch/internal/catalog"
	"booksearch/internal/models"
)

func TestSearchService(t *testing.T) {
	var gotQuery string
	provider := catalog.ProviderFunc(func(_ context.Context, q string) ([]models.BookRecord, error) {
		gotQuery = q
		if q == "down" {
			return nil, catalog.ErrUpstreamUnavailable
		}
		return []models.BookRecord{{BookID: "v1", Title: "Dune", Authors: []string{catalog.NoAuthor}}}, nil
	})
	svc := NewSearchService(provider)
	ctx := context.Background()

	out, err := svc.Search(ctx, "  dune ")
	if err != nil || len(out) != 1 || gotQuery != "dune" {
		t.Fatalf("unexpected result: %+v, %v, query=%q", out, err, gotQuery)
	}

	if _, err := svc.Search(ctx, "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank query: want ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Search(ctx, strings.Repeat("x", maxQueryLen+1)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("long query: want ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Search(ctx, "down"); !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("upstream: want ErrUpstreamUnavailable, got %v", err)
	}
}
