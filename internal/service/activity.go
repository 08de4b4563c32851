package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"booksearch/internal/models"
	"booksearch/internal/repository"
)

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "BOOK_SAVED", "BOOK_DELETED"
}

type ActivityService struct {
	repo repository.ActivityRepo
}

func NewActivityService(repo repository.ActivityRepo) *ActivityService {
	return &ActivityService{repo: repo}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: From must be <= To")
	errUnknownActivity  = errors.New("unknown activity type")
)

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeActivityType trims spaces and uppercases the type filter.
func normalizeActivityType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}

	typ := normalizeActivityType(f.Type)
	switch typ {
	case "", models.ActivityBookSaved, models.ActivityBookDeleted:
	default:
		return time.Time{}, time.Time{}, "", errUnknownActivity
	}
	return from, to, typ, nil
}

// List returns the caller's activity matching f, oldest first.
func (s *ActivityService) List(ctx context.Context, userID string, f LogFilter) ([]models.Activity, error) {
	from, to, typ, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	out, err := s.repo.List(ctx, userID, from, to, typ)
	if err != nil {
		return nil, storeFailure("list activity", err)
	}
	return out, nil
}
