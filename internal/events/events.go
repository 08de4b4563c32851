// Package events publishes saved-book change notifications.
package events

import (
	"context"
	"time"
)

// Routing keys / event types.
const (
	BookSaved   = "book.saved"
	BookDeleted = "book.deleted"
)

// BookEvent describes one change to a user's saved set.
type BookEvent struct {
	Type       string    `json:"type"`
	UserID     string    `json:"userId"`
	BookID     string    `json:"bookId"`
	Title      string    `json:"title,omitempty"`
	BookCount  int       `json:"bookCount"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, e BookEvent) error
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, BookEvent) error { return nil }
