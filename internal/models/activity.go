package models

import "time"

const (
	ActivityBookSaved   = "BOOK_SAVED"
	ActivityBookDeleted = "BOOK_DELETED"
)

// Activity is a single entry in the append-only saved-book activity log.
type Activity struct {
	ID          string    `json:"id"`
	OccurredAt  time.Time `json:"occurred_at"`
	UserID      string    `json:"user_id"`
	Type        string    `json:"type"` // BOOK_SAVED | BOOK_DELETED
	BookID      string    `json:"book_id"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
