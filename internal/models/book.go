package models

// SavedBook is a book entry embedded in a user's saved set.
type SavedBook struct {
	BookID      string   `json:"bookId" binding:"required"`
	Title       string   `json:"title" binding:"required"`
	Authors     []string `json:"authors"`
	Description *string  `json:"description"`
	Image       *string  `json:"image"`
	Link        *string  `json:"link"`
}

// BookRecord is a normalized catalog search result.
type BookRecord struct {
	BookID      string   `json:"bookId"`
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	Link        string   `json:"link"`
}

// SavedBook converts a search result into a saved-book entry.
func (r BookRecord) SavedBook() SavedBook {
	return SavedBook{
		BookID:      r.BookID,
		Title:       r.Title,
		Authors:     append([]string(nil), r.Authors...),
		Description: optional(r.Description),
		Image:       optional(r.Image),
		Link:        optional(r.Link),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
