package models

import "time"

// User is the account aggregate. SavedBooks is owned by the user and keyed on BookID.
type User struct {
	ID           string      `json:"_id"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"` // don’t expose hash
	SavedBooks   []SavedBook `json:"savedBooks"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// BookCount is derived from the saved set and never stored.
func (u User) BookCount() int {
	return len(u.SavedBooks)
}

// HasBook reports whether a book with the given id is in the saved set.
func (u User) HasBook(bookID string) bool {
	for _, b := range u.SavedBooks {
		if b.BookID == bookID {
			return true
		}
	}
	return false
}

// UserView is the public projection of a User returned to clients.
type UserView struct {
	ID         string      `json:"_id"`
	Username   string      `json:"username"`
	Email      string      `json:"email"`
	SavedBooks []SavedBook `json:"savedBooks"`
	BookCount  int         `json:"bookCount"`
}

// View builds the public projection, with an empty (non-nil) saved list.
func (u User) View() UserView {
	books := u.SavedBooks
	if books == nil {
		books = []SavedBook{}
	}
	return UserView{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		SavedBooks: books,
		BookCount:  len(books),
	}
}

// NewUser carries the fields needed to create a user record.
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
}

// Identity is what a verified token resolves to.
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
