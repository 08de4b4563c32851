package dispatch

import "booksearch/internal/models"

type registerUserArgs struct {
	Username string `json:"username" binding:"required,max=64"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,max=72"`
}

type loginUserArgs struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type getUserArgs struct {
	ID       string `json:"id" binding:"omitempty,max=128"`
	Username string `json:"username" binding:"omitempty,max=64"`
}

type noArgs struct{}

type searchCatalogArgs struct {
	Query string `json:"query" binding:"required,max=256"`
}

type saveBookArgs struct {
	Book   models.SavedBook `json:"book"`
	UserID string           `json:"userId" binding:"omitempty,max=128"`
}

type deleteBookArgs struct {
	BookID string `json:"bookId" binding:"required,bookid"`
}
