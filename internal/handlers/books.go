package handlers

import (
	"context"
	"net/http"

	"booksearch/internal/dispatch"
	"booksearch/internal/models"

	"github.com/gin-gonic/gin"
)

// @Summary      List saved books
// @Description  Every user's saved books in global scope; the caller's in user scope.
// @Tags         books
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, books"
// @Failure      401  {object}  ErrorResponse
// @Failure      503  {object}  ErrorResponse
// @Router       /api/v1/books [get]
func (h *Handler) getBooks(c *gin.Context) {
	caller, _ := callerIdentity(c)
	books, err := h.loadBooks(c.Request.Context(), caller)
	if err != nil {
		h.respondError(c, "books_list_failed", err, "scope", h.opts.BooksScope)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(books),
		"books": books,
	})
}

// loadBooks resolves the listing for the configured scope.
func (h *Handler) loadBooks(ctx context.Context, caller models.Identity) ([]models.SavedBook, error) {
	if h.opts.BooksScope == dispatch.ScopeUser {
		return h.services.UserBooks(ctx, caller.UserID)
	}
	return h.services.CollectBooks(ctx)
}

// @Summary      Save a book
// @Description  Adds the book to the caller's saved set. Saving an id already present is a no-op.
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        input  body      models.SavedBook  true  "book"
// @Success      200    {object}  models.UserView
// @Failure      400    {object}  ErrorResponse
// @Failure      401    {object}  ErrorResponse
// @Failure      403    {object}  ErrorResponse
// @Failure      404    {object}  ErrorResponse
// @Router       /api/v1/books [post]
// @Security     BearerAuth
func (h *Handler) saveBook(c *gin.Context) {
	caller, ok := h.mustCaller(c)
	if !ok {
		return
	}
	var book models.SavedBook
	if ok := h.bindJSONOrBadRequest(c, &book); !ok {
		return
	}

	u, err := h.services.AddBook(c.Request.Context(), caller.UserID, book)
	if err != nil {
		h.respondError(c, "books_save_failed", err, "user_id", caller.UserID, "book_id", book.BookID)
		return
	}
	c.JSON(http.StatusOK, u.View())
}

// @Summary      Delete a saved book
// @Description  Removes the book from the caller's saved set. Deleting an absent id succeeds.
// @Tags         books
// @Produce      json
// @Param        bookId  path      string  true  "book id"
// @Success      200     {object}  models.UserView
// @Failure      401     {object}  ErrorResponse
// @Failure      403     {object}  ErrorResponse
// @Failure      404     {object}  ErrorResponse
// @Router       /api/v1/books/{bookId} [delete]
// @Security     BearerAuth
func (h *Handler) deleteBook(c *gin.Context) {
	caller, ok := h.mustCaller(c)
	if !ok {
		return
	}
	bookID := c.Param("bookId")

	u, err := h.services.RemoveBook(c.Request.Context(), caller.UserID, bookID)
	if err != nil {
		h.respondError(c, "books_delete_failed", err, "user_id", caller.UserID, "book_id", bookID)
		return
	}
	c.JSON(http.StatusOK, u.View())
}

// @Summary      Search the book catalog
// @Tags         search
// @Produce      json
// @Param        q    query     string  true  "search terms"
// @Success      200  {object}  map[string]interface{}  "count, items"
// @Failure      400  {object}  ErrorResponse
// @Failure      502  {object}  ErrorResponse
// @Router       /api/v1/search [get]
func (h *Handler) searchCatalog(c *gin.Context) {
	q := c.Query("q")
	items, err := h.services.Search(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, "search_failed", err, "query", q)
		return
	}
	if items == nil {
		items = []models.BookRecord{}
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(items),
		"items": items,
	})
}
