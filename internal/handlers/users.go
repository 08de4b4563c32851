package handlers

import (
	"net/http"

	"booksearch/internal/models"
	"booksearch/internal/service"

	"github.com/gin-gonic/gin"
)

// @Summary      Current user
// @Description  Returns the caller, or another user when id or username is given.
// @Tags         users
// @Produce      json
// @Param        id        query     string  false  "user id"
// @Param        username  query     string  false  "username"
// @Success      200       {object}  models.UserView
// @Failure      401       {object}  ErrorResponse
// @Failure      403       {object}  ErrorResponse
// @Failure      404       {object}  ErrorResponse
// @Router       /api/v1/users/me [get]
// @Security     BearerAuth
func (h *Handler) me(c *gin.Context) {
	caller, ok := h.mustCaller(c)
	if !ok {
		return
	}
	u, err := h.services.FindUser(c.Request.Context(), caller, service.UserQuery{
		ID:       c.Query("id"),
		Username: c.Query("username"),
	})
	if err != nil {
		h.respondError(c, "users_get_failed", err, "user_id", caller.UserID)
		return
	}
	c.JSON(http.StatusOK, u.View())
}

// @Summary      List users
// @Tags         users
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, users"
// @Failure      401  {object}  ErrorResponse
// @Failure      503  {object}  ErrorResponse
// @Router       /api/v1/users [get]
func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.services.ListUsers(c.Request.Context())
	if err != nil {
		h.respondError(c, "users_list_failed", err)
		return
	}
	views := make([]models.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, u.View())
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(views),
		"users": views,
	})
}
