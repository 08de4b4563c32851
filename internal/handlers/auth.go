package handlers

import (
	"net/http"

	"booksearch/internal/service"
	"booksearch/internal/validation"

	"github.com/gin-gonic/gin"
)

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,max=64" example:"alice"`
	Email    string `json:"email" binding:"required,email" example:"alice@example.com"`
	Password string `json:"password" binding:"required,max=72" example:"s3cret!"`
}

// LoginRequest is the sign-in payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"alice@example.com"`
	Password string `json:"password" binding:"required" example:"s3cret!"`
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if h.log != nil {
			h.log.Infow("bad_request_body", "path", c.FullPath(), "err", err)
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid request body",
			Code:    "invalid_input",
			Details: validation.ToDetails(err),
		})
		return false
	}
	return true
}

// @Summary      Register a user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input  body      RegisterRequest  true  "credentials"
// @Success      201    {object}  service.Session
// @Failure      400    {object}  ErrorResponse
// @Failure      409    {object}  ErrorResponse
// @Failure      429    {object}  ErrorResponse
// @Router       /auth/register [post]
func (h *Handler) register(c *gin.Context) {
	var input RegisterRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	session, err := h.services.Register(c.Request.Context(), service.RegisterInput{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		h.respondError(c, "auth_register_failed", err, "username", input.Username)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input  body      LoginRequest  true  "credentials"
// @Success      200    {object}  service.Session
// @Failure      400    {object}  ErrorResponse
// @Failure      401    {object}  ErrorResponse
// @Failure      429    {object}  ErrorResponse
// @Router       /auth/login [post]
func (h *Handler) login(c *gin.Context) {
	var input LoginRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	session, err := h.services.Login(c.Request.Context(), service.LoginInput{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		h.respondError(c, "auth_login_failed", err, "email", input.Email)
		return
	}
	c.JSON(http.StatusOK, session)
}
