package handlers

import (
	"net/http"

	"booksearch/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	identityKey = "identity"
	userIDKey   = "userId"
)

// authMiddleware resolves the bearer token and stores the caller identity.
func (h *Handler) authMiddleware(c *gin.Context) {
	id, err := h.services.Resolve(c.GetHeader("Authorization"))
	if err != nil {
		h.respondError(c, "auth_rejected", err, "path", c.FullPath())
		return
	}

	// store in Gin context
	c.Set(identityKey, id)
	c.Set(userIDKey, id.UserID)
	c.Next()
}

// optionalAuth applies authMiddleware only when required is set.
func (h *Handler) optionalAuth(required bool) gin.HandlerFunc {
	if required {
		return h.authMiddleware
	}
	return func(c *gin.Context) { c.Next() }
}

// callerIdentity returns the identity set by authMiddleware.
func callerIdentity(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return models.Identity{}, false
	}
	id, ok := v.(models.Identity)
	return id, ok
}

// mustCaller aborts with 401 when no identity was attached to the request.
func (h *Handler) mustCaller(c *gin.Context) (models.Identity, bool) {
	id, ok := callerIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "missing token", Code: "missing_token"})
	}
	return id, ok
}
