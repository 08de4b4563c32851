package handlers

import (
	"errors"
	"net/http"

	"booksearch/internal/middleware"
	"booksearch/internal/service"

	"github.com/gin-gonic/gin"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// Checked in order; the first match wins.
var errorTable = []errorMapping{
	{service.ErrDuplicateKey, http.StatusConflict, "duplicate_key"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{service.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
	{service.ErrMissingToken, http.StatusUnauthorized, "missing_token"},
	{service.ErrInvalidToken, http.StatusForbidden, "invalid_token"},
	{service.ErrExpiredToken, http.StatusUnauthorized, "token_expired"},
	{service.ErrUpstreamUnavailable, http.StatusBadGateway, "upstream_unavailable"},
	{service.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{service.ErrForbidden, http.StatusForbidden, "forbidden"},
	{service.ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable"},
}

const (
	codeInternal = "internal"

	msgStoreUnavailable    = "storage is temporarily unavailable"
	msgUpstreamUnavailable = "book catalog is temporarily unavailable"
	msgInternal            = "internal error"
)

// errorStatus maps a service error to its HTTP status and stable code.
func errorStatus(err error) (int, string) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, codeInternal
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code" example:"invalid_input"`
	Details map[string]string `json:"details,omitempty"`
}

// detailer is implemented by errors that carry per-field messages.
type detailer interface {
	Details() map[string]string
}

// errorBody renders err for clients. Server-side causes are not echoed.
func errorBody(err error) (int, ErrorResponse) {
	status, code := errorStatus(err)
	msg := err.Error()
	switch status {
	case http.StatusServiceUnavailable:
		msg = msgStoreUnavailable
	case http.StatusBadGateway:
		msg = msgUpstreamUnavailable
	case http.StatusInternalServerError:
		msg = msgInternal
	}
	body := ErrorResponse{Error: msg, Code: code}

	var d detailer
	if errors.As(err, &d) {
		if details := d.Details(); len(details) > 0 {
			body.Details = details
		}
	}
	return status, body
}

// respondError logs err under logKey and writes the mapped JSON error.
func (h *Handler) respondError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	status, body := errorBody(err)
	if h.log != nil {
		fields := append([]interface{}{"err", err, "status", status, "request_id", c.GetString(middleware.RequestIDKey)}, kv...)
		if status >= http.StatusInternalServerError {
			h.log.Errorw(logKey, fields...)
		} else {
			h.log.Infow(logKey, fields...)
		}
	}
	c.AbortWithStatusJSON(status, body)
}
