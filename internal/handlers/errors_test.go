package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"booksearch/internal/catalog"
	"booksearch/internal/dispatch"
	"booksearch/internal/service"
)

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{service.ErrDuplicateKey, http.StatusConflict, "duplicate_key"},
		{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
		{service.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
		{service.ErrMissingToken, http.StatusUnauthorized, "missing_token"},
		{service.ErrInvalidToken, http.StatusForbidden, "invalid_token"},
		{service.ErrExpiredToken, http.StatusUnauthorized, "token_expired"},
		{fmt.Errorf("google books: %w", catalog.ErrUpstreamUnavailable), http.StatusBadGateway, "upstream_unavailable"},
		{fmt.Errorf("%w: title is required", service.ErrInvalidInput), http.StatusBadRequest, "invalid_input"},
		{&dispatch.UnknownOperationError{Name: "x"}, http.StatusBadRequest, "invalid_input"},
		{service.ErrForbidden, http.StatusForbidden, "forbidden"},
		{fmt.Errorf("apply: %w: %w", service.ErrStoreUnavailable, errors.New("database is locked")), http.StatusServiceUnavailable, "store_unavailable"},
		{errors.New("surprise"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		status, code := errorStatus(tc.err)
		if status != tc.status || code != tc.code {
			t.Errorf("%v: got %d/%s, want %d/%s", tc.err, status, code, tc.status, tc.code)
		}
	}
}

func TestErrorBody_HidesServerCauses(t *testing.T) {
	_, body := errorBody(fmt.Errorf("apply: %w: %w", service.ErrStoreUnavailable, errors.New("pq: password authentication failed")))
	if body.Error != msgStoreUnavailable {
		t.Fatalf("leaked cause: %v", body.Error)
	}
	_, body = errorBody(errors.New("nil pointer"))
	if body.Error != msgInternal {
		t.Fatalf("leaked cause: %v", body.Error)
	}
	_, body = errorBody(service.ErrUserNotFound)
	if body.Error != "user not found" {
		t.Fatalf("client error message: %v", body.Error)
	}
	if body.Details != nil {
		t.Fatal("unexpected details")
	}
}
