package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"booksearch/internal/models"
	"booksearch/internal/service"
)

func TestUsersHandlers(t *testing.T) {
	auth := &mockAuth{user: aliceUser(dune()), users: []models.User{*aliceUser(dune()), {ID: "u-bob", Username: "bob"}}}
	s := &service.Service{Authorization: auth, Authenticator: &mockGate{id: aliceID}}

	r := newTestRouter(s, Options{})
	w := doRequest(r, http.MethodGet, "/api/v1/users/me?username=alice", "", authHeader("good"))
	if w.Code != http.StatusOK {
		t.Fatalf("me status=%d, body=%s", w.Code, w.Body.String())
	}
	var view models.UserView
	_ = json.Unmarshal(w.Body.Bytes(), &view)
	if view.BookCount != 1 || auth.lastFind.Username != "alice" {
		t.Fatalf("unexpected: view=%+v query=%+v", view, auth.lastFind)
	}
	if w := doRequest(r, http.MethodGet, "/api/v1/users/me", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("me without token: got %d", w.Code)
	}

	w = doRequest(r, http.MethodGet, "/api/v1/users", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status=%d", w.Code)
	}
	var out struct {
		Count int               `json:"count"`
		Users []models.UserView `json:"users"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 || out.Users[1].SavedBooks == nil {
		t.Fatalf("unexpected listing: %+v", out)
	}

	strict := newTestRouter(s, Options{ListUsersRequiresAuth: true})
	if w := doRequest(strict, http.MethodGet, "/api/v1/users", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("strict list without token: got %d", w.Code)
	}
	if w := doRequest(strict, http.MethodGet, "/api/v1/users", "", authHeader("good")); w.Code != http.StatusOK {
		t.Fatalf("strict list with token: got %d", w.Code)
	}

	auth.err = service.ErrUserNotFound
	if w := doRequest(r, http.MethodGet, "/api/v1/users/me", "", authHeader("good")); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestHealthAndRequestID(t *testing.T) {
	r := newTestRouter(&service.Service{}, Options{})
	w := doRequest(r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK || w.Body.String() != `{"status":"ok"}` {
		t.Fatalf("health: %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID header")
	}
}
