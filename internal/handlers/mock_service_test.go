package handlers

import (
	"context"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"booksearch/internal/models"
	"booksearch/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	session  *service.Session
	err      error
	user     *models.User
	users    []models.User
	lastReg  service.RegisterInput
	lastLog  service.LoginInput
	lastFind service.UserQuery
}

func (m *mockAuth) Register(_ context.Context, in service.RegisterInput) (*service.Session, error) {
	m.lastReg = in
	return m.session, m.err
}
func (m *mockAuth) Login(_ context.Context, in service.LoginInput) (*service.Session, error) {
	m.lastLog = in
	return m.session, m.err
}
func (m *mockAuth) GetUser(_ context.Context, _ string) (*models.User, error) {
	return m.user, m.err
}
func (m *mockAuth) FindUser(_ context.Context, _ models.Identity, q service.UserQuery) (*models.User, error) {
	m.lastFind = q
	return m.user, m.err
}
func (m *mockAuth) ListUsers(_ context.Context) ([]models.User, error) {
	return m.users, m.err
}

// mockGate accepts "Bearer good" and maps a few fixed tokens to errors.
type mockGate struct {
	mu         sync.Mutex
	id         models.Identity
	lastHeader string
}

func (m *mockGate) Resolve(header string) (models.Identity, error) {
	m.mu.Lock()
	m.lastHeader = header
	m.mu.Unlock()
	switch strings.TrimPrefix(header, "Bearer ") {
	case "":
		return models.Identity{}, service.ErrMissingToken
	case "good":
		return m.id, nil
	case "expired":
		return models.Identity{}, service.ErrExpiredToken
	default:
		return models.Identity{}, service.ErrInvalidToken
	}
}

type mockLibrary struct {
	mu         sync.Mutex
	user       *models.User
	books      []models.SavedBook
	err        error
	listErr    error
	lastUserID string
	lastBook   models.SavedBook
	lastBookID string
	collects   int
}

func (m *mockLibrary) AddBook(_ context.Context, userID string, b models.SavedBook) (*models.User, error) {
	m.lastUserID, m.lastBook = userID, b
	return m.user, m.err
}
func (m *mockLibrary) RemoveBook(_ context.Context, userID, bookID string) (*models.User, error) {
	m.lastUserID, m.lastBookID = userID, bookID
	return m.user, m.err
}
func (m *mockLibrary) ListBooks(_ context.Context) iter.Seq2[models.SavedBook, error] {
	return func(yield func(models.SavedBook, error) bool) {
		for _, b := range m.books {
			if !yield(b, nil) {
				return
			}
		}
	}
}
func (m *mockLibrary) CollectBooks(_ context.Context) ([]models.SavedBook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collects++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]models.SavedBook{}, m.books...), nil
}
func (m *mockLibrary) UserBooks(_ context.Context, userID string) ([]models.SavedBook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUserID = userID
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]models.SavedBook{}, m.books...), nil
}

type mockCatalog struct {
	items     []models.BookRecord
	err       error
	lastQuery string
}

func (m *mockCatalog) Search(_ context.Context, q string) ([]models.BookRecord, error) {
	m.lastQuery = q
	return m.items, m.err
}

type mockActivityLog struct {
	resp       []models.Activity
	err        error
	lastUserID string
	lastFilter service.LogFilter
}

func (m *mockActivityLog) List(_ context.Context, userID string, f service.LogFilter) ([]models.Activity, error) {
	m.lastUserID, m.lastFilter = userID, f
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service, opts Options) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, nil, opts)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func doRequest(r http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, vv := range header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

var aliceID = models.Identity{UserID: "u-alice", Username: "alice", Email: "alice@example.com"}

func aliceUser(books ...models.SavedBook) *models.User {
	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	return &models.User{
		ID:         aliceID.UserID,
		Username:   aliceID.Username,
		Email:      aliceID.Email,
		SavedBooks: books,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
