package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"booksearch/internal/models"
	"booksearch/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

var emailPattern = regexp.MustCompile(`.+@.+\..+`)

// Session is returned by a successful register or login.
type Session struct {
	Token string          `json:"token"`
	User  models.UserView `json:"user"`
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

// UserQuery selects a user by id or username; the zero value means the caller.
type UserQuery struct {
	ID       string
	Username string
}

// AuthService handles user auth logic
type AuthService struct {
	users  repository.CredentialStore
	tokens *TokenService
}

func NewAuthService(users repository.CredentialStore, tokens *TokenService) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Register hashes the password, creates the user and signs a token for it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" {
		return nil, invalidInput("username is required")
	}
	if !emailPattern.MatchString(in.Email) {
		return nil, invalidInput("must use a valid email address")
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, invalidInput("%v", err)
	}

	u, err := s.users.Create(ctx, models.NewUser{Username: in.Username, Email: in.Email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrDuplicateKey
		}
		return nil, storeFailure("create user", err)
	}
	return s.session(u)
}

// Login checks credentials by email. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	u, err := s.users.FindByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		return nil, storeFailure("find user by email", err)
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := verifyPassword(u.PasswordHash, in.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.session(u)
}

// GetUser loads a user by id.
func (s *AuthService) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, storeFailure("find user", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// FindUser resolves q, defaulting to the caller when q is empty.
func (s *AuthService) FindUser(ctx context.Context, caller models.Identity, q UserQuery) (*models.User, error) {
	var (
		u   *models.User
		err error
	)
	switch {
	case q.ID != "":
		u, err = s.users.FindByID(ctx, q.ID)
	case q.Username != "":
		u, err = s.users.FindByUsername(ctx, q.Username)
	default:
		u, err = s.users.FindByID(ctx, caller.UserID)
	}
	if err != nil {
		return nil, storeFailure("find user", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, storeFailure("list users", err)
	}
	return users, nil
}

func (s *AuthService) session(u *models.User) (*Session, error) {
	token, err := s.tokens.Issue(models.Identity{UserID: u.ID, Username: u.Username, Email: u.Email})
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: u.View()}, nil
}

// helper: hash password safely
func hashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// helper: verify password against hash
func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
