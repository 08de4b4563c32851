package service

import (
	"strings"

	"booksearch/internal/models"
)

// TokenVerifier resolves a raw bearer token.
type TokenVerifier interface {
	Verify(token string) (models.Identity, error)
}

// Gate turns an Authorization header into a verified identity.
type Gate struct {
	tokens TokenVerifier
}

func NewGate(tokens TokenVerifier) *Gate {
	return &Gate{tokens: tokens}
}

// Resolve accepts "Bearer <token>" with a case-insensitive scheme. An empty
// header or an empty token is ErrMissingToken; any other shape is ErrInvalidToken.
func (g *Gate) Resolve(header string) (models.Identity, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return models.Identity{}, ErrMissingToken
	}

	scheme, token, found := strings.Cut(header, " ")
	if !strings.EqualFold(scheme, "Bearer") {
		return models.Identity{}, ErrInvalidToken
	}
	token = strings.TrimSpace(token)
	if !found || token == "" {
		return models.Identity{}, ErrMissingToken
	}
	if strings.ContainsAny(token, " \t") {
		return models.Identity{}, ErrInvalidToken
	}
	return g.tokens.Verify(token)
}
