// Package session holds the authenticated user's bearer token and the
// identity derived from it.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/cache"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/models"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/timex"
)

var ErrNotAuthenticated = errors.New("not authenticated")

// Claims are the token claims the client reads. The signature is the
// backend's concern; the client never verifies it.
type Claims struct {
	jwt.RegisteredClaims
	UserID jsonID `json:"user_id"`
}

// UserFetcher loads the authenticated user's profile.
type UserFetcher interface {
	GetCurrentUser(ctx context.Context) (json.RawMessage, error)
}

type Session struct {
	now timex.Clock

	mu     sync.RWMutex
	token  string
	claims *Claims
	userID string
}

func New(now timex.Clock) *Session {
	return &Session{now: now.OrNow()}
}

// SetToken installs a bearer token. Tokens that are not JWTs are accepted
// as opaque; their user id is learned from CurrentUser.
func (s *Session) SetToken(token string) error {
	if token == "" {
		return fmt.Errorf("empty token: %w", ErrNotAuthenticated)
	}
	claims := &Claims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		claims = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.claims = claims
	s.userID = ""
	if claims != nil {
		s.userID = string(claims.UserID)
		if s.userID == "" {
			s.userID = claims.Subject
		}
		if exp := claims.ExpiresAt; exp != nil && !exp.After(s.now()) {
			s.token, s.claims, s.userID = "", nil, ""
			return fmt.Errorf("token expired at %s: %w", exp.Time, ErrNotAuthenticated)
		}
	}
	return nil
}

// Token returns the current bearer token, or "" once it has expired.
func (s *Session) Token() string {
	if !s.Authenticated() {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated is true while a token is set and not past its expiry.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return false
	}
	if s.claims != nil && s.claims.ExpiresAt != nil {
		return s.claims.ExpiresAt.After(s.now())
	}
	return true
}

// UserID is the authenticated user's id, from the token claims or the last
// profile fetch.
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *Session) Clear() {
	s.mu.Lock()
	s.token, s.claims, s.userID = "", nil, ""
	s.mu.Unlock()
}

// CurrentUser returns the cached profile when present and fetches and
// caches it otherwise.
func (s *Session) CurrentUser(ctx context.Context, api UserFetcher, h *cache.Helpers) (models.User, error) {
	if !s.Authenticated() {
		return models.User{}, ErrNotAuthenticated
	}
	if u, ok := h.GetCachedUser(ctx); ok {
		s.learnUserID(u.ID)
		return u, nil
	}
	raw, err := api.GetCurrentUser(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("fetching current user: %w", err)
	}
	u, ok := models.DecodeUser(raw)
	if !ok {
		return models.User{}, errors.New("current user payload has no id")
	}
	h.CacheUser(ctx, u)
	s.learnUserID(u.ID)
	return u, nil
}

func (s *Session) learnUserID(id string) {
	if id == "" {
		return
	}
	s.mu.Lock()
	if s.userID == "" {
		s.userID = id
	}
	s.mu.Unlock()
}
