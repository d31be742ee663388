// Package session holds the signed-in user's token pair. A Session is passed
// explicitly to every component that talks to the backend.
package session

import (
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"cinema-booking-cli/model"
)

// expirySkew treats tokens about to expire as already expired.
const expirySkew = 10 * time.Second

type Session struct {
	mu      sync.RWMutex
	access  string
	refresh string
}

// New returns a session for the given tokens. Empty tokens yield an
// anonymous session.
func New(tokens model.TokenPair) *Session {
	return &Session{
		access:  strings.TrimSpace(tokens.Access),
		refresh: strings.TrimSpace(tokens.Refresh),
	}
}

// Anonymous returns a session without credentials.
func Anonymous() *Session {
	return &Session{}
}

func (s *Session) Tokens() model.TokenPair {
	if s == nil {
		return model.TokenPair{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.TokenPair{Access: s.access, Refresh: s.refresh}
}

// AccessToken returns the bearer token, empty for anonymous sessions.
func (s *Session) AccessToken() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

func (s *Session) RefreshToken() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

// SetAccess replaces the access token after a refresh.
func (s *Session) SetAccess(token string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.access = strings.TrimSpace(token)
	s.mu.Unlock()
}

// Clear drops both tokens.
func (s *Session) Clear() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.access = ""
	s.refresh = ""
	s.mu.Unlock()
}

// Authenticated reports whether the session carries any credentials.
func (s *Session) Authenticated() bool {
	return s.AccessToken() != "" || s.RefreshToken() != ""
}

// Valid reports whether the session can be used for an authenticated call at
// now: the access token is present and unexpired, or a refresh token exists.
func (s *Session) Valid(now time.Time) bool {
	if s == nil {
		return false
	}
	access := s.AccessToken()
	if access != "" && !TokenExpired(access, now) {
		return true
	}
	return s.CanRefresh()
}

// CanRefresh reports whether a refresh token is available.
func (s *Session) CanRefresh() bool {
	return s.RefreshToken() != ""
}

// TokenExpired reads the exp claim of a JWT without verifying its signature.
// Tokens that are not JWTs, or carry no exp, never expire client-side.
func TokenExpired(token string, now time.Time) bool {
	exp, ok := Expiry(token)
	if !ok {
		return false
	}
	return !now.Add(expirySkew).Before(exp)
}

// Expiry returns the exp claim of a JWT access token.
func Expiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
