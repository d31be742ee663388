package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"cinema-booking-cli/model"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestValid_NilAndAnonymous(t *testing.T) {
	var nilSession *Session
	if nilSession.Valid(time.Now()) {
		t.Fatal("expected nil session to be invalid")
	}
	if Anonymous().Valid(time.Now()) {
		t.Fatal("expected anonymous session to be invalid")
	}
}

func TestValid_ChecksExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	fresh := New(model.TokenPair{Access: signedToken(t, now.Add(time.Hour))})
	if !fresh.Valid(now) {
		t.Fatal("expected fresh token to be valid")
	}

	expired := New(model.TokenPair{Access: signedToken(t, now.Add(-time.Minute))})
	if expired.Valid(now) {
		t.Fatal("expected expired token without refresh to be invalid")
	}

	refreshable := New(model.TokenPair{Access: signedToken(t, now.Add(-time.Minute)), Refresh: "r"})
	if !refreshable.Valid(now) {
		t.Fatal("expected expired token with refresh to be valid")
	}
}

func TestValid_OpaqueTokenNeverExpires(t *testing.T) {
	s := New(model.TokenPair{Access: "opaque-token"})
	if !s.Valid(time.Now()) {
		t.Fatal("expected opaque token to be valid")
	}
	if _, ok := Expiry("opaque-token"); ok {
		t.Fatal("expected no expiry for opaque token")
	}
}

func TestSetAccessAndClear(t *testing.T) {
	s := New(model.TokenPair{Access: "a", Refresh: "r"})
	s.SetAccess(" b ")
	if got := s.AccessToken(); got != "b" {
		t.Fatalf("expected access %q, got %q", "b", got)
	}
	s.Clear()
	if s.Authenticated() {
		t.Fatal("expected cleared session to be anonymous")
	}
}
