package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/marvingabia/da-agrimanage-gabia/config"
)

func newTestManager() *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-key-for-unit-testing-2026",
		AccessTokenTTL: 15 * time.Minute,
	})
}

var testIdentity = Identity{UserID: "S1", Role: "staff", Name: "Jane Cruz", Email: "jane@x.com"}

func TestGenerateAndParseAccessToken(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateAccessToken(testIdentity)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}

	if claims.UserID != "S1" {
		t.Errorf("expected UserID=S1, got %s", claims.UserID)
	}
	if claims.Role != "staff" {
		t.Errorf("expected Role=staff, got %s", claims.Role)
	}
	if claims.Name != "Jane Cruz" {
		t.Errorf("expected Name=Jane Cruz, got %s", claims.Name)
	}
	if !claims.IsAccess() {
		t.Errorf("expected access token, got %s", claims.TokenType)
	}
	if claims.Issuer != "da-agrimanage" {
		t.Errorf("unexpected issuer %s", claims.Issuer)
	}
	if claims.ID == "" {
		t.Error("JTI must not be empty")
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 14*time.Minute || ttl > 16*time.Minute {
		t.Errorf("expected ~15m ttl, got %v", ttl)
	}
}

func TestGenerateAccessToken_UniqueJTI(t *testing.T) {
	m := newTestManager()
	a, _ := m.GenerateAccessToken(testIdentity)
	b, _ := m.GenerateAccessToken(testIdentity)

	ca, _ := m.ParseToken(a)
	cb, _ := m.ParseToken(b)
	if ca.ID == cb.ID {
		t.Error("two tokens must not share a jti")
	}
}

func TestParseToken_InvalidToken(t *testing.T) {
	m := newTestManager()

	_, err := m.ParseToken("invalid.token.string")
	if !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	m1 := newTestManager()
	m2 := NewManager(&config.AuthConfig{
		JWTSecret:      "different-secret-key",
		AccessTokenTTL: 15 * time.Minute,
	})

	token, _ := m1.GenerateAccessToken(testIdentity)
	if _, err := m2.ParseToken(token); err == nil {
		t.Error("token signed with another secret must be rejected")
	}
}

func TestParseToken_ExpiredToken(t *testing.T) {
	m := NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret",
		AccessTokenTTL: -time.Minute,
	})

	token, _ := m.GenerateAccessToken(testIdentity)

	_, err := m.ParseToken(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}
