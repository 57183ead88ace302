package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/AnshRaj112/astravedam-backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestTokenManager(t *testing.T) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(AuthConfig{JWTSecret: "test-secret"})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestTokenRoundTrip(t *testing.T) {
	m := newTestTokenManager(t)
	id := primitive.NewObjectID()

	token, err := m.Issue(id)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	got, err := claims.AccountID()
	if err != nil || got != id {
		t.Errorf("AccountID = %v, %v; want %v", got, err, id)
	}
	if ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time); ttl != DefaultTokenTTL {
		t.Errorf("ttl = %v, want %v", ttl, DefaultTokenTTL)
	}
}

func TestTokenExpired(t *testing.T) {
	m := newTestTokenManager(t)
	issued := time.Now().Add(-8 * 24 * time.Hour)
	m.now = func() time.Time { return issued }
	token, err := m.Issue(primitive.NewObjectID())
	if err != nil {
		t.Fatal(err)
	}

	m.now = time.Now
	if _, err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenRejections(t *testing.T) {
	m := newTestTokenManager(t)
	other, _ := NewTokenManager(AuthConfig{JWTSecret: "other-secret"})
	foreign, _ := other.Issue(primitive.NewObjectID())

	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, SessionClaims{
		UserID: primitive.NewObjectID().Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	valid, _ := m.Issue(primitive.NewObjectID())
	tampered := valid[:strings.LastIndex(valid, ".")] + ".AAAA"

	tests := map[string]string{
		"empty":         "",
		"garbage":       "not-a-token",
		"wrong secret":  foreign,
		"alg none":      unsigned,
		"bad signature": tampered,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	if _, err := NewTokenManager(AuthConfig{}); err == nil {
		t.Error("expected error without secret")
	}
}

func newTestAccount() *models.Account {
	return models.NewGoogleAccount("g-1", "a@example.com", "A", "", time.Now())
}
