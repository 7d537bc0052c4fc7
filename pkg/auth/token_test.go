package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jarvis4everyone/subscription-backend/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "secret",
		Issuer:                 "jarvis4everyone",
		ExpirationMinutes:      30,
		RefreshTokenExpireDays: 7,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()
	userID := uuid.New()

	token, err := MintAccessToken(cfg, now, userID)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if claims.UserID != userID {
		t.Fatalf("expected user_id %s, got %s", userID, claims.UserID)
	}
	if claims.Subject != userID.String() {
		t.Fatalf("expected subject %s, got %s", userID, claims.Subject)
	}
	if claims.Type != TokenTypeAccess {
		t.Fatalf("unexpected token type %s", claims.Type)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}

	exp := now.Add(30 * time.Minute)
	diff := claims.ExpiresAt.Sub(exp)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v (diff %v)", exp, claims.ExpiresAt.UTC(), diff)
	}
}

func TestMintRefreshTokenReturnsExpiry(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()
	userID := uuid.New()

	first, expiresAt, err := MintRefreshToken(cfg, now, userID)
	if err != nil {
		t.Fatalf("mint refresh token: %v", err)
	}
	if !expiresAt.Equal(now.Add(7 * 24 * time.Hour)) {
		t.Fatalf("unexpected expiry %v", expiresAt)
	}
	second, _, err := MintRefreshToken(cfg, now, userID)
	if err != nil {
		t.Fatalf("mint refresh token: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct refresh tokens for the same instant")
	}

	claims, err := ParseRefreshToken(cfg, first)
	if err != nil {
		t.Fatalf("parse refresh token: %v", err)
	}
	if claims.Type != TokenTypeRefresh {
		t.Fatalf("unexpected token type %s", claims.Type)
	}
}

func TestParseRejectsWrongTokenType(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now()
	userID := uuid.New()

	refresh, _, err := MintRefreshToken(cfg, now, userID)
	if err != nil {
		t.Fatalf("mint refresh token: %v", err)
	}
	if _, err := ParseAccessToken(cfg, refresh); !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("expected wrong token type, got %v", err)
	}

	access, err := MintAccessToken(cfg, now, userID)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	if _, err := ParseRefreshToken(cfg, access); !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("expected wrong token type, got %v", err)
	}
}

func TestParseAccessTokenInvalidSignature(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), uuid.New())
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	other := cfg
	other.Secret = "different"
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatal("expected invalid signature error")
	}
}

func TestParseAccessTokenExpired(t *testing.T) {
	cfg := testJWTConfig()
	cfg.ExpirationMinutes = 15

	token, err := MintAccessToken(cfg, time.Now().Add(-time.Hour), uuid.New())
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	_, err = ParseAccessToken(cfg, token)
	if err == nil {
		t.Fatal("expected expiration error")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMintRequiresUser(t *testing.T) {
	if _, err := MintAccessToken(testJWTConfig(), time.Now(), uuid.Nil); err == nil {
		t.Fatal("expected missing user error")
	}
}
