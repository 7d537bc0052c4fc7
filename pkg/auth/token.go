package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jarvis4everyone/subscription-backend/pkg/config"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// ErrWrongTokenType is returned when a refresh token is presented as an access token or vice versa.
var ErrWrongTokenType = errors.New("unexpected token type")

// MintAccessToken issues a signed access JWT using the configured TTL.
func MintAccessToken(cfg config.JWTConfig, now time.Time, userID uuid.UUID) (string, error) {
	return mint(cfg, now, userID, TokenTypeAccess, cfg.AccessTokenTTL())
}

// MintRefreshToken issues a signed refresh JWT. Each token carries a fresh jti so
// two tokens minted in the same second never collide in storage.
func MintRefreshToken(cfg config.JWTConfig, now time.Time, userID uuid.UUID) (string, time.Time, error) {
	ttl := cfg.RefreshTokenTTL()
	token, err := mint(cfg, now, userID, TokenTypeRefresh, ttl)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, now.Add(ttl), nil
}

func mint(cfg config.JWTConfig, now time.Time, userID uuid.UUID, kind TokenType, ttl time.Duration) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return "", fmt.Errorf("jwt issuer is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("%s token ttl must be positive", kind)
	}
	if userID == uuid.Nil {
		return "", fmt.Errorf("user id is required")
	}

	claims := TokenClaims{
		UserID: userID,
		Type:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseAccessToken validates the JWT string and requires an access token.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*TokenClaims, error) {
	return parse(cfg, tokenString, TokenTypeAccess)
}

// ParseRefreshToken validates the JWT string and requires a refresh token.
func ParseRefreshToken(cfg config.JWTConfig, tokenString string) (*TokenClaims, error) {
	return parse(cfg, tokenString, TokenTypeRefresh)
}

func parse(cfg config.JWTConfig, tokenString string, want TokenType) (*TokenClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if claims.Type != want {
		return nil, ErrWrongTokenType
	}
	if claims.UserID == uuid.Nil {
		return nil, fmt.Errorf("token missing user id")
	}

	return claims, nil
}
