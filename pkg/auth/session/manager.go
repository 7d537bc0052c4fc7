package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jarvis4everyone/subscription-backend/pkg/auth"
	"github.com/jarvis4everyone/subscription-backend/pkg/config"
	"github.com/jarvis4everyone/subscription-backend/pkg/db/models"
)

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

// ErrTokenNotFound is returned by a Store when no row matches the token.
var ErrTokenNotFound = errors.New("refresh token not found")

// Store persists issued refresh tokens.
type Store interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

// Manager handles refresh token issuance, lookup and revocation.
type Manager struct {
	store Store
	cfg   config.JWTConfig
	now   func() time.Time
}

// NewManager constructs a session manager backed by the refresh token table.
func NewManager(store Store, cfg config.JWTConfig) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("refresh token store is required")
	}
	ttl := cfg.RefreshTokenTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("refresh token ttl must be positive")
	}
	if accessTTL := cfg.AccessTokenTTL(); ttl <= accessTTL {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, accessTTL)
	}

	return &Manager{
		store: store,
		cfg:   cfg,
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

// TTL is the refresh token lifetime, also used as the cookie max-age.
func (m *Manager) TTL() time.Duration {
	return m.cfg.RefreshTokenTTL()
}

// Issue mints a refresh token for the user and persists it.
func (m *Manager) Issue(ctx context.Context, userID uuid.UUID) (string, time.Time, error) {
	now := m.now()
	token, expiresAt, err := auth.MintRefreshToken(m.cfg, now, userID)
	if err != nil {
		return "", time.Time{}, err
	}
	row := &models.RefreshToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
	if err := m.store.Create(ctx, row); err != nil {
		return "", time.Time{}, fmt.Errorf("persisting refresh token: %w", err)
	}
	return token, expiresAt, nil
}

// Resolve validates the provided refresh token against its signature and its stored row,
// returning the owning user. Expired rows are deleted on sight.
func (m *Manager) Resolve(ctx context.Context, provided string) (uuid.UUID, error) {
	provided = strings.TrimSpace(provided)
	if provided == "" {
		return uuid.Nil, ErrInvalidRefreshToken
	}

	claims, err := auth.ParseRefreshToken(m.cfg, provided)
	if err != nil {
		return uuid.Nil, ErrInvalidRefreshToken
	}

	row, err := m.store.FindByToken(ctx, provided)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return uuid.Nil, ErrInvalidRefreshToken
		}
		return uuid.Nil, err
	}

	if m.now().After(row.ExpiresAt) {
		if err := m.store.DeleteByToken(ctx, provided); err != nil {
			return uuid.Nil, err
		}
		return uuid.Nil, ErrInvalidRefreshToken
	}
	if row.UserID != claims.UserID {
		return uuid.Nil, ErrInvalidRefreshToken
	}

	return row.UserID, nil
}

// Revoke deletes a single refresh token. Unknown tokens are ignored.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return m.store.DeleteByToken(ctx, token)
}

// RevokeAll deletes every refresh token belonging to the user.
func (m *Manager) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	return m.store.DeleteByUser(ctx, userID)
}
