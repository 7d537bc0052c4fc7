// Package refreshtokens persists issued refresh tokens for the session manager.
package refreshtokens

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jarvis4everyone/subscription-backend/internal/repo"
	"github.com/jarvis4everyone/subscription-backend/pkg/auth/session"
	"github.com/jarvis4everyone/subscription-backend/pkg/db/models"
)

// Repository is the refresh_tokens table. It satisfies session.Store.
type Repository struct {
	base repo.Base
}

var _ session.Store = (*Repository)(nil)

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, token *models.RefreshToken) error {
	return r.base.DB(ctx).Create(token).Error
}

// FindByToken returns session.ErrTokenNotFound when no row matches.
func (r *Repository) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var row models.RefreshToken
	err := r.base.DB(ctx).Where("token = ?", token).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, session.ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) DeleteByToken(ctx context.Context, token string) error {
	return r.base.DB(ctx).Where("token = ?", token).Delete(&models.RefreshToken{}).Error
}

func (r *Repository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.base.DB(ctx).Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error
}

// DeleteExpired removes rows whose expiry is before now and returns how many went.
func (r *Repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.base.DB(ctx).Where("expires_at < ?", now).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
