package users

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jarvis4everyone/subscription-backend/internal/repo"
	"github.com/jarvis4everyone/subscription-backend/pkg/db/models"
	"github.com/jarvis4everyone/subscription-backend/pkg/pagination"
)

// Repository exposes user-related persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) (bool, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	List(ctx context.Context, page pagination.Params) ([]models.User, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type repository struct {
	base repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: r.base.WithTx(tx)}
}

func (r *repository) Create(ctx context.Context, user *models.User) error {
	return r.base.DB(ctx).Create(user).Error
}

// FindByID loads a user by id, or nil when no row matches.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return repo.TakeOne[models.User](r.base.DB(ctx).Where("id = ?", id))
}

// FindByEmail matches case-insensitively, the same way the unique index does.
func (r *repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return repo.TakeOne[models.User](r.base.DB(ctx).
		Where("lower(email) = ?", strings.ToLower(strings.TrimSpace(email))))
}

// Update applies the given columns and reports whether the user exists.
func (r *repository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) (bool, error) {
	return repo.Single(r.base.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(fields))
}

func (r *repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.base.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login", at).Error
}

func (r *repository) List(ctx context.Context, page pagination.Params) ([]models.User, error) {
	var users []models.User
	if err := r.base.DB(ctx).
		Scopes(page.Scope()).
		Order("created_at ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Delete removes the user together with their subscriptions and refresh tokens.
// Payments and contact submissions are kept and detached. Run it inside a transaction.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	db := r.base.DB(ctx)
	if err := db.Where("user_id = ?", id).Delete(&models.RefreshToken{}).Error; err != nil {
		return false, err
	}
	if err := db.Where("user_id = ?", id).Delete(&models.Subscription{}).Error; err != nil {
		return false, err
	}
	if err := db.Model(&models.Payment{}).Where("user_id = ?", id).UpdateColumn("user_id", nil).Error; err != nil {
		return false, err
	}
	if err := db.Model(&models.Contact{}).Where("user_id = ?", id).UpdateColumn("user_id", nil).Error; err != nil {
		return false, err
	}
	return repo.Single(db.Where("id = ?", id).Delete(&models.User{}))
}
