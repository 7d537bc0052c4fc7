package contacts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jarvis4everyone/subscription-backend/internal/repo"
	"github.com/jarvis4everyone/subscription-backend/pkg/db/models"
	"github.com/jarvis4everyone/subscription-backend/pkg/enums"
	"github.com/jarvis4everyone/subscription-backend/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, contact *models.Contact) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Contact, error)
	List(ctx context.Context, status *enums.ContactStatus, page pagination.Params) ([]models.Contact, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ContactStatus, at time.Time) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type repository struct {
	base repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) Create(ctx context.Context, contact *models.Contact) error {
	return r.base.DB(ctx).Create(contact).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	return repo.TakeOne[models.Contact](r.base.DB(ctx).Where("id = ?", id))
}

// List returns submissions newest first, optionally filtered by status.
func (r *repository) List(ctx context.Context, status *enums.ContactStatus, page pagination.Params) ([]models.Contact, error) {
	query := r.base.DB(ctx).Model(&models.Contact{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var contacts []models.Contact
	if err := query.
		Scopes(page.Scope()).
		Order("created_at DESC").
		Find(&contacts).Error; err != nil {
		return nil, err
	}
	return contacts, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ContactStatus, at time.Time) (bool, error) {
	return repo.Single(r.base.DB(ctx).
		Model(&models.Contact{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": at,
		}))
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	return repo.Single(r.base.DB(ctx).Where("id = ?", id).Delete(&models.Contact{}))
}
