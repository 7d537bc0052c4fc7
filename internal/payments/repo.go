package payments

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/jarvis4everyone/subscription-backend/internal/repo"
	"github.com/jarvis4everyone/subscription-backend/pkg/db/models"
	"github.com/jarvis4everyone/subscription-backend/pkg/enums"
	"github.com/jarvis4everyone/subscription-backend/pkg/pagination"
)

// Repository handles payment persistence. Status transitions only ever move a row out
// of pending, and report whether this caller made the move.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.Payment) error
	FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	MarkCompleted(ctx context.Context, orderID, paymentID, signature string, at time.Time) (bool, error)
	MarkFailed(ctx context.Context, orderID, paymentID string, at time.Time) (bool, error)
	List(ctx context.Context, page pagination.Params) ([]models.Payment, error)
}

type repository struct {
	base repo.Base
}

// NewRepository returns a payment repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: r.base.WithTx(tx)}
}

func (r *repository) Create(ctx context.Context, payment *models.Payment) error {
	return r.base.DB(ctx).Create(payment).Error
}

// FindByOrderID returns nil when no payment carries the order id.
func (r *repository) FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	return repo.TakeOne[models.Payment](r.base.DB(ctx).Where("provider_order_id = ?", orderID))
}

func (r *repository) MarkCompleted(ctx context.Context, orderID, paymentID, signature string, at time.Time) (bool, error) {
	updates := map[string]any{
		"status":              enums.PaymentStatusCompleted,
		"provider_payment_id": nullable(paymentID),
		"provider_signature":  nullable(signature),
		"updated_at":          at,
	}
	return r.transition(ctx, orderID, updates)
}

func (r *repository) MarkFailed(ctx context.Context, orderID, paymentID string, at time.Time) (bool, error) {
	updates := map[string]any{
		"status":              enums.PaymentStatusFailed,
		"provider_payment_id": nullable(paymentID),
		"updated_at":          at,
	}
	return r.transition(ctx, orderID, updates)
}

func (r *repository) transition(ctx context.Context, orderID string, updates map[string]any) (bool, error) {
	res := r.base.DB(ctx).
		Model(&models.Payment{}).
		Where("provider_order_id = ? AND status = ?", orderID, enums.PaymentStatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) List(ctx context.Context, page pagination.Params) ([]models.Payment, error) {
	var payments []models.Payment
	if err := r.base.DB(ctx).
		Scopes(page.Scope()).
		Order("created_at DESC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
