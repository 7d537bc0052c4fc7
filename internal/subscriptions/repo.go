package subscriptions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jarvis4everyone/subscription-backend/internal/repo"
	"github.com/jarvis4everyone/subscription-backend/pkg/db/models"
	"github.com/jarvis4everyone/subscription-backend/pkg/enums"
	"github.com/jarvis4everyone/subscription-backend/pkg/pagination"
)

// Repository handles subscription persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockUser(ctx context.Context, userID uuid.UUID) error
	Create(ctx context.Context, sub *models.Subscription) error
	FindCurrent(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	FindActive(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	FindCurrentByUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*models.Subscription, error)
	CancelCurrent(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)
	CancelActive(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)
	UpdateEndDate(ctx context.Context, id uuid.UUID, endDate, at time.Time) (bool, error)
	MarkExpired(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	ExpirePastDue(ctx context.Context, now time.Time, limit int) (int64, error)
	List(ctx context.Context, page pagination.Params) ([]models.Subscription, error)
}

type repository struct {
	base repo.Base
}

// NewRepository returns a subscription repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: r.base.WithTx(tx)}
}

// LockUser takes a row lock on the owning user for the rest of the transaction.
// It returns gorm.ErrRecordNotFound when the user does not exist.
func (r *repository) LockUser(ctx context.Context, userID uuid.UUID) error {
	var user models.User
	return r.base.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", userID).
		Take(&user).Error
}

func (r *repository) Create(ctx context.Context, sub *models.Subscription) error {
	return r.base.DB(ctx).Create(sub).Error
}

// FindCurrent returns the newest active or expired row, or nil when the user has none.
func (r *repository) FindCurrent(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	return repo.TakeOne[models.Subscription](r.base.DB(ctx).
		Where("user_id = ? AND status IN ?", userID, enums.CurrentSubscriptionStatuses).
		Order("created_at DESC"))
}

// FindActive returns the row whose status is literally active, or nil.
func (r *repository) FindActive(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	return repo.TakeOne[models.Subscription](r.base.DB(ctx).
		Where("user_id = ? AND status = ?", userID, enums.SubscriptionStatusActive).
		Order("created_at DESC"))
}

func (r *repository) FindCurrentByUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*models.Subscription, error) {
	out := make(map[uuid.UUID]*models.Subscription, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	var subs []models.Subscription
	if err := r.base.DB(ctx).
		Where("user_id IN ? AND status IN ?", userIDs, enums.CurrentSubscriptionStatuses).
		Order("created_at DESC").
		Find(&subs).Error; err != nil {
		return nil, err
	}

	for i := range subs {
		sub := subs[i]
		if _, seen := out[sub.UserID]; seen {
			continue
		}
		out[sub.UserID] = &sub
	}
	return out, nil
}

func (r *repository) CancelCurrent(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	return r.cancelWhere(ctx, at, "user_id = ? AND status IN ?", userID, enums.CurrentSubscriptionStatuses)
}

func (r *repository) CancelActive(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	return r.cancelWhere(ctx, at, "user_id = ? AND status = ?", userID, enums.SubscriptionStatusActive)
}

func (r *repository) cancelWhere(ctx context.Context, at time.Time, query string, args ...any) (int64, error) {
	res := r.base.DB(ctx).
		Model(&models.Subscription{}).
		Where(query, args...).
		Updates(map[string]any{
			"status":       enums.SubscriptionStatusCancelled,
			"cancelled_at": at,
			"updated_at":   at,
		})
	return res.RowsAffected, res.Error
}

// UpdateEndDate moves the end date of a row that is still active.
func (r *repository) UpdateEndDate(ctx context.Context, id uuid.UUID, endDate, at time.Time) (bool, error) {
	return repo.Single(r.base.DB(ctx).
		Model(&models.Subscription{}).
		Where("id = ? AND status = ?", id, enums.SubscriptionStatusActive).
		Updates(map[string]any{
			"end_date":   endDate,
			"updated_at": at,
		}))
}

// MarkExpired flips a single active row to expired. It reports false when the row
// was already transitioned by someone else.
func (r *repository) MarkExpired(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	return repo.Single(r.base.DB(ctx).
		Model(&models.Subscription{}).
		Where("id = ? AND status = ?", id, enums.SubscriptionStatusActive).
		Updates(map[string]any{
			"status":     enums.SubscriptionStatusExpired,
			"updated_at": at,
		}))
}

// ExpirePastDue expires up to limit active rows whose end date is before now.
func (r *repository) ExpirePastDue(ctx context.Context, now time.Time, limit int) (int64, error) {
	if limit <= 0 {
		return 0, nil
	}
	due := r.base.DB(ctx).
		Model(&models.Subscription{}).
		Select("id").
		Where("status = ? AND end_date < ?", enums.SubscriptionStatusActive, now).
		Order("end_date ASC").
		Limit(limit)

	res := r.base.DB(ctx).
		Model(&models.Subscription{}).
		Where("id IN (?) AND status = ?", due, enums.SubscriptionStatusActive).
		Updates(map[string]any{
			"status":     enums.SubscriptionStatusExpired,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) List(ctx context.Context, page pagination.Params) ([]models.Subscription, error) {
	var subs []models.Subscription
	if err := r.base.DB(ctx).
		Scopes(page.Scope()).
		Order("created_at DESC").
		Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}
