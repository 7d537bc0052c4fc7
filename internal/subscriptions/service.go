package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jarvis4everyone/subscription-backend/pkg/db"
	"github.com/jarvis4everyone/subscription-backend/pkg/db/models"
	"github.com/jarvis4everyone/subscription-backend/pkg/enums"
	pkgerrors "github.com/jarvis4everyone/subscription-backend/pkg/errors"
	"github.com/jarvis4everyone/subscription-backend/pkg/logger"
	"github.com/jarvis4everyone/subscription-backend/pkg/metrics"
	"github.com/jarvis4everyone/subscription-backend/pkg/pagination"
)

const activeNotFoundMessage = "Active subscription not found"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the subscription lifecycle surface.
type Service interface {
	GetCurrent(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	IsActive(sub *models.Subscription) bool
	Create(ctx context.Context, userID uuid.UUID, months int, start time.Time) (*models.Subscription, error)
	Renew(ctx context.Context, userID uuid.UUID, months int) (*models.Subscription, error)
	RenewWithTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, months int) (*models.Subscription, error)
	Extend(ctx context.Context, userID uuid.UUID, months int) (*models.Subscription, error)
	Cancel(ctx context.Context, userID uuid.UUID) error
	ExpireIfPastDue(ctx context.Context, sub *models.Subscription) (bool, error)
	ExpirePastDue(ctx context.Context, limit int) (int64, error)
	ListAll(ctx context.Context, page pagination.Params) ([]models.Subscription, error)
	CurrentForUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*models.Subscription, error)
	Now() time.Time
}

// ServiceParams groups dependencies for the subscription service.
type ServiceParams struct {
	Repo              Repository
	TransactionRunner txRunner
	Logger            *logger.Logger
	Metrics           *metrics.PaymentMetrics
	Clock             func() time.Time
}

type service struct {
	repo     Repository
	txRunner txRunner
	logg     *logger.Logger
	metrics  *metrics.PaymentMetrics
	clock    func() time.Time
}

// NewService builds a subscription service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("subscription repo required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	clock := params.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:     params.Repo,
		txRunner: params.TransactionRunner,
		logg:     params.Logger,
		metrics:  params.Metrics,
		clock:    clock,
	}, nil
}

func (s *service) Now() time.Time {
	return s.clock()
}

func (s *service) IsActive(sub *models.Subscription) bool {
	return IsActive(sub, s.clock())
}

// GetCurrent returns the newest active or expired row, or nil when the user has never
// subscribed. An active row past its end date is flipped to expired on the way out.
func (s *service) GetCurrent(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.repo.FindCurrent(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load current subscription")
	}
	if sub == nil {
		return nil, nil
	}
	flipped, err := s.ExpireIfPastDue(ctx, sub)
	if err != nil {
		return nil, err
	}
	if !flipped && IsPastDue(sub, s.clock()) {
		// Another writer moved the row first; return what it stored.
		if sub, err = s.repo.FindCurrent(ctx, userID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload current subscription")
		}
	}
	return sub, nil
}

// Create inserts a fresh active term without touching earlier rows.
func (s *service) Create(ctx context.Context, userID uuid.UUID, months int, start time.Time) (*models.Subscription, error) {
	if err := validateMonths(months); err != nil {
		return nil, err
	}
	if start.IsZero() {
		start = s.clock()
	}
	sub := newSubscription(userID, months, start.UTC())
	if err := s.repo.Create(ctx, sub); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "user already has an active subscription")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create subscription")
	}
	s.metrics.AddTransition("created", 1)
	return sub, nil
}

// Renew cancels every current row for the user and starts a new term from now,
// atomically.
func (s *service) Renew(ctx context.Context, userID uuid.UUID, months int) (*models.Subscription, error) {
	if err := validateMonths(months); err != nil {
		return nil, err
	}
	var renewed *models.Subscription
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		sub, err := s.RenewWithTx(ctx, tx, userID, months)
		if err != nil {
			return err
		}
		renewed = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return renewed, nil
}

// RenewWithTx renews inside a caller-owned transaction so the renewal commits
// together with the caller's own writes.
func (s *service) RenewWithTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, months int) (*models.Subscription, error) {
	if err := validateMonths(months); err != nil {
		return nil, err
	}
	repo := s.repo.WithTx(tx)
	if err := lockUser(ctx, repo, userID); err != nil {
		return nil, err
	}

	now := s.clock()
	cancelled, err := repo.CancelCurrent(ctx, userID, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel prior subscriptions")
	}

	sub := newSubscription(userID, months, now)
	if err := repo.Create(ctx, sub); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "subscription renewal already in progress")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create subscription")
	}

	s.metrics.AddTransition("cancelled", int(cancelled))
	s.metrics.AddTransition("renewed", 1)
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"user_id":         userID.String(),
		"subscription_id": sub.ID.String(),
		"months":          months,
		"cancelled_prior": cancelled,
	})
	s.logg.Info(logCtx, "subscription.renewed")
	return sub, nil
}

// Extend stacks months onto the end date of the user's active row.
func (s *service) Extend(ctx context.Context, userID uuid.UUID, months int) (*models.Subscription, error) {
	if err := validateMonths(months); err != nil {
		return nil, err
	}
	var extended *models.Subscription
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := lockUser(ctx, repo, userID); err != nil {
			if pkgerrors.Is(err, pkgerrors.CodeNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, activeNotFoundMessage)
			}
			return err
		}
		sub, err := repo.FindActive(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load active subscription")
		}
		if sub == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, activeNotFoundMessage)
		}

		now := s.clock()
		endDate := ComputeEndDate(sub.EndDate, months)
		updated, err := repo.UpdateEndDate(ctx, sub.ID, endDate, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "extend subscription")
		}
		if !updated {
			return pkgerrors.New(pkgerrors.CodeNotFound, activeNotFoundMessage)
		}
		sub.EndDate = endDate
		sub.UpdatedAt = now
		extended = sub
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.AddTransition("extended", 1)
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"user_id":         userID.String(),
		"subscription_id": extended.ID.String(),
		"months":          months,
	})
	s.logg.Info(logCtx, "subscription.extended")
	return extended, nil
}

// Cancel flips the user's active row to cancelled.
func (s *service) Cancel(ctx context.Context, userID uuid.UUID) error {
	n, err := s.repo.CancelActive(ctx, userID, s.clock())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel subscription")
	}
	if n == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, activeNotFoundMessage)
	}
	s.metrics.AddTransition("cancelled", int(n))
	s.logg.Info(s.logg.WithUserID(ctx, userID.String()), "subscription.cancelled")
	return nil
}

// ExpireIfPastDue persists active -> expired for a row whose end date has passed.
// sub is updated only when this call made the transition, which it reports.
func (s *service) ExpireIfPastDue(ctx context.Context, sub *models.Subscription) (bool, error) {
	now := s.clock()
	if !IsPastDue(sub, now) {
		return false, nil
	}
	flipped, err := s.repo.MarkExpired(ctx, sub.ID, now)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "expire subscription")
	}
	if !flipped {
		return false, nil
	}
	sub.Status = enums.SubscriptionStatusExpired
	sub.UpdatedAt = now
	s.metrics.AddTransition("expired", 1)
	return true, nil
}

// ExpirePastDue is the batch form of ExpireIfPastDue used by the scheduled sweep.
func (s *service) ExpirePastDue(ctx context.Context, limit int) (int64, error) {
	n, err := s.repo.ExpirePastDue(ctx, s.clock(), limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "expire past due subscriptions")
	}
	s.metrics.AddTransition("expired", int(n))
	return n, nil
}

func (s *service) ListAll(ctx context.Context, page pagination.Params) ([]models.Subscription, error) {
	subs, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list subscriptions")
	}
	return subs, nil
}

func (s *service) CurrentForUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*models.Subscription, error) {
	subs, err := s.repo.FindCurrentByUsers(ctx, userIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load current subscriptions")
	}
	return subs, nil
}

func lockUser(ctx context.Context, repo Repository, userID uuid.UUID) error {
	if err := repo.LockUser(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock user")
	}
	return nil
}

func validateMonths(months int) error {
	if months < 1 || months > MaxMonths {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("months must be between 1 and %d", MaxMonths))
	}
	return nil
}
