package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jarvis4everyone/subscription-backend/pkg/config"
	"github.com/jarvis4everyone/subscription-backend/pkg/db"
	"github.com/jarvis4everyone/subscription-backend/pkg/db/models"
	"github.com/jarvis4everyone/subscription-backend/pkg/enums"
	pkgerrors "github.com/jarvis4everyone/subscription-backend/pkg/errors"
	"github.com/jarvis4everyone/subscription-backend/pkg/logger"
	"github.com/jarvis4everyone/subscription-backend/pkg/metrics"
	"github.com/jarvis4everyone/subscription-backend/pkg/money"
	"github.com/jarvis4everyone/subscription-backend/pkg/pagination"
)

// renewalMonths is the term bought by one captured payment.
const renewalMonths = 1

const (
	paymentNotFoundMessage = "Payment record not found"
	notOwnerMessage        = "Payment does not belong to current user"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type subscriptionRenewer interface {
	RenewWithTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, months int) (*models.Subscription, error)
}

// Service runs both reconciliation paths: the client-confirmed verify call and the
// provider's webhook. Whichever moves the payment out of pending renews the subscription.
type Service interface {
	Price() PriceResponse
	CreateOrder(ctx context.Context, user *models.User, req CreateOrderRequest) (*CreateOrderResponse, error)
	Verify(ctx context.Context, userID uuid.UUID, req VerifyRequest) (*models.Payment, error)
	Capture(ctx context.Context, orderID, paymentID, signature string) (bool, error)
	Fail(ctx context.Context, orderID, paymentID string) (bool, error)
	ListAll(ctx context.Context, page pagination.Params) ([]models.Payment, error)
}

// ServiceParams groups dependencies for the payment service.
type ServiceParams struct {
	Repo              Repository
	Gateway           Gateway
	Subscriptions     subscriptionRenewer
	TransactionRunner txRunner
	Config            config.SubscriptionConfig
	Logger            *logger.Logger
	Metrics           *metrics.PaymentMetrics
	Clock             func() time.Time
}

type service struct {
	repo          Repository
	gateway       Gateway
	subscriptions subscriptionRenewer
	txRunner      txRunner
	cfg           config.SubscriptionConfig
	logg          *logger.Logger
	metrics       *metrics.PaymentMetrics
	clock         func() time.Time
}

// NewService builds a payment service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payment repo required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscription service required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if !params.Config.Price.IsPositive() {
		return nil, fmt.Errorf("subscription price must be positive")
	}
	clock := params.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:          params.Repo,
		gateway:       params.Gateway,
		subscriptions: params.Subscriptions,
		txRunner:      params.TransactionRunner,
		cfg:           params.Config,
		logg:          params.Logger,
		metrics:       params.Metrics,
		clock:         clock,
	}, nil
}

func (s *service) Price() PriceResponse {
	return PriceResponse{
		Price:             s.cfg.Price.InexactFloat64(),
		Currency:          s.currency(),
		PriceInMinorUnits: money.ToMinorUnits(s.cfg.Price),
	}
}

// CreateOrder opens a gateway order for the subscription price and records it as a
// pending payment owned by user.
func (s *service) CreateOrder(ctx context.Context, user *models.User, req CreateOrderRequest) (*CreateOrderResponse, error) {
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if req.Amount == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Amount is required")
	}
	amount, err := money.FromFloat(*req.Amount)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Amount must be a positive number")
	}
	if !amount.Round(2).Equal(s.cfg.Price.Round(2)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Amount does not match the subscription price")
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.currency()
	}
	if currency != s.currency() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("Currency must be %s", s.currency()))
	}

	order, err := s.gateway.CreateOrder(ctx, *req.Amount, currency)
	if err != nil {
		s.metrics.IncOrder("failed")
		return nil, err
	}

	now := s.clock()
	userID := user.ID
	payment := &models.Payment{
		UserID:          &userID,
		Email:           user.Email,
		PlanID:          s.planID(),
		Amount:          amount.Round(2),
		Currency:        currency,
		ProviderOrderID: order.ID,
		Status:          enums.PaymentStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		s.metrics.IncOrder("failed")
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "payment order already recorded")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create payment record")
	}

	s.metrics.IncOrder("created")
	logCtx := s.logg.WithOrderID(s.logg.WithUserID(ctx, userID.String()), order.ID)
	s.logg.Info(logCtx, "payment.order_created")

	return &CreateOrderResponse{
		OrderID:   order.ID,
		Amount:    order.AmountMinor,
		Currency:  order.Currency,
		KeyID:     s.gateway.KeyID(),
		PaymentID: payment.ID,
	}, nil
}

// Verify confirms a checkout on behalf of userID. A payment already completed by the
// webhook is returned as is without a second renewal.
func (s *service) Verify(ctx context.Context, userID uuid.UUID, req VerifyRequest) (*models.Payment, error) {
	req = req.Normalize()
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "All payment fields are required")
	}
	logCtx := s.logg.WithOrderID(s.logg.WithUserID(ctx, userID.String()), req.OrderID)

	payment, err := s.repo.FindByOrderID(ctx, req.OrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment")
	}
	if payment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, paymentNotFoundMessage)
	}
	if payment.UserID == nil || *payment.UserID != userID {
		s.logg.Warn(logCtx, "payment.owner_mismatch")
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, notOwnerMessage)
	}
	if !s.gateway.VerifyPaymentSignature(req.OrderID, req.PaymentID, req.Signature) {
		s.metrics.IncVerification("invalid_signature")
		s.logg.Warn(logCtx, "payment.signature_mismatch")
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "Invalid payment signature")
	}

	switch payment.Status {
	case enums.PaymentStatusCompleted:
		s.metrics.IncVerification("already_completed")
		return payment, nil
	case enums.PaymentStatusFailed:
		s.metrics.IncVerification("already_failed")
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "Payment has already failed")
	}

	var updated *models.Payment
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		won, err := s.complete(ctx, tx, payment, req.PaymentID, req.Signature)
		if err != nil {
			return err
		}
		if !won {
			s.logg.Info(logCtx, "payment.already_reconciled")
		}
		reloaded, err := s.repo.WithTx(tx).FindByOrderID(ctx, req.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload payment")
		}
		updated = reloaded
		return nil
	})
	if err != nil {
		s.metrics.IncVerification("error")
		return nil, err
	}
	if updated == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, paymentNotFoundMessage)
	}
	if updated.Status == enums.PaymentStatusFailed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "Payment has already failed")
	}

	s.metrics.IncVerification("completed")
	s.logg.Info(logCtx, "payment.verified")
	return updated, nil
}

// Capture applies a captured event from the provider. It reports whether this call
// completed the payment; unknown orders and non-pending payments are no-ops.
func (s *service) Capture(ctx context.Context, orderID, paymentID, signature string) (bool, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return false, nil
	}
	logCtx := s.logg.WithOrderID(ctx, orderID)

	payment, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment")
	}
	if payment == nil {
		s.logg.Warn(logCtx, "payment.capture_unknown_order")
		return false, nil
	}
	if payment.Status.Terminal() {
		return false, nil
	}

	var won bool
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		won, err = s.complete(ctx, tx, payment, paymentID, signature)
		return err
	})
	if err != nil {
		return false, err
	}
	if won {
		s.logg.Info(logCtx, "payment.captured")
	}
	return won, nil
}

// Fail marks a still-pending payment as failed. Subscriptions are untouched.
func (s *service) Fail(ctx context.Context, orderID, paymentID string) (bool, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return false, nil
	}
	moved, err := s.repo.MarkFailed(ctx, orderID, strings.TrimSpace(paymentID), s.clock())
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark payment failed")
	}
	if moved {
		s.logg.Info(s.logg.WithOrderID(ctx, orderID), "payment.failed")
	}
	return moved, nil
}

func (s *service) ListAll(ctx context.Context, page pagination.Params) ([]models.Payment, error) {
	payments, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list payments")
	}
	return payments, nil
}

// complete moves the payment out of pending and renews the owner's subscription in the
// same transaction. Losing the race to the other path is not an error.
func (s *service) complete(ctx context.Context, tx *gorm.DB, payment *models.Payment, paymentID, signature string) (bool, error) {
	won, err := s.repo.WithTx(tx).MarkCompleted(ctx, payment.ProviderOrderID, paymentID, signature, s.clock())
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "complete payment")
	}
	if !won {
		return false, nil
	}
	if payment.UserID == nil {
		return true, nil
	}
	if _, err := s.subscriptions.RenewWithTx(ctx, tx, *payment.UserID, renewalMonths); err != nil {
		return false, err
	}
	return true, nil
}

func (s *service) currency() string {
	if c := strings.ToUpper(strings.TrimSpace(s.cfg.Currency)); c != "" {
		return c
	}
	return "INR"
}

func (s *service) planID() enums.PlanID {
	if id := strings.TrimSpace(s.cfg.PlanID); id != "" {
		return enums.PlanID(id)
	}
	return enums.PlanMonthly
}
