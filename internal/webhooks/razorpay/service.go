package razorpaywebhook

import (
	"context"
	"encoding/json"
	"strings"

	pkgerrors "github.com/jarvis4everyone/subscription-backend/pkg/errors"
	"github.com/jarvis4everyone/subscription-backend/pkg/logger"
	"github.com/jarvis4everyone/subscription-backend/pkg/metrics"
)

type paymentReconciler interface {
	Capture(ctx context.Context, orderID, paymentID, signature string) (bool, error)
	Fail(ctx context.Context, orderID, paymentID string) (bool, error)
}

type signatureVerifier interface {
	VerifyWebhookSignature(body []byte, signature string) bool
}

type ServiceParams struct {
	Payments paymentReconciler
	Verifier signatureVerifier
	// Deliveries is optional; without it only the pending-status check dedupes.
	Deliveries *DeliveryLog
	Logger     *logger.Logger
	Metrics    *metrics.PaymentMetrics
}

type Service struct {
	payments   paymentReconciler
	verifier   signatureVerifier
	deliveries *DeliveryLog
	logg       *logger.Logger
	metrics    *metrics.PaymentMetrics
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment service required")
	}
	if params.Verifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "signature verifier required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		payments:   params.Payments,
		verifier:   params.Verifier,
		deliveries: params.Deliveries,
		logg:       params.Logger,
		metrics:    params.Metrics,
	}, nil
}

// Handle authenticates and applies one webhook delivery. Errors are returned only for
// deliveries that fail signature or parsing; once the event is understood, processing
// problems are logged and swallowed so the provider sees a success.
func (s *Service) Handle(ctx context.Context, body []byte, signature, eventID string) error {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		s.metrics.IncWebhook("unknown", "missing_signature")
		return pkgerrors.New(pkgerrors.CodeValidation, "Missing webhook signature")
	}
	if !s.verifier.VerifyWebhookSignature(body, signature) {
		s.metrics.IncWebhook("unknown", "invalid_signature")
		s.logg.Warn(ctx, "webhook.signature_mismatch")
		return pkgerrors.New(pkgerrors.CodeSignature, "Invalid webhook signature")
	}

	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		s.metrics.IncWebhook("unknown", "invalid_payload")
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid webhook payload")
	}

	eventID = strings.TrimSpace(eventID)
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"event":    event.Event,
		"event_id": eventID,
	})

	tracked := s.deliveries != nil && eventID != ""
	if tracked {
		claimed, err := s.deliveries.Claim(ctx, eventID)
		if err != nil {
			tracked = false
			s.logg.Warn(logCtx, "webhook.dedupe_unavailable")
		} else if !claimed {
			s.metrics.IncWebhook(event.Event, "duplicate")
			s.logg.Info(logCtx, "webhook.duplicate")
			return nil
		}
	}

	outcome, err := s.apply(logCtx, event, signature)
	if err != nil {
		s.metrics.IncWebhook(event.Event, "error")
		s.logg.Error(logCtx, "webhook.processing_failed", err)
		if tracked {
			if relErr := s.deliveries.Forget(ctx, eventID); relErr != nil {
				s.logg.Warn(logCtx, "webhook.dedupe_release_failed")
			}
		}
		return nil
	}
	s.metrics.IncWebhook(event.Event, outcome)
	return nil
}

func (s *Service) apply(ctx context.Context, event Event, signature string) (string, error) {
	payment := event.payment()
	switch event.Event {
	case EventPaymentCaptured:
		if payment == nil {
			return "ignored", nil
		}
		ctx = s.logg.WithOrderID(ctx, payment.OrderID)
		won, err := s.payments.Capture(ctx, payment.OrderID, payment.ID, signature)
		if err != nil {
			return "", err
		}
		if !won {
			s.logg.Info(ctx, "webhook.ignored")
			return "ignored", nil
		}
		return "processed", nil
	case EventPaymentFailed:
		if payment == nil {
			return "ignored", nil
		}
		ctx = s.logg.WithOrderID(ctx, payment.OrderID)
		moved, err := s.payments.Fail(ctx, payment.OrderID, payment.ID)
		if err != nil {
			return "", err
		}
		if !moved {
			s.logg.Info(ctx, "webhook.ignored")
			return "ignored", nil
		}
		return "processed", nil
	default:
		s.logg.Debug(ctx, "webhook.unhandled_event")
		return "ignored", nil
	}
}
