package controllers

import (
	"context"
	"io"
	"net/http"

	"github.com/jarvis4everyone/subscription-backend/api/responses"
	"github.com/jarvis4everyone/subscription-backend/api/validators"
	"github.com/jarvis4everyone/subscription-backend/internal/payments"
	pkgerrors "github.com/jarvis4everyone/subscription-backend/pkg/errors"
	"github.com/jarvis4everyone/subscription-backend/pkg/logger"
)

const (
	razorpaySignatureHeader = "X-Razorpay-Signature"
	razorpayEventIDHeader   = "X-Razorpay-Event-Id"
	maxWebhookBody          = 1 << 20
)

// WebhookHandler authenticates and applies one raw gateway delivery.
type WebhookHandler interface {
	Handle(ctx context.Context, body []byte, signature, eventID string) error
}

func PaymentCreateOrder(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUser(w, r, logg)
		if !ok {
			return
		}
		var body payments.CreateOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.CreateOrder(r.Context(), user, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func PaymentVerify(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUser(w, r, logg)
		if !ok {
			return
		}
		var body payments.VerifyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payment, err := svc.Verify(r.Context(), user.ID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payments.FromModel(payment))
	}
}

// PaymentWebhook passes the untouched body to the handler so the signature is
// checked over the exact bytes the gateway signed.
func PaymentWebhook(handler WebhookHandler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid webhook payload"))
			return
		}
		err = handler.Handle(r.Context(), body, r.Header.Get(razorpaySignatureHeader), r.Header.Get(razorpayEventIDHeader))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "success"})
	}
}
