package controllers

import (
	"bytes"
	"io"
	"net/http"

	"github.com/jarvis4everyone/subscription-backend/api/responses"
	"github.com/jarvis4everyone/subscription-backend/api/validators"
	"github.com/jarvis4everyone/subscription-backend/internal/payments"
	"github.com/jarvis4everyone/subscription-backend/internal/subscriptions"
	pkgerrors "github.com/jarvis4everyone/subscription-backend/pkg/errors"
	"github.com/jarvis4everyone/subscription-backend/pkg/logger"
)

type priceQuoter interface {
	Price() payments.PriceResponse
}

// SubscriptionPrice is public.
func SubscriptionPrice(quoter priceQuoter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, quoter.Price())
	}
}

// SubscriptionMe answers 200 with null when the user has no subscription.
func SubscriptionMe(subs subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUser(w, r, logg)
		if !ok {
			return
		}
		sub, err := subs.GetCurrent(r.Context(), user.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, subscriptions.FromModel(sub, subs.Now()))
	}
}

func SubscriptionRenew(subs subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUser(w, r, logg)
		if !ok {
			return
		}
		body, err := DecodeRenew(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sub, err := subs.Renew(r.Context(), user.ID, subscriptions.MonthsOrDefault(body.Months))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, subscriptions.FromModel(sub, subs.Now()))
	}
}

func SubscriptionCancel(subs subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUser(w, r, logg)
		if !ok {
			return
		}
		if err := subs.Cancel(r.Context(), user.ID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "Subscription cancelled successfully")
	}
}

// DecodeRenew reads an optional {months} body. An empty body means one month.
func DecodeRenew(r *http.Request) (subscriptions.RenewRequest, error) {
	var body subscriptions.RenewRequest
	raw, err := io.ReadAll(io.LimitReader(r.Body, 4096))
	if err != nil {
		return body, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return body, nil
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))
	err = validators.DecodeJSONBody(r, &body)
	return body, err
}
