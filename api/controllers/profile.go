package controllers

import (
	"net/http"

	"github.com/jarvis4everyone/subscription-backend/api/responses"
	"github.com/jarvis4everyone/subscription-backend/api/validators"
	"github.com/jarvis4everyone/subscription-backend/internal/subscriptions"
	"github.com/jarvis4everyone/subscription-backend/internal/users"
	pkgerrors "github.com/jarvis4everyone/subscription-backend/pkg/errors"
	"github.com/jarvis4everyone/subscription-backend/pkg/logger"
)

func ProfileMe(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUser(w, r, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, users.FromModel(user))
	}
}

// ProfileUpdate accepts only name and contact_number.
func ProfileUpdate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUser(w, r, logg)
		if !ok {
			return
		}
		var body users.UpdateProfileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.Name != nil {
			name := validators.SanitizeString(*body.Name, 100)
			body.Name = &name
		}
		updated, err := svc.UpdateProfile(r.Context(), user.ID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, users.FromModel(updated))
	}
}

// ProfileSubscription answers 404 when the user never subscribed.
func ProfileSubscription(subs subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
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
		if sub == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "No subscription found"))
			return
		}
		responses.WriteSuccess(w, subscriptions.FromModel(sub, subs.Now()))
	}
}

func ProfileDashboard(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUser(w, r, logg)
		if !ok {
			return
		}
		dash, err := svc.Dashboard(r.Context(), user)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dash)
	}
}
