package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/jarvis4everyone/subscription-backend/api/responses"
	"github.com/jarvis4everyone/subscription-backend/api/validators"
	"github.com/jarvis4everyone/subscription-backend/internal/payments"
	"github.com/jarvis4everyone/subscription-backend/internal/subscriptions"
	"github.com/jarvis4everyone/subscription-backend/internal/users"
	pkgerrors "github.com/jarvis4everyone/subscription-backend/pkg/errors"
	"github.com/jarvis4everyone/subscription-backend/pkg/logger"
)

const userNotFoundMessage = "User not found"

func AdminUserList(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.List(r.Context(), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func AdminUserGet(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := PathUUID(w, r, logg, "userId", userNotFoundMessage)
		if !ok {
			return
		}
		user, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, users.FromModel(user))
	}
}

// AdminUserCreate is the only path that can set is_admin on a new account.
func AdminUserCreate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body users.CreateUserRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body.Name = validators.SanitizeString(body.Name, 100)
		user, err := svc.Create(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, users.FromModel(user))
	}
}

func AdminUserUpdate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := PathUUID(w, r, logg, "userId", userNotFoundMessage)
		if !ok {
			return
		}
		var body users.AdminUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.Name != nil {
			clean := validators.SanitizeString(*body.Name, 100)
			body.Name = &clean
		}
		user, err := svc.AdminUpdate(r.Context(), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, users.FromModel(user))
	}
}

func AdminUserResetPassword(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := PathUUID(w, r, logg, "userId", userNotFoundMessage)
		if !ok {
			return
		}
		var body users.ResetPasswordRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.ResetPassword(r.Context(), id, body.NewPassword); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "Password reset successfully. User logged out everywhere.")
	}
}

func AdminUserDelete(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := CurrentUser(w, r, logg)
		if !ok {
			return
		}
		id, ok := PathUUID(w, r, logg, "userId", userNotFoundMessage)
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), actor.ID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "User deleted successfully")
	}
}

func AdminSubscriptionList(subs subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := subs.ListAll(r.Context(), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, subscriptions.FromModels(rows, subs.Now()))
	}
}

// AdminSubscriptionActivate grants time to any user without a payment.
func AdminSubscriptionActivate(subs subscriptions.Service, accounts users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body subscriptions.ActivateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := uuid.Parse(body.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid user_id"))
			return
		}
		if _, err := accounts.Get(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sub, err := subs.Renew(r.Context(), userID, subscriptions.MonthsOrDefault(body.Months))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, subscriptions.FromModel(sub, subs.Now()))
	}
}

func AdminSubscriptionExtend(subs subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := PathUUID(w, r, logg, "userId", userNotFoundMessage)
		if !ok {
			return
		}
		body, err := DecodeRenew(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sub, err := subs.Extend(r.Context(), userID, subscriptions.MonthsOrDefault(body.Months))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, subscriptions.FromModel(sub, subs.Now()))
	}
}

func AdminSubscriptionCancel(subs subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := PathUUID(w, r, logg, "userId", userNotFoundMessage)
		if !ok {
			return
		}
		if err := subs.Cancel(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "Subscription cancelled successfully")
	}
}

func AdminPaymentList(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListAll(r.Context(), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payments.FromModels(rows))
	}
}
