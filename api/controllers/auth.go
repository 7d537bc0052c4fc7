package controllers

import (
	"net/http"
	"time"

	"github.com/jarvis4everyone/subscription-backend/api/responses"
	"github.com/jarvis4everyone/subscription-backend/api/validators"
	"github.com/jarvis4everyone/subscription-backend/internal/auth"
	"github.com/jarvis4everyone/subscription-backend/internal/users"
	pkgerrors "github.com/jarvis4everyone/subscription-backend/pkg/errors"
	"github.com/jarvis4everyone/subscription-backend/pkg/logger"
)

// RefreshCookieName carries the refresh token between browser and API.
const RefreshCookieName = "refresh_token"

// CookieSettings controls the refresh cookie attributes.
type CookieSettings struct {
	Secure bool
	MaxAge time.Duration
}

func (c CookieSettings) write(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(c.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c CookieSettings) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func AuthRegister(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body users.CreateUserRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, users.FromModel(user))
	}
}

// AuthLogin returns the access token in the body and the refresh token as an
// HttpOnly cookie.
func AuthLogin(svc auth.Service, cookies CookieSettings, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cookies.write(w, result.RefreshToken)
		responses.WriteSuccess(w, result.TokenResponse)
	}
}

func AuthRefresh(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := refreshCookie(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp, err := svc.Refresh(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// AuthLogout deletes the refresh token row and clears the cookie. A missing cookie
// still succeeds.
func AuthLogout(svc auth.Service, cookies CookieSettings, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token, err := refreshCookie(r); err == nil {
			if err := svc.Logout(r.Context(), token); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		cookies.clear(w)
		responses.WriteMessage(w, "Logged out successfully")
	}
}

func refreshCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil || cookie.Value == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "Refresh token not found")
	}
	return cookie.Value, nil
}
