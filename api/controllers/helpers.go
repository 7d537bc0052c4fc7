package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jarvis4everyone/subscription-backend/api/middleware"
	"github.com/jarvis4everyone/subscription-backend/api/responses"
	"github.com/jarvis4everyone/subscription-backend/pkg/db/models"
	pkgerrors "github.com/jarvis4everyone/subscription-backend/pkg/errors"
	"github.com/jarvis4everyone/subscription-backend/pkg/logger"
)

// CurrentUser returns the authenticated user or writes a 401.
func CurrentUser(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (*models.User, bool) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Invalid authentication credentials"))
		return nil, false
	}
	return user, true
}

// PathUUID parses a chi path parameter. A malformed id answers 404 with
// notFound, the same as an unknown one.
func PathUUID(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name, notFound string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, notFound))
		return uuid.Nil, false
	}
	return id, true
}
