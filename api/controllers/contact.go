package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/jarvis4everyone/subscription-backend/api/middleware"
	"github.com/jarvis4everyone/subscription-backend/api/responses"
	"github.com/jarvis4everyone/subscription-backend/api/validators"
	"github.com/jarvis4everyone/subscription-backend/internal/contacts"
	"github.com/jarvis4everyone/subscription-backend/pkg/logger"
)

// ContactSubmit accepts anonymous submissions and links the user when a valid
// bearer token was sent.
func ContactSubmit(svc contacts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body contacts.CreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var userID *uuid.UUID
		if user := middleware.UserFromContext(r.Context()); user != nil {
			userID = &user.ID
		}
		contact, err := svc.Submit(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, contacts.FromModel(contact))
	}
}

const contactNotFoundMessage = "Contact not found"

func AdminContactList(svc contacts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.List(r.Context(), r.URL.Query().Get("status"), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, contacts.FromModels(rows))
	}
}

func AdminContactGet(svc contacts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := PathUUID(w, r, logg, "contactId", contactNotFoundMessage)
		if !ok {
			return
		}
		contact, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, contacts.FromModel(contact))
	}
}

func AdminContactUpdateStatus(svc contacts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := PathUUID(w, r, logg, "contactId", contactNotFoundMessage)
		if !ok {
			return
		}
		var body contacts.UpdateStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		contact, err := svc.UpdateStatus(r.Context(), id, body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, contacts.FromModel(contact))
	}
}

func AdminContactDelete(svc contacts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := PathUUID(w, r, logg, "contactId", contactNotFoundMessage)
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "Contact deleted successfully")
	}
}
