package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	pkgerrors "github.com/jarvis4everyone/subscription-backend/pkg/errors"
	"github.com/jarvis4everyone/subscription-backend/pkg/logger"
	"github.com/jarvis4everyone/subscription-backend/pkg/types"
)

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, data)
}

func WriteMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, types.MessageResponse{Message: message})
}

// WriteError renders err as {"detail": ...}. Messages of internal and
// dependency failures never reach the client; the full chain is logged.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	status, body := render(typed)
	if logg != nil {
		fields := pkgerrors.Dump(err).LogFields()
		fields["status"] = status
		logCtx := logg.WithFields(ctx, fields)
		if status >= http.StatusInternalServerError {
			logg.Error(logCtx, "request.error", err)
		} else {
			logg.Info(logCtx, "request.rejected")
		}
	}
	writeJSON(w, status, body)
}

func render(typed *pkgerrors.Error) (int, types.ErrorBody) {
	code := typed.Code()
	meta := pkgerrors.MetadataFor(code)

	body := types.ErrorBody{Detail: meta.PublicMessage}
	if msg := typed.Message(); msg != "" && pkgerrors.PublicMessageAllowed(code) {
		body.Detail = msg
	}
	if fields, ok := typed.Details().(map[string]string); ok && meta.DetailsAllowed && len(fields) > 0 {
		body.Errors = fields
	}
	return meta.HTTPStatus, body
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("responses: encode %T: %v", payload, err)
	}
}
