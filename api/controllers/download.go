package controllers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jarvis4everyone/subscription-backend/api/responses"
	"github.com/jarvis4everyone/subscription-backend/pkg/logger"
	"github.com/jarvis4everyone/subscription-backend/pkg/storage"
)

// Downloader gates the artifact for one user.
type Downloader interface {
	Open(ctx context.Context, userID uuid.UUID) (*storage.Object, error)
	FileName() string
}

// DownloadFile streams the artifact as an attachment.
func DownloadFile(svc Downloader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUser(w, r, logg)
		if !ok {
			return
		}
		obj, err := svc.Open(r.Context(), user.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer obj.Body.Close()

		contentType := obj.ContentType
		if contentType == "" {
			contentType = "application/zip"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", svc.FileName()))
		if obj.Size > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
		}
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, obj.Body); err != nil {
			logg.Error(r.Context(), "download.stream_failed", err)
		}
	}
}
