package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var (
	corsMethods = []string{
		http.MethodGet, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions,
	}
	corsRequestHeaders = []string{
		"Accept", "Authorization", "Content-Type",
		idempotencyHeader, requestIDHeader, "X-Requested-With",
	}
	// The download handler names the file through Content-Disposition.
	corsExposedHeaders = []string{"Content-Disposition", requestIDHeader}
)

// CORS admits the configured front-end origins. Credentials are allowed so the
// refresh_token cookie rides along on cross-origin calls.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   corsMethods,
		AllowedHeaders:   corsRequestHeaders,
		ExposedHeaders:   corsExposedHeaders,
		AllowCredentials: true,
		MaxAge:           300,
	})
}
