package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarvis4everyone/subscription-backend/internal/auth"
	"github.com/jarvis4everyone/subscription-backend/internal/payments"
	"github.com/jarvis4everyone/subscription-backend/pkg/config"
	"github.com/jarvis4everyone/subscription-backend/pkg/db/models"
	pkgerrors "github.com/jarvis4everyone/subscription-backend/pkg/errors"
	"github.com/jarvis4everyone/subscription-backend/pkg/logger"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

// stubAuth resolves "user-token" and "admin-token" and rejects everything else.
type stubAuth struct {
	auth.Service
}

func (stubAuth) Authenticate(_ context.Context, token string) (*models.User, error) {
	switch token {
	case "user-token":
		return &models.User{ID: uuid.New(), Email: "user@example.com"}, nil
	case "admin-token":
		return &models.User{ID: uuid.New(), Email: "admin@example.com", IsAdmin: true}, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Invalid authentication credentials")
}

type stubPayments struct {
	payments.Service
}

func (stubPayments) Price() payments.PriceResponse {
	return payments.PriceResponse{Price: 299, Currency: "INR", PriceInMinorUnits: 29900}
}

type stubWebhook struct {
	body      []byte
	signature string
	eventID   string
}

func (s *stubWebhook) Handle(_ context.Context, body []byte, signature, eventID string) error {
	s.body, s.signature, s.eventID = body, signature, eventID
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:  config.AppConfig{Env: "dev"},
		JWT:  config.JWTConfig{Secret: "secret", RefreshTokenExpireDays: 7},
		CORS: config.CORSConfig{Origins: "http://localhost:3000"},
	}
}

func newTestRouter(db stubPinger, webhook *stubWebhook) http.Handler {
	return NewRouter(Deps{
		Config:   testConfig(),
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:       db,
		Auth:     stubAuth{},
		Payments: stubPayments{},
		Webhook:  webhook,
	})
}

func do(t *testing.T, h http.Handler, method, path, token string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(stubPinger{}, &stubWebhook{})

	rec := do(t, router, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = do(t, router, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	down := newTestRouter(stubPinger{err: errors.New("connection refused")}, &stubWebhook{})
	rec = do(t, down, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPublicPrice(t *testing.T) {
	router := newTestRouter(stubPinger{}, &stubWebhook{})

	rec := do(t, router, http.MethodGet, "/api/subscriptions/price", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body payments.PriceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(29900), body.PriceInMinorUnits)
	assert.Equal(t, "INR", body.Currency)
}

func TestProtectedRoutesRequireBearer(t *testing.T) {
	router := newTestRouter(stubPinger{}, &stubWebhook{})

	for _, path := range []string{"/api/profile/me", "/api/subscriptions/me", "/api/download/file", "/api/admin/users"} {
		rec := do(t, router, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestProfileMeReturnsCurrentUser(t *testing.T) {
	router := newTestRouter(stubPinger{}, &stubWebhook{})

	rec := do(t, router, http.MethodGet, "/api/profile/me", "user-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "user@example.com")
}

func TestAdminRoutesRejectRegularUsers(t *testing.T) {
	router := newTestRouter(stubPinger{}, &stubWebhook{})

	rec := do(t, router, http.MethodGet, "/api/admin/payments", "user-token", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Admin access required")
}

func TestWebhookPassesRawBodyAndHeaders(t *testing.T) {
	webhook := &stubWebhook{}
	router := newTestRouter(stubPinger{}, webhook)

	payload := `{"event":"payment.captured"}`
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(payload))
	req.Header.Set("X-Razorpay-Signature", "sig")
	req.Header.Set("X-Razorpay-Event-Id", "evt_1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success"}`, rec.Body.String())
	assert.Equal(t, payload, string(webhook.body))
	assert.Equal(t, "sig", webhook.signature)
	assert.Equal(t, "evt_1", webhook.eventID)
}
