package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jarvis4everyone/subscription-backend/api/controllers"
	"github.com/jarvis4everyone/subscription-backend/api/middleware"
	"github.com/jarvis4everyone/subscription-backend/internal/auth"
	"github.com/jarvis4everyone/subscription-backend/internal/contacts"
	"github.com/jarvis4everyone/subscription-backend/internal/payments"
	"github.com/jarvis4everyone/subscription-backend/internal/subscriptions"
	"github.com/jarvis4everyone/subscription-backend/internal/users"
	"github.com/jarvis4everyone/subscription-backend/pkg/config"
	"github.com/jarvis4everyone/subscription-backend/pkg/logger"
	"github.com/jarvis4everyone/subscription-backend/pkg/redis"
)

const createOrderIdempotencyTTL = 24 * time.Hour

// Deps carries everything the HTTP surface needs. Redis and Metrics are
// optional.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            controllers.Pinger
	Redis         *redis.Client
	Auth          auth.Service
	Users         users.Service
	Subscriptions subscriptions.Service
	Payments      payments.Service
	Webhook       controllers.WebhookHandler
	Contacts      contacts.Service
	Download      controllers.Downloader
	Metrics       http.Handler
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins()),
	)

	cookies := controllers.CookieSettings{
		Secure: cfg.App.IsProd(),
		MaxAge: cfg.JWT.RefreshTokenTTL(),
	}
	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	// A nil *redis.Client must reach the middleware as a nil interface.
	var limiter middleware.RateLimiter
	var readyDeps = map[string]controllers.Pinger{"database": d.DB}
	idempotency := middleware.Idempotency(nil, createOrderIdempotencyTTL, logg)
	if d.Redis != nil {
		limiter = d.Redis
		readyDeps["redis"] = d.Redis
		idempotency = middleware.Idempotency(d.Redis, createOrderIdempotencyTTL, logg)
	}

	r.Get("/", controllers.HealthLive(cfg.App.Env))
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(readyDeps, logg))
	})
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, limiter, logg)).Post("/register", controllers.AuthRegister(d.Auth, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.AuthLogin(d.Auth, cookies, logg))
			r.Post("/refresh", controllers.AuthRefresh(d.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(d.Auth, cookies, logg))
		})

		r.Get("/subscriptions/price", controllers.SubscriptionPrice(d.Payments))
		r.Post("/payments/webhook", controllers.PaymentWebhook(d.Webhook, logg))
		r.With(middleware.OptionalAuth(d.Auth, logg)).Post("/contact", controllers.ContactSubmit(d.Contacts, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(d.Auth, logg))

			r.Route("/profile", func(r chi.Router) {
				r.Get("/me", controllers.ProfileMe(logg))
				r.Put("/me", controllers.ProfileUpdate(d.Users, logg))
				r.Get("/subscription", controllers.ProfileSubscription(d.Subscriptions, logg))
				r.Get("/dashboard", controllers.ProfileDashboard(d.Users, logg))
			})

			r.Route("/subscriptions", func(r chi.Router) {
				r.Get("/me", controllers.SubscriptionMe(d.Subscriptions, logg))
				r.Post("/renew", controllers.SubscriptionRenew(d.Subscriptions, logg))
				r.Post("/cancel", controllers.SubscriptionCancel(d.Subscriptions, logg))
			})

			r.Route("/payments", func(r chi.Router) {
				r.With(idempotency).Post("/create-order", controllers.PaymentCreateOrder(d.Payments, logg))
				r.Post("/verify", controllers.PaymentVerify(d.Payments, logg))
			})

			r.Get("/download/file", controllers.DownloadFile(d.Download, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(d.Auth, logg))
			r.Use(middleware.RequireAdmin(logg))

			r.Route("/users", func(r chi.Router) {
				r.Get("/", controllers.AdminUserList(d.Users, logg))
				r.Post("/", controllers.AdminUserCreate(d.Users, logg))
				r.Get("/{userId}", controllers.AdminUserGet(d.Users, logg))
				r.Put("/{userId}", controllers.AdminUserUpdate(d.Users, logg))
				r.Post("/{userId}/reset-password", controllers.AdminUserResetPassword(d.Users, logg))
				r.Delete("/{userId}", controllers.AdminUserDelete(d.Users, logg))
			})
			r.Route("/subscriptions", func(r chi.Router) {
				r.Get("/", controllers.AdminSubscriptionList(d.Subscriptions, logg))
				r.Post("/activate", controllers.AdminSubscriptionActivate(d.Subscriptions, d.Users, logg))
				r.Post("/{userId}/extend", controllers.AdminSubscriptionExtend(d.Subscriptions, logg))
				r.Post("/{userId}/cancel", controllers.AdminSubscriptionCancel(d.Subscriptions, logg))
			})
			r.Get("/payments", controllers.AdminPaymentList(d.Payments, logg))
			r.Route("/contacts", func(r chi.Router) {
				r.Get("/", controllers.AdminContactList(d.Contacts, logg))
				r.Get("/{contactId}", controllers.AdminContactGet(d.Contacts, logg))
				r.Patch("/{contactId}", controllers.AdminContactUpdateStatus(d.Contacts, logg))
				r.Delete("/{contactId}", controllers.AdminContactDelete(d.Contacts, logg))
			})
		})
	})

	return r
}
