package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/oomavera/agency/internal/http/handlers"
	httpmiddleware "github.com/oomavera/agency/internal/http/middleware"
	"github.com/oomavera/agency/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger *logging.Logger

	Intake         *handlers.IntakeHandler
	Qualify        *handlers.QualifyHandler
	SendSMS        *handlers.SendSMSHandler
	CancelSMS      *handlers.CancelSMSHandler
	ClickUpWebhook *handlers.ClickUpWebhookHandler
	AdminLeads     *handlers.AdminLeadsHandler

	HealthHandler  http.HandlerFunc
	MetricsHandler http.Handler

	AdminAuthSecret    string
	CORSAllowedOrigins []string

	// Requests/sec and burst per client IP on the intake endpoints.
	// Zero disables rate limiting.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (intake, webhooks, health checks)
	r.Group(func(public chi.Router) {
		if cfg.HealthHandler != nil {
			public.Get("/health", cfg.HealthHandler)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}

		public.Route("/api", func(api chi.Router) {
			if cfg.RateLimitPerSecond > 0 {
				api.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
			}
			if cfg.Intake != nil {
				api.Post("/leads", cfg.Intake.SubmitLead)
			}
			if cfg.Qualify != nil {
				api.Post("/qualify", cfg.Qualify.Submit)
			}
			if cfg.SendSMS != nil {
				api.Post("/send-sms", cfg.SendSMS.Send)
			}
			if cfg.CancelSMS != nil {
				api.Get("/cancel-sms", cfg.CancelSMS.CancelFromLink)
				api.Post("/cancel-sms", cfg.CancelSMS.CancelFromAPI)
			}
			if cfg.ClickUpWebhook != nil {
				api.Post("/webhooks/clickup", cfg.ClickUpWebhook.Handle)
			}
		})
	})

	// Admin routes (protected by an HMAC-signed JWT)
	if cfg.AdminAuthSecret != "" && cfg.AdminLeads != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/leads", cfg.AdminLeads.ListLeads)
		})
	}

	return r
}
