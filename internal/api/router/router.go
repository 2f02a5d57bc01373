package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/childcare-site/internal/documents"
	"github.com/wolfman30/childcare-site/internal/features"
	httpmiddleware "github.com/wolfman30/childcare-site/internal/http/middleware"
	"github.com/wolfman30/childcare-site/internal/locale"
	"github.com/wolfman30/childcare-site/internal/observability/metrics"
	"github.com/wolfman30/childcare-site/internal/pages"
	"github.com/wolfman30/childcare-site/internal/ratelimit"
	"github.com/wolfman30/childcare-site/internal/referrals"
	"github.com/wolfman30/childcare-site/internal/submissions"
	"github.com/wolfman30/childcare-site/internal/weather"
	"github.com/wolfman30/childcare-site/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Metrics            *metrics.FormMetrics
	Submissions        *submissions.Handler
	Weather            *weather.Handler
	Documents          *documents.Handler
	Referrals          *referrals.Handler
	Pages              *pages.Handler
	Features           features.Set
	Resolver           *locale.Resolver
	SecureCookie       bool
	APILimiter         ratelimit.Limiter
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	HealthChecks       map[string]HealthCheck
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Resolver == nil {
		cfg.Resolver = locale.NewResolver(locale.English)
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(locale.Middleware(locale.MiddlewareConfig{
		Resolver:     cfg.Resolver,
		SecureCookie: cfg.SecureCookie,
		Logger:       cfg.Logger,
	}))

	// Public endpoints
	r.Get("/health", healthHandler(cfg.HealthChecks, cfg.Logger))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(apiLocale(cfg.Resolver))
		api.Use(httpmiddleware.Throttle(httpmiddleware.ThrottleConfig{
			Limiter: cfg.APILimiter,
			Logger:  cfg.Logger,
			Metrics: cfg.Metrics,
		}))

		if cfg.Submissions != nil {
			api.Post("/contact", cfg.Submissions.Contact)
			api.Post("/enrollment", cfg.Submissions.Enrollment)
		}

		if cfg.Weather != nil {
			api.With(cfg.Features.Gate(features.Weather)).Get("/weather", cfg.Weather.Current)
		}

		if cfg.Documents != nil {
			api.Route("/portal", func(portal chi.Router) {
				portal.Use(cfg.Features.Gate(features.ParentPortal))
				portal.Use(httpmiddleware.PortalJWT(cfg.AdminAuthSecret))
				portal.Post("/documents", cfg.Documents.Upload)
				portal.Get("/documents", cfg.Documents.List)
				portal.Get("/documents/{name}", cfg.Documents.Download)
			})
		}

		// Admin routes (protected by JWT)
		api.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			if cfg.Submissions != nil {
				admin.Get("/submissions", cfg.Submissions.List)
				admin.Get("/submissions/{id}", cfg.Submissions.Get)
			}
			if cfg.Referrals != nil {
				admin.Group(func(ref chi.Router) {
					ref.Use(cfg.Features.Gate(features.Referrals))
					ref.Post("/referrals", cfg.Referrals.Create)
					ref.Get("/referrals", cfg.Referrals.List)
					ref.Get("/referrals/{code}", cfg.Referrals.Get)
				})
			}
			if cfg.Documents != nil {
				admin.With(cfg.Features.Gate(features.Resources)).Get("/resources", cfg.Documents.Resources)
			}
		})
	})

	if cfg.Pages != nil {
		cfg.Pages.Routes(r)
	}

	return r
}

// apiLocale stores the resolved preference for API requests, which the page
// middleware skips.
func apiLocale(resolver *locale.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := locale.FromContext(r.Context()); !ok {
				r = r.WithContext(locale.WithPreference(r.Context(), resolver.Resolve(r)))
			}
			next.ServeHTTP(w, r)
		})
	}
}
