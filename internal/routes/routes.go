package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AnshRaj112/astravedam-backend/internal/handlers"
	"github.com/AnshRaj112/astravedam-backend/internal/middleware"
)

type Deps struct {
	Charts        *handlers.ChartHandler
	Auth          *handlers.AuthHandler
	Health        *handlers.HealthHandler
	Authenticator *middleware.Authenticator
	ClientIP      func(*http.Request) string
}

type Options struct {
	AllowedOrigins []string
	Production     bool
	AllowedHost    string
	// RateLimiter is the development limiter; nil disables it.
	RateLimiter *middleware.RedisRateLimiter
}

// NewRouter builds the full middleware stack and mounts every route.
func NewRouter(opts Options, d Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(opts.AllowedOrigins))

	// Production: SecurityHeaders → HostCheck → per-IP token bucket.
	// Otherwise the Redis counter, when Redis is up.
	if opts.Production {
		for _, mw := range middleware.ProductionSecurity(opts.AllowedHost, d.ClientIP) {
			r.Use(mw)
		}
	} else if opts.RateLimiter != nil {
		r.Use(opts.RateLimiter.Middleware)
	}

	SetupRoutes(r, d)
	return r
}

func SetupRoutes(r chi.Router, d Deps) {
	r.Get("/health", handlers.Live)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", d.Health.Health)

		// Charts: identity is optional
		r.Group(func(r chi.Router) {
			r.Use(d.Authenticator.OptionalAuth)
			r.Post("/calculate-chart", d.Charts.CalculateChart)
			r.Get("/charts", d.Charts.GetCharts)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.AuthRateLimit(d.ClientIP))
				r.Get("/google", d.Auth.GoogleLogin)
				r.Get("/google/callback", d.Auth.GoogleCallback)
			})
			r.Post("/logout", d.Auth.Logout)

			r.Group(func(r chi.Router) {
				r.Use(d.Authenticator.RequireAuth)
				r.Get("/me", d.Auth.Me)
				r.Post("/link-charts", d.Auth.LinkCharts)
			})
		})
	})
}
