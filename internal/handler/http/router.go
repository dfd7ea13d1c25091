package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/StayGo/internal/auth"
	"github.com/utafrali/StayGo/internal/domain"
	"github.com/utafrali/StayGo/pkg/health"
	"github.com/utafrali/StayGo/pkg/middleware"
)

// idParam constrains {id} to UUID-shaped segments so /users/me and
// /users/search never match /users/{id}.
const idParam = "{id:[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}}"

const catalogueMaxAge = 60

// PublicRoutes lists every route the auth gate lets through without a
// session. Everything else requires a valid or refreshable access token.
func PublicRoutes() []auth.Route {
	return []auth.Route{
		{Method: http.MethodPost, Pattern: "/api/v1/auth/signin"},
		{Method: http.MethodPost, Pattern: "/api/v1/auth/signup"},
		{Method: http.MethodPost, Pattern: "/api/v1/auth/refresh"},

		{Method: http.MethodGet, Pattern: "/api/v1/users/search"},
		{Method: http.MethodGet, Pattern: "/api/v1/users/" + idParam},

		{Method: http.MethodGet, Pattern: "/api/v1/places"},
		{Method: http.MethodGet, Pattern: "/api/v1/places/" + idParam},

		{Method: http.MethodGet, Pattern: "/api/v1/rooms"},
		{Method: http.MethodGet, Pattern: "/api/v1/rooms/search"},
		{Method: http.MethodGet, Pattern: "/api/v1/rooms/" + idParam},
		{Method: http.MethodGet, Pattern: "/api/v1/rooms/" + idParam + "/reviews"},

		{Method: http.MethodGet, Pattern: "/api/v1/reviews"},
		{Method: http.MethodGet, Pattern: "/api/v1/reviews/" + idParam},

		{Method: http.MethodGet, Pattern: "/health/live"},
		{Method: http.MethodGet, Pattern: "/health/ready"},
		{Method: http.MethodGet, Pattern: "/metrics"},
		// pprof has its own IP allowlist.
		{Method: http.MethodGet, Pattern: "/debug/pprof/*"},
		{Method: http.MethodPost, Pattern: "/debug/pprof/*"},
	}
}

// Handlers groups the resource handlers mounted by NewRouter.
type Handlers struct {
	Auth        *AuthHandler
	User        *UserHandler
	Place       *PlaceHandler
	Room        *RoomHandler
	Reservation *ReservationHandler
	Review      *ReviewHandler
}

// RouterConfig holds the cross-cutting pieces of the router.
type RouterConfig struct {
	ServiceName string
	Gate        *auth.Gate
	Health      *health.Handler
	Metrics     *middleware.HTTPMetrics
	Gatherer    prometheus.Gatherer
	CORS        middleware.CORSConfig
	// AuthLimiter throttles the credential endpoints when set.
	AuthLimiter *middleware.RateLimiter
	PprofCIDRs  []string
	Logger      *slog.Logger
}

// NewRouter creates a chi router with all StayGo routes registered behind
// the auth gate.
func NewRouter(cfg RouterConfig, h Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(cfg.Gate.Middleware)

	// Operations endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	middleware.RegisterPprof(r, cfg.PprofCIDRs, cfg.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Group(func(r chi.Router) {
				if cfg.AuthLimiter != nil {
					r.Use(cfg.AuthLimiter.Middleware)
				}
				r.Post("/signin", h.Auth.SignIn)
				r.Post("/signup", h.Auth.SignUp)
				r.Post("/refresh", h.Auth.Refresh)
			})
			r.Post("/logout", h.Auth.Logout)
			r.Post("/logout-all", h.Auth.LogoutAll)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/search", h.User.Search)
			r.Get("/me", h.User.Me)
			r.Get("/"+idParam, h.User.Get)
			r.Put("/"+idParam, h.User.Update)
			r.Delete("/"+idParam, h.User.Delete)
			r.Get("/"+idParam+"/reservations", h.Reservation.ListByUser)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleAdmin))
				r.Get("/", h.User.List)
				r.Post("/", h.User.Create)
			})
		})

		r.Route("/places", func(r chi.Router) {
			r.With(middleware.CacheControl(catalogueMaxAge)).Get("/", h.Place.List)
			r.With(middleware.CacheControl(catalogueMaxAge)).Get("/"+idParam, h.Place.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleAdmin))
				r.Post("/", h.Place.Create)
				r.Put("/"+idParam, h.Place.Update)
				r.Delete("/"+idParam, h.Place.Delete)
			})
		})

		r.Route("/rooms", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.CacheControl(catalogueMaxAge))
				r.Get("/", h.Room.List)
				r.Get("/search", h.Room.Search)
				r.Get("/"+idParam, h.Room.Get)
				r.Get("/"+idParam+"/reviews", h.Review.ListByRoom)
			})
			r.Post("/", h.Room.Create)
			r.Put("/"+idParam, h.Room.Update)
			r.Delete("/"+idParam, h.Room.Delete)
		})

		r.Route("/reservations", func(r chi.Router) {
			r.With(middleware.RequireRole(domain.RoleAdmin)).Get("/", h.Reservation.List)
			r.Post("/", h.Reservation.Create)
			r.Get("/"+idParam, h.Reservation.Get)
			r.Put("/"+idParam, h.Reservation.Update)
			r.Delete("/"+idParam, h.Reservation.Delete)
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", h.Review.List)
			r.Get("/"+idParam, h.Review.Get)
			r.Post("/", h.Review.Create)
			r.Put("/"+idParam, h.Review.Update)
			r.Delete("/"+idParam, h.Review.Delete)
		})
	})

	return r
}
