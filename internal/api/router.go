package api

import (
	"net/http"
	"time"

	"cf_stats/internal/api/handler"
	"cf_stats/internal/api/middleware"
	"cf_stats/internal/app/render"
	"cf_stats/internal/app/service"
	"cf_stats/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

// A full history is fetched page by page, so lookups get a generous budget.
const requestTimeout = 90 * time.Second

type Dependencies struct {
	Profiles  handler.ProfileLookup
	Auth      *service.AuthService
	Refreshes handler.RefreshEnqueuer // nil runs admin refreshes inline
	Renderer  *render.HTMLRenderer
	TokenAuth *jwtauth.JWTAuth
	Metrics   *metrics.Metrics
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chiMiddleware.Recoverer)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}
	r.Use(chiMiddleware.Timeout(requestTimeout))

	// Puts the bearer token, if any, into the context for the admin routes.
	r.Use(jwtauth.Verifier(deps.TokenAuth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Method(http.MethodGet, "/", handler.NewPageHandler(deps.Profiles, deps.Renderer))

	r.Route("/api/v1", func(v1 chi.Router) {
		authHandler := handler.NewAuthHandler(deps.Auth)
		v1.Route("/auth", authHandler.RegisterRoutes)

		profileHandler := handler.NewProfileHandler(deps.Profiles, deps.Refreshes)
		v1.Route("/profiles", profileHandler.RegisterRoutes)
	})

	return r
}
