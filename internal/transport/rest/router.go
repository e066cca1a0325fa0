package rest

import (
	"log/slog"
	"net/http"

	"github.com/mkravets/valvecalc-backend/internal/config"
	"github.com/mkravets/valvecalc-backend/internal/domain"
	"github.com/mkravets/valvecalc-backend/internal/transport/middleware"
)

// tokenValidator validates Bearer tokens for the auth middleware.
type tokenValidator interface {
	ValidateAccessToken(token string) (domain.Actor, error)
}

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth    *AuthHandler
	Calc    *CalcHandler
	Library *LibraryHandler
	Admin   *AdminHandler
	Health  *HealthHandler
}

// RouterConfig holds the router's cross-cutting settings.
type RouterConfig struct {
	CORS config.CORSConfig
	// Limiter and LoginRatePerMinute throttle the password login endpoint
	// per client IP. A nil limiter or non-positive rate disables throttling.
	Limiter            *middleware.RateLimiter
	LoginRatePerMinute int
}

// NewRouter builds the HTTP routing tree with the full middleware chain.
// Health probes and login are public; everything else requires a token, and
// /api/v1/admin/ additionally requires an admin role.
func NewRouter(logger *slog.Logger, cfg RouterConfig, validator tokenValidator, h Handlers) http.Handler {
	authed := middleware.Chain(middleware.Auth(validator))
	admin := middleware.Chain(middleware.Auth(validator), middleware.Admin)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.Health.Live)
	mux.HandleFunc("GET /readyz", h.Health.Ready)
	mux.HandleFunc("GET /health", h.Health.Health)

	var login http.Handler = http.HandlerFunc(h.Auth.Login)
	if cfg.Limiter != nil && cfg.LoginRatePerMinute > 0 {
		login = cfg.Limiter.Limit(cfg.LoginRatePerMinute)(login)
	}
	mux.Handle("POST /api/v1/auth/login", login)

	mux.Handle("POST /api/v1/calcs/{type}", authed(http.HandlerFunc(h.Calc.Create)))
	mux.Handle("GET /api/v1/calcs/{type}", authed(http.HandlerFunc(h.Calc.List)))
	mux.Handle("GET /api/v1/calcs/{type}/{id}", authed(http.HandlerFunc(h.Calc.Get)))
	mux.Handle("PATCH /api/v1/calcs/{type}/{id}", authed(http.HandlerFunc(h.Calc.Update)))
	mux.Handle("DELETE /api/v1/calcs/{type}/{id}", authed(http.HandlerFunc(h.Calc.Delete)))

	mux.Handle("GET /api/v1/library", authed(http.HandlerFunc(h.Library.ListMine)))

	mux.Handle("POST /api/v1/admin/users", admin(http.HandlerFunc(h.Auth.Register)))
	mux.Handle("GET /api/v1/admin/calcs/{type}", admin(http.HandlerFunc(h.Admin.List)))
	mux.Handle("GET /api/v1/admin/calcs/{type}/{id}", admin(http.HandlerFunc(h.Admin.Get)))
	mux.Handle("DELETE /api/v1/admin/calcs/{type}/{id}", admin(http.HandlerFunc(h.Admin.Delete)))
	mux.Handle("GET /api/v1/admin/audit", admin(http.HandlerFunc(h.Admin.AuditTrail)))

	chain := middleware.Chain(
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.CORS(cfg.CORS),
		middleware.ClientIP,
	)
	return chain(mux)
}
