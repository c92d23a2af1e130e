package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aussiebroadwan/sdaportal/internal/credstore"
	"github.com/aussiebroadwan/sdaportal/internal/guard"
	"github.com/aussiebroadwan/sdaportal/pkg/authclient"
	"github.com/aussiebroadwan/sdaportal/pkg/httpx"
	"github.com/aussiebroadwan/sdaportal/pkg/slogx"
)

// AuthBackend is the part of the auth backend the portal calls directly.
// Token refresh goes through the guard instead.
type AuthBackend interface {
	Login(ctx context.Context, username, password string) (authclient.LoginResponse, error)
	Logout(ctx context.Context, accessToken string) error
	Me(ctx context.Context, accessToken string) (authclient.User, error)
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	metrics      *loginMetrics

	Guard   *guard.Guard
	Vault   *credstore.Vault
	Auth    AuthBackend
	Cookies CookieConfig

	// Registry backs /metrics. Nil disables the endpoint.
	Registry *prometheus.Registry
}

func NewRouter(buildVersion string, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	var reg prometheus.Registerer
	if r.Registry != nil {
		reg = r.Registry
	}
	r.metrics = newLoginMetrics(reg)
	r.Cookies = r.Cookies.withDefaults()

	r.registerPublic()
	r.registerSession()
	r.registerProtected()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerPublic() {
	r.Mux.Handle("GET /{$}",
		httpx.Chain(http.HandlerFunc(r.handleHome),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET "+r.Guard.LoginPath(),
		httpx.Chain(http.HandlerFunc(r.handleLoginView),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerSession() {
	// Login attempts are limited per IP and username.
	r.Mux.Handle("POST "+r.Guard.LoginPath(),
		httpx.Chain(http.HandlerFunc(r.handleLogin),
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "username"),
		),
	)
	r.Mux.Handle("POST /logout",
		httpx.Chain(http.HandlerFunc(r.handleLogout),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerProtected() {
	sessions := guard.SessionFunc(r.session)

	r.Mux.Handle("GET "+PathAdmin,
		httpx.Chain(http.HandlerFunc(r.handleAdminDashboard),
			httpx.RateLimitByIP(httpx.ModerateLimit),
			r.Guard.Middleware(sessions, RoleOwner, RoleAdmin),
		),
	)
	r.Mux.Handle("GET "+PathSDAOwner,
		httpx.Chain(http.HandlerFunc(r.handleOwnerDashboard),
			httpx.RateLimitByIP(httpx.ModerateLimit),
			r.Guard.Middleware(sessions, RoleSDAOwner),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(httpx.LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	checks := map[string]httpx.Check{
		"credentials": func(req *http.Request) error {
			return r.Vault.Ping(req.Context())
		},
	}
	r.Mux.Handle("GET /readyz",
		httpx.Chain(httpx.ReadyzHandler(r.startTime, r.buildVersion, checks),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	if r.Registry != nil {
		r.Mux.Handle("GET /metrics", promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{}))
	}
}
