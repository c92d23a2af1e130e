package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/sdaportal/internal/devauth/service"
	"github.com/aussiebroadwan/sdaportal/pkg/httpx"
	"github.com/aussiebroadwan/sdaportal/pkg/jwtx"
	"github.com/aussiebroadwan/sdaportal/pkg/slogx"

	_ "github.com/aussiebroadwan/sdaportal/api/devauth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

//go:generate swag init --dir ../../.. --generalInfo internal/devauth/http/router.go --output ../../../api/devauth --packageName devauth

// Roles allowed on the admin API.
var adminRoles = []string{"Admin", "Owner"}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	TokenService *service.TokenService
	Users        *service.UserDirectory
}

func NewRouter(keys *jwtx.KeySet, verifier jwtx.Verifier, buildVersion string, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
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
	r.registerAuth()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("GET /swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			SDA Portal Development Auth API
//	@version		0.1.0
//	@description	Local stand-in for the SDA portal's auth backend. Issues EdDSA-signed access and refresh tokens for seeded users.
//
//	@host						localhost:5000
//	@BasePath					/
//
//	@schemes					http
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access or refresh token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// Credential submission is limited per client IP.
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(&LoginHandler{TokenService: r.TokenService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /api/auth/refresh",
		httpx.Chain(&RefreshHandler{TokenService: r.TokenService},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("POST /api/auth/logout",
		httpx.Chain(http.HandlerFunc(LogoutHandler),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("GET /api/auth/me",
		httpx.Chain(&MeHandler{Users: r.Users},
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAdmin() {
	r.Mux.Handle("GET /api/admin/get_users",
		httpx.Chain(&ListUsersHandler{Users: r.Users},
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyRole(adminRoles...),
			httpx.RateLimitByIP(httpx.ModerateLimit),
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
		"signing_keys": func(*http.Request) error {
			if !r.keys.IsReady() {
				return errNoSigningKeys
			}
			return nil
		},
	}
	r.Mux.Handle("GET /readyz",
		httpx.Chain(httpx.ReadyzHandler(r.startTime, r.buildVersion, checks),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
