package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/sdaportal/internal/credstore"
	"github.com/aussiebroadwan/sdaportal/pkg/authclient"
	"github.com/aussiebroadwan/sdaportal/pkg/httpx"
	"github.com/aussiebroadwan/sdaportal/pkg/slogx"
)

// parseCheckbox reads an HTML checkbox value.
func parseCheckbox(v string) bool {
	if v == "on" {
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	log := slogx.FromContext(ctx)

	if err := req.ParseForm(); err != nil {
		r.metrics.observe(loginBadRequest)
		httpx.WriteJSON(w, http.StatusBadRequest, r.loginView(req, "Invalid form body"))
		return
	}

	username := strings.TrimSpace(req.PostForm.Get("username"))
	password := req.PostForm.Get("password")
	remember := parseCheckbox(req.PostForm.Get("remember_me"))

	if username == "" || password == "" {
		r.metrics.observe(loginBadRequest)
		httpx.WriteJSON(w, http.StatusBadRequest, r.loginView(req, "Missing username or password"))
		return
	}

	res, err := r.Auth.Login(ctx, username, password)
	if err != nil {
		if authclient.IsUnauthorized(err) {
			r.metrics.observe(loginRejected)
			log.Info("login rejected by backend", "username", username)
			httpx.WriteJSON(w, http.StatusUnauthorized, r.loginView(req, "Invalid credentials"))
			return
		}
		// Other 4xx (bad request, throttling) keep the backend's status.
		var apiErr *authclient.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			r.metrics.observe(loginRejected)
			log.Warn("login refused by backend", "username", username, "status", apiErr.StatusCode)
			httpx.WriteJSON(w, apiErr.StatusCode, r.loginView(req, apiErr.Message))
			return
		}
		r.metrics.observe(loginBackendError)
		log.Error("auth backend login failed", "error", err)
		httpx.WriteJSON(w, http.StatusBadGateway, r.loginView(req, "Authentication service unavailable"))
		return
	}

	profile, err := credstore.ParseProfile(string(res.User))
	if err != nil {
		r.metrics.observe(loginBackendError)
		log.Error("auth backend returned an unreadable profile", "error", err)
		httpx.WriteJSON(w, http.StatusBadGateway, r.loginView(req, "Authentication service unavailable"))
		return
	}

	landing, ok := landingFor(profile.Role)
	if !ok {
		r.metrics.observe(loginUnknownRole)
		log.Warn("login for role without portal access", "username", username, "role", profile.Role)
		httpx.WriteJSON(w, http.StatusForbidden, r.loginView(req, "Your account does not have access to this portal"))
		return
	}

	if old := r.session(req); old != nil {
		if err := old.Clear(ctx); err != nil {
			log.Warn("failed to clear previous session", "error", err)
		}
	}

	scope := credstore.ScopeFor(remember)
	sess, err := r.Vault.Open(ctx, scope, credstore.Login{
		Access:  res.Access,
		Refresh: res.Refresh,
		User:    profile,
	})
	if err != nil {
		r.metrics.observe(loginBackendError)
		log.Error("failed to store credentials", "scope", scope, "error", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, r.loginView(req, "Could not start a session"))
		return
	}

	r.metrics.observe(loginSuccess)
	log.Info("login succeeded", "session", sess.Handle().Namespace, "scope", scope, "role", profile.Role)

	r.setSessionCookie(w, sess.Handle())
	r.rememberUsername(w, username, remember)
	httpx.NoCache(w)
	http.Redirect(w, req, landing, http.StatusSeeOther)
}

// handleLogout tells the backend, drops the session from both scopes and
// sends the browser to the login page. Backend failures do not block it.
func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	log := slogx.FromContext(ctx)

	if sess := r.session(req); sess != nil {
		if access, _, err := sess.Lookup(ctx, credstore.KeyAccessToken); err == nil {
			if err := r.Auth.Logout(ctx, access); err != nil {
				log.Warn("backend logout failed", "error", err)
			}
		}
		if err := sess.Clear(ctx); err != nil {
			log.Error("failed to clear session", "session", sess.Handle().Namespace, "error", err)
		}
	}

	r.clearSessionCookie(w)
	httpx.NoCache(w)
	http.Redirect(w, req, r.Guard.LoginPath(), http.StatusSeeOther)
}
