package http

import (
	"net/http"

	"github.com/aussiebroadwan/sdaportal/internal/credstore"
	"github.com/aussiebroadwan/sdaportal/internal/guard"
	"github.com/aussiebroadwan/sdaportal/pkg/httpx"
	"github.com/aussiebroadwan/sdaportal/pkg/slogx"
)

const (
	RoleOwner    = "Owner"
	RoleAdmin    = "Admin"
	RoleSDAOwner = "SDA Owner"
)

const (
	PathAdmin    = "/admin"
	PathSDAOwner = "/sdaowner/dashboard"
)

// landingFor returns where a freshly logged-in role starts. Roles without a
// landing page cannot use the portal.
func landingFor(role string) (string, bool) {
	switch role {
	case RoleAdmin, RoleOwner:
		return PathAdmin, true
	case RoleSDAOwner:
		return PathSDAOwner, true
	default:
		return "", false
	}
}

// View is the descriptor a front end renders for a page.
type View struct {
	Name  string             `json:"view"`
	Title string             `json:"title"`
	User  *credstore.Profile `json:"user,omitempty"`
	Error string             `json:"error,omitempty"`

	RememberedUsername string `json:"remembered_username,omitempty"`
	RememberMe         bool   `json:"remember_me,omitempty"`

	Links map[string]string `json:"links,omitempty"`
	Data  map[string]any    `json:"data,omitempty"`
}

func (r *Router) handleHome(w http.ResponseWriter, req *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, View{
		Name:  "home",
		Title: "SDA Portal",
		Links: map[string]string{"login": r.Guard.LoginPath()},
	})
}

func (r *Router) loginView(req *http.Request, errMsg string) View {
	remembered := rememberedUsername(req)
	return View{
		Name:               "login",
		Title:              "Sign in",
		Error:              errMsg,
		RememberedUsername: remembered,
		RememberMe:         remembered != "",
		Links:              map[string]string{"submit": r.Guard.LoginPath(), "home": r.Guard.HomePath()},
	}
}

func (r *Router) handleLoginView(w http.ResponseWriter, req *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, r.loginView(req, ""))
}

func (r *Router) handleAdminDashboard(w http.ResponseWriter, req *http.Request) {
	r.writeDashboard(w, req, "admin_dashboard", "Admin dashboard")
}

func (r *Router) handleOwnerDashboard(w http.ResponseWriter, req *http.Request) {
	r.writeDashboard(w, req, "sdaowner_dashboard", "SDA Owner dashboard")
}

// writeDashboard renders a guarded view. The guard only decoded the token;
// the backend is asked to verify it so the view can say whether data calls
// will be honoured.
func (r *Router) writeDashboard(w http.ResponseWriter, req *http.Request, name, title string) {
	ctx := req.Context()
	view := View{
		Name:  name,
		Title: title,
		Links: map[string]string{"logout": "/logout"},
		Data:  map[string]any{"backend_verified": false},
	}
	if p, ok := guard.ProfileFromContext(ctx); ok {
		view.User = &p
	}

	if sess := r.session(req); sess != nil {
		access, _, err := sess.Lookup(ctx, credstore.KeyAccessToken)
		if err == nil {
			if _, err := r.Auth.Me(ctx, access); err != nil {
				slogx.FromContext(ctx).Warn("backend rejected guarded session", "error", err)
			} else {
				view.Data["backend_verified"] = true
			}
		}
	}

	httpx.WriteJSON(w, http.StatusOK, view)
}
