package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/sdaportal/internal/credstore"
	"github.com/aussiebroadwan/sdaportal/pkg/slogx"
)

const (
	rememberedUserCookie = "sdaportal_remembered_user"
	rememberedUserMaxAge = 30 * 24 * time.Hour
)

// CookieConfig controls the session cookie. Only the session handle is ever
// written to it; tokens stay server side.
type CookieConfig struct {
	Name   string
	Secure bool

	// PersistentMaxAge is the lifetime of a remembered session cookie.
	// Ephemeral sessions get a browser-session cookie.
	PersistentMaxAge time.Duration
}

func (c CookieConfig) withDefaults() CookieConfig {
	if c.Name == "" {
		c.Name = "sdaportal_session"
	}
	if c.PersistentMaxAge <= 0 {
		c.PersistentMaxAge = 24 * time.Hour
	}
	return c
}

// session resolves the request's session. Missing or unparsable cookies
// yield nil, which the guard treats as no credential.
func (r *Router) session(req *http.Request) *credstore.Session {
	c, err := req.Cookie(r.Cookies.Name)
	if err != nil || c.Value == "" {
		return nil
	}
	h, err := credstore.ParseHandle(c.Value)
	if err != nil {
		slogx.FromContext(req.Context()).Debug("ignoring bad session cookie", "error", err)
		return nil
	}
	return r.Vault.Session(h)
}

func (r *Router) setSessionCookie(w http.ResponseWriter, h credstore.Handle) {
	c := &http.Cookie{
		Name:     r.Cookies.Name,
		Value:    h.String(),
		Path:     "/",
		HttpOnly: true,
		Secure:   r.Cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if h.Scope == credstore.ScopePersistent {
		c.MaxAge = int(r.Cookies.PersistentMaxAge.Seconds())
	}
	http.SetCookie(w, c)
}

func (r *Router) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     r.Cookies.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.Cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// rememberUsername keeps the username for the next login form when the
// user asked to be remembered, and forgets it otherwise. The password is
// never kept.
func (r *Router) rememberUsername(w http.ResponseWriter, username string, remember bool) {
	c := &http.Cookie{
		Name:     rememberedUserCookie,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.Cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if remember {
		c.Value = username
		c.MaxAge = int(rememberedUserMaxAge.Seconds())
	} else {
		c.MaxAge = -1
	}
	http.SetCookie(w, c)
}

func rememberedUsername(req *http.Request) string {
	c, err := req.Cookie(rememberedUserCookie)
	if err != nil {
		return ""
	}
	return c.Value
}
