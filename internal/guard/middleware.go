package guard

import (
	"context"
	"net/http"

	"github.com/aussiebroadwan/sdaportal/internal/credstore"
	"github.com/aussiebroadwan/sdaportal/pkg/httpx"
	"github.com/aussiebroadwan/sdaportal/pkg/slogx"
)

// SessionFunc resolves the caller's session from a request. It returns nil
// when the request carries no usable session handle.
type SessionFunc func(r *http.Request) *credstore.Session

type ctxKey struct{}

// ProfileFromContext returns the profile of an authorized caller.
func ProfileFromContext(ctx context.Context) (credstore.Profile, bool) {
	p, ok := ctx.Value(ctxKey{}).(*credstore.Profile)
	if !ok || p == nil {
		return credstore.Profile{}, false
	}
	return *p, true
}

// Middleware gates next behind a check against allowedRoles. Unauthenticated
// callers are redirected to the login path and forbidden callers to the home
// path, both with 302 Found. A check left Pending because the client went
// away writes nothing.
func (g *Guard) Middleware(sessions SessionFunc, allowedRoles ...string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessions(r)
			if sess != nil {
				r = r.WithContext(slogx.With(r.Context(), "session", sess.Handle().Namespace))
			}
			d := g.Check(r.Context(), sess, allowedRoles)

			switch d.Outcome {
			case Authorized:
				httpx.NoCache(w)
				ctx := context.WithValue(r.Context(), ctxKey{}, d.Profile)
				next.ServeHTTP(w, r.WithContext(ctx))
			case Unauthenticated, Forbidden:
				httpx.NoCache(w)
				http.Redirect(w, r, d.Redirect, http.StatusFound)
			case Pending:
				// client went away
			}
		})
	}
}
