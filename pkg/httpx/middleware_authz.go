package httpx

import (
	"net/http"
	"slices"
	"strings"
)

// RequireAnyRole admits callers whose verified role is one of roles. It must
// sit behind AuthnMiddleware.
func RequireAnyRole(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(roles, roleFromCtx(r.Context())) {
				next.ServeHTTP(w, r)
				return
			}
			writeBearerRoleError(w, roles...)
		})
	}
}

func writeBearerRoleError(w http.ResponseWriter, roles ...string) {
	w.Header().
		Set("WWW-Authenticate", `Bearer error="insufficient_scope", error_description="requires role: `+strings.Join(roles, ", ")+`"`)
	WriteJSON(w, http.StatusForbidden, map[string]string{"msg": "insufficient role"})
}
