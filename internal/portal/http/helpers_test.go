package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/sdaportal/internal/credstore"
	"github.com/aussiebroadwan/sdaportal/internal/credstore/drivers/memory"
	"github.com/aussiebroadwan/sdaportal/internal/guard"
	"github.com/aussiebroadwan/sdaportal/pkg/authclient"
	"github.com/aussiebroadwan/sdaportal/pkg/jwtx"
	"github.com/aussiebroadwan/sdaportal/pkg/slogx"
)

func signedToken(t *testing.T, tokenType, role string, exp time.Time) string {
	t.Helper()
	claims := jwtx.NewClaims(tokenType, "1", "test", jwtx.Profile{Role: role}, time.Minute, exp.Add(-time.Minute))
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return tok
}

type fakeUser struct {
	password string
	role     string
}

// fakeAuth stands in for the auth backend.
type fakeAuth struct {
	t     *testing.T
	users map[string]fakeUser

	mu        sync.Mutex
	logouts   []string
	meErr     error
	down      bool
	throttled bool
}

func (f *fakeAuth) Login(_ context.Context, username, password string) (authclient.LoginResponse, error) {
	if f.down {
		return authclient.LoginResponse{}, &authclient.APIError{StatusCode: http.StatusServiceUnavailable, Message: "down"}
	}
	if f.throttled {
		return authclient.LoginResponse{}, &authclient.APIError{StatusCode: http.StatusTooManyRequests, Message: "rate limit exceeded"}
	}
	u, ok := f.users[username]
	if !ok || u.password != password {
		return authclient.LoginResponse{}, &authclient.APIError{StatusCode: http.StatusUnauthorized, Message: "Invalid credentials"}
	}
	user, err := json.Marshal(map[string]any{
		"id": 7, "name": strings.ToUpper(username), "username": username, "role": u.role, "status": "active",
	})
	require.NoError(f.t, err)

	return authclient.LoginResponse{
		Access:  signedToken(f.t, jwtx.TokenTypeAccess, u.role, time.Now().Add(15*time.Minute)),
		Refresh: signedToken(f.t, jwtx.TokenTypeRefresh, u.role, time.Now().Add(24*time.Hour)),
		User:    user,
	}, nil
}

func (f *fakeAuth) Logout(_ context.Context, accessToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts = append(f.logouts, accessToken)
	return nil
}

func (f *fakeAuth) Me(_ context.Context, accessToken string) (authclient.User, error) {
	if f.meErr != nil {
		return authclient.User{}, f.meErr
	}
	return authclient.User{Username: "someone", Role: "Admin"}, nil
}

type testPortal struct {
	router     *Router
	auth       *fakeAuth
	vault      *credstore.Vault
	persistent *memory.Store
	ephemeral  *memory.Store
	refreshes  atomic.Int32
}

func newTestPortal(t *testing.T) *testPortal {
	t.Helper()

	tp := &testPortal{
		auth: &fakeAuth{t: t, users: map[string]fakeUser{
			"admin":  {password: "pw", role: RoleAdmin},
			"owner":  {password: "pw", role: RoleOwner},
			"sda":    {password: "pw", role: RoleSDAOwner},
			"tenant": {password: "pw", role: "Tenant"},
		}},
		persistent: memory.New(),
		ephemeral:  memory.New(),
	}
	tp.vault = &credstore.Vault{Persistent: tp.persistent, Ephemeral: tp.ephemeral}

	refresher := guard.RefresherFunc(func(ctx context.Context, rt string) (string, error) {
		tp.refreshes.Add(1)
		return signedToken(t, jwtx.TokenTypeAccess, RoleAdmin, time.Now().Add(15*time.Minute)), nil
	})

	reg := prometheus.NewRegistry()
	r := NewRouter("test", slogx.Discard())
	r.Guard = guard.New(guard.Config{
		Refresher: refresher,
		Logger:    slogx.Discard(),
		Metrics:   guard.NewMetrics(reg),
	})
	r.Vault = tp.vault
	r.Auth = tp.auth
	r.Registry = reg
	r.Cookies = CookieConfig{Name: "sid", PersistentMaxAge: time.Hour}
	r.ApplyRoutes()
	tp.router = r
	return tp
}

func (tp *testPortal) get(t *testing.T, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	tp.router.ServeHTTP(rec, req)
	return rec
}

func (tp *testPortal) post(t *testing.T, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	tp.router.ServeHTTP(rec, req)
	return rec
}

func (tp *testPortal) login(t *testing.T, username string, remember bool) *http.Cookie {
	t.Helper()
	form := url.Values{"username": {username}, "password": {"pw"}}
	if remember {
		form.Set("remember_me", "on")
	}
	rec := tp.post(t, "/login", form)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	return cookieNamed(t, rec, "sid")
}

func cookieNamed(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	require.Failf(t, "cookie not set", "no %s cookie in response", name)
	return nil
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) View {
	t.Helper()
	var v View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}
