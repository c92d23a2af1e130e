package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aussiebroadwan/sdaportal/internal/devauth/service"
	"github.com/aussiebroadwan/sdaportal/pkg/cryptox"
	"github.com/aussiebroadwan/sdaportal/pkg/jwtx"
	"github.com/aussiebroadwan/sdaportal/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	h := cryptox.NewHasher("pepper")
	users, err := service.NewUserDirectory(h, []service.UserSpec{
		{Username: "admin", Password: "pw", Role: "Admin", Name: "Ada"},
		{Username: "owner", Password: "pw", Role: "SDA Owner", Name: "Sam"},
	})
	require.NoError(t, err)

	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA("k1", pemKey)
	require.NoError(t, err)
	keys := jwtx.NewKeySet()
	keys.AddSigner(signer)
	verifier := jwtx.NewVerifierEdDSA(keys, "devauth-test")

	r := NewRouter(keys, verifier, "test", slogx.Discard())
	r.Users = users
	r.TokenService = &service.TokenService{
		Users:      users,
		Hasher:     h,
		Signer:     signer,
		Verifier:   verifier,
		Issuer:     "devauth-test",
		AccessTTL:  jwtx.DefaultAccessTokenTTL,
		RefreshTTL: jwtx.DefaultRefreshTokenTTL,
	}
	r.ApplyRoutes()
	return r
}

func do(t *testing.T, h http.Handler, method, path, body, bearer string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func login(t *testing.T, h http.Handler, username string) (access, refresh string) {
	t.Helper()
	rec, body := do(t, h, http.MethodPost, "/api/auth/login", `{"username":"`+username+`","password":"pw"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	return body["access"].(string), body["refresh"].(string)
}

func TestLogin(t *testing.T) {
	r := newTestRouter(t)

	t.Run("missing fields", func(t *testing.T) {
		rec, body := do(t, r, http.MethodPost, "/api/auth/login", `{"username":"admin"}`, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "Missing username or password", body["message"])
	})

	t.Run("bad password", func(t *testing.T) {
		rec, body := do(t, r, http.MethodPost, "/api/auth/login", `{"username":"admin","password":"nope"}`, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Invalid credentials", body["message"])
	})

	t.Run("success", func(t *testing.T) {
		rec, body := do(t, r, http.MethodPost, "/api/auth/login", `{"username":"owner","password":"pw"}`, "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
		require.NotEmpty(t, body["access"])
		require.NotEmpty(t, body["refresh"])

		user := body["user"].(map[string]any)
		require.Equal(t, float64(2), user["id"])
		require.Equal(t, "SDA Owner", user["role"])
		require.Equal(t, "Sam", user["name"])
		require.Equal(t, "active", user["status"])
	})
}

func TestRefresh(t *testing.T) {
	r := newTestRouter(t)
	access, refresh := login(t, r, "admin")

	t.Run("missing bearer", func(t *testing.T) {
		rec, _ := do(t, r, http.MethodPost, "/api/auth/refresh", "", "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("access token refused", func(t *testing.T) {
		rec, body := do(t, r, http.MethodPost, "/api/auth/refresh", "", access)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Equal(t, "Only refresh tokens are allowed", body["msg"])
	})

	t.Run("invalid token", func(t *testing.T) {
		rec, body := do(t, r, http.MethodPost, "/api/auth/refresh", "", "garbage")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.NotEmpty(t, body["msg"])
	})

	t.Run("refresh token accepted", func(t *testing.T) {
		rec, body := do(t, r, http.MethodPost, "/api/auth/refresh", "", refresh)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotEmpty(t, body["access"])

		rec, _ = do(t, r, http.MethodGet, "/api/auth/me", "", body["access"].(string))
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestLogout(t *testing.T) {
	r := newTestRouter(t)

	rec, body := do(t, r, http.MethodPost, "/api/auth/logout", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Logout successful", body["message"])
}

func TestProtectedRoutes(t *testing.T) {
	r := newTestRouter(t)
	adminAccess, adminRefresh := login(t, r, "admin")
	ownerAccess, _ := login(t, r, "owner")

	t.Run("me requires a token", func(t *testing.T) {
		rec, _ := do(t, r, http.MethodGet, "/api/auth/me", "", "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("me refuses refresh tokens", func(t *testing.T) {
		rec, _ := do(t, r, http.MethodGet, "/api/auth/me", "", adminRefresh)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("me returns the user", func(t *testing.T) {
		rec, body := do(t, r, http.MethodGet, "/api/auth/me", "", ownerAccess)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "owner", body["username"])
		require.Equal(t, "SDA Owner", body["role"])
	})

	t.Run("admin list forbidden for SDA Owner", func(t *testing.T) {
		rec, _ := do(t, r, http.MethodGet, "/api/admin/get_users", "", ownerAccess)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin list for Admin", func(t *testing.T) {
		rec, body := do(t, r, http.MethodGet, "/api/admin/get_users", "", adminAccess)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, body["users"], 2)
	})
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)

	rec, body := do(t, r, http.MethodGet, "/livez", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", body["status"])

	rec, body = do(t, r, http.MethodGet, "/readyz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", body["checks"].(map[string]any)["signing_keys"])
}

func TestSwaggerDoc(t *testing.T) {
	r := newTestRouter(t)

	rec, body := do(t, r, http.MethodGet, "/swagger/doc.json", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "2.0", body["swagger"])

	paths, ok := body["paths"].(map[string]any)
	require.True(t, ok)
	for _, p := range []string{"/api/auth/login", "/api/auth/refresh", "/api/auth/logout", "/api/auth/me", "/api/admin/get_users"} {
		require.Contains(t, paths, p)
	}
}
