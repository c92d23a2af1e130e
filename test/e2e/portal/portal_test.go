//go:build e2e

package portal_test

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/sdaportal/pkg/authclient"
)

func TestLoginGuardLogout(t *testing.T) {
	authURL := setupAuthContainer(t, map[string]string{
		"RATELIMIT_STRICT_REQUESTS": "1000",
		"RATELIMIT_STRICT_BURST":    "1000",
	})
	portal := startPortal(t, authURL)
	browser := newBrowser(t)

	resp := get(t, browser, portal.URL+"/admin")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))

	resp = postForm(t, browser, portal.URL+"/login", url.Values{
		"username": {"ada"}, "password": {"Admin123!"}, "remember_me": {"on"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/admin", resp.Header.Get("Location"))

	resp = get(t, browser, portal.URL+"/admin")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view struct {
		Name string         `json:"view"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	require.Equal(t, "admin_dashboard", view.Name)
	require.Equal(t, true, view.Data["backend_verified"])

	resp = get(t, browser, portal.URL+"/sdaowner/dashboard")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get("Location"))

	resp = postForm(t, browser, portal.URL+"/logout", url.Values{})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp = get(t, browser, portal.URL+"/admin")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestRoleWithoutPortalAccess(t *testing.T) {
	portal := startPortal(t, setupAuthContainer(t, nil))
	browser := newBrowser(t)

	resp := postForm(t, browser, portal.URL+"/login", url.Values{"username": {"tia"}, "password": {"Tenant123!"}})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	u, err := url.Parse(portal.URL)
	require.NoError(t, err)
	for _, c := range browser.Jar.Cookies(u) {
		require.NotEqual(t, "sdaportal_session", c.Name)
	}
}

func TestBackendRefreshContract(t *testing.T) {
	client := authclient.New(setupAuthContainer(t, nil))
	ctx := t.Context()

	login, err := client.Login(ctx, "sam", "Owner123!")
	require.NoError(t, err)

	access, err := client.Refresh(ctx, login.Refresh)
	require.NoError(t, err)
	require.NotEmpty(t, access)

	_, err = client.Refresh(ctx, login.Access)
	var apiErr *authclient.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)

	me, err := client.Me(ctx, access)
	require.NoError(t, err)
	require.Equal(t, "SDA Owner", me.Role)

	require.NoError(t, client.Logout(ctx, access))
}

func TestLoginRateLimit(t *testing.T) {
	client := authclient.New(setupAuthContainer(t, nil))
	ctx := t.Context()

	var limited bool
	for range 10 {
		_, err := client.Login(ctx, "ada", "wrong")
		var apiErr *authclient.APIError
		require.ErrorAs(t, err, &apiErr)
		if apiErr.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
		require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	}
	require.True(t, limited, "expected the strict limit to kick in")
}
