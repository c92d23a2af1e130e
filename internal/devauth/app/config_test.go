package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("DEVAUTH_USERS", "a:b:Admin")
	t.Setenv("DEVAUTH_ACCESS_TTL", "900")
	t.Setenv("DEVAUTH_REFRESH_TTL", "36h")
	t.Setenv("PORT", "not-a-number")

	cfg := LoadConfig()
	require.Equal(t, "a:b:Admin", cfg.Users)
	require.Equal(t, 15*time.Minute, cfg.AccessTTL)
	require.Equal(t, 36*time.Hour, cfg.RefreshTTL)
	require.Equal(t, 5000, cfg.Port)
	require.Equal(t, "sdaportal-devauth", cfg.Issuer)
}

func TestNewRequiresUsers(t *testing.T) {
	cfg := LoadConfig()
	cfg.Users = ""
	cfg.PepperFile = t.TempDir() + "/pepper"
	cfg.LogFormat = "text"

	_, err := New(cfg)
	require.Error(t, err)
}

func TestNewWiresHandler(t *testing.T) {
	cfg := LoadConfig()
	cfg.Users = "admin:pw:Admin"
	cfg.PepperFile = t.TempDir() + "/pepper"
	cfg.SigningKeyFile = t.TempDir() + "/signing.pem"
	cfg.LogLevel = "error"

	app, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, app.Handler())
	require.True(t, app.keys.IsReady())
}
