package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/sdaportal/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestNewClaims(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	p := jwtx.Profile{Role: "SDA Owner", Name: "Jo Citizen", Username: "jo", Status: "active"}

	c := jwtx.NewClaims(jwtx.TokenTypeAccess, "42", "sda-auth", p, 15*time.Minute, now)

	require.Equal(t, "42", c.Subject)
	require.Equal(t, "sda-auth", c.Issuer)
	require.Equal(t, jwtx.TokenTypeAccess, c.Type)
	require.Equal(t, now.Add(15*time.Minute), c.ExpiresAt.Time)
	require.NotEmpty(t, c.ID)
	require.Equal(t, p, c.Profile())
}

func TestValidateIssuer(t *testing.T) {
	c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: "sda-auth"}}

	require.NoError(t, c.ValidateIssuer("sda-auth"))
	require.NoError(t, c.ValidateIssuer(""))
	require.ErrorIs(t, c.ValidateIssuer("other"), jwtx.ErrIssuer)
}

func TestValidateExpiry(t *testing.T) {
	now := time.Now().UTC()

	t.Run("valid token", func(t *testing.T) {
		c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		}}
		require.NoError(t, c.ValidateExpiry(now))
	})

	t.Run("expired token", func(t *testing.T) {
		c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
		}}
		require.ErrorIs(t, c.ValidateExpiry(now), jwtx.ErrExpired)
	})

	t.Run("not yet valid", func(t *testing.T) {
		c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			NotBefore: jwt.NewNumericDate(now.Add(time.Minute)),
		}}
		require.ErrorIs(t, c.ValidateExpiry(now), jwtx.ErrNotYetValid)
	})

	t.Run("missing exp is malformed", func(t *testing.T) {
		c := &jwtx.Claims{}
		require.ErrorIs(t, c.ValidateExpiry(now), jwtx.ErrMalformed)
	})
}

func TestRequireType(t *testing.T) {
	c := &jwtx.Claims{Type: jwtx.TokenTypeRefresh}

	require.NoError(t, c.RequireType(jwtx.TokenTypeRefresh))
	require.ErrorIs(t, c.RequireType(jwtx.TokenTypeAccess), jwtx.ErrTokenType)
}
