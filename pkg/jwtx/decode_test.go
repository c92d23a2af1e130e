package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/sdaportal/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// hs256 signs with a throwaway key; Decode never looks at the signature.
func hs256(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("not-the-real-key"))
	require.NoError(t, err)
	return tok
}

func TestDecodeExpiry(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("reads exp without verifying", func(t *testing.T) {
		tok := hs256(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)})

		got, err := jwtx.DecodeExpiry(tok)
		require.NoError(t, err)
		require.True(t, exp.Equal(got))
	})

	t.Run("expired tokens still decode", func(t *testing.T) {
		past := time.Now().Add(-time.Hour).Truncate(time.Second)
		tok := hs256(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(past)})

		got, err := jwtx.DecodeExpiry(tok)
		require.NoError(t, err)
		require.True(t, past.Equal(got))
	})

	t.Run("missing exp is malformed", func(t *testing.T) {
		tok := hs256(t, jwt.RegisteredClaims{Subject: "1"})

		_, err := jwtx.DecodeExpiry(tok)
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	for _, garbage := range []string{"", "rt-123", "a.b", "a.b.c", "!!!.???.###"} {
		t.Run("garbage "+garbage, func(t *testing.T) {
			_, err := jwtx.DecodeExpiry(garbage)
			require.ErrorIs(t, err, jwtx.ErrMalformed)
		})
	}
}

func TestDecodeProfileClaims(t *testing.T) {
	now := time.Now()
	claims := jwtx.NewClaims(jwtx.TokenTypeAccess, "7", "sda-auth",
		jwtx.Profile{Role: "Admin", Username: "admin"}, time.Minute, now)

	got, err := jwtx.Decode(hs256(t, claims))
	require.NoError(t, err)
	require.Equal(t, "Admin", got.Role)
	require.Equal(t, "admin", got.Username)
	require.Equal(t, jwtx.TokenTypeAccess, got.Type)
}
