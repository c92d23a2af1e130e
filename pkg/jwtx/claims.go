package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token lifetimes issued by the auth backend.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 24 * time.Hour
)

// Values of the "type" claim. A refresh token must never be accepted where
// an access token is expected, and vice versa.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims carried by both access and refresh tokens. The profile fields are
// copied onto every token so a refresh can mint a new access token without a
// user lookup.
type Claims struct {
	jwt.RegisteredClaims

	Type     string `json:"type"`
	Role     string `json:"role,omitempty"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
	Status   string `json:"status,omitempty"`
}

// Profile is the subset of claims describing the user.
type Profile struct {
	Role     string
	Name     string
	Username string
	Status   string
}

// NewClaims builds claims of the given type valid from now for ttl.
func NewClaims(tokenType, subject, issuer string, p Profile, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Type:     tokenType,
		Role:     p.Role,
		Name:     p.Name,
		Username: p.Username,
		Status:   p.Status,
	}
}

// Profile returns the user fields carried by the claims.
func (c *Claims) Profile() Profile {
	return Profile{Role: c.Role, Name: c.Name, Username: c.Username, Status: c.Status}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiry ensures the token carries an exp, hasn't expired and isn't
// before nbf. A token without exp is malformed, matching DecodeExpiry.
func (c *Claims) ValidateExpiry(now time.Time) error {
	if c.ExpiresAt == nil {
		return fmt.Errorf("%w: missing exp claim", ErrMalformed)
	}
	if now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}

// RequireType fails with ErrTokenType unless the "type" claim is want.
func (c *Claims) RequireType(want string) error {
	if c.Type != want {
		return fmt.Errorf("%w: got %q, want %q", ErrTokenType, c.Type, want)
	}
	return nil
}
