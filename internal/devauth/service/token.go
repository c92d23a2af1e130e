package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aussiebroadwan/sdaportal/pkg/cryptox"
	"github.com/aussiebroadwan/sdaportal/pkg/jwtx"
)

var (
	ErrInvalidCredentials = errors.New("devauth: invalid credentials")
	ErrInvalidToken       = errors.New("devauth: invalid token")
	ErrWrongTokenType     = errors.New("devauth: only refresh tokens are allowed")
)

// TokenService issues and refreshes credential pairs.
type TokenService struct {
	Users    *UserDirectory
	Hasher   *cryptox.Hasher
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Issuer   string

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

// LoginResult is what a successful login hands back.
type LoginResult struct {
	Access  string
	Refresh string
	User    User
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Login checks the password and mints an access and a refresh token, both
// carrying the user's profile claims.
func (s *TokenService) Login(_ context.Context, username, password string) (LoginResult, error) {
	u, err := s.Users.ByUsername(username)
	if err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err := s.Hasher.Verify(password, u.PasswordHash); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	now := s.now()
	profile := jwtx.Profile{Role: u.Role, Name: u.Name, Username: u.Username, Status: u.Status}
	subject := strconv.Itoa(u.ID)

	access, err := s.Signer.Sign(jwtx.NewClaims(jwtx.TokenTypeAccess, subject, s.Issuer, profile, s.AccessTTL, now))
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.Signer.Sign(jwtx.NewClaims(jwtx.TokenTypeRefresh, subject, s.Issuer, profile, s.RefreshTTL, now))
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return LoginResult{Access: access, Refresh: refresh, User: u}, nil
}

// Refresh verifies a refresh token and mints a new access token with the
// same subject and profile claims. The refresh token itself is not rotated.
func (s *TokenService) Refresh(_ context.Context, refreshToken string) (string, error) {
	claims, err := s.Verifier.Verify(refreshToken)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if err := claims.RequireType(jwtx.TokenTypeRefresh); err != nil {
		return "", fmt.Errorf("%w: %w", ErrWrongTokenType, err)
	}

	access, err := s.Signer.Sign(jwtx.NewClaims(
		jwtx.TokenTypeAccess, claims.Subject, s.Issuer, claims.Profile(), s.AccessTTL, s.now(),
	))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return access, nil
}
