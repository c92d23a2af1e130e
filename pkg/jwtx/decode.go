package jwtx

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Decode parses the claims of a token WITHOUT checking its signature. The
// portal holds no verification key; anything read this way is a hint for
// routing only and the backend must re-verify the token on every call.
func Decode(token string) (Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return claims, nil
}

// DecodeExpiry returns the "exp" claim of an unverified token. A token with
// no expiry is reported as malformed rather than treated as eternal.
func DecodeExpiry(token string) (time.Time, error) {
	claims, err := Decode(token)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("%w: missing exp claim", ErrMalformed)
	}
	return claims.ExpiresAt.Time, nil
}
