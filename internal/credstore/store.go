// Package credstore keeps the Credential Pair and User Profile of a portal
// session on the server side, split across a persistent and an ephemeral
// scope exactly as the browser splits localStorage and sessionStorage.
package credstore

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("credstore: not found")

// Well-known keys written at login.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
	KeyRole         = "role"
)

// Store is one scope's backend. Values are grouped by namespace, one
// namespace per browser session. Get returns ErrNotFound for a missing key.
type Store interface {
	Get(ctx context.Context, namespace, key string) (string, error)
	Set(ctx context.Context, namespace, key, value string) error

	// SetMany writes all pairs at once; drivers apply them atomically where
	// the backend allows it.
	SetMany(ctx context.Context, namespace string, values map[string]string) error
	Remove(ctx context.Context, namespace, key string) error

	// Clear drops every key in the namespace. Clearing an unknown namespace
	// is not an error.
	Clear(ctx context.Context, namespace string) error

	Ping(ctx context.Context) error
	Close() error
}

// Sweeper is implemented by drivers that cannot expire namespaces on their
// own. Sweep removes namespaces not written for longer than idle and
// reports how many were removed.
type Sweeper interface {
	Sweep(ctx context.Context, idle time.Duration) (int, error)
}
