package credstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/sdaportal/pkg/idx"
)

var ErrInvalidHandle = errors.New("credstore: invalid session handle")

// Handle identifies a session from the browser's side. It is the only
// thing the session cookie carries: "<p|e>.<ULID>". Handles minted before
// scopes were pinned are a bare ULID and resolve with ScopeUnknown.
type Handle struct {
	Scope     Scope
	Namespace idx.ID
}

// NewHandle mints a fresh namespace pinned to scope.
func NewHandle(scope Scope) Handle {
	return Handle{Scope: scope, Namespace: idx.New()}
}

// ParseHandle reverses Handle.String.
func ParseHandle(s string) (Handle, error) {
	s = strings.TrimSpace(s)

	prefix, rest, found := strings.Cut(s, ".")
	if !found {
		id, err := idx.Parse(s)
		if err != nil {
			return Handle{}, fmt.Errorf("%w: %w", ErrInvalidHandle, err)
		}
		return Handle{Scope: ScopeUnknown, Namespace: id}, nil
	}

	scope, err := scopeFromPrefix(prefix)
	if err != nil {
		return Handle{}, fmt.Errorf("%w: %w", ErrInvalidHandle, err)
	}
	id, err := idx.Parse(rest)
	if err != nil {
		return Handle{}, fmt.Errorf("%w: %w", ErrInvalidHandle, err)
	}
	return Handle{Scope: scope, Namespace: id}, nil
}

func (h Handle) String() string {
	if h.Scope == ScopeUnknown {
		return h.Namespace.String()
	}
	return h.Scope.prefix() + "." + h.Namespace.String()
}

// IsZero reports whether h has no namespace.
func (h Handle) IsZero() bool { return h.Namespace.IsZero() }
