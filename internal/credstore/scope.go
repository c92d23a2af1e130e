package credstore

import "fmt"

// Scope selects which of the two stores holds a session.
type Scope uint8

const (
	// ScopeUnknown means the scope was not recorded; lookups probe the
	// persistent store first.
	ScopeUnknown Scope = iota
	ScopePersistent
	ScopeEphemeral
)

// ScopeFor maps the login form's "remember me" choice to a scope.
func ScopeFor(rememberMe bool) Scope {
	if rememberMe {
		return ScopePersistent
	}
	return ScopeEphemeral
}

func (s Scope) String() string {
	switch s {
	case ScopePersistent:
		return "persistent"
	case ScopeEphemeral:
		return "ephemeral"
	default:
		return "unknown"
	}
}

// prefix is the single-letter tag used in handles.
func (s Scope) prefix() string {
	switch s {
	case ScopePersistent:
		return "p"
	case ScopeEphemeral:
		return "e"
	default:
		return ""
	}
}

func scopeFromPrefix(p string) (Scope, error) {
	switch p {
	case "p":
		return ScopePersistent, nil
	case "e":
		return ScopeEphemeral, nil
	default:
		return ScopeUnknown, fmt.Errorf("credstore: unknown scope prefix %q", p)
	}
}
