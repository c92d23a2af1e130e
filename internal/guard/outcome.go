package guard

import "github.com/aussiebroadwan/sdaportal/internal/credstore"

// Outcome is the terminal state of one guard check.
type Outcome uint8

const (
	// Pending is the state before a check resolves, and the state a check
	// resolves to when its caller went away. Nothing may be rendered for it.
	Pending Outcome = iota
	Authorized
	Unauthenticated
	Forbidden
)

func (o Outcome) String() string {
	switch o {
	case Authorized:
		return "authorized"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	default:
		return "pending"
	}
}

// Cause records why a check ended the way it did. It is for logs and
// metrics only; views see the Outcome and nothing else.
type Cause uint8

const (
	CauseNone Cause = iota
	CauseMissingCredential
	CauseMalformedCredential
	CauseNoRefreshToken
	CauseRefreshFailed
	CauseProfileUnavailable
	CauseRoleMismatch
	CauseCancelled
)

func (c Cause) String() string {
	switch c {
	case CauseMissingCredential:
		return "missing_credential"
	case CauseMalformedCredential:
		return "malformed_credential"
	case CauseNoRefreshToken:
		return "no_refresh_token"
	case CauseRefreshFailed:
		return "refresh_failed"
	case CauseProfileUnavailable:
		return "profile_unavailable"
	case CauseRoleMismatch:
		return "role_mismatch"
	case CauseCancelled:
		return "cancelled"
	default:
		return "none"
	}
}

// Decision is the result of a check.
type Decision struct {
	Outcome Outcome

	// Redirect is the login path for Unauthenticated and the home path for
	// Forbidden. Empty otherwise.
	Redirect string

	// Profile is the stored user profile when the check is Authorized and
	// the profile could be read.
	Profile *credstore.Profile

	// Refreshed is set when the access token was replaced during the check.
	Refreshed bool

	cause Cause
}

// Cause reports the internal reason behind the outcome.
func (d Decision) Cause() Cause { return d.cause }

func pending(c Cause) Decision { return Decision{Outcome: Pending, cause: c} }
