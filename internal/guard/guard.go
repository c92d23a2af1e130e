// Package guard decides whether a portal session may see a protected view.
//
// A check reads the access token, decodes its expiry without verifying the
// signature, refreshes it through the auth backend when it has expired, and
// finally matches the stored profile role against the view's allow-list.
// Every failure collapses to Unauthenticated (send to login) or Forbidden
// (send home). The guard is a routing optimisation; the auth backend must
// still verify the token on every privileged call.
package guard

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/aussiebroadwan/sdaportal/internal/credstore"
	"github.com/aussiebroadwan/sdaportal/pkg/cryptox"
	"github.com/aussiebroadwan/sdaportal/pkg/jwtx"
	"github.com/aussiebroadwan/sdaportal/pkg/slogx"
)

// Refresher exchanges a refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// RefresherFunc adapts a function to Refresher.
type RefresherFunc func(ctx context.Context, refreshToken string) (string, error)

func (f RefresherFunc) Refresh(ctx context.Context, rt string) (string, error) { return f(ctx, rt) }

type Config struct {
	Refresher Refresher
	LoginPath string
	HomePath  string

	// RefreshTimeout bounds one call to the refresh endpoint. Zero means
	// 10 seconds.
	RefreshTimeout time.Duration

	Logger  *slog.Logger
	Metrics *Metrics
	Now     func() time.Time
}

type Guard struct {
	refresher      Refresher
	loginPath      string
	homePath       string
	refreshTimeout time.Duration

	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time

	flight singleflight.Group
}

// New builds a Guard. LoginPath and HomePath default to "/login" and "/".
func New(cfg Config) *Guard {
	g := &Guard{
		refresher:      cfg.Refresher,
		loginPath:      cfg.LoginPath,
		homePath:       cfg.HomePath,
		refreshTimeout: cfg.RefreshTimeout,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
		now:            cfg.Now,
	}
	if g.loginPath == "" {
		g.loginPath = "/login"
	}
	if g.homePath == "" {
		g.homePath = "/"
	}
	if g.refreshTimeout <= 0 {
		g.refreshTimeout = 10 * time.Second
	}
	if g.metrics == nil {
		g.metrics = NewMetrics(nil)
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

func (g *Guard) LoginPath() string { return g.loginPath }
func (g *Guard) HomePath() string  { return g.homePath }

// Check runs one guard evaluation for sess against allowedRoles. An empty
// allowedRoles admits any authenticated caller. If ctx is cancelled before
// the check resolves the result is discarded and Pending is returned.
func (g *Guard) Check(ctx context.Context, sess *credstore.Session, allowedRoles []string) Decision {
	d := g.check(ctx, sess, allowedRoles)
	if ctx.Err() != nil {
		d = pending(CauseCancelled)
	}

	g.metrics.observeDecision(d)
	g.log(ctx, sess, d)
	return d
}

func (g *Guard) check(ctx context.Context, sess *credstore.Session, allowedRoles []string) Decision {
	if sess == nil {
		return g.unauthenticated(CauseMissingCredential)
	}

	access, scope, err := sess.Lookup(ctx, credstore.KeyAccessToken)
	if err != nil {
		if !errors.Is(err, credstore.ErrNotFound) {
			slogx.FromContextOr(ctx, g.logger).Warn("credential lookup failed",
				"session", sess.Handle().Namespace, "error", err)
		}
		return g.unauthenticated(CauseMissingCredential)
	}

	exp, err := jwtx.DecodeExpiry(access)
	if err != nil {
		return g.unauthenticated(CauseMalformedCredential)
	}

	refreshed := false
	if g.now().After(exp) {
		if err := g.refresh(ctx, sess, scope, access); err != nil {
			if errors.Is(err, ErrNoRefreshToken) {
				return g.unauthenticated(CauseNoRefreshToken)
			}
			if ctx.Err() != nil {
				return pending(CauseCancelled)
			}
			slogx.FromContextOr(ctx, g.logger).Info("access token refresh failed",
				"session", sess.Handle().Namespace, "scope", scope, "error", err)
			return g.unauthenticated(CauseRefreshFailed)
		}
		refreshed = true
	}

	if ctx.Err() != nil {
		return pending(CauseCancelled)
	}

	d := g.authorize(ctx, sess, allowedRoles)
	d.Refreshed = refreshed
	return d
}

// authorize is only reached once the caller is authenticated.
func (g *Guard) authorize(ctx context.Context, sess *credstore.Session, allowedRoles []string) Decision {
	profile, err := sess.Profile(ctx)
	if len(allowedRoles) == 0 {
		d := Decision{Outcome: Authorized}
		if err == nil {
			d.Profile = &profile
		}
		return d
	}

	if err != nil {
		return g.forbidden(CauseProfileUnavailable)
	}
	if !slices.Contains(allowedRoles, profile.Role) {
		return g.forbidden(CauseRoleMismatch)
	}
	return Decision{Outcome: Authorized, Profile: &profile}
}

func (g *Guard) unauthenticated(c Cause) Decision {
	return Decision{Outcome: Unauthenticated, Redirect: g.loginPath, cause: c}
}

func (g *Guard) forbidden(c Cause) Decision {
	return Decision{Outcome: Forbidden, Redirect: g.homePath, cause: c}
}

func (g *Guard) log(ctx context.Context, sess *credstore.Session, d Decision) {
	logger := slogx.FromContextOr(ctx, g.logger)
	if d.Outcome == Authorized && !d.Refreshed {
		return
	}

	attrs := []any{"outcome", d.Outcome.String(), "cause", d.cause.String()}
	if sess != nil {
		attrs = append(attrs, "session", sess.Handle().Namespace)
	}
	logger.Debug("session guard decision", attrs...)
}

// fingerprint is what the guard logs in place of a token.
func fingerprint(token string) string { return cryptox.FingerprintToken(token) }
