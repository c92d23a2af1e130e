package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/sdaportal/internal/credstore"
	"github.com/aussiebroadwan/sdaportal/pkg/slogx"
)

var (
	ErrNoRefreshToken = errors.New("guard: no refresh token in scope")
	ErrNoRefresher    = errors.New("guard: no refresher configured")
	ErrEmptyAccess    = errors.New("guard: refresh returned an empty access token")
)

// refresh swaps an expired access token for a new one. The refresh token is
// read from scope, the scope that held the access token, and the new access
// token is written back to that same scope. There is no retry.
//
// Concurrent refreshes of the same session share one backend call. The
// shared call runs detached from any single caller's context so one caller
// going away does not fail the others. A caller that read expired after an
// earlier call already replaced it finds the new token in scope and skips
// the backend.
func (g *Guard) refresh(ctx context.Context, sess *credstore.Session, scope credstore.Scope, expired string) error {
	key := sess.Handle().Namespace.String() + "/" + fingerprint(expired)

	ch := g.flight.DoChan(key, func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.refreshTimeout)
		defer cancel()
		return nil, g.doRefresh(rctx, sess, scope, expired)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Guard) doRefresh(ctx context.Context, sess *credstore.Session, scope credstore.Scope, expired string) error {
	current, err := sess.Get(ctx, scope, credstore.KeyAccessToken)
	if err != nil && !errors.Is(err, credstore.ErrNotFound) {
		g.metrics.observeRefresh(refreshStoreError)
		return fmt.Errorf("re-read access token: %w", err)
	}
	if current != "" && current != expired {
		g.metrics.observeRefresh(refreshSuperseded)
		return nil
	}

	rt, err := sess.Get(ctx, scope, credstore.KeyRefreshToken)
	if errors.Is(err, credstore.ErrNotFound) {
		g.metrics.observeRefresh(refreshNoToken)
		return ErrNoRefreshToken
	}
	if err != nil {
		g.metrics.observeRefresh(refreshStoreError)
		return fmt.Errorf("read refresh token: %w", err)
	}

	if g.refresher == nil {
		g.metrics.observeRefresh(refreshRejected)
		return ErrNoRefresher
	}

	start := time.Now()
	access, err := g.refresher.Refresh(ctx, rt)
	g.metrics.refreshLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		g.metrics.observeRefresh(refreshRejected)
		return fmt.Errorf("refresh: %w", err)
	}
	if access == "" {
		g.metrics.observeRefresh(refreshRejected)
		return ErrEmptyAccess
	}

	if err := sess.Put(ctx, scope, credstore.KeyAccessToken, access); err != nil {
		g.metrics.observeRefresh(refreshStoreError)
		return fmt.Errorf("store refreshed access token: %w", err)
	}

	g.metrics.observeRefresh(refreshOK)
	slogx.FromContextOr(ctx, g.logger).Debug("access token refreshed",
		"session", sess.Handle().Namespace,
		"scope", scope,
		"token", fingerprint(access),
	)
	return nil
}
