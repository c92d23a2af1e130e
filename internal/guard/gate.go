package guard

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/aussiebroadwan/sdaportal/internal/credstore"
)

var ErrUnmounted = errors.New("guard: gate unmounted")

// Gate ties guard checks to the lifetime of one protected view. A check runs
// on Mount and again whenever the allowed roles change. Each run carries a
// generation; a result whose generation is no longer current, or that lands
// after Unmount, is dropped.
type Gate struct {
	guard *Guard
	sess  *credstore.Session

	mu        sync.Mutex
	parent    context.Context
	roles     []string
	gen       uint64
	cancel    context.CancelFunc
	done      chan struct{}
	settled   bool
	decision  Decision
	mounted   bool
	unmounted bool
}

// NewGate returns an unmounted gate. Until Mount its decision is Pending.
func (g *Guard) NewGate(sess *credstore.Session, allowedRoles ...string) *Gate {
	return &Gate{
		guard:    g,
		sess:     sess,
		roles:    slices.Clone(allowedRoles),
		decision: pending(CauseNone),
	}
}

// Mount starts the first check. Checks run under ctx; cancelling it has the
// same effect as Unmount for in-flight checks.
func (gt *Gate) Mount(ctx context.Context) error {
	gt.mu.Lock()
	defer gt.mu.Unlock()

	if gt.unmounted {
		return ErrUnmounted
	}
	gt.parent = ctx
	gt.mounted = true
	gt.startLocked()
	return nil
}

// SetAllowedRoles changes the role requirement. If the set differs from the
// current one a new check replaces whatever is in flight.
func (gt *Gate) SetAllowedRoles(roles ...string) {
	gt.mu.Lock()
	defer gt.mu.Unlock()

	if sameSet(gt.roles, roles) {
		return
	}
	gt.roles = slices.Clone(roles)
	if gt.mounted && !gt.unmounted {
		gt.startLocked()
	}
}

// Decision returns the current decision without blocking.
func (gt *Gate) Decision() Decision {
	gt.mu.Lock()
	defer gt.mu.Unlock()
	return gt.decision
}

// Generation reports how many checks have been started.
func (gt *Gate) Generation() uint64 {
	gt.mu.Lock()
	defer gt.mu.Unlock()
	return gt.gen
}

// Wait blocks until the current generation settles, following any newer
// generation started while waiting.
func (gt *Gate) Wait(ctx context.Context) (Decision, error) {
	for {
		gt.mu.Lock()
		switch {
		case gt.unmounted:
			gt.mu.Unlock()
			return pending(CauseCancelled), ErrUnmounted
		case !gt.mounted:
			gt.mu.Unlock()
			return pending(CauseNone), errors.New("guard: gate not mounted")
		case gt.settled:
			d := gt.decision
			gt.mu.Unlock()
			return d, nil
		}
		done := gt.done
		gt.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return gt.Decision(), ctx.Err()
		}
	}
}

// Unmount cancels any in-flight check. The gate cannot be mounted again.
func (gt *Gate) Unmount() {
	gt.mu.Lock()
	defer gt.mu.Unlock()

	if gt.unmounted {
		return
	}
	gt.unmounted = true
	if gt.cancel != nil {
		gt.cancel()
	}
	gt.decision = pending(CauseCancelled)
}

func (gt *Gate) startLocked() {
	if gt.cancel != nil {
		gt.cancel()
	}

	gt.gen++
	gen := gt.gen
	ctx, cancel := context.WithCancel(gt.parent)
	done := make(chan struct{})
	roles := slices.Clone(gt.roles)

	gt.cancel = cancel
	gt.done = done
	gt.settled = false
	gt.decision = pending(CauseNone)

	go func() {
		defer close(done)
		defer cancel()

		d := gt.guard.Check(ctx, gt.sess, roles)

		gt.mu.Lock()
		defer gt.mu.Unlock()
		if gen != gt.gen || gt.unmounted {
			return
		}
		gt.decision = d
		gt.settled = true
	}()
}

func sameSet(a, b []string) bool {
	return slices.Equal(roleSet(a), roleSet(b))
}

func roleSet(roles []string) []string {
	return slices.Compact(slices.Sorted(slices.Values(roles)))
}
