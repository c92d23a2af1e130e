package credstore

import (
	"context"
	"log/slog"
	"time"
)

// Housekeeper periodically sweeps idle namespaces out of the scopes whose
// drivers cannot expire them on their own.
type Housekeeper struct {
	Vault    *Vault
	Logger   *slog.Logger
	Interval time.Duration

	// Idle is how long a namespace may go unwritten in each scope before it
	// is swept. A scope with no entry is never swept.
	Idle map[Scope]time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeeper returns a Housekeeper. A non-positive interval defaults to
// 15 minutes.
func NewHousekeeper(v *Vault, logger *slog.Logger, interval time.Duration, idle map[Scope]time.Duration) *Housekeeper {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Housekeeper{
		Vault:    v,
		Logger:   logger,
		Interval: interval,
		Idle:     idle,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the sweep loop in the background until Stop is called.
func (h *Housekeeper) Start() {
	go h.run()
	h.Logger.Info("credential housekeeping started", "interval", h.Interval)
}

// Stop blocks until an in-progress sweep finishes.
func (h *Housekeeper) Stop() {
	close(h.stopCh)
	<-h.doneCh
	h.Logger.Info("credential housekeeping stopped")
}

func (h *Housekeeper) run() {
	defer close(h.doneCh)

	ticker := time.NewTicker(h.Interval)
	defer ticker.Stop()

	h.SweepOnce(context.Background())

	for {
		select {
		case <-ticker.C:
			h.SweepOnce(context.Background())
		case <-h.stopCh:
			return
		}
	}
}

// SweepOnce runs a single pass over both scopes and returns the number of
// namespaces removed. A failure in one scope does not stop the other.
func (h *Housekeeper) SweepOnce(ctx context.Context) int {
	total := 0
	for _, scope := range []Scope{ScopePersistent, ScopeEphemeral} {
		idle, ok := h.Idle[scope]
		if !ok || idle <= 0 {
			continue
		}
		st, err := h.Vault.Store(scope)
		if err != nil {
			continue
		}
		sw, ok := st.(Sweeper)
		if !ok {
			h.Logger.Debug("scope expires on its own, skipping sweep", "scope", scope)
			continue
		}

		n, err := sw.Sweep(ctx, idle)
		if err != nil {
			h.Logger.Error("failed to sweep idle sessions", "scope", scope, "error", err)
			continue
		}
		h.Logger.Debug("swept idle sessions", "scope", scope, "removed", n)
		total += n
	}
	return total
}
