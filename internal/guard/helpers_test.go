package guard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/sdaportal/internal/credstore"
	"github.com/aussiebroadwan/sdaportal/internal/credstore/drivers/memory"
	"github.com/aussiebroadwan/sdaportal/pkg/slogx"
)

// tokenExpiring returns an HS256 token whose exp is now+d. The guard never
// checks signatures, so any key will do.
func tokenExpiring(t *testing.T, d time.Duration) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(d)),
	}).SignedString([]byte("test"))
	require.NoError(t, err)
	return tok
}

type fakeRefresher struct {
	calls   atomic.Int32
	mu      sync.Mutex
	seen    []string
	access  string
	err     error
	release chan struct{}
}

func (f *fakeRefresher) Refresh(ctx context.Context, rt string) (string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.seen = append(f.seen, rt)
	f.mu.Unlock()

	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.access, f.err
}

func (f *fakeRefresher) lastToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.seen) == 0 {
		return ""
	}
	return f.seen[len(f.seen)-1]
}

var errBackend = errors.New("backend said 401")

type fixture struct {
	guard      *Guard
	refresher  *fakeRefresher
	vault      *credstore.Vault
	persistent *memory.Store
	ephemeral  *memory.Store
	registry   *prometheus.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		refresher:  &fakeRefresher{},
		persistent: memory.New(),
		ephemeral:  memory.New(),
		registry:   prometheus.NewRegistry(),
	}
	f.vault = &credstore.Vault{Persistent: f.persistent, Ephemeral: f.ephemeral}
	f.guard = New(Config{
		Refresher: f.refresher,
		LoginPath: "/login",
		HomePath:  "/",
		Logger:    slogx.Discard(),
		Metrics:   NewMetrics(f.registry),
	})
	return f
}

// login stores a full login in scope and returns its session.
func (f *fixture) login(t *testing.T, scope credstore.Scope, access, refresh, role string) *credstore.Session {
	t.Helper()
	sess, err := f.vault.Open(context.Background(), scope, credstore.Login{
		Access:  access,
		Refresh: refresh,
		User:    credstore.Profile{Username: "someone", Role: role},
	})
	require.NoError(t, err)
	return sess
}

func (f *fixture) stored(t *testing.T, st *memory.Store, sess *credstore.Session, key string) string {
	t.Helper()
	v, err := st.Get(context.Background(), sess.Handle().Namespace.String(), key)
	require.NoError(t, err)
	return v
}
