package credstore_test

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/sdaportal/internal/credstore"
	"github.com/aussiebroadwan/sdaportal/internal/credstore/drivers/memory"
	"github.com/aussiebroadwan/sdaportal/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newVault() (*credstore.Vault, *memory.Store, *memory.Store) {
	p, e := memory.New(), memory.New()
	return &credstore.Vault{Persistent: p, Ephemeral: e}, p, e
}

var adminLogin = credstore.Login{
	Access:  "access-1",
	Refresh: "refresh-1",
	User:    credstore.Profile{Username: "admin", Role: "Admin"},
}

func TestOpen_PinsScope(t *testing.T) {
	ctx := context.Background()
	vault, persistent, ephemeral := newVault()

	sess, err := vault.Open(ctx, credstore.ScopeEphemeral, adminLogin)
	require.NoError(t, err)
	require.Equal(t, credstore.ScopeEphemeral, sess.Handle().Scope)

	ns := sess.Handle().Namespace.String()
	_, err = persistent.Get(ctx, ns, credstore.KeyAccessToken)
	require.ErrorIs(t, err, credstore.ErrNotFound)

	for key, want := range map[string]string{
		credstore.KeyAccessToken:  "access-1",
		credstore.KeyRefreshToken: "refresh-1",
		credstore.KeyRole:         "Admin",
	} {
		got, err := ephemeral.Get(ctx, ns, key)
		require.NoError(t, err)
		require.Equal(t, want, got, key)
	}

	p, err := sess.Profile(ctx)
	require.NoError(t, err)
	require.Equal(t, "Admin", p.Role)
}

func TestSaveLogin_ClearsOtherScope(t *testing.T) {
	ctx := context.Background()
	vault, persistent, _ := newVault()

	h := credstore.Handle{Namespace: idx.New()}
	require.NoError(t, persistent.Set(ctx, h.Namespace.String(), credstore.KeyAccessToken, "stale"))

	sess := vault.Session(h)
	require.NoError(t, sess.SaveLogin(ctx, credstore.ScopeEphemeral, adminLogin))

	v, scope, err := sess.Lookup(ctx, credstore.KeyAccessToken)
	require.NoError(t, err)
	require.Equal(t, "access-1", v)
	require.Equal(t, credstore.ScopeEphemeral, scope)
}

func TestSaveLogin_ScopeMismatch(t *testing.T) {
	vault, _, _ := newVault()
	sess := vault.Session(credstore.NewHandle(credstore.ScopePersistent))

	err := sess.SaveLogin(context.Background(), credstore.ScopeEphemeral, adminLogin)
	require.ErrorIs(t, err, credstore.ErrScopeMismatch)

	err = sess.Put(context.Background(), credstore.ScopeEphemeral, credstore.KeyAccessToken, "x")
	require.ErrorIs(t, err, credstore.ErrScopeMismatch)
}

func TestLookup(t *testing.T) {
	ctx := context.Background()

	t.Run("empty scopes", func(t *testing.T) {
		vault, _, _ := newVault()
		_, _, err := vault.Session(credstore.Handle{Namespace: idx.New()}).Lookup(ctx, credstore.KeyAccessToken)
		require.ErrorIs(t, err, credstore.ErrNotFound)
	})

	t.Run("legacy handle probes persistent first", func(t *testing.T) {
		vault, persistent, ephemeral := newVault()
		ns := idx.New()
		require.NoError(t, persistent.Set(ctx, ns.String(), credstore.KeyAccessToken, "from-p"))
		require.NoError(t, ephemeral.Set(ctx, ns.String(), credstore.KeyAccessToken, "from-e"))

		v, scope, err := vault.Session(credstore.Handle{Namespace: ns}).Lookup(ctx, credstore.KeyAccessToken)
		require.NoError(t, err)
		require.Equal(t, "from-p", v)
		require.Equal(t, credstore.ScopePersistent, scope)
	})

	t.Run("legacy handle skips empty values", func(t *testing.T) {
		vault, persistent, ephemeral := newVault()
		ns := idx.New()
		require.NoError(t, persistent.Set(ctx, ns.String(), credstore.KeyAccessToken, ""))
		require.NoError(t, ephemeral.Set(ctx, ns.String(), credstore.KeyAccessToken, "from-e"))

		v, scope, err := vault.Session(credstore.Handle{Namespace: ns}).Lookup(ctx, credstore.KeyAccessToken)
		require.NoError(t, err)
		require.Equal(t, "from-e", v)
		require.Equal(t, credstore.ScopeEphemeral, scope)
	})

	t.Run("pinned handle never reads the other scope", func(t *testing.T) {
		vault, persistent, _ := newVault()
		h := credstore.NewHandle(credstore.ScopeEphemeral)
		require.NoError(t, persistent.Set(ctx, h.Namespace.String(), credstore.KeyAccessToken, "from-p"))

		_, _, err := vault.Session(h).Lookup(ctx, credstore.KeyAccessToken)
		require.ErrorIs(t, err, credstore.ErrNotFound)
	})
}

func TestSessionClear(t *testing.T) {
	ctx := context.Background()
	vault, persistent, ephemeral := newVault()

	sess, err := vault.Open(ctx, credstore.ScopePersistent, adminLogin)
	require.NoError(t, err)
	require.Equal(t, 1, persistent.Len())

	require.NoError(t, sess.Clear(ctx))
	require.Equal(t, 0, persistent.Len())
	require.Equal(t, 0, ephemeral.Len())

	_, err = sess.Profile(ctx)
	require.ErrorIs(t, err, credstore.ErrNotFound)
}

func TestVaultMissingScope(t *testing.T) {
	vault := &credstore.Vault{Ephemeral: memory.New()}

	require.ErrorIs(t, vault.Ping(context.Background()), credstore.ErrNoStore)

	_, err := vault.Open(context.Background(), credstore.ScopePersistent, adminLogin)
	require.ErrorIs(t, err, credstore.ErrNoStore)
}
