//go:build integration

package redis_test

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/aussiebroadwan/sdaportal/internal/credstore"
	"github.com/aussiebroadwan/sdaportal/internal/credstore/drivers/redis"
)

func newRedis(t *testing.T) *goredis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := redis.Connect(ctx, url)
	require.NoError(t, err)
	return client
}

func TestRedisStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	client := newRedis(t)
	store := redis.New(client, time.Hour)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Ping(ctx))

	t.Run("missing key", func(t *testing.T) {
		_, err := store.Get(ctx, "nobody", credstore.KeyAccessToken)
		require.ErrorIs(t, err, credstore.ErrNotFound)
	})

	t.Run("set many then read back", func(t *testing.T) {
		require.NoError(t, store.SetMany(ctx, "ns1", map[string]string{
			credstore.KeyAccessToken:  "a",
			credstore.KeyRefreshToken: "r",
		}))

		v, err := store.Get(ctx, "ns1", credstore.KeyRefreshToken)
		require.NoError(t, err)
		require.Equal(t, "r", v)

		ttl, err := client.TTL(ctx, redis.DefaultKeyPrefix+"ns1").Result()
		require.NoError(t, err)
		require.Greater(t, ttl, 59*time.Minute)
	})

	t.Run("remove and clear", func(t *testing.T) {
		require.NoError(t, store.Remove(ctx, "ns1", credstore.KeyAccessToken))
		_, err := store.Get(ctx, "ns1", credstore.KeyAccessToken)
		require.ErrorIs(t, err, credstore.ErrNotFound)

		require.NoError(t, store.Clear(ctx, "ns1"))
		_, err = store.Get(ctx, "ns1", credstore.KeyRefreshToken)
		require.ErrorIs(t, err, credstore.ErrNotFound)
	})

	t.Run("refresh keeps the persistent scope", func(t *testing.T) {
		vault := &credstore.Vault{Persistent: store}
		sess, err := vault.Open(ctx, credstore.ScopePersistent, credstore.Login{
			Access: "old", Refresh: "rt", User: credstore.Profile{Role: "Admin"},
		})
		require.NoError(t, err)

		require.NoError(t, sess.Put(ctx, credstore.ScopePersistent, credstore.KeyAccessToken, "new"))
		v, scope, err := sess.Lookup(ctx, credstore.KeyAccessToken)
		require.NoError(t, err)
		require.Equal(t, "new", v)
		require.Equal(t, credstore.ScopePersistent, scope)
	})
}
