package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/sdaportal/internal/credstore"
	"github.com/aussiebroadwan/sdaportal/internal/credstore/drivers/memory"
	"github.com/aussiebroadwan/sdaportal/internal/credstore/drivers/redis"
	"github.com/aussiebroadwan/sdaportal/internal/credstore/drivers/sqlite"
)

// OpenVault builds the two-scope credential vault. The persistent scope uses
// the configured driver; the ephemeral scope always lives in process memory.
func OpenVault(ctx context.Context, cfg Config, logger *slog.Logger) (*credstore.Vault, error) {
	persistent, err := openPersistent(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &credstore.Vault{
		Persistent: persistent,
		Ephemeral:  memory.New(),
	}, nil
}

func openPersistent(ctx context.Context, cfg Config, logger *slog.Logger) (credstore.Store, error) {
	switch cfg.PersistentDriver {
	case "sqlite", "":
		st, err := sqlite.NewStore(sqlite.DSN(cfg.DatabaseFile))
		if err != nil {
			return nil, fmt.Errorf("failed to open credential database: %w", err)
		}
		if err := st.ApplyMigrations(); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("failed to apply credential migrations: %w", err)
		}
		logger.Info("persistent scope ready", "driver", "sqlite", "file", cfg.DatabaseFile)
		return st, nil

	case "redis":
		client, err := redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		logger.Info("persistent scope ready", "driver", "redis", "ttl", cfg.PersistentTTL)
		return redis.New(client, cfg.PersistentTTL), nil

	default:
		return nil, fmt.Errorf("unknown persistent driver %q", cfg.PersistentDriver)
	}
}

// IdleTTLs maps each scope to how long an untouched session survives.
func IdleTTLs(cfg Config) map[credstore.Scope]time.Duration {
	return map[credstore.Scope]time.Duration{
		credstore.ScopePersistent: cfg.PersistentTTL,
		credstore.ScopeEphemeral:  cfg.EphemeralIdle,
	}
}
