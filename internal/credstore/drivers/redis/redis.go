// Package redis is the alternate persistent credential store. Each session
// namespace is one Redis hash whose TTL is pushed out on every write, so
// abandoned sessions expire without a sweeper.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/sdaportal/internal/credstore"
)

const DefaultKeyPrefix = "sdaportal:cred:"

type Store struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

var _ credstore.Store = (*Store)(nil)

// Connect parses a redis:// URL, opens a client and pings it.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// New wraps client. A non-positive ttl keeps namespaces forever.
func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl, prefix: DefaultKeyPrefix}
}

func (s *Store) key(ns string) string { return s.prefix + ns }

func (s *Store) Get(ctx context.Context, ns, key string) (string, error) {
	v, err := s.client.HGet(ctx, s.key(ns), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", credstore.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, ns, key, value string) error {
	return s.SetMany(ctx, ns, map[string]string{key: value})
}

func (s *Store) SetMany(ctx context.Context, ns string, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	k := s.key(ns)
	pairs := make([]any, 0, len(values)*2)
	for field, v := range values {
		pairs = append(pairs, field, v)
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, pairs...)
		if s.ttl > 0 {
			pipe.Expire(ctx, k, s.ttl)
		}
		return nil
	})
	return err
}

func (s *Store) Remove(ctx context.Context, ns, key string) error {
	return s.client.HDel(ctx, s.key(ns), key).Err()
}

func (s *Store) Clear(ctx context.Context, ns string) error {
	return s.client.Del(ctx, s.key(ns)).Err()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
