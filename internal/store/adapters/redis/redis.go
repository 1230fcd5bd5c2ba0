// Package redis guarda artefactos en Redis (un STRING por clave).
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/hellocert/internal/store"
)

const defaultPrefix = "hellocert:artifact:"

func init() {
	store.RegisterAdapter(&redisAdapter{})
}

type redisAdapter struct{}

func (a *redisAdapter) Name() string { return "redis" }

func (a *redisAdapter) Open(_ context.Context, cfg store.AdapterConfig) (store.ArtifactStore, error) {
	if cfg.RedisAddr == "" {
		return nil, errors.New("redis: addr is required")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return New(rdb, cfg.Prefix), nil
}

type Store struct {
	rdb    *goredis.Client
	prefix string
}

func New(rdb *goredis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{rdb: rdb, prefix: prefix}
}

func (s *Store) Name() string { return "redis" }

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get %s: %w", key, err)
	}
	return b, nil
}

// Put usa SET: el reemplazo es atómico en Redis.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.prefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis: del %s: %w", key, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return s.rdb.Ping(ctx).Err() }

func (s *Store) Close() error { return s.rdb.Close() }
