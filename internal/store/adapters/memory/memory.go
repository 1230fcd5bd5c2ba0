// Package memory guarda artefactos en memoria con go-cache (sin expiración).
package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/hellocert/internal/store"
)

func init() {
	store.RegisterAdapter(&memAdapter{})
}

type memAdapter struct{}

func (a *memAdapter) Name() string { return "memory" }

func (a *memAdapter) Open(context.Context, store.AdapterConfig) (store.ArtifactStore, error) {
	return New(), nil
}

type Store struct{ c *gocache.Cache }

func New() *Store {
	return &Store{c: gocache.New(gocache.NoExpiration, 10*time.Minute)}
}

func (s *Store) Name() string { return "memory" }

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, store.ErrNotFound
	}
	b, _ := v.([]byte)
	return append([]byte(nil), b...), nil
}

// Put guarda una copia; el swap del puntero es atómico bajo el lock de go-cache.
func (s *Store) Put(_ context.Context, key string, data []byte) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}
	s.c.Set(key, append([]byte(nil), data...), gocache.NoExpiration)
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.c.Delete(key)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }
