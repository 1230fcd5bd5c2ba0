// Package storetest contiene la batería común de tests para ArtifactStore.
package storetest

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellocert/internal/store"
)

// Run ejecuta los casos comunes contra s.
func Run(t *testing.T, s store.ArtifactStore) {
	t.Helper()
	ctx := context.Background()
	const key = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

	t.Run("missing", func(t *testing.T) {
		_, err := s.Get(ctx, "nope")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("put_get_overwrite", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, key, []byte("first")))
		got, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "first", string(got))

		require.NoError(t, s.Put(ctx, key, []byte("second")))
		got, err = s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "second", string(got))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, key, []byte("x")))
		require.NoError(t, s.Delete(ctx, key))
		_, err := s.Get(ctx, key)
		assert.ErrorIs(t, err, store.ErrNotFound)
		require.NoError(t, s.Delete(ctx, key))
	})

	t.Run("invalid_key", func(t *testing.T) {
		assert.ErrorIs(t, s.Put(ctx, "../escape", []byte("x")), store.ErrInvalidKey)
	})

	t.Run("no_partial_reads", func(t *testing.T) {
		a := bytes.Repeat([]byte{'a'}, 64<<10)
		b := bytes.Repeat([]byte{'b'}, 64<<10)
		require.NoError(t, s.Put(ctx, key, a))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				v := a
				if i%2 == 0 {
					v = b
				}
				assert.NoError(t, s.Put(ctx, key, v))
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 40; i++ {
				got, err := s.Get(ctx, key)
				if !assert.NoError(t, err) {
					return
				}
				assert.True(t, bytes.Equal(got, a) || bytes.Equal(got, b), "partial artifact observed")
			}
		}()
		wg.Wait()
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, s.Ping(ctx))
	})
}
