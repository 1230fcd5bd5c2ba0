package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()
	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := km.Lock(context.Background(), "k")
			if !assert.NoError(t, err) {
				return
			}
			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside.Load())
	assert.Equal(t, 0, km.Len())
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := NewKeyedMutex()
	ua, err := km.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer ua()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ub, err := km.Lock(ctx, "b")
	require.NoError(t, err)
	ub()
}

func TestKeyedMutexContextCancel(t *testing.T) {
	km := NewKeyedMutex()
	unlock, err := km.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = km.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock() // idempotente
	assert.Equal(t, 0, km.Len())
}
