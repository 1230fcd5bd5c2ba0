// Package rate limita emisiones por clave de solicitante (ventana fija).
package rate

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	rdb "github.com/redis/go-redis/v9"
)

type Result struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
	Hits       int64
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

func result(hits, max int64, left time.Duration) Result {
	res := Result{Allowed: hits <= max, Hits: hits, Remaining: max - hits}
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	if !res.Allowed {
		res.RetryAfter = left
	}
	return res
}

// RedisLimiter: fixed window (INCR + EXPIRE)
type RedisLimiter struct {
	client *rdb.Client
	prefix string
	max    int64
	window time.Duration
}

func NewRedisLimiter(client *rdb.Client, prefix string, max int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "hellocert:rl:"
	}
	return &RedisLimiter{client: client, prefix: prefix, max: int64(max), window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	winStart := time.Now().UTC().Truncate(l.window)
	redisKey := fmt.Sprintf("%s%s:%d", l.prefix, key, winStart.Unix())

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, err
	}
	// expiry en el primer hit
	if incr.Val() == 1 {
		_ = l.client.Expire(ctx, redisKey, l.window).Err()
	}
	return result(incr.Val(), l.max, time.Until(winStart.Add(l.window))), nil
}

// MemoryLimiter: misma ventana fija, en proceso, con go-cache.
type MemoryLimiter struct {
	mu     sync.Mutex
	c      *gocache.Cache
	max    int64
	window time.Duration
	now    func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		c:      gocache.New(window, 2*window),
		max:    int64(max),
		window: window,
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	winStart := l.now().UTC().Truncate(l.window)
	k := fmt.Sprintf("%s:%d", key, winStart.Unix())

	l.mu.Lock()
	defer l.mu.Unlock()
	// Add falla si la ventana ya tiene contador
	_ = l.c.Add(k, int64(0), l.window)
	hits, err := l.c.IncrementInt64(k, 1)
	if err != nil {
		return Result{}, err
	}
	return result(hits, l.max, winStart.Add(l.window).Sub(l.now())), nil
}
