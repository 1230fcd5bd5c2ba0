package certificate

import (
	"context"
	"time"
)

// bounded corre fn con un plazo. Si el plazo vence, retorna ctx.Err() y el
// resultado de fn se descarta cuando termine.
func bounded[T any](ctx context.Context, d time.Duration, fn func() (T, error)) (T, error) {
	if d <= 0 {
		return fn()
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()
	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
