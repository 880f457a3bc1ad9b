package resilience

import (
	"context"
	"sync"
)

type flightResult[V any] struct {
	val V
	err error
}

type flight[V any] struct {
	done chan struct{}
	res  flightResult[V]
}

// Group collapses concurrent calls with the same key into a single
// execution of the loader. All waiters receive the same result.
type Group[V any] struct {
	mu      sync.Mutex
	flights map[string]*flight[V]
}

func NewGroup[V any]() *Group[V] {
	return &Group[V]{flights: make(map[string]*flight[V])}
}

// Do returns the loader's result for key, running it at most once per
// in-flight key. The loader runs under the leading caller's context,
// so its deadline bounds the flight; a waiter whose own context ends
// first gets that context error while the flight finishes for the
// others.
func (g *Group[V]) Do(ctx context.Context, key string, loader func(context.Context) (V, error)) (V, error) {
	g.mu.Lock()
	if f, ok := g.flights[key]; ok {
		g.mu.Unlock()
		select {
		case <-f.done:
			return f.res.val, f.res.err
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
	}

	f := &flight[V]{done: make(chan struct{})}
	g.flights[key] = f
	g.mu.Unlock()

	f.res.val, f.res.err = loader(ctx)
	close(f.done)

	g.mu.Lock()
	delete(g.flights, key)
	g.mu.Unlock()

	return f.res.val, f.res.err
}
