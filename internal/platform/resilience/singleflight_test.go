package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGroupCollapsesConcurrentCalls(t *testing.T) {
	t.Parallel()

	g := NewGroup[string]()
	var calls atomic.Int32
	gate := make(chan struct{})

	loader := func(ctx context.Context) (string, error) {
		calls.Add(1)
		<-gate
		return "champion.json", nil
	}

	const waiters = 20
	var wg sync.WaitGroup
	results := make([]string, waiters)
	errs := make([]error, waiters)

	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = g.Do(context.Background(), "catalog", loader)
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected loader to run once, ran %d times", got)
	}
	for i := 0; i < waiters; i++ {
		if errs[i] != nil {
			t.Fatalf("waiter %d: %v", i, errs[i])
		}
		if results[i] != "champion.json" {
			t.Fatalf("waiter %d: got %q", i, results[i])
		}
	}
}

func TestGroupDistinctKeysRunIndependently(t *testing.T) {
	t.Parallel()

	g := NewGroup[int]()
	var calls atomic.Int32

	for _, key := range []string{"na1", "euw1"} {
		if _, err := g.Do(context.Background(), key, func(ctx context.Context) (int, error) {
			calls.Add(1)
			return 1, nil
		}); err != nil {
			t.Fatalf("key %s: %v", key, err)
		}
	}

	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 loader runs, got %d", got)
	}
}

func TestGroupPropagatesLoaderError(t *testing.T) {
	t.Parallel()

	g := NewGroup[string]()
	boom := errors.New("fetch failed")

	if _, err := g.Do(context.Background(), "k", func(ctx context.Context) (string, error) {
		return "", boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}

	// A failed flight is evicted, so the next call retries.
	val, err := g.Do(context.Background(), "k", func(ctx context.Context) (string, error) {
		return "ok", nil
	})
	if err != nil || val != "ok" {
		t.Fatalf("expected retry to succeed, got %q %v", val, err)
	}
}

func TestGroupLoaderRunsUnderLeaderContext(t *testing.T) {
	t.Parallel()

	g := NewGroup[string]()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := g.Do(ctx, "slow", func(ctx context.Context) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(5 * time.Second):
			return "late", nil
		}
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("loader outlived the leader deadline by %v", elapsed)
	}
}

func TestGroupWaiterHonorsContext(t *testing.T) {
	t.Parallel()

	g := NewGroup[string]()
	gate := make(chan struct{})
	started := make(chan struct{})

	go func() {
		_, _ = g.Do(context.Background(), "slow", func(ctx context.Context) (string, error) {
			close(started)
			<-gate
			return "late", nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Do(ctx, "slow", func(ctx context.Context) (string, error) {
		t.Fatal("waiter must not run the loader")
		return "", nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	close(gate)
}
