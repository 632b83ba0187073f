package aidetect

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock safe for concurrent reads.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func mustCheck(t *testing.T, l RateLimiter, id string) RateDecision {
	t.Helper()
	d, err := l.Check(context.Background(), id)
	if err != nil {
		t.Fatalf("Check(%q) error: %v", id, err)
	}
	return d
}

func TestFixedWindowLimiter_DeniesAfterMax(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	l := NewFixedWindowLimiter(RateLimitOpts{Now: clock.Now})

	for i := 1; i <= DefaultRateLimitMax; i++ {
		d := mustCheck(t, l, "1.2.3.4")
		if !d.Allowed {
			t.Fatalf("request %d denied, want allowed", i)
		}
		if d.Used != i || d.Limit != DefaultRateLimitMax {
			t.Errorf("request %d: used=%d limit=%d", i, d.Used, d.Limit)
		}
	}

	d := mustCheck(t, l, "1.2.3.4")
	if d.Allowed {
		t.Fatal("request 21 allowed, want denied")
	}
	if d.RetryAfterSeconds != 60 {
		t.Errorf("RetryAfterSeconds = %d, want 60", d.RetryAfterSeconds)
	}

	clock.Advance(30 * time.Second)
	d = mustCheck(t, l, "1.2.3.4")
	if d.Allowed || d.RetryAfterSeconds != 30 {
		t.Errorf("after 30s: %+v, want denied with retry 30", d)
	}
}

func TestFixedWindowLimiter_WindowBoundary(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	l := NewFixedWindowLimiter(RateLimitOpts{Max: 2, Now: clock.Now})

	mustCheck(t, l, "id")
	mustCheck(t, l, "id")

	// Exactly one window later the old window still applies.
	clock.Advance(60 * time.Second)
	d := mustCheck(t, l, "id")
	if d.Allowed {
		t.Fatal("request at elapsed == window allowed, want denied")
	}
	if d.RetryAfterSeconds != 1 {
		t.Errorf("RetryAfterSeconds = %d, want 1", d.RetryAfterSeconds)
	}

	clock.Advance(time.Millisecond)
	d = mustCheck(t, l, "id")
	if !d.Allowed || d.Used != 1 {
		t.Errorf("after window: %+v, want fresh window with used=1", d)
	}
}

func TestFixedWindowLimiter_ResetAfterWindow(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	l := NewFixedWindowLimiter(RateLimitOpts{Now: clock.Now})

	for range DefaultRateLimitMax + 5 {
		mustCheck(t, l, "id")
	}
	clock.Advance(61 * time.Second)

	d := mustCheck(t, l, "id")
	if !d.Allowed || d.Used != 1 {
		t.Errorf("after 61s: %+v, want allowed with used=1", d)
	}
}

func TestFixedWindowLimiter_IndependentIdentifiers(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	l := NewFixedWindowLimiter(RateLimitOpts{Max: 1, Now: clock.Now})

	if d := mustCheck(t, l, "a"); !d.Allowed {
		t.Fatal("first request for a denied")
	}
	if d := mustCheck(t, l, "a"); d.Allowed {
		t.Fatal("second request for a allowed")
	}
	if d := mustCheck(t, l, "b"); !d.Allowed {
		t.Error("first request for b denied; identifiers must not share a bucket")
	}
}

func TestFixedWindowLimiter_ConcurrentAllowsExactlyMax(t *testing.T) {
	t.Parallel()

	l := NewFixedWindowLimiter(RateLimitOpts{Max: 20, Window: time.Hour})

	var (
		wg      sync.WaitGroup
		allowed atomic.Int64
	)
	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, _ := l.Check(context.Background(), "shared")
			if d.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := allowed.Load(); got != 20 {
		t.Errorf("allowed = %d, want exactly 20", got)
	}
}

func TestFixedWindowLimiter_EvictsOldestAtCapacity(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	l := NewFixedWindowLimiter(RateLimitOpts{Max: 1, MaxBuckets: 3, Window: time.Hour, Now: clock.Now})

	for i := range 3 {
		mustCheck(t, l, fmt.Sprintf("id-%d", i))
		clock.Advance(time.Second)
	}
	mustCheck(t, l, "id-3")

	if got := l.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}
	// id-0 was the least recently seen, so it was evicted and starts fresh.
	if d := mustCheck(t, l, "id-0"); !d.Allowed {
		t.Error("evicted identifier still limited")
	}
	// id-2 is still tracked and over its limit.
	if d := mustCheck(t, l, "id-2"); d.Allowed {
		t.Error("tracked identifier lost its count")
	}
}

func TestFixedWindowLimiter_SweepsStaleBuckets(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	l := NewFixedWindowLimiter(RateLimitOpts{Window: time.Minute, Now: clock.Now})

	for i := range 10 {
		mustCheck(t, l, fmt.Sprintf("stale-%d", i))
	}
	if got := l.Len(); got != 10 {
		t.Fatalf("Len() = %d, want 10", got)
	}

	clock.Advance(2 * time.Minute)
	mustCheck(t, l, "fresh")

	if got := l.Len(); got != 1 {
		t.Errorf("Len() after sweep = %d, want 1", got)
	}
}

func TestFixedWindowLimiter_FullStoreCheckCost(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	l := NewFixedWindowLimiter(RateLimitOpts{Window: time.Hour, Now: clock.Now})

	for i := range DefaultMaxBuckets {
		mustCheck(t, l, fmt.Sprintf("10.%d.%d.%d", i>>16, (i>>8)&0xff, i&0xff))
	}
	if got := l.Len(); got != DefaultMaxBuckets {
		t.Fatalf("Len() = %d, want %d", got, DefaultMaxBuckets)
	}

	const newIDs = 2000
	start := time.Now()
	for i := range newIDs {
		if d := mustCheck(t, l, fmt.Sprintf("spoofed-%d", i)); !d.Allowed {
			t.Fatalf("new identifier %d denied", i)
		}
	}
	elapsed := time.Since(start)

	if got := l.Len(); got != DefaultMaxBuckets {
		t.Errorf("Len() = %d, want store to stay at %d", got, DefaultMaxBuckets)
	}
	// Eviction is constant time, so this does not scale with the store size.
	if elapsed > 500*time.Millisecond {
		t.Errorf("%d new-id checks on a full store took %v", newIDs, elapsed)
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   time.Duration
		want int
	}{
		{in: 60 * time.Second, want: 60},
		{in: 29*time.Second + time.Millisecond, want: 30},
		{in: 0, want: 1},
		{in: -time.Second, want: 1},
	}
	for _, tc := range tests {
		if got := retryAfterSeconds(tc.in); got != tc.want {
			t.Errorf("retryAfterSeconds(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
