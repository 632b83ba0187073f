package aidetect

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

const (
	// DefaultRateLimitMax is the number of requests allowed per window.
	DefaultRateLimitMax = 20
	// DefaultRateLimitWindow is the fixed window length.
	DefaultRateLimitWindow = 60 * time.Second
	// DefaultMaxBuckets bounds the number of identifiers tracked in memory.
	DefaultMaxBuckets = 100_000
)

// RateDecision is the outcome of one limiter check.
type RateDecision struct {
	Allowed           bool `json:"allowed"`
	Limit             int  `json:"limit"`
	Used              int  `json:"used"`
	RetryAfterSeconds int  `json:"retryAfterSeconds,omitempty"` // set when denied
}

// RateLimiter gates requests per identifier.
type RateLimiter interface {
	Check(ctx context.Context, identifier string) (RateDecision, error)
}

// RateLimitOpts configures a limiter. Zero values mean "use defaults".
type RateLimitOpts struct {
	Max        int
	Window     time.Duration
	MaxBuckets int              // memory limiter only
	Now        func() time.Time // clock override for tests
}

func (o *RateLimitOpts) defaults() {
	if o.Max <= 0 {
		o.Max = DefaultRateLimitMax
	}
	if o.Window <= 0 {
		o.Window = DefaultRateLimitWindow
	}
	if o.MaxBuckets <= 0 {
		o.MaxBuckets = DefaultMaxBuckets
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

type rateBucket struct {
	count       int
	windowStart time.Time
}

// FixedWindowLimiter is an in-memory fixed-window limiter. Each identifier
// owns one window that restarts on the first call after it has elapsed, so a
// burst straddling a window boundary can pass up to twice the ceiling.
//
// Buckets live in an LRU bounded by MaxBuckets: a new identifier on a full
// store evicts the least recently seen one, and stale buckets are trimmed
// from the cold end on every call.
type FixedWindowLimiter struct {
	opts RateLimitOpts

	mu      sync.Mutex
	buckets *simplelru.LRU[string, *rateBucket]
}

// NewFixedWindowLimiter returns an in-memory limiter.
func NewFixedWindowLimiter(opts RateLimitOpts) *FixedWindowLimiter {
	opts.defaults()
	// NewLRU only fails for a non-positive size, which defaults() rules out.
	buckets, _ := simplelru.NewLRU[string, *rateBucket](opts.MaxBuckets, nil)
	return &FixedWindowLimiter{opts: opts, buckets: buckets}
}

// Check counts one request for identifier. It never returns an error.
func (l *FixedWindowLimiter) Check(_ context.Context, identifier string) (RateDecision, error) {
	now := l.opts.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.trimStale(now)

	b, ok := l.buckets.Get(identifier)
	if !ok {
		b = &rateBucket{windowStart: now}
		l.buckets.Add(identifier, b)
	}

	elapsed := now.Sub(b.windowStart)
	if elapsed > l.opts.Window {
		b.count = 0
		b.windowStart = now
		elapsed = 0
	}

	b.count++

	d := RateDecision{Allowed: true, Limit: l.opts.Max, Used: b.count}
	if b.count > l.opts.Max {
		d.Allowed = false
		d.RetryAfterSeconds = retryAfterSeconds(l.opts.Window - elapsed)
	}
	return d, nil
}

// Len reports how many identifiers are currently tracked.
func (l *FixedWindowLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buckets.Len()
}

// trimStale drops least recently seen buckets while their window has
// elapsed. Each bucket is removed at most once, so the cost is amortized
// constant per call. Callers hold l.mu.
func (l *FixedWindowLimiter) trimStale(now time.Time) {
	for {
		_, b, ok := l.buckets.GetOldest()
		if !ok || now.Sub(b.windowStart) <= l.opts.Window {
			return
		}
		l.buckets.RemoveOldest()
	}
}

// retryAfterSeconds rounds remaining up to whole seconds, at least 1.
func retryAfterSeconds(remaining time.Duration) int {
	secs := int(math.Ceil(remaining.Seconds()))
	return max(secs, 1)
}
