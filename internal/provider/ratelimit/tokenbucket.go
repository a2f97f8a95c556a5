package ratelimit

import (
	"context"
	"sync"
	"time"

	"stockfolio/internal/provider"
)

// TokenBucket admits rate calls per second on average, with bursts of up to
// capacity calls. It starts full.
type TokenBucket struct {
	rate     float64
	capacity float64

	mu       sync.Mutex
	tokens   float64
	refilled time.Time
}

func NewTokenBucket(tokensPerSecond float64, burst int) *TokenBucket {
	if tokensPerSecond <= 0 {
		tokensPerSecond = 1e-7
	}
	if burst <= 0 {
		burst = 1
	}
	return &TokenBucket{
		rate:     tokensPerSecond,
		capacity: float64(burst),
		tokens:   float64(burst),
		refilled: time.Now(),
	}
}

// take consumes a token if one is available and otherwise reports how long
// until the next one accrues.
func (tb *TokenBucket) take(now time.Time) time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if elapsed := now.Sub(tb.refilled).Seconds(); elapsed > 0 {
		tb.tokens = min(tb.capacity, tb.tokens+elapsed*tb.rate)
		tb.refilled = now
	}
	if tb.tokens >= 1 {
		tb.tokens--
		return 0
	}
	wait := time.Duration((1 - tb.tokens) / tb.rate * float64(time.Second))
	return max(wait, time.Millisecond)
}

// Wait blocks until a token is taken or ctx ends.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		wait := tb.take(time.Now())
		if wait == 0 {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// TokenBucketProvider gates Fetch on a TokenBucket. A caller that gives up
// while queued gets a provider error, which the quote cache treats like any
// other transient failure.
type TokenBucketProvider struct {
	P  provider.Provider
	TB *TokenBucket
}

func (t *TokenBucketProvider) Name() string { return t.P.Name() }

func (t *TokenBucketProvider) Fetch(ctx context.Context, symbol string) (provider.Quote, error) {
	if t.TB != nil {
		if err := t.TB.Wait(ctx); err != nil {
			return provider.Quote{}, &provider.Error{Provider: t.P.Name(), Symbol: symbol, Err: err}
		}
	}
	return t.P.Fetch(ctx, symbol)
}
