package ratelimit

import (
	"context"
	"sync"
	"time"

	"stockfolio/internal/provider"
)

// MinInterval spaces upstream calls at least Interval apart. Each caller
// reserves the next free slot under the lock before sleeping, so concurrent
// callers queue one Interval after another instead of waking together.
// A caller whose context ends before its slot gets a provider error; its slot
// is not handed back.
type MinInterval struct {
	P        provider.Provider
	Interval time.Duration

	mu   sync.Mutex
	next time.Time // earliest start of the next call
}

func (m *MinInterval) Name() string { return m.P.Name() }

func (m *MinInterval) reserve(now time.Time) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	slot := m.next
	if slot.Before(now) {
		slot = now
	}
	m.next = slot.Add(m.Interval)
	return slot
}

func (m *MinInterval) Fetch(ctx context.Context, symbol string) (provider.Quote, error) {
	if m.Interval <= 0 {
		return m.P.Fetch(ctx, symbol)
	}
	if wait := time.Until(m.reserve(time.Now())); wait > 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return provider.Quote{}, &provider.Error{Provider: m.P.Name(), Symbol: symbol, Err: ctx.Err()}
		case <-t.C:
		}
	}
	return m.P.Fetch(ctx, symbol)
}

// Wrap applies the limiter the config asks for: a token bucket when a per-minute
// budget is set, otherwise a minimum interval, otherwise nothing.
func Wrap(p provider.Provider, maxPerMinute, burst int, minInterval time.Duration) provider.Provider {
	if maxPerMinute > 0 {
		if burst <= 0 {
			burst = 1
		}
		return &TokenBucketProvider{P: p, TB: NewTokenBucket(float64(maxPerMinute)/60.0, burst)}
	}
	if minInterval > 0 {
		return &MinInterval{P: p, Interval: minInterval}
	}
	return p
}
