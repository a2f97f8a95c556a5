package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"stockfolio/internal/provider"
)

// DefaultMaxAge is how long a fetched quote is served without asking upstream.
const DefaultMaxAge = 5 * time.Minute

// entry stores the last successful quote for a single symbol.
type entry struct {
	quote provider.Quote
}

// Cache returns quotes at most MaxAge old, falling back to the last good
// quote when the upstream fails. Failed fetches are never cached.
//
// Refreshes are not serialized: two callers that find the same entry expired
// may both hit the provider. The later write wins.
type Cache struct {
	P        provider.Provider
	MaxAge   time.Duration
	MaxItems int
	Log      zerolog.Logger
	// Now defaults to time.Now.
	Now func() time.Time

	mu    sync.RWMutex
	items map[string]entry // key: normalized symbol
}

// New builds a cache in front of p.
func New(p provider.Provider, maxAge time.Duration, maxItems int, log zerolog.Logger) *Cache {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Cache{
		P:        p,
		MaxAge:   maxAge,
		MaxItems: maxItems,
		Log:      log.With().Str("component", "quote_cache").Logger(),
		items:    make(map[string]entry),
	}
}

func (c *Cache) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Cache) maxAge() time.Duration {
	if c.MaxAge <= 0 {
		return DefaultMaxAge
	}
	return c.MaxAge
}

// Get returns a quote for symbol.
//
// A fresh entry is returned unchanged. Otherwise the provider is asked; on
// failure a previously cached quote is returned with Stale set, and only when
// nothing was ever cached does Get fail with provider.ErrQuoteUnavailable
// (wrapping the upstream cause).
func (c *Cache) Get(ctx context.Context, symbol string) (provider.Quote, error) {
	key := provider.NormalizeSymbol(symbol)
	if key == "" {
		return provider.Quote{}, fmt.Errorf("%w: empty symbol", provider.ErrSymbolNotFound)
	}
	now := c.now()

	c.mu.RLock()
	e, cached := c.items[key]
	c.mu.RUnlock()

	if cached && now.Sub(e.quote.FetchedAt) < c.maxAge() {
		return e.quote, nil
	}

	fresh, err := c.P.Fetch(ctx, key)
	if err != nil {
		if cached {
			c.Log.Warn().Err(err).Str("symbol", key).
				Time("fetched_at", e.quote.FetchedAt).
				Msg("refresh failed, serving stale quote")
			stale := e.quote
			stale.Stale = true
			return stale, nil
		}
		c.Log.Debug().Err(err).Str("symbol", key).Msg("quote fetch failed, nothing cached")
		return provider.Quote{}, fmt.Errorf("%w: %s: %w", provider.ErrQuoteUnavailable, key, err)
	}

	fresh.Symbol = key
	fresh.Stale = false
	// freshness is measured on the cache clock, not the upstream's
	fresh.FetchedAt = c.now()
	c.store(key, fresh)
	c.Log.Debug().Str("symbol", key).Str("price", fresh.Price.String()).Msg("quote refreshed")
	return fresh, nil
}

// Peek returns the cached quote without refreshing it.
func (c *Cache) Peek(symbol string) (provider.Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[provider.NormalizeSymbol(symbol)]
	return e.quote, ok
}

// Len reports the number of cached symbols.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache) store(key string, q provider.Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		c.items = make(map[string]entry)
	}
	c.items[key] = entry{quote: q}

	// best-effort cap: drop the oldest fetches first, never the one just stored
	for c.MaxItems > 0 && len(c.items) > c.MaxItems {
		var oldestKey string
		var oldest time.Time
		for k, v := range c.items {
			if k == key {
				continue
			}
			if oldestKey == "" || v.quote.FetchedAt.Before(oldest) {
				oldestKey, oldest = k, v.quote.FetchedAt
			}
		}
		if oldestKey == "" {
			break
		}
		delete(c.items, oldestKey)
	}
}
