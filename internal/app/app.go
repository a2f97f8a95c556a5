// Package app wires configuration into the quote pipeline, the store and the
// portfolio service. Both binaries start from here.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"stockfolio/internal/config"
	"stockfolio/internal/httpx"
	"stockfolio/internal/portfolio"
	"stockfolio/internal/provider"
	"stockfolio/internal/provider/cache"
	"stockfolio/internal/provider/ratelimit"
	"stockfolio/internal/provider/yahoo"
	"stockfolio/internal/store"
)

// App holds the application dependencies.
type App struct {
	Config  config.Config
	Log     zerolog.Logger
	Store   store.Store
	Quotes  *cache.Cache
	Service *portfolio.Service
}

func New(ctx context.Context, cfg config.Config, log zerolog.Logger) (*App, error) {
	quotes, err := NewQuoteCache(cfg.Quotes, log)
	if err != nil {
		return nil, err
	}
	st, err := OpenStore(ctx, cfg.Store, log)
	if err != nil {
		return nil, err
	}
	svc := portfolio.New(st, quotes,
		portfolio.WithLogger(log),
		portfolio.WithMaxConcurrency(cfg.Portfolio.MaxConcurrency),
	)
	return &App{Config: cfg, Log: log, Store: st, Quotes: quotes, Service: svc}, nil
}

// NewQuoteCache builds yahoo -> rate limit -> fetch timeout -> cache.
// The timeout sits outside the limiter so time spent queued for a slot
// counts against the fetch budget and the cache can fall back to stale data.
func NewQuoteCache(cfg config.Quotes, log zerolog.Logger) (*cache.Cache, error) {
	httpClient := httpx.New(cfg.FetchTimeout)
	if cfg.UserAgent != "" {
		httpClient.UserAgent = cfg.UserAgent
	}

	options := []yahoo.ClientOption{yahoo.WithHTTPClient(httpClient)}
	if cfg.BaseURL != "" {
		options = append(options, yahoo.WithBaseURL(cfg.BaseURL))
	}
	client, err := yahoo.NewClient(options...)
	if err != nil {
		return nil, fmt.Errorf("yahoo client: %w", err)
	}

	var p provider.Provider = client
	p = ratelimit.Wrap(p, cfg.MaxRequestsPerMinute, cfg.Burst, cfg.MinRequestInterval)
	p = provider.WithTimeout(p, cfg.FetchTimeout)

	log.Debug().
		Str("provider", p.Name()).
		Dur("cache_ttl", cfg.CacheTTL).
		Int("max_rpm", cfg.MaxRequestsPerMinute).
		Msg("quote pipeline ready")
	return cache.New(p, cfg.CacheTTL, cfg.CacheMaxItems, log), nil
}

// OpenStore opens the configured store.
func OpenStore(ctx context.Context, cfg config.Store, log zerolog.Logger) (store.Store, error) {
	switch cfg.Driver {
	case "memory":
		return store.NewMemory(), nil
	case "sqlite":
		st, err := store.OpenSQLite(ctx, cfg.Path, log)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		return st, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

func (a *App) Close() error {
	if a == nil || a.Store == nil {
		return nil
	}
	return a.Store.Close()
}
