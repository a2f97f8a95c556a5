package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrSymbolNotFound means the upstream confirmed it has no data for the symbol.
	// Callers surface it to the user and do not retry.
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrProvider marks transient upstream failures (network, timeout, rate limit, 5xx).
	ErrProvider = errors.New("provider error")
	// ErrQuoteUnavailable is returned by the cache when a fetch failed and nothing was cached.
	ErrQuoteUnavailable = errors.New("quote unavailable")
)

// Error wraps a transient failure of a named provider.
type Error struct {
	Provider string
	Symbol   string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: fetch %s: %v", e.Provider, e.Symbol, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrProvider) match any *Error.
func (e *Error) Is(target error) bool { return target == ErrProvider }

// Quote is the normalized shape returned by all providers.
// Metadata pointers are nil when the upstream did not report the attribute.
type Quote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	Source    string          `json:"source"`
	FetchedAt time.Time       `json:"fetched_at"`
	Stale     bool            `json:"stale"`

	Name          *string          `json:"name,omitempty"`
	Exchange      *string          `json:"exchange,omitempty"`
	PreviousClose *decimal.Decimal `json:"previous_close,omitempty"`
	DayHigh       *decimal.Decimal `json:"day_high,omitempty"`
	DayLow        *decimal.Decimal `json:"day_low,omitempty"`
	MarketCap     *decimal.Decimal `json:"market_cap,omitempty"`
	Sector        *string          `json:"sector,omitempty"`
}

// Change returns price minus previous close and the same move in percent.
// ok is false when the previous close is unknown or zero.
func (q Quote) Change() (amount, percent decimal.Decimal, ok bool) {
	if q.PreviousClose == nil || q.PreviousClose.IsZero() {
		return decimal.Zero, decimal.Zero, false
	}
	amount = q.Price.Sub(*q.PreviousClose)
	percent = amount.Div(*q.PreviousClose).Mul(decimal.NewFromInt(100))
	return amount, percent, true
}

// Provider fetches a single symbol. Implementations neither cache nor retry.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, symbol string) (Quote, error)
}

// NormalizeSymbol is the canonical key form used across caches and stores.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Timeout bounds every Fetch of the wrapped provider.
// A deadline hit surfaces as a provider error so caches can fall back to stale data.
type Timeout struct {
	P       Provider
	Timeout time.Duration
}

// WithTimeout wraps p; a non-positive d returns p unchanged.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &Timeout{P: p, Timeout: d}
}

func (t *Timeout) Name() string { return t.P.Name() }

func (t *Timeout) Fetch(ctx context.Context, symbol string) (Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()
	q, err := t.P.Fetch(ctx, symbol)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrProvider) {
		return Quote{}, &Error{Provider: t.P.Name(), Symbol: symbol, Err: err}
	}
	return q, err
}
