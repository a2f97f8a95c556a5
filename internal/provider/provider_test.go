package provider_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"stockfolio/internal/provider"
)

type slowProvider struct{}

func (slowProvider) Name() string { return "slow" }
func (slowProvider) Fetch(ctx context.Context, symbol string) (provider.Quote, error) {
	<-ctx.Done()
	return provider.Quote{}, ctx.Err()
}

func TestWithTimeout_DeadlineBecomesProviderError(t *testing.T) {
	t.Parallel()

	p := provider.WithTimeout(slowProvider{}, 10*time.Millisecond)
	_, err := p.Fetch(t.Context(), "AAPL")
	require.Error(t, err)
	require.ErrorIs(t, err, provider.ErrProvider)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	var perr *provider.Error
	require.True(t, errors.As(err, &perr))
	require.Equal(t, "slow", perr.Provider)
}

func TestWithTimeout_NonPositiveIsPassthrough(t *testing.T) {
	t.Parallel()

	var p provider.Provider = slowProvider{}
	require.Equal(t, p, provider.WithTimeout(p, 0))
}

func TestQuoteChange(t *testing.T) {
	t.Parallel()

	prev := decimal.RequireFromString("100")
	q := provider.Quote{Price: decimal.RequireFromString("110"), PreviousClose: &prev}
	amount, pct, ok := q.Change()
	require.True(t, ok)
	require.True(t, amount.Equal(decimal.NewFromInt(10)), amount.String())
	require.True(t, pct.Equal(decimal.NewFromInt(10)), pct.String())

	_, _, ok = provider.Quote{Price: decimal.NewFromInt(1)}.Change()
	require.False(t, ok)
}

func TestNormalizeSymbol(t *testing.T) {
	t.Parallel()

	require.Equal(t, "BHP.AX", provider.NormalizeSymbol("  bhp.ax "))
}
