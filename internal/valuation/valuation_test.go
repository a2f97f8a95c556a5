package valuation_test

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"stockfolio/internal/ledger"
	"stockfolio/internal/provider"
	"stockfolio/internal/valuation"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func purchase(id string, day int, price, qty, fees string) ledger.Transaction {
	return ledger.Transaction{
		ID:     id,
		Date:   ledger.NewDate(2024, 1, day),
		Detail: ledger.Purchase{PricePerUnit: dec(price), Quantity: dec(qty), Fees: dec(fees)},
	}
}

func dividend(id string, day int, amount string) ledger.Transaction {
	return ledger.Transaction{
		ID:     id,
		Date:   ledger.NewDate(2024, 1, day),
		Detail: ledger.Dividend{Amount: dec(amount)},
	}
}

func quote(price string) *provider.Quote {
	return &provider.Quote{Symbol: "AAPL", Price: dec(price), Currency: "USD"}
}

func requireDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func TestSummarize_PurchaseAndDividend(t *testing.T) {
	t.Parallel()

	// Arrange
	txs := []ledger.Transaction{
		purchase("p1", 1, "100", "10", "5"),
		dividend("d1", 2, "50"),
	}

	// Act
	s := valuation.Summarize(txs, quote("120"))

	// Assert
	requireDec(t, "10", s.UnitsHeld)
	requireDec(t, "1005", s.TotalPaid)
	requireDec(t, "5", s.TotalFees)
	requireDec(t, "50", s.TotalDividends)
	requireDec(t, "120", s.CurrentPrice)
	requireDec(t, "1200", s.CurrentValue)
	requireDec(t, "245", s.ProfitLoss)
	require.Equal(t, valuation.StatusGain, s.Status)
	require.Equal(t, "USD", s.Currency)
	require.Equal(t, 2, s.Transactions)
}

func TestSummarize_NoQuote(t *testing.T) {
	t.Parallel()

	txs := []ledger.Transaction{
		purchase("p1", 1, "100", "10", "5"),
		dividend("d1", 2, "50"),
	}
	s := valuation.Summarize(txs, nil)

	requireDec(t, "0", s.CurrentPrice)
	requireDec(t, "0", s.CurrentValue)
	requireDec(t, "-955", s.ProfitLoss)
	require.Equal(t, valuation.StatusUnknown, s.Status)
}

func TestSummarize_Statuses(t *testing.T) {
	t.Parallel()

	txs := []ledger.Transaction{purchase("p1", 1, "10", "10", "0")}
	tests := []struct {
		price string
		want  valuation.Status
	}{
		{"11", valuation.StatusGain},
		{"9.99", valuation.StatusLoss},
		{"10", valuation.StatusBreakeven},
	}
	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, valuation.Summarize(txs, quote(tt.price)).Status)
		})
	}
}

func TestSummarize_NoTransactions(t *testing.T) {
	t.Parallel()

	s := valuation.Summarize(nil, quote("120"))
	requireDec(t, "0", s.UnitsHeld)
	requireDec(t, "0", s.TotalPaid)
	requireDec(t, "0", s.CurrentValue)
	requireDec(t, "0", s.ProfitLoss)
	require.Equal(t, valuation.StatusUnknown, s.Status)
}

func TestSummarize_StaleQuoteIsFlagged(t *testing.T) {
	t.Parallel()

	q := quote("120")
	q.Stale = true
	s := valuation.Summarize([]ledger.Transaction{purchase("p1", 1, "100", "1", "0")}, q)
	require.True(t, s.QuoteStale)
	require.Equal(t, valuation.StatusGain, s.Status)
}

func TestSummarize_OrderIndependent(t *testing.T) {
	t.Parallel()

	txs := []ledger.Transaction{
		purchase("p1", 1, "100.1234", "3.5", "1.99"),
		purchase("p2", 3, "98.76", "0.25", "0"),
		dividend("d1", 4, "12.34"),
		purchase("p3", 9, "101", "7", "4.95"),
		dividend("d2", 12, "0.01"),
	}
	want := valuation.Summarize(txs, quote("105.5"))

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := append([]ledger.Transaction(nil), txs...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := valuation.Summarize(shuffled, quote("105.5"))
		requireDec(t, want.TotalPaid.String(), got.TotalPaid)
		requireDec(t, want.UnitsHeld.String(), got.UnitsHeld)
		requireDec(t, want.ProfitLoss.String(), got.ProfitLoss)
		require.Equal(t, want.Status, got.Status)
	}
}

func TestSummarize_ProfitLossIdentity(t *testing.T) {
	t.Parallel()

	txs := []ledger.Transaction{
		purchase("p1", 1, "0.0001", "12345.6789", "0.5"),
		dividend("d1", 2, "3.3333"),
	}
	for _, q := range []*provider.Quote{nil, quote("0.0003"), quote("1000")} {
		s := valuation.Summarize(txs, q)
		requireDec(t, s.CurrentValue.Add(s.TotalDividends).Sub(s.TotalPaid).String(), s.ProfitLoss)
	}
}

func TestSummarize_FractionalPrecision(t *testing.T) {
	t.Parallel()

	// three thirds of a cent must add back up exactly
	txs := []ledger.Transaction{
		purchase("p1", 1, "0.3333", "1", "0"),
		purchase("p2", 1, "0.3333", "1", "0"),
		purchase("p3", 1, "0.3334", "1", "0"),
	}
	s := valuation.Summarize(txs, quote("1"))
	requireDec(t, "1", s.TotalPaid)
	require.Equal(t, valuation.StatusBreakeven, s.Status)
}

func TestSummarize_RemoveThenReAddRestoresSummary(t *testing.T) {
	t.Parallel()

	p := purchase("p1", 1, "100", "10", "5")
	d := dividend("d1", 2, "50")
	before := valuation.Summarize([]ledger.Transaction{p, d}, quote("120"))
	removed := valuation.Summarize([]ledger.Transaction{d}, quote("120"))
	requireDec(t, "50", removed.ProfitLoss)

	readded := p
	readded.ID = "p1-again"
	after := valuation.Summarize([]ledger.Transaction{d, readded}, quote("120"))
	requireDec(t, before.ProfitLoss.String(), after.ProfitLoss)
	requireDec(t, before.TotalPaid.String(), after.TotalPaid)
}

func TestLines(t *testing.T) {
	t.Parallel()

	lines := valuation.Lines([]ledger.Transaction{
		purchase("p1", 1, "100", "10", "5"),
		dividend("d1", 2, "50"),
	}, quote("120"))
	require.Len(t, lines, 2)

	requireDec(t, "1000", lines[0].TotalCost)
	requireDec(t, "1200", lines[0].CurrentValue)
	requireDec(t, "200", lines[0].Profit)
	require.Equal(t, "p1", lines[0].Transaction.ID)

	requireDec(t, "0", lines[1].TotalCost)
	requireDec(t, "0", lines[1].CurrentValue)
	requireDec(t, "50", lines[1].Profit)
}

func TestLines_NoQuote(t *testing.T) {
	t.Parallel()

	lines := valuation.Lines([]ledger.Transaction{purchase("p1", 1, "100", "10", "5")}, nil)
	requireDec(t, "0", lines[0].CurrentValue)
	requireDec(t, "-1000", lines[0].Profit)
}
