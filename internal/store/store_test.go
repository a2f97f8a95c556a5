package store_test

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"stockfolio/internal/ledger"
	"stockfolio/internal/store"
)

var dbCounter atomic.Int64

// backends returns a fresh instance of every Store implementation.
func backends(t *testing.T) map[string]store.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:store_test_%d?mode=memory", dbCounter.Add(1))
	sq, err := store.OpenSQLite(t.Context(), dsn, zerolog.Nop())
	require.NoError(t, err)

	mem := store.NewMemory()
	t.Cleanup(func() {
		require.NoError(t, sq.Close())
		require.NoError(t, mem.Close())
	})
	return map[string]store.Store{"memory": mem, "sqlite": sq}
}

func holding(id, owner, symbol string) store.Holding {
	return store.Holding{
		ID:        id,
		OwnerID:   owner,
		Symbol:    symbol,
		Name:      symbol + " Inc",
		Exchange:  "NMS",
		AssetType: store.AssetStock,
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func purchase(id, holdingID string, date ledger.Date, price, qty, fees string) ledger.Transaction {
	return ledger.Transaction{
		ID:        id,
		HoldingID: holdingID,
		Date:      date,
		Detail: ledger.Purchase{
			PricePerUnit: decimal.RequireFromString(price),
			Quantity:     decimal.RequireFromString(qty),
			Fees:         decimal.RequireFromString(fees),
		},
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func dividend(id, holdingID string, date ledger.Date, amount string) ledger.Transaction {
	return ledger.Transaction{
		ID:        id,
		HoldingID: holdingID,
		Date:      date,
		Notes:     "quarterly",
		Detail:    ledger.Dividend{Amount: decimal.RequireFromString(amount)},
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestStore_Holdings(t *testing.T) {
	t.Parallel()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()

			h, err := s.CreateHolding(ctx, holding("h1", "alice", "AAPL"))
			require.NoError(t, err)
			require.Equal(t, "AAPL", h.Symbol)

			_, err = s.CreateHolding(ctx, holding("h2", "alice", "AAPL"))
			require.ErrorIs(t, err, store.ErrDuplicate)

			// same symbol for another owner is fine
			_, err = s.CreateHolding(ctx, holding("h3", "bob", "AAPL"))
			require.NoError(t, err)
			_, err = s.CreateHolding(ctx, holding("h4", "alice", "MSFT"))
			require.NoError(t, err)

			got, err := s.GetHolding(ctx, "alice", "h1")
			require.NoError(t, err)
			require.Equal(t, holding("h1", "alice", "AAPL"), got)

			_, err = s.GetHolding(ctx, "bob", "h1")
			require.ErrorIs(t, err, store.ErrHoldingNotFound)

			list, err := s.ListHoldings(ctx, "alice")
			require.NoError(t, err)
			require.Len(t, list, 2)
			require.Equal(t, "AAPL", list[0].Symbol)
			require.Equal(t, "MSFT", list[1].Symbol)

			empty, err := s.ListHoldings(ctx, "nobody")
			require.NoError(t, err)
			require.Empty(t, empty)

			require.ErrorIs(t, s.DeleteHolding(ctx, "bob", "h1"), store.ErrHoldingNotFound)
		})
	}
}

func TestStore_Transactions(t *testing.T) {
	t.Parallel()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()
			_, err := s.CreateHolding(ctx, holding("h1", "alice", "AAPL"))
			require.NoError(t, err)

			d := ledger.NewDate(2024, time.March, 1)
			p, err := s.InsertTransaction(ctx, purchase("t1", "h1", d, "100.1234", "10", "5"))
			require.NoError(t, err)
			dv, err := s.InsertTransaction(ctx, dividend("t2", "h1", d, "50"))
			require.NoError(t, err)
			require.Greater(t, dv.Seq, p.Seq)

			txs, err := s.ListTransactions(ctx, "h1")
			require.NoError(t, err)
			require.Len(t, txs, 2)

			require.Equal(t, "t1", txs[0].ID)
			gotP, ok := txs[0].Purchase()
			require.True(t, ok)
			require.True(t, gotP.PricePerUnit.Equal(decimal.RequireFromString("100.1234")))
			require.True(t, gotP.Quantity.Equal(decimal.NewFromInt(10)))
			require.True(t, gotP.Fees.Equal(decimal.NewFromInt(5)))
			require.True(t, txs[0].Date.Equal(d))

			require.Equal(t, "t2", txs[1].ID)
			gotD, ok := txs[1].Dividend()
			require.True(t, ok)
			require.True(t, gotD.Amount.Equal(decimal.NewFromInt(50)))
			require.Equal(t, "quarterly", txs[1].Notes)

			require.NoError(t, s.DeleteTransaction(ctx, "h1", "t1"))
			require.ErrorIs(t, s.DeleteTransaction(ctx, "h1", "t1"), ledger.ErrNotFound)
			require.ErrorIs(t, s.DeleteTransaction(ctx, "other", "t2"), ledger.ErrNotFound)

			txs, err = s.ListTransactions(ctx, "h1")
			require.NoError(t, err)
			require.Len(t, txs, 1)
			require.Equal(t, "t2", txs[0].ID)
		})
	}
}

func TestStore_InsertTransaction_UnknownHolding(t *testing.T) {
	t.Parallel()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.InsertTransaction(t.Context(), dividend("t1", "missing", ledger.NewDate(2024, 1, 1), "1"))
			require.ErrorIs(t, err, store.ErrHoldingNotFound)
		})
	}
}

func TestStore_DeleteHolding_Cascades(t *testing.T) {
	t.Parallel()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()
			_, err := s.CreateHolding(ctx, holding("h1", "alice", "AAPL"))
			require.NoError(t, err)
			_, err = s.InsertTransaction(ctx, dividend("t1", "h1", ledger.NewDate(2024, 1, 1), "1"))
			require.NoError(t, err)

			require.NoError(t, s.DeleteHolding(ctx, "alice", "h1"))
			_, err = s.GetHolding(ctx, "alice", "h1")
			require.ErrorIs(t, err, store.ErrHoldingNotFound)

			txs, err := s.ListTransactions(ctx, "h1")
			require.NoError(t, err)
			require.Empty(t, txs)
		})
	}
}

func TestOpenSQLite_FileSurvivesReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "stockfolio.db")
	s, err := store.OpenSQLite(t.Context(), path, zerolog.Nop())
	require.NoError(t, err)
	_, err = s.CreateHolding(t.Context(), holding("h1", "alice", "VAS.AX"))
	require.NoError(t, err)
	_, err = s.InsertTransaction(t.Context(), purchase("t1", "h1", ledger.NewDate(2023, 7, 3), "88.5", "12", "9.95"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = store.OpenSQLite(t.Context(), path, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	txs, err := s.ListTransactions(t.Context(), "h1")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, "2023-07-03", txs[0].Date.String())
	require.True(t, txs[0].Debit().Equal(decimal.RequireFromString("1071.95")))
}
