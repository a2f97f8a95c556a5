// Package valuation turns a holding's transactions and an optional quote into
// a point-in-time summary. Everything here is pure and safe for concurrent use.
package valuation

import (
	"github.com/shopspring/decimal"

	"stockfolio/internal/ledger"
	"stockfolio/internal/provider"
)

// Status classifies the profit/loss of a holding.
type Status string

const (
	StatusGain      Status = "gain"
	StatusLoss      Status = "loss"
	StatusBreakeven Status = "breakeven"
	// StatusUnknown is used when there is no quote or no transaction to value.
	StatusUnknown Status = "unknown"
)

// HoldingSummary is derived on demand and never stored.
type HoldingSummary struct {
	UnitsHeld      decimal.Decimal
	TotalPaid      decimal.Decimal // purchase debits, fees included
	TotalFees      decimal.Decimal
	TotalDividends decimal.Decimal
	CurrentPrice   decimal.Decimal // zero without a quote
	CurrentValue   decimal.Decimal
	// ProfitLoss is CurrentValue + TotalDividends - TotalPaid.
	ProfitLoss decimal.Decimal
	Status     Status

	Currency     string
	QuoteStale   bool
	Transactions int
}

// Summarize folds txs in a single pass. The order of txs does not matter.
// A nil quote values the units at zero and reports StatusUnknown.
func Summarize(txs []ledger.Transaction, quote *provider.Quote) HoldingSummary {
	s := HoldingSummary{
		UnitsHeld:      decimal.Zero,
		TotalPaid:      decimal.Zero,
		TotalFees:      decimal.Zero,
		TotalDividends: decimal.Zero,
		CurrentPrice:   decimal.Zero,
		CurrentValue:   decimal.Zero,
		Transactions:   len(txs),
	}

	for _, tx := range txs {
		switch d := tx.Detail.(type) {
		case ledger.Purchase:
			s.UnitsHeld = s.UnitsHeld.Add(d.Quantity)
			s.TotalPaid = s.TotalPaid.Add(d.Debit())
			s.TotalFees = s.TotalFees.Add(d.Fees)
		case ledger.Dividend:
			s.TotalDividends = s.TotalDividends.Add(d.Amount)
		}
	}

	if quote != nil {
		s.CurrentPrice = quote.Price
		s.CurrentValue = s.UnitsHeld.Mul(quote.Price)
		s.Currency = quote.Currency
		s.QuoteStale = quote.Stale
	}
	s.ProfitLoss = s.CurrentValue.Add(s.TotalDividends).Sub(s.TotalPaid)
	s.Status = status(s.ProfitLoss, quote != nil && len(txs) > 0)
	return s
}

func status(pl decimal.Decimal, known bool) Status {
	switch {
	case !known:
		return StatusUnknown
	case pl.IsPositive():
		return StatusGain
	case pl.IsNegative():
		return StatusLoss
	default:
		return StatusBreakeven
	}
}

// TransactionLine values a single transaction against the current price.
// For a purchase TotalCost excludes fees; a dividend is pure profit.
type TransactionLine struct {
	Transaction  ledger.Transaction
	TotalCost    decimal.Decimal
	CurrentValue decimal.Decimal
	Profit       decimal.Decimal
}

// Lines returns one line per transaction, in the order given.
func Lines(txs []ledger.Transaction, quote *provider.Quote) []TransactionLine {
	price := decimal.Zero
	if quote != nil {
		price = quote.Price
	}

	out := make([]TransactionLine, 0, len(txs))
	for _, tx := range txs {
		line := TransactionLine{
			Transaction:  tx,
			TotalCost:    decimal.Zero,
			CurrentValue: decimal.Zero,
			Profit:       decimal.Zero,
		}
		switch d := tx.Detail.(type) {
		case ledger.Purchase:
			line.TotalCost = d.Cost()
			line.CurrentValue = price.Mul(d.Quantity)
			line.Profit = line.CurrentValue.Sub(line.TotalCost)
		case ledger.Dividend:
			line.Profit = d.Amount
		}
		out = append(out, line)
	}
	return out
}
