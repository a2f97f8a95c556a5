package aggregate

import (
	"github.com/shopspring/decimal"

	"stockfolio/internal/valuation"
)

// Summary is the field-wise total of a set of holding summaries.
// It carries no status: holdings of mixed status do not combine into one.
type Summary struct {
	// UnitsHeld is summed across symbols as a raw share count.
	UnitsHeld      decimal.Decimal
	TotalPaid      decimal.Decimal
	TotalFees      decimal.Decimal
	TotalDividends decimal.Decimal
	CurrentValue   decimal.Decimal
	ProfitLoss     decimal.Decimal
	Holdings       int
	// Unpriced counts holdings valued without a quote.
	Unpriced int
	// Stale counts holdings valued from a stale quote.
	Stale int
}

// Portfolio sums summaries. An empty input yields all zeros.
// Input order does not affect the result.
func Portfolio(summaries []valuation.HoldingSummary) Summary {
	out := Summary{
		UnitsHeld:      decimal.Zero,
		TotalPaid:      decimal.Zero,
		TotalFees:      decimal.Zero,
		TotalDividends: decimal.Zero,
		CurrentValue:   decimal.Zero,
		ProfitLoss:     decimal.Zero,
		Holdings:       len(summaries),
	}
	for _, s := range summaries {
		out.UnitsHeld = out.UnitsHeld.Add(s.UnitsHeld)
		out.TotalPaid = out.TotalPaid.Add(s.TotalPaid)
		out.TotalFees = out.TotalFees.Add(s.TotalFees)
		out.TotalDividends = out.TotalDividends.Add(s.TotalDividends)
		out.CurrentValue = out.CurrentValue.Add(s.CurrentValue)
		out.ProfitLoss = out.ProfitLoss.Add(s.ProfitLoss)
		if s.Status == valuation.StatusUnknown && s.Transactions > 0 {
			out.Unpriced++
		}
		if s.QuoteStale {
			out.Stale++
		}
	}
	return out
}
