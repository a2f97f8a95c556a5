package server

import (
	"time"

	"github.com/shopspring/decimal"

	"stockfolio/internal/aggregate"
	"stockfolio/internal/ledger"
	"stockfolio/internal/money"
	"stockfolio/internal/portfolio"
	"stockfolio/internal/provider"
	"stockfolio/internal/store"
	"stockfolio/internal/valuation"
)

// Amounts leave the process as decimal strings rounded to cents; prices and
// quantities keep their full precision.

type quoteResponse struct {
	Symbol        string    `json:"symbol"`
	Price         string    `json:"price"`
	Display       string    `json:"display"`
	Currency      string    `json:"currency"`
	FetchedAt     time.Time `json:"fetched_at"`
	Stale         bool      `json:"stale"`
	Name          *string   `json:"name,omitempty"`
	Exchange      *string   `json:"exchange,omitempty"`
	Sector        *string   `json:"sector,omitempty"`
	PreviousClose *string   `json:"previous_close,omitempty"`
	ChangeAmount  *string   `json:"change_amount,omitempty"`
	ChangePercent *string   `json:"change_percent,omitempty"`
	DayHigh       *string   `json:"day_high,omitempty"`
	DayLow        *string   `json:"day_low,omitempty"`
	MarketCap     *string   `json:"market_cap,omitempty"`
}

func optional(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func newQuoteResponse(q provider.Quote) quoteResponse {
	out := quoteResponse{
		Symbol:        q.Symbol,
		Price:         q.Price.String(),
		Display:       money.Format(q.Price, q.Currency),
		Currency:      q.Currency,
		FetchedAt:     q.FetchedAt,
		Stale:         q.Stale,
		Name:          q.Name,
		Exchange:      q.Exchange,
		Sector:        q.Sector,
		PreviousClose: optional(q.PreviousClose),
		DayHigh:       optional(q.DayHigh),
		DayLow:        optional(q.DayLow),
		MarketCap:     optional(q.MarketCap),
	}
	if amount, pct, ok := q.Change(); ok {
		a, p := amount.StringFixed(2), pct.StringFixed(2)
		out.ChangeAmount, out.ChangePercent = &a, &p
	}
	return out
}

type summaryResponse struct {
	UnitsHeld      string           `json:"units_held"`
	TotalPaid      string           `json:"total_paid"`
	TotalFees      string           `json:"total_fees"`
	TotalDividends string           `json:"total_dividends"`
	CurrentPrice   string           `json:"current_price"`
	CurrentValue   string           `json:"current_value"`
	ProfitLoss     string           `json:"profit_loss"`
	ProfitLossText string           `json:"profit_loss_display"`
	Status         valuation.Status `json:"status"`
	QuoteStale     bool             `json:"quote_stale"`
	Transactions   int              `json:"transactions"`
}

func newSummaryResponse(s valuation.HoldingSummary) summaryResponse {
	return summaryResponse{
		UnitsHeld:      s.UnitsHeld.String(),
		TotalPaid:      money.Fixed(s.TotalPaid),
		TotalFees:      money.Fixed(s.TotalFees),
		TotalDividends: money.Fixed(s.TotalDividends),
		CurrentPrice:   s.CurrentPrice.String(),
		CurrentValue:   money.Fixed(s.CurrentValue),
		ProfitLoss:     money.Fixed(s.ProfitLoss),
		ProfitLossText: money.Signed(s.ProfitLoss, s.Currency),
		Status:         s.Status,
		QuoteStale:     s.QuoteStale,
		Transactions:   s.Transactions,
	}
}

type holdingResponse struct {
	Holding     store.Holding   `json:"holding"`
	Summary     summaryResponse `json:"summary"`
	Quote       *quoteResponse  `json:"quote,omitempty"`
	TradingView string          `json:"tradingview_symbol"`
}

func newHoldingResponse(v portfolio.HoldingView) holdingResponse {
	out := holdingResponse{
		Holding:     v.Holding,
		Summary:     newSummaryResponse(v.Summary),
		TradingView: v.TradingView,
	}
	if v.Quote != nil {
		q := newQuoteResponse(*v.Quote)
		out.Quote = &q
	}
	return out
}

type totalsResponse struct {
	UnitsHeld      string `json:"units_held"`
	TotalPaid      string `json:"total_paid"`
	TotalFees      string `json:"total_fees"`
	TotalDividends string `json:"total_dividends"`
	CurrentValue   string `json:"current_value"`
	ProfitLoss     string `json:"profit_loss"`
	Holdings       int    `json:"holdings"`
	Unpriced       int    `json:"unpriced"`
	Stale          int    `json:"stale"`
}

type dashboardResponse struct {
	Holdings []holdingResponse `json:"holdings"`
	Totals   totalsResponse    `json:"totals"`
}

func newDashboardResponse(d portfolio.Dashboard) dashboardResponse {
	out := dashboardResponse{
		Holdings: make([]holdingResponse, 0, len(d.Holdings)),
		Totals:   newTotalsResponse(d.Totals),
	}
	for _, v := range d.Holdings {
		out.Holdings = append(out.Holdings, newHoldingResponse(v))
	}
	return out
}

func newTotalsResponse(t aggregate.Summary) totalsResponse {
	return totalsResponse{
		UnitsHeld:      t.UnitsHeld.String(),
		TotalPaid:      money.Fixed(t.TotalPaid),
		TotalFees:      money.Fixed(t.TotalFees),
		TotalDividends: money.Fixed(t.TotalDividends),
		CurrentValue:   money.Fixed(t.CurrentValue),
		ProfitLoss:     money.Fixed(t.ProfitLoss),
		Holdings:       t.Holdings,
		Unpriced:       t.Unpriced,
		Stale:          t.Stale,
	}
}

type transactionResponse struct {
	ID           string      `json:"id"`
	HoldingID    string      `json:"holding_id"`
	Kind         ledger.Kind `json:"kind"`
	Date         ledger.Date `json:"date"`
	PricePerUnit string      `json:"price_per_unit,omitempty"`
	Quantity     string      `json:"quantity,omitempty"`
	Fees         string      `json:"fees,omitempty"`
	Amount       string      `json:"amount,omitempty"`
	Debit        string      `json:"debit"`
	Credit       string      `json:"credit"`
	Notes        string      `json:"notes,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`

	TotalCost    string `json:"total_cost,omitempty"`
	CurrentValue string `json:"current_value,omitempty"`
	Profit       string `json:"profit,omitempty"`
}

func newTransactionResponse(tx ledger.Transaction) transactionResponse {
	out := transactionResponse{
		ID:        tx.ID,
		HoldingID: tx.HoldingID,
		Kind:      tx.Kind(),
		Date:      tx.Date,
		Debit:     money.Fixed(tx.Debit()),
		Credit:    money.Fixed(tx.Credit()),
		Notes:     tx.Notes,
		CreatedAt: tx.CreatedAt,
	}
	if p, ok := tx.Purchase(); ok {
		out.PricePerUnit = p.PricePerUnit.String()
		out.Quantity = p.Quantity.String()
		out.Fees = p.Fees.String()
	}
	if d, ok := tx.Dividend(); ok {
		out.Amount = d.Amount.String()
	}
	return out
}

func newLineResponse(l valuation.TransactionLine) transactionResponse {
	out := newTransactionResponse(l.Transaction)
	out.TotalCost = money.Fixed(l.TotalCost)
	out.CurrentValue = money.Fixed(l.CurrentValue)
	out.Profit = money.Fixed(l.Profit)
	return out
}

type transactionsResponse struct {
	holdingResponse
	Transactions []transactionResponse `json:"transactions"`
}

type createHoldingRequest struct {
	Symbol    string `json:"symbol"`
	AssetType string `json:"asset_type"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
