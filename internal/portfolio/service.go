// Package portfolio exposes the operations of the application: per-holding
// summaries, the owner dashboard, symbol lookup and ledger mutations.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"stockfolio/internal/aggregate"
	"stockfolio/internal/ledger"
	"stockfolio/internal/provider"
	"stockfolio/internal/store"
	"stockfolio/internal/valuation"
)

// ErrInvalidAssetType is returned by CreateHolding for unknown asset types.
var ErrInvalidAssetType = errors.New("asset type must be stock or etf")

// Quoter returns a quote for a symbol. *cache.Cache implements it.
type Quoter interface {
	Get(ctx context.Context, symbol string) (provider.Quote, error)
}

// HoldingView is a holding valued against its current quote.
// Quote is nil when no price could be obtained.
type HoldingView struct {
	Holding     store.Holding
	Summary     valuation.HoldingSummary
	Quote       *provider.Quote
	TradingView string
}

// Dashboard is every holding of an owner plus the portfolio totals.
type Dashboard struct {
	Holdings []HoldingView
	Totals   aggregate.Summary
}

// TransactionsView is the ledger of one holding with per-transaction values.
type TransactionsView struct {
	HoldingView
	Lines []valuation.TransactionLine
}

type Service struct {
	store          store.Store
	quotes         Quoter
	book           *ledger.Book
	log            zerolog.Logger
	maxConcurrency int
	now            func() time.Time
}

type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log.With().Str("component", "portfolio").Logger() }
}

// WithMaxConcurrency bounds how many holdings are valued at once by AggregatePortfolio.
func WithMaxConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxConcurrency = n
		}
	}
}

// WithClock replaces time.Now for holding and transaction timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(st store.Store, quotes Quoter, options ...Option) *Service {
	s := &Service{
		store:          st,
		quotes:         quotes,
		book:           ledger.NewBook(st),
		log:            zerolog.Nop(),
		maxConcurrency: 4,
		now:            time.Now,
	}
	for _, o := range options {
		o(s)
	}
	s.book.Now = s.now
	return s
}

// LookupSymbol returns the current quote of symbol. Errors match
// provider.ErrSymbolNotFound or provider.ErrQuoteUnavailable.
func (s *Service) LookupSymbol(ctx context.Context, symbol string) (provider.Quote, error) {
	q, err := s.quotes.Get(ctx, symbol)
	if err != nil {
		return provider.Quote{}, err
	}
	if !q.Price.IsPositive() {
		return provider.Quote{}, fmt.Errorf("%w: %s has no price", provider.ErrSymbolNotFound, q.Symbol)
	}
	return q, nil
}

// Summarize values one holding. Quote failures never fail it: the summary
// degrades to StatusUnknown instead.
func (s *Service) Summarize(ctx context.Context, ownerID, holdingID string) (HoldingView, error) {
	h, err := s.store.GetHolding(ctx, ownerID, holdingID)
	if err != nil {
		return HoldingView{}, err
	}
	view, _, err := s.value(ctx, h)
	return view, err
}

// Transactions returns the holding's ledger by date with a value line per transaction.
func (s *Service) Transactions(ctx context.Context, ownerID, holdingID string) (TransactionsView, error) {
	h, err := s.store.GetHolding(ctx, ownerID, holdingID)
	if err != nil {
		return TransactionsView{}, err
	}
	view, txs, err := s.value(ctx, h)
	if err != nil {
		return TransactionsView{}, err
	}
	return TransactionsView{HoldingView: view, Lines: valuation.Lines(txs, view.Quote)}, nil
}

func (s *Service) value(ctx context.Context, h store.Holding) (HoldingView, []ledger.Transaction, error) {
	txs, err := s.book.For(h.ID).All(ctx)
	if err != nil {
		return HoldingView{}, nil, fmt.Errorf("holding %s: %w", h.ID, err)
	}

	var quote *provider.Quote
	if q, err := s.LookupSymbol(ctx, h.Symbol); err != nil {
		s.log.Warn().Err(err).Str("symbol", h.Symbol).Str("holding_id", h.ID).Msg("valuing without a quote")
	} else {
		quote = &q
	}

	return HoldingView{
		Holding:     h,
		Summary:     valuation.Summarize(txs, quote),
		Quote:       quote,
		TradingView: TradingViewSymbol(h.Exchange, h.Symbol),
	}, txs, nil
}

// AggregatePortfolio values every holding of ownerID concurrently and sums them.
// Only storage errors fail the call.
func (s *Service) AggregatePortfolio(ctx context.Context, ownerID string) (Dashboard, error) {
	holdings, err := s.store.ListHoldings(ctx, ownerID)
	if err != nil {
		return Dashboard{}, err
	}

	views := make([]HoldingView, len(holdings))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)
	for i, h := range holdings {
		g.Go(func() error {
			v, _, err := s.value(gctx, h)
			if err != nil {
				return err
			}
			views[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	summaries := make([]valuation.HoldingSummary, len(views))
	for i, v := range views {
		summaries[i] = v.Summary
	}
	totals := aggregate.Portfolio(summaries)
	s.log.Debug().Str("owner_id", ownerID).Int("holdings", totals.Holdings).
		Int("unpriced", totals.Unpriced).Msg("portfolio aggregated")
	return Dashboard{Holdings: views, Totals: totals}, nil
}

// AddTransaction validates payload and appends it to the holding's ledger.
func (s *Service) AddTransaction(ctx context.Context, ownerID, holdingID string, payload ledger.Payload) (ledger.Transaction, error) {
	if _, err := s.store.GetHolding(ctx, ownerID, holdingID); err != nil {
		return ledger.Transaction{}, err
	}
	n, err := ledger.ParsePayload(payload)
	if err != nil {
		return ledger.Transaction{}, err
	}
	tx, err := s.book.For(holdingID).Add(ctx, n)
	if err != nil {
		return ledger.Transaction{}, err
	}
	s.log.Info().Str("holding_id", holdingID).Str("tx_id", tx.ID).Str("kind", string(tx.Kind())).Msg("transaction added")
	return tx, nil
}

// RemoveTransaction deletes one transaction. A second removal fails with ledger.ErrNotFound.
func (s *Service) RemoveTransaction(ctx context.Context, ownerID, holdingID, txID string) error {
	if _, err := s.store.GetHolding(ctx, ownerID, holdingID); err != nil {
		return err
	}
	if err := s.book.For(holdingID).Remove(ctx, txID); err != nil {
		return err
	}
	s.log.Info().Str("holding_id", holdingID).Str("tx_id", txID).Msg("transaction removed")
	return nil
}

// CreateHolding starts tracking symbol for ownerID. Name and exchange come
// from the quote; when the quote source is down the symbol and "N/A" are used.
func (s *Service) CreateHolding(ctx context.Context, ownerID, symbol, assetType string) (store.Holding, error) {
	at, ok := store.ParseAssetType(assetType)
	if !ok {
		return store.Holding{}, ErrInvalidAssetType
	}
	symbol = provider.NormalizeSymbol(symbol)

	h := store.Holding{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Symbol:    symbol,
		Name:      symbol,
		Exchange:  "N/A",
		AssetType: at,
		CreatedAt: s.now().UTC(),
	}

	q, err := s.LookupSymbol(ctx, symbol)
	switch {
	case errors.Is(err, provider.ErrSymbolNotFound):
		return store.Holding{}, err
	case err != nil:
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("creating holding without quote metadata")
	default:
		if q.Name != nil && *q.Name != "" {
			h.Name = *q.Name
		}
		if q.Exchange != nil && *q.Exchange != "" {
			h.Exchange = *q.Exchange
		}
	}

	created, err := s.store.CreateHolding(ctx, h)
	if err != nil {
		return store.Holding{}, err
	}
	s.log.Info().Str("holding_id", created.ID).Str("symbol", symbol).Msg("holding created")
	return created, nil
}

func (s *Service) GetHolding(ctx context.Context, ownerID, holdingID string) (store.Holding, error) {
	return s.store.GetHolding(ctx, ownerID, holdingID)
}

func (s *Service) ListHoldings(ctx context.Context, ownerID string) ([]store.Holding, error) {
	return s.store.ListHoldings(ctx, ownerID)
}

// DeleteHolding removes the holding together with its transactions.
func (s *Service) DeleteHolding(ctx context.Context, ownerID, holdingID string) error {
	if err := s.store.DeleteHolding(ctx, ownerID, holdingID); err != nil {
		return err
	}
	s.book.Forget(holdingID)
	s.log.Info().Str("holding_id", holdingID).Msg("holding deleted")
	return nil
}
