package store

import (
	"context"
	"sort"
	"sync"

	"stockfolio/internal/ledger"
)

// Memory is an in-process Store. Reads return copies, so callers always see
// either the state before or after a mutation.
type Memory struct {
	mu           sync.RWMutex
	holdings     map[string]Holding                       // id -> holding
	transactions map[string]map[string]ledger.Transaction // holdingID -> txID -> tx
	seq          int64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		holdings:     make(map[string]Holding),
		transactions: make(map[string]map[string]ledger.Transaction),
	}
}

func (m *Memory) CreateHolding(_ context.Context, h Holding) (Holding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.holdings {
		if other.OwnerID == h.OwnerID && other.Symbol == h.Symbol {
			return Holding{}, ErrDuplicate
		}
	}
	m.holdings[h.ID] = h
	m.transactions[h.ID] = make(map[string]ledger.Transaction)
	return h, nil
}

func (m *Memory) GetHolding(_ context.Context, ownerID, id string) (Holding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.holdings[id]
	if !ok || h.OwnerID != ownerID {
		return Holding{}, ErrHoldingNotFound
	}
	return h, nil
}

func (m *Memory) ListHoldings(_ context.Context, ownerID string) ([]Holding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Holding, 0)
	for _, h := range m.holdings {
		if h.OwnerID == ownerID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (m *Memory) DeleteHolding(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.holdings[id]
	if !ok || h.OwnerID != ownerID {
		return ErrHoldingNotFound
	}
	delete(m.holdings, id)
	delete(m.transactions, id)
	return nil
}

func (m *Memory) InsertTransaction(_ context.Context, tx ledger.Transaction) (ledger.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txs, ok := m.transactions[tx.HoldingID]
	if !ok {
		return ledger.Transaction{}, ErrHoldingNotFound
	}
	m.seq++
	tx.Seq = m.seq
	txs[tx.ID] = tx
	return tx, nil
}

func (m *Memory) DeleteTransaction(_ context.Context, holdingID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	txs, ok := m.transactions[holdingID]
	if !ok {
		return ledger.ErrNotFound
	}
	if _, ok := txs[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(txs, id)
	return nil
}

func (m *Memory) ListTransactions(_ context.Context, holdingID string) ([]ledger.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	txs := m.transactions[holdingID]
	out := make([]ledger.Transaction, 0, len(txs))
	for _, tx := range txs {
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (m *Memory) Close() error { return nil }
