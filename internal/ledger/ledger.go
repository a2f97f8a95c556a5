package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence the ledger relies on. Implementations must
// assign Seq on insert and return ErrNotFound from DeleteTransaction when the
// transaction is absent.
type Repository interface {
	InsertTransaction(ctx context.Context, tx Transaction) (Transaction, error)
	DeleteTransaction(ctx context.Context, holdingID, id string) error
	ListTransactions(ctx context.Context, holdingID string) ([]Transaction, error)
}

// Book hands out ledgers and serializes mutations per holding.
// Holdings never share a lock, so they can be mutated concurrently.
type Book struct {
	repo  Repository
	locks sync.Map // holdingID -> *sync.Mutex
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewBook returns a Book backed by repo.
func NewBook(repo Repository) *Book {
	return &Book{repo: repo}
}

// For returns the ledger of one holding.
func (b *Book) For(holdingID string) *Ledger {
	mu, _ := b.locks.LoadOrStore(holdingID, &sync.Mutex{})
	return &Ledger{holdingID: holdingID, book: b, mu: mu.(*sync.Mutex)}
}

// Forget drops the lock of a deleted holding.
func (b *Book) Forget(holdingID string) { b.locks.Delete(holdingID) }

func (b *Book) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// Ledger is the ordered transaction history of one holding.
type Ledger struct {
	holdingID string
	book      *Book
	mu        *sync.Mutex
}

// HoldingID returns the holding this ledger belongs to.
func (l *Ledger) HoldingID() string { return l.holdingID }

// Add validates n and stores it. Nothing is written when validation fails.
func (l *Ledger) Add(ctx context.Context, n NewTransaction) (Transaction, error) {
	if err := n.Validate(); err != nil {
		return Transaction{}, err
	}
	tx := Transaction{
		ID:        uuid.NewString(),
		HoldingID: l.holdingID,
		Date:      n.Date,
		Notes:     n.Notes,
		Detail:    n.Detail,
		CreatedAt: l.book.now().UTC(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	stored, err := l.book.repo.InsertTransaction(ctx, tx)
	if err != nil {
		return Transaction{}, fmt.Errorf("storing transaction: %w", err)
	}
	return stored, nil
}

// Remove deletes a transaction. Removing an absent or already removed
// transaction fails with ErrNotFound.
func (l *Ledger) Remove(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.book.repo.DeleteTransaction(ctx, l.holdingID, id)
}

// All returns the transactions by date, ties in insertion order.
func (l *Ledger) All(ctx context.Context) ([]Transaction, error) {
	txs, err := l.book.repo.ListTransactions(ctx, l.holdingID)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	Sort(txs)
	return txs, nil
}

// Sort orders txs by date, then by insertion sequence.
func Sort(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.Before(txs[j].Date)
		}
		return txs[i].Seq < txs[j].Seq
	})
}
