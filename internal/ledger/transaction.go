package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidTransaction is matched by every *ValidationError.
	ErrInvalidTransaction = errors.New("invalid transaction")
	// ErrNotFound means the transaction does not exist in the holding's ledger.
	ErrNotFound = errors.New("transaction not found")
)

// ValidationError explains why a transaction was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid transaction: %s", e.Reason)
	}
	return fmt.Sprintf("invalid transaction: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidTransaction }

func invalid(field, reason string) error { return &ValidationError{Field: field, Reason: reason} }

// Kind tags the variant carried by a transaction.
type Kind string

const (
	KindPurchase Kind = "purchase"
	KindDividend Kind = "dividend"
)

// Detail is the kind-specific part of a transaction: Purchase or Dividend.
type Detail interface {
	Kind() Kind
	Debit() decimal.Decimal
	Credit() decimal.Decimal
	validate() error
}

// Purchase is an acquisition of units.
type Purchase struct {
	PricePerUnit decimal.Decimal
	Quantity     decimal.Decimal
	Fees         decimal.Decimal
}

func (Purchase) Kind() Kind { return KindPurchase }

// Debit is the cash paid: price * quantity + fees.
func (p Purchase) Debit() decimal.Decimal { return p.PricePerUnit.Mul(p.Quantity).Add(p.Fees) }

func (Purchase) Credit() decimal.Decimal { return decimal.Zero }

// Cost is price * quantity, fees excluded.
func (p Purchase) Cost() decimal.Decimal { return p.PricePerUnit.Mul(p.Quantity) }

func (p Purchase) validate() error {
	switch {
	case !p.PricePerUnit.IsPositive():
		return invalid("price_per_unit", "must be greater than 0")
	case !p.Quantity.IsPositive():
		return invalid("quantity", "must be greater than 0")
	case p.Fees.IsNegative():
		return invalid("fees", "must not be negative")
	}
	return nil
}

// Dividend is cash received from a holding.
type Dividend struct {
	Amount decimal.Decimal
}

func (Dividend) Kind() Kind                { return KindDividend }
func (Dividend) Debit() decimal.Decimal    { return decimal.Zero }
func (d Dividend) Credit() decimal.Decimal { return d.Amount }

func (d Dividend) validate() error {
	if !d.Amount.IsPositive() {
		return invalid("amount", "must be greater than 0")
	}
	return nil
}

// Transaction is an immutable ledger entry of one holding.
type Transaction struct {
	ID        string
	HoldingID string
	Date      Date
	Notes     string
	Detail    Detail
	CreatedAt time.Time
	// Seq orders transactions sharing a date by insertion.
	Seq int64
}

func (t Transaction) Kind() Kind { return t.Detail.Kind() }

func (t Transaction) Debit() decimal.Decimal { return t.Detail.Debit() }

func (t Transaction) Credit() decimal.Decimal { return t.Detail.Credit() }

// Purchase returns the purchase fields when t is a purchase.
func (t Transaction) Purchase() (Purchase, bool) {
	p, ok := t.Detail.(Purchase)
	return p, ok
}

// Dividend returns the dividend fields when t is a dividend.
func (t Transaction) Dividend() (Dividend, bool) {
	d, ok := t.Detail.(Dividend)
	return d, ok
}

// NewTransaction is the input accepted by Ledger.Add.
type NewTransaction struct {
	Date   Date
	Notes  string
	Detail Detail
}

// Validate checks the variant and its positivity constraints.
func (n NewTransaction) Validate() error {
	if n.Detail == nil {
		return invalid("kind", "must be purchase or dividend")
	}
	if n.Date.IsZero() {
		return invalid("date", "is required")
	}
	return n.Detail.validate()
}
