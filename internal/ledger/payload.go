package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Bounds on accepted amounts. Exponent notation is parsed but must land
// inside these limits, so a short string cannot expand into millions of digits.
const (
	maxInputLen      = 64
	maxIntegerDigits = 15
	maxScale         = 8
)

// Payload is the loosely typed form of a new transaction as it arrives from
// a form or JSON body. Amounts are decimal strings.
type Payload struct {
	Kind         string `json:"kind"`
	Date         string `json:"date"`
	PricePerUnit string `json:"price_per_unit,omitempty"`
	Quantity     string `json:"quantity,omitempty"`
	Fees         string `json:"fees,omitempty"`
	Amount       string `json:"amount,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// ParseKind accepts the kind names and the single-letter codes of the legacy export (P, D).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "purchase", "p":
		return KindPurchase, nil
	case "dividend", "d":
		return KindDividend, nil
	}
	return "", invalid("kind", "must be purchase or dividend")
}

// ParsePayload converts p into a validated NewTransaction. Fields belonging to
// the other kind must be empty.
func ParsePayload(p Payload) (NewTransaction, error) {
	kind, err := ParseKind(p.Kind)
	if err != nil {
		return NewTransaction{}, err
	}
	date, err := ParseDate(p.Date)
	if err != nil {
		return NewTransaction{}, invalid("date", "must be YYYY-MM-DD")
	}

	n := NewTransaction{Date: date, Notes: strings.TrimSpace(p.Notes)}
	switch kind {
	case KindPurchase:
		if strings.TrimSpace(p.Amount) != "" {
			return NewTransaction{}, invalid("amount", "not allowed on a purchase")
		}
		price, err := parseDecimal("price_per_unit", p.PricePerUnit, true)
		if err != nil {
			return NewTransaction{}, err
		}
		qty, err := parseDecimal("quantity", p.Quantity, true)
		if err != nil {
			return NewTransaction{}, err
		}
		fees, err := parseDecimal("fees", p.Fees, false)
		if err != nil {
			return NewTransaction{}, err
		}
		n.Detail = Purchase{PricePerUnit: price, Quantity: qty, Fees: fees}

	case KindDividend:
		for _, f := range [...]struct{ name, value string }{
			{"price_per_unit", p.PricePerUnit},
			{"quantity", p.Quantity},
			{"fees", p.Fees},
		} {
			if strings.TrimSpace(f.value) != "" {
				return NewTransaction{}, invalid(f.name, "not allowed on a dividend")
			}
		}
		amount, err := parseDecimal("amount", p.Amount, true)
		if err != nil {
			return NewTransaction{}, err
		}
		n.Detail = Dividend{Amount: amount}
	}

	if err := n.Validate(); err != nil {
		return NewTransaction{}, err
	}
	return n, nil
}

func parseDecimal(field, s string, required bool) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		if required {
			return decimal.Zero, invalid(field, "is required")
		}
		return decimal.Zero, nil
	}
	if len(s) > maxInputLen {
		return decimal.Zero, invalid(field, "is too long")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, invalid(field, "must be a decimal number")
	}
	if d.Exponent() < -maxScale {
		return decimal.Zero, invalid(field, fmt.Sprintf("must have at most %d decimal places", maxScale))
	}
	if int64(d.NumDigits())+int64(d.Exponent()) > maxIntegerDigits {
		return decimal.Zero, invalid(field, fmt.Sprintf("must have at most %d integer digits", maxIntegerDigits))
	}
	return d, nil
}
