// Package store persists holdings and their transactions.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"stockfolio/internal/ledger"
)

var (
	// ErrHoldingNotFound means no holding with that id exists for the owner.
	ErrHoldingNotFound = errors.New("holding not found")
	// ErrDuplicate means the owner already tracks the symbol.
	ErrDuplicate = errors.New("holding already exists")
)

// AssetType classifies a holding.
type AssetType string

const (
	AssetStock AssetType = "stock"
	AssetETF   AssetType = "etf"
)

// ParseAssetType accepts the names and the single-letter codes of the legacy export (S, E).
// An empty string defaults to stock.
func ParseAssetType(s string) (AssetType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "stock", "s":
		return AssetStock, true
	case "etf", "e":
		return AssetETF, true
	}
	return "", false
}

// Holding is one tracked symbol of one owner.
type Holding struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Exchange  string    `json:"exchange"`
	AssetType AssetType `json:"asset_type"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the persistence collaborator of the portfolio service.
// Every lookup is scoped by owner.
type Store interface {
	ledger.Repository

	CreateHolding(ctx context.Context, h Holding) (Holding, error)
	GetHolding(ctx context.Context, ownerID, id string) (Holding, error)
	ListHoldings(ctx context.Context, ownerID string) ([]Holding, error)
	// DeleteHolding removes the holding and all of its transactions.
	DeleteHolding(ctx context.Context, ownerID, id string) error
	Close() error
}
