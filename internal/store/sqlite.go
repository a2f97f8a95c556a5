package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"stockfolio/internal/ledger"
)

//go:embed schema.sql
var schema string

const holdingColumns = `id, owner_id, symbol, name, exchange, asset_type, created_at`

const transactionColumns = `seq, id, holding_id, kind, date, price_per_unit, quantity, fees, amount, notes, created_at`

// SQLite is a Store backed by a SQLite database file.
type SQLite struct {
	db  *sql.DB
	log zerolog.Logger
}

// OpenSQLite opens (creating if needed) the database at path and applies the schema.
// Paths starting with "file:" are used as-is, which allows in-memory databases in tests.
func OpenSQLite(ctx context.Context, path string, log zerolog.Logger) (*SQLite, error) {
	memory := strings.HasPrefix(path, "file:")
	if !memory {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database path to absolute: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		path = absPath
	}

	db, err := sql.Open("sqlite", buildConnectionString(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if memory {
		// every connection to an unshared in-memory database is a fresh database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(8)
		db.SetMaxIdleConns(2)
		db.SetConnMaxIdleTime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s := &SQLite{db: db, log: log.With().Str("component", "store").Str("driver", "sqlite").Logger()}
	s.log.Debug().Str("path", path).Msg("database opened")
	return s, nil
}

// buildConnectionString appends the PRAGMAs every connection needs.
func buildConnectionString(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep +
		"_pragma=foreign_keys(1)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(FULL)" + // ledger data: fsync after every write
		"&_pragma=busy_timeout(5000)"
}

func (s *SQLite) Close() error { return s.db.Close() }

func isConstraint(err error, kind string) bool {
	return err != nil && strings.Contains(err.Error(), kind+" constraint failed")
}

func (s *SQLite) CreateHolding(ctx context.Context, h Holding) (Holding, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO holdings (`+holdingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.OwnerID, h.Symbol, h.Name, h.Exchange, string(h.AssetType), h.CreatedAt.UnixNano(),
	)
	if isConstraint(err, "UNIQUE") {
		return Holding{}, ErrDuplicate
	}
	if err != nil {
		return Holding{}, fmt.Errorf("failed to create holding: %w", err)
	}
	return h, nil
}

func scanHolding(row interface{ Scan(...any) error }) (Holding, error) {
	var h Holding
	var assetType string
	var created int64
	if err := row.Scan(&h.ID, &h.OwnerID, &h.Symbol, &h.Name, &h.Exchange, &assetType, &created); err != nil {
		return Holding{}, err
	}
	h.AssetType = AssetType(assetType)
	h.CreatedAt = time.Unix(0, created).UTC()
	return h, nil
}

func (s *SQLite) GetHolding(ctx context.Context, ownerID, id string) (Holding, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+holdingColumns+` FROM holdings WHERE id = ? AND owner_id = ?`, id, ownerID)
	h, err := scanHolding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Holding{}, ErrHoldingNotFound
	}
	if err != nil {
		return Holding{}, fmt.Errorf("failed to get holding: %w", err)
	}
	return h, nil
}

func (s *SQLite) ListHoldings(ctx context.Context, ownerID string) ([]Holding, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+holdingColumns+` FROM holdings WHERE owner_id = ? ORDER BY symbol`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	defer rows.Close()

	out := make([]Holding, 0)
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *SQLite) DeleteHolding(ctx context.Context, ownerID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM holdings WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	if n == 0 {
		return ErrHoldingNotFound
	}
	s.log.Info().Str("holding_id", id).Msg("holding deleted with its transactions")
	return nil
}

func (s *SQLite) InsertTransaction(ctx context.Context, tx ledger.Transaction) (ledger.Transaction, error) {
	var price, qty, fees, amount decimal.NullDecimal
	switch d := tx.Detail.(type) {
	case ledger.Purchase:
		price = decimal.NewNullDecimal(d.PricePerUnit)
		qty = decimal.NewNullDecimal(d.Quantity)
		fees = decimal.NewNullDecimal(d.Fees)
	case ledger.Dividend:
		amount = decimal.NewNullDecimal(d.Amount)
	default:
		return ledger.Transaction{}, &ledger.ValidationError{Field: "kind", Reason: "must be purchase or dividend"}
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, holding_id, kind, date, price_per_unit, quantity, fees, amount, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.HoldingID, string(tx.Kind()), tx.Date.String(),
		price, qty, fees, amount, tx.Notes, tx.CreatedAt.UnixNano(),
	)
	if isConstraint(err, "FOREIGN KEY") {
		return ledger.Transaction{}, ErrHoldingNotFound
	}
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("failed to insert transaction: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("failed to get insert ID: %w", err)
	}
	tx.Seq = seq
	return tx, nil
}

func (s *SQLite) DeleteTransaction(ctx context.Context, holdingID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND holding_id = ?`, id, holdingID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (s *SQLite) ListTransactions(ctx context.Context, holdingID string) ([]ledger.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE holding_id = ? ORDER BY date, seq`, holdingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]ledger.Transaction, 0)
	for rows.Next() {
		var (
			tx                       ledger.Transaction
			kind, date               string
			price, qty, fees, amount decimal.NullDecimal
			created                  int64
		)
		if err := rows.Scan(&tx.Seq, &tx.ID, &tx.HoldingID, &kind, &date, &price, &qty, &fees, &amount, &tx.Notes, &created); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if tx.Date, err = ledger.ParseDate(date); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", tx.ID, err)
		}
		switch ledger.Kind(kind) {
		case ledger.KindPurchase:
			tx.Detail = ledger.Purchase{PricePerUnit: price.Decimal, Quantity: qty.Decimal, Fees: fees.Decimal}
		case ledger.KindDividend:
			tx.Detail = ledger.Dividend{Amount: amount.Decimal}
		default:
			return nil, fmt.Errorf("transaction %s: unknown kind %q", tx.ID, kind)
		}
		tx.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, tx)
	}
	return out, rows.Err()
}
