package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-rebalancer/internal/domain"
)

// priceRepository implements domain.PriceRepository
type priceRepository struct {
	db *DB
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(db *DB) domain.PriceRepository {
	return &priceRepository{db: db}
}

// Add creates a new price quote
func (r *priceRepository) Add(ctx context.Context, quote *domain.PriceQuote) error {
	query := r.db.rebind(`
		INSERT INTO price_quotes (id, asset_id, date, price)
		VALUES ($1, $2, $3, $4)
	`)

	_, err := r.db.ExecContext(ctx, query,
		quote.ID,
		quote.AssetID,
		quote.Date.UTC(),
		quote.Price.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert price quote: %w", err)
	}

	return nil
}

// GetLatest retrieves the most recent quote for a given asset
func (r *priceRepository) GetLatest(ctx context.Context, assetID uuid.UUID) (*domain.PriceQuote, error) {
	query := r.db.rebind(`
		SELECT id, asset_id, date, price
		FROM price_quotes
		WHERE asset_id = $1
		ORDER BY date DESC
		LIMIT 1
	`)

	var quote domain.PriceQuote
	var priceStr string

	err := r.db.QueryRowContext(ctx, query, assetID).Scan(
		&quote.ID,
		&quote.AssetID,
		&quote.Date,
		&priceStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no price quote for asset %s: %w", assetID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get latest price quote: %w", err)
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price: %w", err)
	}
	quote.Price = price

	return &quote, nil
}
