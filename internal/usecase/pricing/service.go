package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-rebalancer/internal/domain"
)

// ErrNoPrice is returned when an asset has neither a quote nor a fixed price
var ErrNoPrice = errors.New("no price available")

// PricingService records asset prices and acts as the price source for allocation
type PricingService struct {
	AssetRepo domain.AssetRepository
	PriceRepo domain.PriceRepository
	log       zerolog.Logger
}

// NewPricingService creates a new PricingService instance
func NewPricingService(assetRepo domain.AssetRepository, priceRepo domain.PriceRepository, log zerolog.Logger) *PricingService {
	return &PricingService{
		AssetRepo: assetRepo,
		PriceRepo: priceRepo,
		log:       log.With().Str("service", "pricing").Logger(),
	}
}

// RecordPrice stores a new quote for an asset
// Logic: Insert a new row into price_quotes; the asset amount is untouched
// Returns the created quote
func (s *PricingService) RecordPrice(ctx context.Context, assetID uuid.UUID, price decimal.Decimal) (*domain.PriceQuote, error) {
	if price.LessThanOrEqual(decimal.Zero) {
		return nil, domain.Invalidf("price must be positive")
	}

	asset, err := s.AssetRepo.GetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}

	if asset.Kind == domain.AssetKindFixed {
		return nil, domain.Invalidf("fixed asset is priced by its fixed price and cannot be quoted")
	}

	quote := &domain.PriceQuote{
		ID:      uuid.New(),
		AssetID: assetID,
		Date:    time.Now().UTC(),
		Price:   price,
	}

	if err := s.PriceRepo.Add(ctx, quote); err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("asset", asset.Name).
		Str("price", price.String()).
		Msg("Price recorded")

	return quote, nil
}

// LatestPrice returns the unit price currently used for an asset
func (s *PricingService) LatestPrice(ctx context.Context, assetID uuid.UUID) (decimal.Decimal, error) {
	asset, err := s.AssetRepo.GetByID(ctx, assetID)
	if err != nil {
		return decimal.Zero, err
	}

	return s.PriceOf(ctx, asset)
}

// PriceOf resolves the unit price of an already loaded asset.
// FIXED assets use their fixed price; every other kind uses the latest quote.
func (s *PricingService) PriceOf(ctx context.Context, asset *domain.Asset) (decimal.Decimal, error) {
	if asset.Kind == domain.AssetKindFixed {
		return asset.FixedPrice, nil
	}

	quote, err := s.PriceRepo.GetLatest(ctx, asset.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return decimal.Zero, fmt.Errorf("%w for asset %s", ErrNoPrice, asset.Name)
		}
		return decimal.Zero, err
	}

	return quote.Price, nil
}
