package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceQuote represents a unit price observed for an asset at a point in time.
// The latest quote is the price used for valuation and allocation.
type PriceQuote struct {
	ID      uuid.UUID
	AssetID uuid.UUID
	Date    time.Time
	Price   decimal.Decimal // Always positive
}
