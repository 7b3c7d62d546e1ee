package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet represents a group of assets with a target share of the whole portfolio
type Wallet struct {
	ID              uuid.UUID
	Name            string
	IdealPercentage decimal.Decimal // Fraction in [0,1]. Wallets are NOT required to sum to 1.
}

// Validate ensures the wallet adheres to domain rules
// Returns an error if validation fails
func (w *Wallet) Validate() error {
	if w.Name == "" {
		return Invalidf("wallet name cannot be empty")
	}

	if w.IdealPercentage.LessThan(decimal.Zero) || w.IdealPercentage.GreaterThan(decimal.NewFromInt(1)) {
		return Invalidf("invalid ideal percentage: must be between 0 and 1")
	}

	return nil
}

// AssetKind represents how an asset is priced
type AssetKind string

const (
	AssetKindStock AssetKind = "STOCK"
	AssetKindETF   AssetKind = "ETF"
	AssetKindFund  AssetKind = "FUND"
	AssetKindFixed AssetKind = "FIXED" // Fixed-value asset: FixedPrice is the unit price, no quotes needed
)

// Asset represents a holding inside a wallet
type Asset struct {
	ID         uuid.UUID
	WalletID   uuid.UUID
	Name       string // Unique within its wallet
	Kind       AssetKind
	Amount     int64           // Units held
	FixedPrice decimal.Decimal // Only meaningful for FIXED assets
}

// Validate ensures the asset adheres to domain rules
// Returns an error if validation fails
func (a *Asset) Validate() error {
	if a.Name == "" {
		return Invalidf("asset name cannot be empty")
	}

	if a.WalletID == uuid.Nil {
		return Invalidf("asset must have a wallet ID")
	}

	if a.Amount < 0 {
		return Invalidf("invalid asset amount: must not be negative")
	}

	switch a.Kind {
	case AssetKindStock, AssetKindETF, AssetKindFund:
		// Priced from quotes
	case AssetKindFixed:
		if !a.FixedPrice.IsPositive() {
			return Invalidf("fixed asset must have a positive fixed price")
		}
	default:
		return Invalidf("invalid asset kind: must be STOCK, ETF, FUND or FIXED")
	}

	return nil
}
