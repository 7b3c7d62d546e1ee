package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletRepository defines the interface for wallet persistence operations
type WalletRepository interface {
	// GetByID retrieves a wallet by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Wallet, error)

	// Create creates a new wallet
	Create(ctx context.Context, wallet *Wallet) error

	// List retrieves all wallets ordered by name
	List(ctx context.Context) ([]*Wallet, error)

	// UpdateIdealPercentage changes the target share of a wallet
	UpdateIdealPercentage(ctx context.Context, id uuid.UUID, idealPercentage decimal.Decimal) error
}

// AssetRepository defines the interface for asset persistence operations
type AssetRepository interface {
	// GetByID retrieves an asset by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Asset, error)

	// GetByName retrieves an asset by its name within a wallet
	GetByName(ctx context.Context, walletID uuid.UUID, name string) (*Asset, error)

	// Create creates a new asset
	Create(ctx context.Context, asset *Asset) error

	// ListByWallet retrieves the assets of a wallet in creation order
	ListByWallet(ctx context.Context, walletID uuid.UUID) ([]*Asset, error)

	// UpdateAmount overwrites the units held of an asset
	UpdateAmount(ctx context.Context, id uuid.UUID, amount int64) error
}

// PriceRepository defines the interface for price history persistence operations
type PriceRepository interface {
	// Add creates a new price quote
	Add(ctx context.Context, quote *PriceQuote) error

	// GetLatest retrieves the most recent quote for a given asset
	GetLatest(ctx context.Context, assetID uuid.UUID) (*PriceQuote, error)
}

// PurchaseRepository defines the interface for purchase persistence operations
type PurchaseRepository interface {
	// Create records a purchase with its lines and adds each line's units to its asset,
	// all in one database transaction
	Create(ctx context.Context, purchase *Purchase) error

	// ListByWallet retrieves a paginated list of purchases for a wallet, newest first
	ListByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*Purchase, error)
}
