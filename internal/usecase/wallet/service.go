package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-rebalancer/internal/domain"
)

var (
	// ErrDuplicateWallet is returned when a wallet with the same name exists
	ErrDuplicateWallet = errors.New("wallet name already used")

	// ErrDuplicateAsset is returned when a wallet already holds an asset with the same name
	ErrDuplicateAsset = errors.New("asset name already used in wallet")
)

// CreateWalletInput represents the input for creating a wallet
type CreateWalletInput struct {
	Name            string
	IdealPercentage decimal.Decimal
}

// AddAssetInput represents the input for adding an asset to a wallet
type AddAssetInput struct {
	WalletID   uuid.UUID
	Name       string
	Kind       domain.AssetKind
	Amount     int64
	FixedPrice decimal.Decimal
}

// WalletService manages wallets and the assets they hold
type WalletService struct {
	WalletRepo domain.WalletRepository
	AssetRepo  domain.AssetRepository
	log        zerolog.Logger
}

// NewWalletService creates a new WalletService instance
func NewWalletService(walletRepo domain.WalletRepository, assetRepo domain.AssetRepository, log zerolog.Logger) *WalletService {
	return &WalletService{
		WalletRepo: walletRepo,
		AssetRepo:  assetRepo,
		log:        log.With().Str("service", "wallet").Logger(),
	}
}

// CreateWallet validates and stores a new wallet
func (s *WalletService) CreateWallet(ctx context.Context, input CreateWalletInput) (*domain.Wallet, error) {
	wallet := &domain.Wallet{
		ID:              uuid.New(),
		Name:            input.Name,
		IdealPercentage: input.IdealPercentage,
	}

	if err := wallet.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.WalletRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, w := range existing {
		if w.Name == wallet.Name {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateWallet, wallet.Name)
		}
	}

	if err := s.WalletRepo.Create(ctx, wallet); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("wallet", wallet.Name).
		Str("ideal_percentage", wallet.IdealPercentage.String()).
		Msg("Wallet created")

	return wallet, nil
}

// AddAsset adds an asset to an existing wallet
// Logic:
//  1. Verify the wallet exists
//  2. Validate the asset
//  3. Reject a name already used in the same wallet
func (s *WalletService) AddAsset(ctx context.Context, input AddAssetInput) (*domain.Asset, error) {
	if _, err := s.WalletRepo.GetByID(ctx, input.WalletID); err != nil {
		return nil, err
	}

	fixedPrice := input.FixedPrice
	if input.Kind != domain.AssetKindFixed {
		fixedPrice = decimal.Zero
	}

	asset := &domain.Asset{
		ID:         uuid.New(),
		WalletID:   input.WalletID,
		Name:       input.Name,
		Kind:       input.Kind,
		Amount:     input.Amount,
		FixedPrice: fixedPrice,
	}

	if err := asset.Validate(); err != nil {
		return nil, err
	}

	_, err := s.AssetRepo.GetByName(ctx, input.WalletID, input.Name)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: %s", ErrDuplicateAsset, input.Name)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	if err := s.AssetRepo.Create(ctx, asset); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("wallet_id", asset.WalletID.String()).
		Str("asset", asset.Name).
		Str("kind", string(asset.Kind)).
		Int64("amount", asset.Amount).
		Msg("Asset added")

	return asset, nil
}

// SetIdealPercentage changes the target share of a wallet
func (s *WalletService) SetIdealPercentage(ctx context.Context, walletID uuid.UUID, idealPercentage decimal.Decimal) (*domain.Wallet, error) {
	wallet, err := s.WalletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, err
	}

	wallet.IdealPercentage = idealPercentage
	if err := wallet.Validate(); err != nil {
		return nil, err
	}

	if err := s.WalletRepo.UpdateIdealPercentage(ctx, walletID, idealPercentage); err != nil {
		return nil, err
	}

	return wallet, nil
}

// ListWallets returns every wallet ordered by name
func (s *WalletService) ListWallets(ctx context.Context) ([]*domain.Wallet, error) {
	return s.WalletRepo.List(ctx)
}

// ListAssets returns the assets of a wallet in creation order
func (s *WalletService) ListAssets(ctx context.Context, walletID uuid.UUID) ([]*domain.Asset, error) {
	if _, err := s.WalletRepo.GetByID(ctx, walletID); err != nil {
		return nil, err
	}
	return s.AssetRepo.ListByWallet(ctx, walletID)
}
