package seeder

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/simaogato/wealthflow-rebalancer/internal/domain"
	"github.com/simaogato/wealthflow-rebalancer/internal/portfolio"
)

// PortfolioSeeder loads a portfolio snapshot into storage
type PortfolioSeeder struct {
	walletRepo domain.WalletRepository
	assetRepo  domain.AssetRepository
	priceRepo  domain.PriceRepository
	log        zerolog.Logger
}

// NewPortfolioSeeder creates a new PortfolioSeeder instance
func NewPortfolioSeeder(
	walletRepo domain.WalletRepository,
	assetRepo domain.AssetRepository,
	priceRepo domain.PriceRepository,
	log zerolog.Logger,
) *PortfolioSeeder {
	return &PortfolioSeeder{
		walletRepo: walletRepo,
		assetRepo:  assetRepo,
		priceRepo:  priceRepo,
		log:        log.With().Str("service", "seeder").Logger(),
	}
}

// Seed ensures every wallet and asset of the snapshot exists.
// Wallets are matched by name and assets by name within their wallet; existing rows are left
// as they are. A quote is added for each priced asset whose latest price differs.
func (s *PortfolioSeeder) Seed(ctx context.Context, p *portfolio.Portfolio) error {
	existing, err := s.walletRepo.List(ctx)
	if err != nil {
		return err
	}

	byName := make(map[string]*domain.Wallet, len(existing))
	for _, w := range existing {
		byName[w.Name] = w
	}

	for _, sw := range p.Wallets {
		wallet, ok := byName[sw.Name]
		if !ok {
			wallet = &domain.Wallet{
				ID:              sw.ID,
				Name:            sw.Name,
				IdealPercentage: sw.IdealPercentage,
			}

			if err := wallet.Validate(); err != nil {
				return err
			}

			if err := s.walletRepo.Create(ctx, wallet); err != nil {
				return err
			}
			s.log.Info().Str("wallet", wallet.Name).Msg("Wallet seeded")
		}

		for _, sa := range sw.Assets {
			if err := s.seedAsset(ctx, wallet.ID, sa); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *PortfolioSeeder) seedAsset(ctx context.Context, walletID uuid.UUID, sa portfolio.Asset) error {
	asset, err := s.assetRepo.GetByName(ctx, walletID, sa.Name)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		// Asset doesn't exist, create it
		asset = sa.Domain(walletID)
		if err := asset.Validate(); err != nil {
			return err
		}

		if err := s.assetRepo.Create(ctx, asset); err != nil {
			return err
		}
		s.log.Info().Str("asset", asset.Name).Int64("amount", asset.Amount).Msg("Asset seeded")
	}

	if !sa.HasPrice || asset.Kind == domain.AssetKindFixed {
		return nil
	}

	latest, err := s.priceRepo.GetLatest(ctx, asset.ID)
	switch {
	case err == nil && latest.Price.Equal(sa.Price):
		return nil
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return err
	}

	return s.priceRepo.Add(ctx, &domain.PriceQuote{
		ID:      uuid.New(),
		AssetID: asset.ID,
		Date:    time.Now().UTC(),
		Price:   sa.Price,
	})
}
