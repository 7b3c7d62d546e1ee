package investing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-rebalancer/internal/domain"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/allocator"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/pricing"
)

// MaxPlanUnits caps the units a single plan may buy. A tiny price against a large cash amount
// would otherwise keep the greedy allocator busy for hours.
const MaxPlanUnits = 1_000_000

// PriceSource resolves the unit price of an asset.
// Implementations return an error wrapping pricing.ErrNoPrice when the price is unknown.
type PriceSource interface {
	PriceOf(ctx context.Context, asset *domain.Asset) (decimal.Decimal, error)
}

// AssetPurchasePlan is a whole-unit purchase plan for the assets of one wallet
type AssetPurchasePlan struct {
	WalletID     uuid.UUID
	Plan         *allocator.DiscretePlan
	Assets       []*domain.Asset               // Priced assets that took part, in wallet order
	UnitPrices   map[uuid.UUID]decimal.Decimal // Price used per asset
	WithoutPrice []*domain.Asset               // Skipped because no price is known
}

// ApplyResult is the outcome of applying a purchase plan
type ApplyResult struct {
	Plan     *AssetPurchasePlan
	Purchase *domain.Purchase // Nil when the plan buys nothing
}

// WalletValuation is the current value of a wallet at the latest prices
type WalletValuation struct {
	Wallet       *domain.Wallet
	Value        decimal.Decimal
	WithoutPrice []*domain.Asset // Not counted in Value
}

// DistributionPlan splits cash across wallets
type DistributionPlan struct {
	Plan       *allocator.ProportionalPlan
	Valuations []WalletValuation // Every wallet, blacklisted ones included
}

// InvestingService turns cash into purchase plans for wallets and assets
type InvestingService struct {
	WalletRepo   domain.WalletRepository
	AssetRepo    domain.AssetRepository
	PurchaseRepo domain.PurchaseRepository
	Prices       PriceSource
	log          zerolog.Logger
}

// NewInvestingService creates a new InvestingService instance
func NewInvestingService(
	walletRepo domain.WalletRepository,
	assetRepo domain.AssetRepository,
	purchaseRepo domain.PurchaseRepository,
	prices PriceSource,
	log zerolog.Logger,
) *InvestingService {
	return &InvestingService{
		WalletRepo:   walletRepo,
		AssetRepo:    assetRepo,
		PurchaseRepo: purchaseRepo,
		Prices:       prices,
		log:          log.With().Str("service", "investing").Logger(),
	}
}

// PlanAssetPurchase plans how to spend cash on whole units of a wallet's assets
// Logic:
//  1. Load the wallet's assets and drop the blacklisted ones
//  2. Resolve a price for each; assets without one are reported, not planned
//  3. Run the discrete greedy allocator over the priced assets
func (s *InvestingService) PlanAssetPurchase(ctx context.Context, walletID uuid.UUID, cash decimal.Decimal, blacklist []uuid.UUID) (*AssetPurchasePlan, error) {
	if _, err := s.WalletRepo.GetByID(ctx, walletID); err != nil {
		return nil, err
	}

	assets, err := s.AssetRepo.ListByWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}

	skip := make(map[uuid.UUID]bool, len(blacklist))
	for _, id := range blacklist {
		skip[id] = true
	}

	result := &AssetPurchasePlan{
		WalletID:   walletID,
		UnitPrices: make(map[uuid.UUID]decimal.Decimal, len(assets)),
	}

	buckets := make([]allocator.AssetBucket, 0, len(assets))
	for _, asset := range assets {
		if skip[asset.ID] {
			continue
		}

		price, err := s.Prices.PriceOf(ctx, asset)
		if err != nil {
			if errors.Is(err, pricing.ErrNoPrice) {
				result.WithoutPrice = append(result.WithoutPrice, asset)
				continue
			}
			return nil, err
		}

		result.Assets = append(result.Assets, asset)
		result.UnitPrices[asset.ID] = price
		buckets = append(buckets, allocator.AssetBucket{
			ID:        asset.ID,
			Name:      asset.Name,
			UnitPrice: price,
			Amount:    asset.Amount,
		})
	}

	if len(result.WithoutPrice) > 0 {
		s.log.Warn().
			Str("wallet_id", walletID.String()).
			Int("count", len(result.WithoutPrice)).
			Msg("Assets without price left out of the plan")
	}

	if err := allocator.CheckUnitBudget(buckets, cash, MaxPlanUnits); err != nil {
		return nil, err
	}

	plan, err := allocator.AllocateDiscrete(buckets, cash)
	if err != nil {
		return nil, err
	}
	result.Plan = plan

	s.log.Debug().
		Str("wallet_id", walletID.String()).
		Str("cash", cash.String()).
		Str("invested", plan.InvestedAmount.String()).
		Str("remaining", plan.RemainingAmount.String()).
		Msg("Asset purchase planned")

	return result, nil
}

// ApplyAssetPurchase plans a purchase exactly as PlanAssetPurchase does, blacklist included,
// and records it, crediting the bought units to the assets.
// An empty plan records nothing.
func (s *InvestingService) ApplyAssetPurchase(ctx context.Context, walletID uuid.UUID, cash decimal.Decimal, blacklist []uuid.UUID, description string) (*ApplyResult, error) {
	planned, err := s.PlanAssetPurchase(ctx, walletID, cash, blacklist)
	if err != nil {
		return nil, err
	}

	result := &ApplyResult{Plan: planned}
	if len(planned.Plan.Purchases) == 0 {
		return result, nil
	}

	purchaseID := uuid.New()
	lines := make([]domain.PurchaseLine, 0, len(planned.Plan.Purchases))
	for _, asset := range planned.Assets {
		units, ok := planned.Plan.Purchases[asset.ID]
		if !ok {
			continue
		}
		price := planned.UnitPrices[asset.ID]
		lines = append(lines, domain.PurchaseLine{
			ID:         uuid.New(),
			PurchaseID: purchaseID,
			AssetID:    asset.ID,
			Units:      units,
			UnitPrice:  price,
			Cost:       price.Mul(decimal.NewFromInt(units)),
		})
	}

	purchase := &domain.Purchase{
		ID:          purchaseID,
		WalletID:    walletID,
		Description: description,
		Date:        time.Now().UTC(),
		Lines:       lines,
	}

	if err := purchase.Validate(); err != nil {
		return nil, err
	}

	if !purchase.Total().Equal(planned.Plan.InvestedAmount) {
		return nil, fmt.Errorf("purchase total %s does not match invested amount %s", purchase.Total(), planned.Plan.InvestedAmount)
	}

	if err := s.PurchaseRepo.Create(ctx, purchase); err != nil {
		return nil, err
	}
	result.Purchase = purchase

	s.log.Info().
		Str("wallet_id", walletID.String()).
		Str("purchase_id", purchaseID.String()).
		Str("total", purchase.Total().String()).
		Int("lines", len(lines)).
		Msg("Asset purchase applied")

	return result, nil
}

// ValueWallets values every wallet as the sum of its priced assets
func (s *InvestingService) ValueWallets(ctx context.Context) ([]WalletValuation, error) {
	wallets, err := s.WalletRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	valuations := make([]WalletValuation, 0, len(wallets))
	for _, wallet := range wallets {
		valuation, err := s.valueWallet(ctx, wallet)
		if err != nil {
			return nil, err
		}
		valuations = append(valuations, valuation)
	}

	return valuations, nil
}

func (s *InvestingService) valueWallet(ctx context.Context, wallet *domain.Wallet) (WalletValuation, error) {
	valuation := WalletValuation{Wallet: wallet, Value: decimal.Zero}

	assets, err := s.AssetRepo.ListByWallet(ctx, wallet.ID)
	if err != nil {
		return valuation, err
	}

	for _, asset := range assets {
		price, err := s.Prices.PriceOf(ctx, asset)
		if err != nil {
			if errors.Is(err, pricing.ErrNoPrice) {
				valuation.WithoutPrice = append(valuation.WithoutPrice, asset)
				continue
			}
			return valuation, err
		}
		valuation.Value = valuation.Value.Add(price.Mul(decimal.NewFromInt(asset.Amount)))
	}

	return valuation, nil
}

// PlanCashDistribution splits cash across wallets so they move toward their ideal percentages
// Logic:
//  1. Value every wallet at the latest prices
//  2. Drop the blacklisted wallets
//  3. Run the proportional shortfall allocator over the rest
func (s *InvestingService) PlanCashDistribution(ctx context.Context, cash decimal.Decimal, blacklist []uuid.UUID) (*DistributionPlan, error) {
	valuations, err := s.ValueWallets(ctx)
	if err != nil {
		return nil, err
	}

	buckets := make([]allocator.Bucket, 0, len(valuations))
	for _, v := range valuations {
		buckets = append(buckets, allocator.Bucket{
			ID:              v.Wallet.ID,
			CurrentValue:    v.Value,
			IdealPercentage: v.Wallet.IdealPercentage,
		})
	}

	plan, err := allocator.AllocateProportional(allocator.Exclude(buckets, blacklist), cash)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("cash", cash.String()).
		Int("wallets", len(buckets)).
		Int("rounds", plan.Rounds).
		Int("excluded", len(plan.Excluded)).
		Msg("Cash distribution planned")

	return &DistributionPlan{Plan: plan, Valuations: valuations}, nil
}
