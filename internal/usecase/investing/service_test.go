package investing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-rebalancer/internal/domain"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/allocator"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockWalletRepository is a mock implementation of WalletRepository for testing
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	args := m.Called(ctx, wallet)
	return args.Error(0)
}

func (m *MockWalletRepository) List(ctx context.Context) ([]*domain.Wallet, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) UpdateIdealPercentage(ctx context.Context, id uuid.UUID, idealPercentage decimal.Decimal) error {
	args := m.Called(ctx, id, idealPercentage)
	return args.Error(0)
}

// MockAssetRepository is a mock implementation of AssetRepository for testing
type MockAssetRepository struct {
	mock.Mock
}

func (m *MockAssetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Asset), args.Error(1)
}

func (m *MockAssetRepository) GetByName(ctx context.Context, walletID uuid.UUID, name string) (*domain.Asset, error) {
	args := m.Called(ctx, walletID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Asset), args.Error(1)
}

func (m *MockAssetRepository) Create(ctx context.Context, asset *domain.Asset) error {
	args := m.Called(ctx, asset)
	return args.Error(0)
}

func (m *MockAssetRepository) ListByWallet(ctx context.Context, walletID uuid.UUID) ([]*domain.Asset, error) {
	args := m.Called(ctx, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Asset), args.Error(1)
}

func (m *MockAssetRepository) UpdateAmount(ctx context.Context, id uuid.UUID, amount int64) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

// MockPurchaseRepository is a mock implementation of PurchaseRepository for testing
type MockPurchaseRepository struct {
	mock.Mock
}

func (m *MockPurchaseRepository) Create(ctx context.Context, purchase *domain.Purchase) error {
	args := m.Called(ctx, purchase)
	return args.Error(0)
}

func (m *MockPurchaseRepository) ListByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*domain.Purchase, error) {
	args := m.Called(ctx, walletID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Purchase), args.Error(1)
}

// staticPrices is a PriceSource backed by a map; missing assets have no price
type staticPrices map[uuid.UUID]decimal.Decimal

func (p staticPrices) PriceOf(_ context.Context, asset *domain.Asset) (decimal.Decimal, error) {
	price, ok := p[asset.ID]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w for asset %s", pricing.ErrNoPrice, asset.Name)
	}
	return price, nil
}

type fixture struct {
	walletRepo   *MockWalletRepository
	assetRepo    *MockAssetRepository
	purchaseRepo *MockPurchaseRepository
	prices       staticPrices
	service      *InvestingService
}

func newFixture() *fixture {
	f := &fixture{
		walletRepo:   new(MockWalletRepository),
		assetRepo:    new(MockAssetRepository),
		purchaseRepo: new(MockPurchaseRepository),
		prices:       staticPrices{},
	}
	f.service = NewInvestingService(f.walletRepo, f.assetRepo, f.purchaseRepo, f.prices, zerolog.Nop())
	return f
}

// stocksWallet returns a wallet holding X (10), Y (25) and Z (no price), all empty
func (f *fixture) stocksWallet(ctx context.Context) (*domain.Wallet, []*domain.Asset) {
	wallet := &domain.Wallet{ID: uuid.New(), Name: "Stocks", IdealPercentage: decimal.NewFromInt(1)}
	assets := []*domain.Asset{
		{ID: uuid.New(), WalletID: wallet.ID, Name: "X", Kind: domain.AssetKindStock},
		{ID: uuid.New(), WalletID: wallet.ID, Name: "Y", Kind: domain.AssetKindStock},
		{ID: uuid.New(), WalletID: wallet.ID, Name: "Z", Kind: domain.AssetKindStock},
	}
	f.prices[assets[0].ID] = decimal.NewFromInt(10)
	f.prices[assets[1].ID] = decimal.NewFromInt(25)

	f.walletRepo.On("GetByID", ctx, wallet.ID).Return(wallet, nil)
	f.assetRepo.On("ListByWallet", ctx, wallet.ID).Return(assets, nil)
	return wallet, assets
}

func TestPlanAssetPurchase_SkipsAssetsWithoutPrice(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	wallet, assets := f.stocksWallet(ctx)

	result, err := f.service.PlanAssetPurchase(ctx, wallet.ID, decimal.NewFromInt(45), nil)

	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int64{assets[0].ID: 2, assets[1].ID: 1}, result.Plan.Purchases)
	assert.True(t, result.Plan.InvestedAmount.Equal(decimal.NewFromInt(45)))
	assert.True(t, result.Plan.RemainingAmount.IsZero())
	require.Len(t, result.WithoutPrice, 1)
	assert.Equal(t, "Z", result.WithoutPrice[0].Name)
	assert.Len(t, result.Assets, 2)
}

func TestPlanAssetPurchase_Blacklist(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	wallet, assets := f.stocksWallet(ctx)

	result, err := f.service.PlanAssetPurchase(ctx, wallet.ID, decimal.NewFromInt(45), []uuid.UUID{assets[0].ID})

	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int64{assets[1].ID: 1}, result.Plan.Purchases)
	assert.True(t, result.Plan.RemainingAmount.Equal(decimal.NewFromInt(20)))
}

func TestPlanAssetPurchase_NothingPriced(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	wallet, assets := f.stocksWallet(ctx)

	_, err := f.service.PlanAssetPurchase(ctx, wallet.ID, decimal.NewFromInt(45), []uuid.UUID{assets[0].ID, assets[1].ID})

	assert.ErrorIs(t, err, allocator.ErrEmptyBucketSet)
}

func TestPlanAssetPurchase_UnknownWallet(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	walletID := uuid.New()
	f.walletRepo.On("GetByID", ctx, walletID).Return(nil, fmt.Errorf("wallet: %w", domain.ErrNotFound))

	_, err := f.service.PlanAssetPurchase(ctx, walletID, decimal.NewFromInt(45), nil)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	f.assetRepo.AssertNotCalled(t, "ListByWallet", mock.Anything, mock.Anything)
}

func TestPlanAssetPurchase_NegativeCash(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	wallet, _ := f.stocksWallet(ctx)

	_, err := f.service.PlanAssetPurchase(ctx, wallet.ID, decimal.NewFromInt(-1), nil)

	assert.ErrorIs(t, err, allocator.ErrNegativeCash)
}

func TestApplyAssetPurchase_RecordsPurchase(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	wallet, assets := f.stocksWallet(ctx)

	var recorded *domain.Purchase
	f.purchaseRepo.On("Create", ctx, mock.AnythingOfType("*domain.Purchase")).
		Run(func(args mock.Arguments) { recorded = args.Get(1).(*domain.Purchase) }).
		Return(nil)

	result, err := f.service.ApplyAssetPurchase(ctx, wallet.ID, decimal.NewFromInt(45), nil, "monthly")

	require.NoError(t, err)
	require.NotNil(t, result.Purchase)
	assert.Same(t, recorded, result.Purchase)
	assert.Equal(t, "monthly", recorded.Description)
	assert.True(t, recorded.Total().Equal(decimal.NewFromInt(45)))
	require.Len(t, recorded.Lines, 2)

	// Lines follow wallet order
	assert.Equal(t, assets[0].ID, recorded.Lines[0].AssetID)
	assert.Equal(t, int64(2), recorded.Lines[0].Units)
	assert.True(t, recorded.Lines[0].Cost.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, assets[1].ID, recorded.Lines[1].AssetID)
	assert.Equal(t, int64(1), recorded.Lines[1].Units)
	for _, line := range recorded.Lines {
		assert.Equal(t, recorded.ID, line.PurchaseID)
	}
}

func TestApplyAssetPurchase_EmptyPlanRecordsNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	wallet, _ := f.stocksWallet(ctx)

	result, err := f.service.ApplyAssetPurchase(ctx, wallet.ID, decimal.NewFromInt(5), nil, "too little")

	require.NoError(t, err)
	assert.Nil(t, result.Purchase)
	assert.Empty(t, result.Plan.Plan.Purchases)
	f.purchaseRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestApplyAssetPurchase_StorageFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	wallet, _ := f.stocksWallet(ctx)
	dbErr := errors.New("disk full")
	f.purchaseRepo.On("Create", ctx, mock.Anything).Return(dbErr)

	_, err := f.service.ApplyAssetPurchase(ctx, wallet.ID, decimal.NewFromInt(45), nil, "")

	assert.ErrorIs(t, err, dbErr)
}

func TestApplyAssetPurchase_Blacklist(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	wallet, assets := f.stocksWallet(ctx)

	skipsX := mock.MatchedBy(func(p *domain.Purchase) bool {
		for _, line := range p.Lines {
			if line.AssetID == assets[0].ID {
				return false
			}
		}
		return true
	})
	f.purchaseRepo.On("Create", ctx, skipsX).Return(nil)

	result, err := f.service.ApplyAssetPurchase(ctx, wallet.ID, decimal.NewFromInt(45), []uuid.UUID{assets[0].ID}, "no X")

	require.NoError(t, err)
	require.NotNil(t, result.Purchase)
	require.Len(t, result.Purchase.Lines, 1)
	assert.Equal(t, assets[1].ID, result.Purchase.Lines[0].AssetID)
	assert.Equal(t, int64(1), result.Purchase.Lines[0].Units)
	assert.NotContains(t, result.Plan.Plan.Purchases, assets[0].ID)
	assert.True(t, result.Plan.Plan.RemainingAmount.Equal(decimal.NewFromInt(20)))
	f.purchaseRepo.AssertExpectations(t)
}

func TestValueWallets(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	wallet := &domain.Wallet{ID: uuid.New(), Name: "Stocks", IdealPercentage: decimal.NewFromInt(1)}
	priced := &domain.Asset{ID: uuid.New(), WalletID: wallet.ID, Name: "X", Kind: domain.AssetKindStock, Amount: 3}
	unpriced := &domain.Asset{ID: uuid.New(), WalletID: wallet.ID, Name: "Z", Kind: domain.AssetKindStock, Amount: 7}
	f.prices[priced.ID] = decimal.RequireFromString("12.5")

	f.walletRepo.On("List", ctx).Return([]*domain.Wallet{wallet}, nil)
	f.assetRepo.On("ListByWallet", ctx, wallet.ID).Return([]*domain.Asset{priced, unpriced}, nil)

	valuations, err := f.service.ValueWallets(ctx)

	require.NoError(t, err)
	require.Len(t, valuations, 1)
	assert.True(t, valuations[0].Value.Equal(decimal.RequireFromString("37.5")))
	require.Len(t, valuations[0].WithoutPrice, 1)
	assert.Equal(t, unpriced.ID, valuations[0].WithoutPrice[0].ID)
}

func TestPlanCashDistribution(t *testing.T) {
	ctx := context.Background()

	setup := func() (*fixture, *domain.Wallet, *domain.Wallet, *domain.Wallet) {
		f := newFixture()
		a := &domain.Wallet{ID: uuid.New(), Name: "A", IdealPercentage: decimal.RequireFromString("0.5")}
		b := &domain.Wallet{ID: uuid.New(), Name: "B", IdealPercentage: decimal.RequireFromString("0.3")}
		c := &domain.Wallet{ID: uuid.New(), Name: "C", IdealPercentage: decimal.RequireFromString("0.2")}

		assetA := &domain.Asset{ID: uuid.New(), WalletID: a.ID, Name: "A1", Kind: domain.AssetKindFund, Amount: 100}
		assetB := &domain.Asset{ID: uuid.New(), WalletID: b.ID, Name: "B1", Kind: domain.AssetKindFund, Amount: 50}
		f.prices[assetA.ID] = decimal.NewFromInt(1)
		f.prices[assetB.ID] = decimal.NewFromInt(1)

		f.walletRepo.On("List", ctx).Return([]*domain.Wallet{a, b, c}, nil)
		f.assetRepo.On("ListByWallet", ctx, a.ID).Return([]*domain.Asset{assetA}, nil)
		f.assetRepo.On("ListByWallet", ctx, b.ID).Return([]*domain.Asset{assetB}, nil)
		f.assetRepo.On("ListByWallet", ctx, c.ID).Return([]*domain.Asset{}, nil)
		return f, a, b, c
	}

	t.Run("Shortfall is split across wallets", func(t *testing.T) {
		f, a, b, c := setup()

		// Values 100/50/0 with 100 cash: total 250, targets 125/75/50
		result, err := f.service.PlanCashDistribution(ctx, decimal.NewFromInt(100), nil)

		require.NoError(t, err)
		plan := result.Plan
		assert.True(t, plan.TotalValueAfter.Equal(decimal.NewFromInt(250)))
		assert.True(t, plan.Purchases[a.ID].Equal(decimal.NewFromInt(25)))
		assert.True(t, plan.Purchases[b.ID].Equal(decimal.NewFromInt(25)))
		assert.True(t, plan.Purchases[c.ID].Equal(decimal.NewFromInt(50)))
		assert.Len(t, result.Valuations, 3)
	})

	t.Run("Wallet above target is excluded", func(t *testing.T) {
		f, a, b, c := setup()

		// Values 100/50/0 with 10 cash: total 160, targets 80/48/32 drop A and B at once.
		// Second round prices C alone against the original 10.
		result, err := f.service.PlanCashDistribution(ctx, decimal.NewFromInt(10), nil)

		require.NoError(t, err)
		plan := result.Plan
		assert.Equal(t, []uuid.UUID{a.ID, b.ID}, plan.Excluded)
		assert.Equal(t, 2, plan.Rounds)
		assert.True(t, plan.Purchases[c.ID].Equal(decimal.NewFromInt(10)), "got %s", plan.Purchases[c.ID])
	})

	t.Run("Blacklisted wallet gets nothing", func(t *testing.T) {
		f, a, b, c := setup()

		// Without A: shares B 0.6, C 0.4 over 150 → B 90-50=40, C 60
		result, err := f.service.PlanCashDistribution(ctx, decimal.NewFromInt(100), []uuid.UUID{a.ID})

		require.NoError(t, err)
		plan := result.Plan
		_, hasA := plan.Purchases[a.ID]
		assert.False(t, hasA)
		assert.True(t, plan.Purchases[b.ID].Equal(decimal.NewFromInt(40)), "got %s", plan.Purchases[b.ID])
		assert.True(t, plan.Purchases[c.ID].Equal(decimal.NewFromInt(60)), "got %s", plan.Purchases[c.ID])
	})

	t.Run("No wallets", func(t *testing.T) {
		f := newFixture()
		f.walletRepo.On("List", ctx).Return([]*domain.Wallet{}, nil)

		_, err := f.service.PlanCashDistribution(ctx, decimal.NewFromInt(100), nil)

		assert.ErrorIs(t, err, allocator.ErrEmptyBucketSet)
	})
}
