package dashboard

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-rebalancer/internal/domain"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/investing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockValuer is a mock implementation of Valuer for testing
type MockValuer struct {
	mock.Mock
}

func (m *MockValuer) ValueWallets(ctx context.Context) ([]investing.WalletValuation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]investing.WalletValuation), args.Error(1)
}

func valuation(name, ideal string, value int64) investing.WalletValuation {
	return investing.WalletValuation{
		Wallet: &domain.Wallet{ID: uuid.New(), Name: name, IdealPercentage: decimal.RequireFromString(ideal)},
		Value:  decimal.NewFromInt(value),
	}
}

func TestGetPortfolioSummary_OnTarget(t *testing.T) {
	ctx := context.Background()
	valuer := new(MockValuer)
	service := NewDashboardService(valuer, zerolog.Nop())

	valuer.On("ValueWallets", ctx).Return([]investing.WalletValuation{
		valuation("Stocks", "0.6", 600),
		valuation("Bonds", "0.4", 400),
	}, nil)

	summary, err := service.GetPortfolioSummary(ctx)

	require.NoError(t, err)
	assert.True(t, summary.TotalValue.Equal(decimal.NewFromInt(1000)))
	require.Len(t, summary.Wallets, 2)
	assert.True(t, summary.Wallets[0].RealPercentage.Equal(decimal.RequireFromString("0.6")))
	assert.True(t, summary.Wallets[1].IdealPercentage.Equal(decimal.RequireFromString("0.4")))
	assert.InDelta(t, 0.0, summary.Drift, 1e-12)
}

func TestGetPortfolioSummary_DriftAndNormalization(t *testing.T) {
	ctx := context.Background()
	valuer := new(MockValuer)
	service := NewDashboardService(valuer, zerolog.Nop())

	// Ideals 0.3/0.3 normalize to 0.5/0.5; real split is 0.8/0.2
	unpriced := valuation("Bonds", "0.3", 20)
	unpriced.WithoutPrice = []*domain.Asset{{ID: uuid.New(), Name: "NEW"}}
	valuer.On("ValueWallets", ctx).Return([]investing.WalletValuation{
		valuation("Stocks", "0.3", 80),
		unpriced,
	}, nil)

	summary, err := service.GetPortfolioSummary(ctx)

	require.NoError(t, err)
	assert.True(t, summary.Wallets[0].IdealPercentage.Equal(decimal.RequireFromString("0.5")))
	assert.True(t, summary.Wallets[0].RealPercentage.Equal(decimal.RequireFromString("0.8")))
	assert.Equal(t, 1, summary.Wallets[1].UnpricedAssets)
	assert.InDelta(t, math.Sqrt(0.09+0.09), summary.Drift, 1e-9)
}

func TestGetPortfolioSummary_EmptyPortfolio(t *testing.T) {
	ctx := context.Background()
	valuer := new(MockValuer)
	service := NewDashboardService(valuer, zerolog.Nop())

	valuer.On("ValueWallets", ctx).Return([]investing.WalletValuation{}, nil)

	summary, err := service.GetPortfolioSummary(ctx)

	require.NoError(t, err)
	assert.True(t, summary.TotalValue.IsZero())
	assert.Empty(t, summary.Wallets)
	assert.Equal(t, 0.0, summary.Drift)
}

func TestGetPortfolioSummary_NoTargetsAndNoValue(t *testing.T) {
	ctx := context.Background()
	valuer := new(MockValuer)
	service := NewDashboardService(valuer, zerolog.Nop())

	valuer.On("ValueWallets", ctx).Return([]investing.WalletValuation{
		valuation("A", "0", 0),
		valuation("B", "0", 0),
	}, nil)

	summary, err := service.GetPortfolioSummary(ctx)

	require.NoError(t, err)
	for _, w := range summary.Wallets {
		assert.True(t, w.RealPercentage.IsZero())
		assert.True(t, w.IdealPercentage.IsZero())
	}
	assert.Equal(t, 0.0, summary.Drift)
}

func TestGetPortfolioSummary_ValuerError(t *testing.T) {
	ctx := context.Background()
	valuer := new(MockValuer)
	service := NewDashboardService(valuer, zerolog.Nop())
	dbErr := errors.New("connection refused")

	valuer.On("ValueWallets", ctx).Return(nil, dbErr)

	_, err := service.GetPortfolioSummary(ctx)

	assert.ErrorIs(t, err, dbErr)
}
