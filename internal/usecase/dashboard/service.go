package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/allocator"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/investing"
	"gonum.org/v1/gonum/floats"
)

// Valuer values every wallet at the latest prices
type Valuer interface {
	ValueWallets(ctx context.Context) ([]investing.WalletValuation, error)
}

// WalletSummary is the allocation state of one wallet
type WalletSummary struct {
	WalletID        uuid.UUID
	Name            string
	CurrentValue    decimal.Decimal
	RealPercentage  decimal.Decimal // Share of the total portfolio value
	IdealPercentage decimal.Decimal // Target share, normalized so wallets sum to 1
	UnpricedAssets  int
}

// PortfolioSummary represents the calculated allocation of the whole portfolio
type PortfolioSummary struct {
	TotalValue decimal.Decimal
	Wallets    []WalletSummary
	// Drift is the Euclidean distance between the real and ideal percentage vectors.
	// 0 means the portfolio sits exactly on target.
	Drift float64
}

// DashboardService handles dashboard-related operations
type DashboardService struct {
	Valuer Valuer
	log    zerolog.Logger
}

// NewDashboardService creates a new DashboardService instance
func NewDashboardService(valuer Valuer, log zerolog.Logger) *DashboardService {
	return &DashboardService{
		Valuer: valuer,
		log:    log.With().Str("service", "dashboard").Logger(),
	}
}

// GetPortfolioSummary calculates how far the portfolio is from its target allocation
// Logic:
//   - TotalValue: Sum of all wallet values
//   - Real percentage: wallet value / total (0 when the portfolio is empty)
//   - Ideal percentage: wallet ideal percentage renormalized over all wallets
//     (all 0 when no wallet has a target)
//   - Drift: L2 distance between both percentage vectors
func (s *DashboardService) GetPortfolioSummary(ctx context.Context) (*PortfolioSummary, error) {
	valuations, err := s.Valuer.ValueWallets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to value wallets: %w", err)
	}

	buckets := make([]allocator.Bucket, len(valuations))
	total := decimal.Zero
	for i, v := range valuations {
		buckets[i] = allocator.Bucket{
			ID:              v.Wallet.ID,
			CurrentValue:    v.Value,
			IdealPercentage: v.Wallet.IdealPercentage,
		}
		total = total.Add(v.Value)
	}

	shares, err := allocator.NormalizeWeights(buckets)
	if err != nil && !errors.Is(err, allocator.ErrDegenerateWeights) {
		return nil, err
	}

	summary := &PortfolioSummary{
		TotalValue: total,
		Wallets:    make([]WalletSummary, len(valuations)),
	}

	realShares := make([]float64, len(valuations))
	idealShares := make([]float64, len(valuations))
	for i, v := range valuations {
		ws := WalletSummary{
			WalletID:        v.Wallet.ID,
			Name:            v.Wallet.Name,
			CurrentValue:    v.Value,
			RealPercentage:  buckets[i].RealPercentage(total),
			IdealPercentage: decimal.Zero,
			UnpricedAssets:  len(v.WithoutPrice),
		}
		if share, ok := shares[v.Wallet.ID]; ok {
			ws.IdealPercentage = share
		}
		summary.Wallets[i] = ws

		realShares[i] = ws.RealPercentage.InexactFloat64()
		idealShares[i] = ws.IdealPercentage.InexactFloat64()
	}

	if len(valuations) > 0 {
		summary.Drift = floats.Distance(realShares, idealShares, 2)
	}

	s.log.Debug().
		Str("total", total.String()).
		Float64("drift", summary.Drift).
		Msg("Portfolio summary computed")

	return summary, nil
}
