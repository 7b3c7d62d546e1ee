// Package api holds the request and response messages shared by the gRPC and HTTP transports.
// Decimals travel as strings, IDs as canonical UUID strings.
package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-rebalancer/internal/domain"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/allocator"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/dashboard"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/investing"
)

type CreateWalletRequest struct {
	Name            string          `json:"name"`
	IdealPercentage decimal.Decimal `json:"ideal_percentage"`
}

type SetIdealPercentageRequest struct {
	IdealPercentage decimal.Decimal `json:"ideal_percentage"`
}

type Wallet struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	IdealPercentage decimal.Decimal `json:"ideal_percentage"`
}

type AddAssetRequest struct {
	WalletID   uuid.UUID       `json:"wallet_id"`
	Name       string          `json:"name"`
	Kind       string          `json:"kind"`
	Amount     int64           `json:"amount"`
	FixedPrice decimal.Decimal `json:"fixed_price"`
}

type Asset struct {
	ID         uuid.UUID       `json:"id"`
	WalletID   uuid.UUID       `json:"wallet_id"`
	Name       string          `json:"name"`
	Kind       string          `json:"kind"`
	Amount     int64           `json:"amount"`
	FixedPrice decimal.Decimal `json:"fixed_price"`
}

type RecordPriceRequest struct {
	AssetID uuid.UUID       `json:"asset_id"`
	Price   decimal.Decimal `json:"price"`
}

type PriceQuote struct {
	ID      uuid.UUID       `json:"id"`
	AssetID uuid.UUID       `json:"asset_id"`
	Price   decimal.Decimal `json:"price"`
	Date    time.Time       `json:"date"`
}

// PlanAssetPurchaseRequest asks for a whole-unit plan over the assets of a wallet.
// Over HTTP the wallet comes from the path.
type PlanAssetPurchaseRequest struct {
	WalletID  uuid.UUID       `json:"wallet_id"`
	Cash      decimal.Decimal `json:"cash"`
	Blacklist []uuid.UUID     `json:"blacklist,omitempty"`
}

type ApplyAssetPurchaseRequest struct {
	WalletID    uuid.UUID       `json:"wallet_id"`
	Cash        decimal.Decimal `json:"cash"`
	Blacklist   []uuid.UUID     `json:"blacklist,omitempty"`
	Description string          `json:"description"`
}

type AssetRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type AssetPurchaseLine struct {
	AssetID   uuid.UUID       `json:"asset_id"`
	Name      string          `json:"name"`
	Units     int64           `json:"units"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Cost      decimal.Decimal `json:"cost"`
}

type AssetPurchasePlan struct {
	WalletID     uuid.UUID           `json:"wallet_id"`
	Purchases    []AssetPurchaseLine `json:"purchases"`
	Invested     decimal.Decimal     `json:"invested"`
	Remaining    decimal.Decimal     `json:"remaining"`
	WithoutPrice []AssetRef          `json:"without_price"`
}

type ApplyAssetPurchaseResponse struct {
	Plan       AssetPurchasePlan `json:"plan"`
	PurchaseID *uuid.UUID        `json:"purchase_id,omitempty"`
	Date       *time.Time        `json:"date,omitempty"`
}

type PlanCashDistributionRequest struct {
	Cash      decimal.Decimal `json:"cash"`
	Blacklist []uuid.UUID     `json:"blacklist,omitempty"`
}

type WalletAmount struct {
	WalletID uuid.UUID       `json:"wallet_id"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
}

type DistributionPlan struct {
	Purchases       []WalletAmount  `json:"purchases"`
	TotalValueAfter decimal.Decimal `json:"total_value_after"`
	Excluded        []uuid.UUID     `json:"excluded"`
	Rounds          int             `json:"rounds"`
}

type WalletSummary struct {
	WalletID        uuid.UUID       `json:"wallet_id"`
	Name            string          `json:"name"`
	CurrentValue    decimal.Decimal `json:"current_value"`
	RealPercentage  decimal.Decimal `json:"real_percentage"`
	IdealPercentage decimal.Decimal `json:"ideal_percentage"`
	UnpricedAssets  int             `json:"unpriced_assets"`
}

type PortfolioSummary struct {
	TotalValue decimal.Decimal `json:"total_value"`
	Drift      float64         `json:"drift"`
	Wallets    []WalletSummary `json:"wallets"`
}

// AssetBucket is an input bucket of the stateless discrete allocation
type AssetBucket struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    int64           `json:"amount"`
}

type AllocateDiscreteRequest struct {
	Cash      decimal.Decimal `json:"cash"`
	Buckets   []AssetBucket   `json:"buckets"`
	Blacklist []uuid.UUID     `json:"blacklist,omitempty"`
}

type UnitPurchase struct {
	ID    uuid.UUID `json:"id"`
	Units int64     `json:"units"`
}

type DiscretePlan struct {
	Purchases []UnitPurchase  `json:"purchases"`
	Invested  decimal.Decimal `json:"invested"`
	Remaining decimal.Decimal `json:"remaining"`
}

// Bucket is an input bucket of the stateless proportional allocation
type Bucket struct {
	ID              uuid.UUID       `json:"id"`
	CurrentValue    decimal.Decimal `json:"current_value"`
	IdealPercentage decimal.Decimal `json:"ideal_percentage"`
}

type AllocateProportionalRequest struct {
	Cash      decimal.Decimal `json:"cash"`
	Buckets   []Bucket        `json:"buckets"`
	Blacklist []uuid.UUID     `json:"blacklist,omitempty"`
}

type AmountPurchase struct {
	ID     uuid.UUID       `json:"id"`
	Amount decimal.Decimal `json:"amount"`
}

type ProportionalPlan struct {
	Purchases       []AmountPurchase `json:"purchases"`
	TotalValueAfter decimal.Decimal  `json:"total_value_after"`
	Excluded        []uuid.UUID      `json:"excluded"`
	Rounds          int              `json:"rounds"`
}

func NewWallet(w *domain.Wallet) Wallet {
	return Wallet{ID: w.ID, Name: w.Name, IdealPercentage: w.IdealPercentage}
}

func NewAsset(a *domain.Asset) Asset {
	return Asset{
		ID:         a.ID,
		WalletID:   a.WalletID,
		Name:       a.Name,
		Kind:       string(a.Kind),
		Amount:     a.Amount,
		FixedPrice: a.FixedPrice,
	}
}

func NewPriceQuote(q *domain.PriceQuote) PriceQuote {
	return PriceQuote{ID: q.ID, AssetID: q.AssetID, Price: q.Price, Date: q.Date}
}

// NewAssetPurchasePlan lists the purchases in wallet order
func NewAssetPurchasePlan(p *investing.AssetPurchasePlan) AssetPurchasePlan {
	out := AssetPurchasePlan{
		WalletID:     p.WalletID,
		Purchases:    make([]AssetPurchaseLine, 0, len(p.Plan.Purchases)),
		Invested:     p.Plan.InvestedAmount,
		Remaining:    p.Plan.RemainingAmount,
		WithoutPrice: make([]AssetRef, 0, len(p.WithoutPrice)),
	}

	for _, asset := range p.Assets {
		units, ok := p.Plan.Purchases[asset.ID]
		if !ok {
			continue
		}
		price := p.UnitPrices[asset.ID]
		out.Purchases = append(out.Purchases, AssetPurchaseLine{
			AssetID:   asset.ID,
			Name:      asset.Name,
			Units:     units,
			UnitPrice: price,
			Cost:      price.Mul(decimal.NewFromInt(units)),
		})
	}

	for _, asset := range p.WithoutPrice {
		out.WithoutPrice = append(out.WithoutPrice, AssetRef{ID: asset.ID, Name: asset.Name})
	}

	return out
}

func NewApplyAssetPurchaseResponse(r *investing.ApplyResult) ApplyAssetPurchaseResponse {
	out := ApplyAssetPurchaseResponse{Plan: NewAssetPurchasePlan(r.Plan)}
	if r.Purchase != nil {
		id, date := r.Purchase.ID, r.Purchase.Date
		out.PurchaseID = &id
		out.Date = &date
	}
	return out
}

// NewDistributionPlan lists the wallets receiving cash in wallet order
func NewDistributionPlan(d *investing.DistributionPlan) DistributionPlan {
	out := DistributionPlan{
		Purchases:       make([]WalletAmount, 0, len(d.Plan.Purchases)),
		TotalValueAfter: d.Plan.TotalValueAfter,
		Excluded:        d.Plan.Excluded,
		Rounds:          d.Plan.Rounds,
	}

	for _, v := range d.Valuations {
		amount, ok := d.Plan.Purchases[v.Wallet.ID]
		if !ok {
			continue
		}
		out.Purchases = append(out.Purchases, WalletAmount{WalletID: v.Wallet.ID, Name: v.Wallet.Name, Amount: amount})
	}

	return out
}

func NewPortfolioSummary(s *dashboard.PortfolioSummary) PortfolioSummary {
	out := PortfolioSummary{
		TotalValue: s.TotalValue,
		Drift:      s.Drift,
		Wallets:    make([]WalletSummary, 0, len(s.Wallets)),
	}
	for _, w := range s.Wallets {
		out.Wallets = append(out.Wallets, WalletSummary{
			WalletID:        w.WalletID,
			Name:            w.Name,
			CurrentValue:    w.CurrentValue,
			RealPercentage:  w.RealPercentage,
			IdealPercentage: w.IdealPercentage,
			UnpricedAssets:  w.UnpricedAssets,
		})
	}
	return out
}

// MaxDiscreteUnits caps how many units a stateless discrete request may buy,
// measured as cash over the cheapest unit price.
const MaxDiscreteUnits = 1_000_000

// AllocateDiscrete runs the discrete allocator over the request buckets.
// Purchases are listed in input order. Requests whose cash would buy more
// than MaxDiscreteUnits units are rejected.
func AllocateDiscrete(req AllocateDiscreteRequest) (DiscretePlan, error) {
	buckets := make([]allocator.AssetBucket, len(req.Buckets))
	for i, b := range req.Buckets {
		buckets[i] = allocator.AssetBucket{ID: b.ID, Name: b.Name, UnitPrice: b.UnitPrice, Amount: b.Amount}
	}
	buckets = allocator.Exclude(buckets, req.Blacklist)

	if err := allocator.CheckUnitBudget(buckets, req.Cash, MaxDiscreteUnits); err != nil {
		return DiscretePlan{}, err
	}

	plan, err := allocator.AllocateDiscrete(buckets, req.Cash)
	if err != nil {
		return DiscretePlan{}, err
	}

	out := DiscretePlan{
		Purchases: make([]UnitPurchase, 0, len(plan.Purchases)),
		Invested:  plan.InvestedAmount,
		Remaining: plan.RemainingAmount,
	}
	for _, b := range buckets {
		if units, ok := plan.Purchases[b.ID]; ok {
			out.Purchases = append(out.Purchases, UnitPurchase{ID: b.ID, Units: units})
		}
	}
	return out, nil
}

// AllocateProportional runs the proportional allocator over the request buckets.
// Purchases are listed in input order.
func AllocateProportional(req AllocateProportionalRequest) (ProportionalPlan, error) {
	buckets := make([]allocator.Bucket, len(req.Buckets))
	for i, b := range req.Buckets {
		buckets[i] = allocator.Bucket{ID: b.ID, CurrentValue: b.CurrentValue, IdealPercentage: b.IdealPercentage}
	}
	buckets = allocator.Exclude(buckets, req.Blacklist)

	plan, err := allocator.AllocateProportional(buckets, req.Cash)
	if err != nil {
		return ProportionalPlan{}, err
	}

	out := ProportionalPlan{
		Purchases:       make([]AmountPurchase, 0, len(plan.Purchases)),
		TotalValueAfter: plan.TotalValueAfter,
		Excluded:        plan.Excluded,
		Rounds:          plan.Rounds,
	}
	for _, b := range buckets {
		if amount, ok := plan.Purchases[b.ID]; ok {
			out.Purchases = append(out.Purchases, AmountPurchase{ID: b.ID, Amount: amount})
		}
	}
	return out, nil
}
