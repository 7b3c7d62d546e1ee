// Package portfolio reads portfolio snapshots: wallets with their target share and the assets
// they hold, as written by hand in a YAML file.
package portfolio

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-rebalancer/internal/domain"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/allocator"
	"gopkg.in/yaml.v3"
)

// namespace scopes the name-derived IDs of snapshot wallets and assets
var namespace = uuid.MustParse("6f1d2c4e-8a0b-4f6e-9c1d-3b5a7e9f0a21")

// file mirrors the YAML layout. Numbers are read as text and parsed as decimals.
type file struct {
	Wallets []walletEntry `yaml:"wallets"`
}

type walletEntry struct {
	Name            string       `yaml:"name"`
	IdealPercentage string       `yaml:"ideal_percentage"`
	CurrentValue    string       `yaml:"current_value"`
	Assets          []assetEntry `yaml:"assets"`
}

type assetEntry struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Price  string `yaml:"price"`
	Amount int64  `yaml:"amount"`
}

// Portfolio is a parsed snapshot
type Portfolio struct {
	Wallets []Wallet
}

// Wallet is a snapshot wallet
type Wallet struct {
	ID              uuid.UUID
	Name            string
	IdealPercentage decimal.Decimal
	Assets          []Asset
	valueOverride   *decimal.Decimal
}

// Asset is a snapshot asset. Price is zero when HasPrice is false.
type Asset struct {
	ID       uuid.UUID
	Name     string
	Kind     domain.AssetKind
	Price    decimal.Decimal
	HasPrice bool
	Amount   int64
}

// Load reads and parses a snapshot file
func Load(path string) (*Portfolio, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read portfolio file: %w", err)
	}
	return Parse(data)
}

// Parse parses a YAML snapshot and validates it against the domain rules
func Parse(data []byte) (*Portfolio, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse portfolio: %w", err)
	}

	if len(f.Wallets) == 0 {
		return nil, errors.New("portfolio must have at least one wallet")
	}

	p := &Portfolio{Wallets: make([]Wallet, 0, len(f.Wallets))}
	seen := make(map[string]bool, len(f.Wallets))
	for _, we := range f.Wallets {
		if seen[we.Name] {
			return nil, fmt.Errorf("duplicate wallet %q", we.Name)
		}
		seen[we.Name] = true

		w, err := we.build()
		if err != nil {
			return nil, err
		}
		p.Wallets = append(p.Wallets, w)
	}

	return p, nil
}

func (we walletEntry) build() (Wallet, error) {
	w := Wallet{
		ID:   uuid.NewSHA1(namespace, []byte(we.Name)),
		Name: we.Name,
	}

	ideal, err := parseDecimal(we.IdealPercentage, "0")
	if err != nil {
		return w, fmt.Errorf("wallet %q: ideal_percentage: %w", we.Name, err)
	}
	w.IdealPercentage = ideal

	dw := domain.Wallet{ID: w.ID, Name: w.Name, IdealPercentage: w.IdealPercentage}
	if err := dw.Validate(); err != nil {
		return w, fmt.Errorf("wallet %q: %w", we.Name, err)
	}

	if strings.TrimSpace(we.CurrentValue) != "" {
		value, err := decimal.NewFromString(strings.TrimSpace(we.CurrentValue))
		if err != nil {
			return w, fmt.Errorf("wallet %q: current_value: %w", we.Name, err)
		}
		if value.IsNegative() {
			return w, fmt.Errorf("wallet %q: current_value must not be negative", we.Name)
		}
		w.valueOverride = &value
	}

	names := make(map[string]bool, len(we.Assets))
	for _, ae := range we.Assets {
		if names[ae.Name] {
			return w, fmt.Errorf("wallet %q: duplicate asset %q", we.Name, ae.Name)
		}
		names[ae.Name] = true

		a, err := ae.build(w)
		if err != nil {
			return w, fmt.Errorf("wallet %q: asset %q: %w", we.Name, ae.Name, err)
		}
		w.Assets = append(w.Assets, a)
	}

	return w, nil
}

func (ae assetEntry) build(w Wallet) (Asset, error) {
	a := Asset{
		ID:     uuid.NewSHA1(namespace, []byte(w.Name+"/"+ae.Name)),
		Name:   ae.Name,
		Kind:   domain.AssetKind(strings.ToUpper(ae.Kind)),
		Amount: ae.Amount,
	}
	if a.Kind == "" {
		a.Kind = domain.AssetKindStock
	}

	if strings.TrimSpace(ae.Price) != "" {
		price, err := decimal.NewFromString(strings.TrimSpace(ae.Price))
		if err != nil {
			return a, fmt.Errorf("price: %w", err)
		}
		if !price.IsPositive() {
			return a, errors.New("price must be positive")
		}
		a.Price = price
		a.HasPrice = true
	}

	if err := a.Domain(w.ID).Validate(); err != nil {
		return a, err
	}

	return a, nil
}

// Domain converts the snapshot asset into a domain asset of the given wallet
func (a Asset) Domain(walletID uuid.UUID) *domain.Asset {
	asset := &domain.Asset{
		ID:         a.ID,
		WalletID:   walletID,
		Name:       a.Name,
		Kind:       a.Kind,
		Amount:     a.Amount,
		FixedPrice: decimal.Zero,
	}
	if a.Kind == domain.AssetKindFixed {
		asset.FixedPrice = a.Price
	}
	return asset
}

// CurrentValue is current_value when given, otherwise Σ amount × price over priced assets
func (w Wallet) CurrentValue() decimal.Decimal {
	if w.valueOverride != nil {
		return *w.valueOverride
	}

	total := decimal.Zero
	for _, a := range w.Assets {
		if a.HasPrice {
			total = total.Add(a.Price.Mul(decimal.NewFromInt(a.Amount)))
		}
	}
	return total
}

// AssetBuckets returns the priced assets as discrete buckets, in file order,
// and the assets left out because they have no price
func (w Wallet) AssetBuckets() ([]allocator.AssetBucket, []Asset) {
	var buckets []allocator.AssetBucket
	var unpriced []Asset
	for _, a := range w.Assets {
		if !a.HasPrice {
			unpriced = append(unpriced, a)
			continue
		}
		buckets = append(buckets, allocator.AssetBucket{
			ID:        a.ID,
			Name:      a.Name,
			UnitPrice: a.Price,
			Amount:    a.Amount,
		})
	}
	return buckets, unpriced
}

// WalletBuckets returns every wallet as a proportional bucket, in file order
func (p *Portfolio) WalletBuckets() []allocator.Bucket {
	buckets := make([]allocator.Bucket, len(p.Wallets))
	for i, w := range p.Wallets {
		buckets[i] = allocator.Bucket{
			ID:              w.ID,
			CurrentValue:    w.CurrentValue(),
			IdealPercentage: w.IdealPercentage,
		}
	}
	return buckets
}

// Wallet looks a wallet up by name
func (p *Portfolio) Wallet(name string) (*Wallet, bool) {
	for i := range p.Wallets {
		if p.Wallets[i].Name == name {
			return &p.Wallets[i], true
		}
	}
	return nil, false
}

// Names maps every wallet and asset ID to its display name
func (p *Portfolio) Names() map[uuid.UUID]string {
	names := make(map[uuid.UUID]string)
	for _, w := range p.Wallets {
		names[w.ID] = w.Name
		for _, a := range w.Assets {
			names[a.ID] = a.Name
		}
	}
	return names
}

func parseDecimal(s, fallback string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		s = fallback
	}
	return decimal.NewFromString(s)
}
