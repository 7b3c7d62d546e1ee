package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase records an applied whole-unit purchase plan for one wallet
type Purchase struct {
	ID          uuid.UUID
	WalletID    uuid.UUID
	Description string
	Date        time.Time
	Lines       []PurchaseLine
}

// PurchaseLine represents the units bought of a single asset
type PurchaseLine struct {
	ID         uuid.UUID
	PurchaseID uuid.UUID
	AssetID    uuid.UUID
	Units      int64           // Always positive
	UnitPrice  decimal.Decimal // Price used by the plan
	Cost       decimal.Decimal // Units × UnitPrice
}

// Total returns the sum of the line costs
func (p *Purchase) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range p.Lines {
		total = total.Add(line.Cost)
	}
	return total
}

// Validate ensures the purchase adheres to domain rules
// Returns an error if validation fails
// CRITICAL: Ensures every line cost equals units × unit price, so the recorded total
// matches the cash actually invested
func (p *Purchase) Validate() error {
	if p.WalletID == uuid.Nil {
		return Invalidf("purchase must have a wallet ID")
	}

	if len(p.Lines) == 0 {
		return Invalidf("purchase must have at least one line")
	}

	seen := make(map[uuid.UUID]bool, len(p.Lines))
	for _, line := range p.Lines {
		if line.Units <= 0 {
			return Invalidf("purchase line units must be positive")
		}

		if !line.UnitPrice.IsPositive() {
			return Invalidf("purchase line unit price must be positive")
		}

		expected := line.UnitPrice.Mul(decimal.NewFromInt(line.Units))
		if !line.Cost.Equal(expected) {
			return Invalidf("purchase line cost %s must equal units × unit price (%s)", line.Cost, expected)
		}

		if seen[line.AssetID] {
			return Invalidf("purchase must have at most one line per asset")
		}
		seen[line.AssetID] = true
	}

	return nil
}
