package render

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/allocator"
)

// DiscretePlanMarkdown renders a whole-unit purchase plan.
// Rows follow the bucket order; buckets receiving nothing are still listed.
func DiscretePlanMarkdown(title string, buckets []allocator.AssetBucket, plan *allocator.DiscretePlan, unpriced []string, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintln(&b, "| Asset | Held | Unit Price | Buy | Cost | Value After |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|---:|---:|")

	for _, bucket := range buckets {
		units := plan.Purchases[bucket.ID]
		cost := bucket.UnitPrice.Mul(decimal.NewFromInt(units))
		after := bucket.UnitPrice.Mul(decimal.NewFromInt(bucket.Amount + units))
		fmt.Fprintf(&b, "| %s | %d | %s | %d | %s | %s |\n",
			bucket.Name,
			bucket.Amount,
			Money(bucket.UnitPrice, currency),
			units,
			Money(cost, currency),
			Money(after, currency),
		)
	}

	fmt.Fprintf(&b, "\n**Invested:** %s  \n", Money(plan.InvestedAmount, currency))
	fmt.Fprintf(&b, "**Remaining:** %s\n", Money(plan.RemainingAmount, currency))

	if len(unpriced) > 0 {
		fmt.Fprintf(&b, "\nSkipped without price: %s\n", strings.Join(unpriced, ", "))
	}
	return b.String()
}

// ProportionalPlanMarkdown renders a cash distribution plan.
// names maps bucket IDs to display names; unknown IDs are shown as UUIDs.
func ProportionalPlanMarkdown(title string, buckets []allocator.Bucket, plan *allocator.ProportionalPlan, names map[uuid.UUID]string, currency string) string {
	excluded := make(map[uuid.UUID]bool, len(plan.Excluded))
	for _, id := range plan.Excluded {
		excluded[id] = true
	}

	total := decimal.Zero
	for _, bucket := range buckets {
		total = total.Add(bucket.CurrentValue)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintln(&b, "| Wallet | Current | Real | Ideal | Add | Value After |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|---:|---:|")

	for _, bucket := range buckets {
		name, ok := names[bucket.ID]
		if !ok {
			name = bucket.ID.String()
		}
		if excluded[bucket.ID] {
			name += " (excluded)"
		}

		add := plan.Purchases[bucket.ID]
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			name,
			Money(bucket.CurrentValue, currency),
			percent(bucket.RealPercentage(total)),
			percent(bucket.IdealPercentage),
			Money(add, currency),
			Money(bucket.CurrentValue.Add(add), currency),
		)
	}

	fmt.Fprintf(&b, "\n**Total after:** %s  \n", Money(plan.TotalValueAfter, currency))
	fmt.Fprintf(&b, "**Rounds:** %d\n", plan.Rounds)
	return b.String()
}

func percent(share decimal.Decimal) string {
	return share.Shift(2).StringFixed(1) + "%"
}
