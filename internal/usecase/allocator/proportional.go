package allocator

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// currencyPlaces is the rounding precision of proportional purchases (cents)
const currencyPlaces = 2

// ProportionalPlan is the result of a continuous (currency amount) allocation
type ProportionalPlan struct {
	// Purchases holds the amount to add per bucket, rounded to cents.
	// Buckets excluded during the computation have no entry.
	Purchases map[uuid.UUID]decimal.Decimal

	// TotalValueAfter is Σ CurrentValue over all input buckets plus the cash amount
	TotalValueAfter decimal.Decimal

	// Excluded lists the buckets dropped because they were at or above their ideal value,
	// in the order they were dropped
	Excluded []uuid.UUID

	// Rounds counts the passes over the active set (1 when nothing was excluded)
	Rounds int
}

// NormalizeWeights rescales the ideal percentages of buckets so they sum to 1.
// Returns ErrDegenerateWeights when they sum to zero.
func NormalizeWeights(buckets []Bucket) (map[uuid.UUID]decimal.Decimal, error) {
	totalIdeal := decimal.Zero
	for _, b := range buckets {
		totalIdeal = totalIdeal.Add(b.IdealPercentage)
	}

	if totalIdeal.IsZero() {
		return nil, ErrDegenerateWeights
	}

	shares := make(map[uuid.UUID]decimal.Decimal, len(buckets))
	for _, b := range buckets {
		shares[b.ID] = b.IdealPercentage.Div(totalIdeal)
	}
	return shares, nil
}

// AllocateProportional splits cashAmount so that every bucket reaches its ideal share of the
// post-injection value, never selling.
// Logic (fixed point over a shrinking active set):
//  1. active = all buckets
//  2. Renormalize the ideal percentages of active so they sum to 1 (share = ideal / Σ ideal)
//  3. totalValueAfter = Σ CurrentValue(active) + cashAmount
//     diff = ideal × totalValueAfter / Σ ideal - CurrentValue
//  4. If every diff >= 0, the plan is round(diff, 2) for every active bucket
//  5. Otherwise drop every bucket with diff <= 0 and go back to 2.
//     The ORIGINAL cashAmount is reused at every pass; it is not reduced by the value of the
//     dropped buckets, so the total allocated may fall short of cashAmount.
//
// Rounding is half-up to cents with no remainder redistribution.
// A negative cashAmount is accepted and fed through the same formula.
func AllocateProportional(buckets []Bucket, cashAmount decimal.Decimal) (*ProportionalPlan, error) {
	if len(buckets) == 0 {
		return nil, ErrEmptyBucketSet
	}

	if err := checkUnique(buckets); err != nil {
		return nil, err
	}

	for _, b := range buckets {
		if b.CurrentValue.IsNegative() {
			return nil, fmt.Errorf("%w %s: negative current value %s", ErrInvalidBucket, b.ID, b.CurrentValue)
		}
		if b.IdealPercentage.IsNegative() {
			return nil, fmt.Errorf("%w %s: negative ideal percentage %s", ErrInvalidBucket, b.ID, b.IdealPercentage)
		}
	}

	plan := &ProportionalPlan{
		Purchases:       make(map[uuid.UUID]decimal.Decimal),
		TotalValueAfter: sumCurrentValue(buckets).Add(cashAmount),
		Excluded:        make([]uuid.UUID, 0),
	}

	active := make([]Bucket, len(buckets))
	copy(active, buckets)

	for len(active) > 0 {
		plan.Rounds++

		totalIdeal := decimal.Zero
		for _, b := range active {
			totalIdeal = totalIdeal.Add(b.IdealPercentage)
		}
		if totalIdeal.IsZero() {
			return nil, ErrDegenerateWeights
		}

		totalValueAfter := sumCurrentValue(active).Add(cashAmount)

		diffs := make([]decimal.Decimal, len(active))
		allNonNegative := true
		for i, b := range active {
			// Multiply before dividing: a bucket exactly at its ideal value must get a zero diff
			idealTotalValue := b.IdealPercentage.Mul(totalValueAfter).Div(totalIdeal)
			diffs[i] = idealTotalValue.Sub(b.CurrentValue)
			if diffs[i].IsNegative() {
				allNonNegative = false
			}
		}

		if allNonNegative {
			for i, b := range active {
				plan.Purchases[b.ID] = diffs[i].Round(currencyPlaces)
			}
			return plan, nil
		}

		// Keep only buckets still strictly below their ideal value
		remaining := make([]Bucket, 0, len(active))
		for i, b := range active {
			if diffs[i].IsPositive() {
				remaining = append(remaining, b)
			} else {
				plan.Excluded = append(plan.Excluded, b.ID)
			}
		}
		active = remaining
	}

	// Every bucket was excluded: nothing to buy
	return plan, nil
}

// sumCurrentValue returns Σ CurrentValue over buckets
func sumCurrentValue(buckets []Bucket) decimal.Decimal {
	total := decimal.Zero
	for _, b := range buckets {
		total = total.Add(b.CurrentValue)
	}
	return total
}
