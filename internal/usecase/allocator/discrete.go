package allocator

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscretePlan is the result of a whole-unit allocation
type DiscretePlan struct {
	Purchases       map[uuid.UUID]int64 // Units to buy per bucket; buckets receiving nothing are absent
	InvestedAmount  decimal.Decimal     // CashAmount - RemainingAmount
	RemainingAmount decimal.Decimal     // Change left unallocated, never negative
}

// position is the working accumulator of one bucket during the greedy loop.
// It is a copy; the caller's AssetBucket is never touched.
type position struct {
	id         uuid.UUID
	unitPrice  decimal.Decimal
	amount     int64
	totalValue decimal.Decimal
}

// AllocateDiscrete spends cashAmount one unit at a time on the bucket that currently holds
// the least value.
// Logic:
//  1. Pick the bucket with the strictly smallest total value (ties go to the first bucket in
//     input order; this tie-break is undefined behaviour kept as-is)
//  2. If its unit price exceeds the remaining cash, stop. Other, cheaper buckets are NOT tried.
//  3. Otherwise buy one unit: the bucket's value grows by its unit price, the cash shrinks by it
//  4. Repeat
//
// Validation happens before any allocation: an empty set, a negative cash amount, a duplicate
// ID or a unit price <= 0 fails the whole call. Buckets without a known price must be removed
// by the caller; passing them with a zero price is rejected as ErrInvalidUnitPrice.
func AllocateDiscrete(buckets []AssetBucket, cashAmount decimal.Decimal) (*DiscretePlan, error) {
	if len(buckets) == 0 {
		return nil, ErrEmptyBucketSet
	}

	if cashAmount.IsNegative() {
		return nil, fmt.Errorf("%w: got %s", ErrNegativeCash, cashAmount)
	}

	if err := checkUnique(buckets); err != nil {
		return nil, err
	}

	for _, b := range buckets {
		if !b.UnitPrice.IsPositive() {
			return nil, fmt.Errorf("%w: bucket %s (%s) has unit price %s", ErrInvalidUnitPrice, b.ID, b.Name, b.UnitPrice)
		}
		if b.Amount < 0 {
			return nil, fmt.Errorf("%w %s: negative amount %d", ErrInvalidBucket, b.ID, b.Amount)
		}
	}

	working := make([]position, len(buckets))
	for i, b := range buckets {
		working[i] = position{
			id:         b.ID,
			unitPrice:  b.UnitPrice,
			amount:     b.Amount,
			totalValue: b.CurrentValue(),
		}
	}

	purchases := make(map[uuid.UUID]int64)
	remaining := cashAmount

	for {
		i, ok := buyNext(working, remaining)
		if !ok {
			break
		}
		remaining = remaining.Sub(working[i].unitPrice)
		purchases[working[i].id]++
	}

	return &DiscretePlan{
		Purchases:       purchases,
		InvestedAmount:  cashAmount.Sub(remaining),
		RemainingAmount: remaining,
	}, nil
}

// CheckUnitBudget fails with ErrTooManyUnits when cashAmount divided by the cheapest positive
// unit price exceeds maxUnits. That ratio bounds the iterations of AllocateDiscrete, which
// is not interruptible.
func CheckUnitBudget(buckets []AssetBucket, cashAmount decimal.Decimal, maxUnits int64) error {
	cheapest := decimal.Zero
	for _, b := range buckets {
		if b.UnitPrice.IsPositive() && (cheapest.IsZero() || b.UnitPrice.LessThan(cheapest)) {
			cheapest = b.UnitPrice
		}
	}

	if cheapest.IsZero() || !cashAmount.IsPositive() {
		return nil
	}

	units := cashAmount.Div(cheapest).Floor()
	if units.GreaterThan(decimal.NewFromInt(maxUnits)) {
		return fmt.Errorf("%w: up to %s units, limit is %d", ErrTooManyUnits, units, maxUnits)
	}
	return nil
}

// buyNext buys one unit of the furthest-behind position if the remaining cash affords it.
// Returns the index bought and true, or false when the loop must stop.
func buyNext(working []position, remaining decimal.Decimal) (int, bool) {
	i := smallestPosition(working)
	next := &working[i]

	// The furthest-behind bucket is unaffordable: we are done
	if next.unitPrice.GreaterThan(remaining) {
		return i, false
	}

	next.amount++
	next.totalValue = next.totalValue.Add(next.unitPrice)
	return i, true
}

// smallestPosition returns the index of the position with the strictly smallest total value.
// On ties the first one wins.
func smallestPosition(working []position) int {
	smallest := 0
	for i := 1; i < len(working); i++ {
		if working[i].totalValue.LessThan(working[smallest].totalValue) {
			smallest = i
		}
	}
	return smallest
}
