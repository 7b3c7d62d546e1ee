package allocator

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyBucketSet is returned when an allocation is requested over no buckets
	ErrEmptyBucketSet = errors.New("bucket set cannot be empty")

	// ErrInvalidUnitPrice is returned when a discrete bucket has a zero or negative unit price.
	// A zero price would never exhaust the cash and the greedy loop would not terminate.
	ErrInvalidUnitPrice = errors.New("invalid unit price")

	// ErrDegenerateWeights is returned when the ideal percentages of the active buckets sum to zero
	ErrDegenerateWeights = errors.New("invalid ideal percentages: active buckets sum to zero")

	// ErrNegativeCash is returned when the discrete allocator is given a negative cash amount
	ErrNegativeCash = errors.New("cash amount must not be negative")

	// ErrDuplicateBucket is returned when two buckets share the same ID
	ErrDuplicateBucket = errors.New("invalid bucket set: duplicate bucket ID")

	// ErrInvalidBucket is returned when a bucket holds a negative amount, value or percentage
	ErrInvalidBucket = errors.New("invalid bucket")

	// ErrTooManyUnits is returned by CheckUnitBudget when a discrete allocation could buy more
	// units than allowed
	ErrTooManyUnits = errors.New("cash buys too many units")
)

// Bucket holds the fields shared by every allocation strategy.
// A wallet is allocated into as a Bucket directly.
type Bucket struct {
	ID              uuid.UUID
	CurrentValue    decimal.Decimal // Never negative
	IdealPercentage decimal.Decimal // Fraction in [0,1], not required to sum to 1 across buckets
}

// BucketID returns the bucket identifier
func (b Bucket) BucketID() uuid.UUID {
	return b.ID
}

// RealPercentage returns the share of totalValue currently held by the bucket.
// Returns zero when totalValue is zero.
func (b Bucket) RealPercentage(totalValue decimal.Decimal) decimal.Decimal {
	if totalValue.IsZero() {
		return decimal.Zero
	}
	return b.CurrentValue.Div(totalValue)
}

// AssetBucket is a bucket bought in whole units at UnitPrice.
// Only the discrete strategy reads UnitPrice and Amount.
type AssetBucket struct {
	ID        uuid.UUID
	Name      string          // Unique within its wallet
	UnitPrice decimal.Decimal // Must be known and positive; callers drop assets without price
	Amount    int64           // Units currently held
}

// BucketID returns the bucket identifier
func (a AssetBucket) BucketID() uuid.UUID {
	return a.ID
}

// CurrentValue returns Amount × UnitPrice
func (a AssetBucket) CurrentValue() decimal.Decimal {
	return a.UnitPrice.Mul(decimal.NewFromInt(a.Amount))
}

// Identified is implemented by every bucket shape
type Identified interface {
	BucketID() uuid.UUID
}

// Exclude returns the buckets whose ID is not in blacklist, preserving input order.
// The input slice is not modified.
func Exclude[T Identified](buckets []T, blacklist []uuid.UUID) []T {
	if len(blacklist) == 0 {
		return buckets
	}

	skip := make(map[uuid.UUID]bool, len(blacklist))
	for _, id := range blacklist {
		skip[id] = true
	}

	kept := make([]T, 0, len(buckets))
	for _, b := range buckets {
		if !skip[b.BucketID()] {
			kept = append(kept, b)
		}
	}
	return kept
}

// checkUnique fails with ErrDuplicateBucket if two buckets share an ID
func checkUnique[T Identified](buckets []T) error {
	seen := make(map[uuid.UUID]bool, len(buckets))
	for _, b := range buckets {
		if seen[b.BucketID()] {
			return fmt.Errorf("%w: %s", ErrDuplicateBucket, b.BucketID())
		}
		seen[b.BucketID()] = true
	}
	return nil
}
