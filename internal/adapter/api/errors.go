package api

import (
	"errors"

	"github.com/simaogato/wealthflow-rebalancer/internal/domain"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/allocator"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/pricing"
	"github.com/simaogato/wealthflow-rebalancer/internal/usecase/wallet"
)

// ErrorKind groups errors by how a transport should report them
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindInvalid
	KindNotFound
	KindConflict
)

// Classify returns the kind of err.
// Allocation errors are deterministic input faults and never worth retrying.
// Anything not matched by a sentinel, driver errors included, is internal.
func Classify(err error) ErrorKind {
	switch {
	case errors.Is(err, allocator.ErrEmptyBucketSet),
		errors.Is(err, allocator.ErrInvalidUnitPrice),
		errors.Is(err, allocator.ErrInvalidBucket),
		errors.Is(err, allocator.ErrDegenerateWeights),
		errors.Is(err, allocator.ErrNegativeCash),
		errors.Is(err, allocator.ErrDuplicateBucket),
		errors.Is(err, allocator.ErrTooManyUnits),
		errors.Is(err, pricing.ErrNoPrice),
		errors.Is(err, domain.ErrInvalid):
		return KindInvalid
	case errors.Is(err, domain.ErrNotFound):
		return KindNotFound
	case errors.Is(err, wallet.ErrDuplicateWallet),
		errors.Is(err, wallet.ErrDuplicateAsset):
		return KindConflict
	}

	return KindInternal
}
