/*
errors.go - Centralized error types for the ledger

ERROR CATEGORIES:
  1. Snapshot errors - Malformed imports, rejected before any state changes
  2. Parse errors - Unknown transaction type from ParseTransactionType
  3. Persistence errors - The gateway failed; the mutation was not published

Lookup misses (unknown customer/product) are NOT errors anywhere in this
package. Read paths return ok=false or the Unknown display value.
*/
package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSnapshot is returned when an import document is rejected.
	ErrInvalidSnapshot = errors.New("invalid snapshot")

	// ErrUnknownTransactionType is returned for a type outside the closed set.
	ErrUnknownTransactionType = errors.New("unknown transaction type")

	// ErrPersistence wraps any failure reported by the Persistence gateway.
	ErrPersistence = errors.New("persistence failed")
)

// SnapshotError explains why an import was rejected.
type SnapshotError struct {
	Reason string
	Err    error
}

func (e *SnapshotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid snapshot: %s: %v", e.Reason, e.Err)
	}
	return "invalid snapshot: " + e.Reason
}

func (e *SnapshotError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidSnapshot, e.Err}
	}
	return []error{ErrInvalidSnapshot}
}

// UnknownTransactionTypeError carries the rejected value.
type UnknownTransactionTypeError struct {
	Value string
}

func (e *UnknownTransactionTypeError) Error() string {
	return fmt.Sprintf("unknown transaction type %q", e.Value)
}

func (e *UnknownTransactionTypeError) Unwrap() error {
	return ErrUnknownTransactionType
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidSnapshot) ||
		errors.Is(err, ErrUnknownTransactionType)
}
