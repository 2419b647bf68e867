package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors for the service error taxonomy. Use with errors.Is().
var (
	// ErrUnauthenticated is returned when no caller identity can be resolved.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrPermissionDenied is returned when an authenticated caller lacks the
	// admin privilege for an admin-only operation.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when a referenced account, car, purchase or
	// top-up request does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned for malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientFunds is returned when a debit exceeds the balance.
	// The debit is rejected wholesale; no partial application.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrConflict is returned after retries when concurrent writes keep
	// colliding on the same account, or when a top-up request has already
	// been reviewed. Callers may retry the whole operation.
	ErrConflict = errors.New("write conflict")

	// ErrStoreUnavailable is returned when the underlying store is
	// unreachable. Surfaced as-is, never swallowed.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// InsufficientFundsError carries the shortfall details for a rejected debit.
type InsufficientFundsError struct {
	AccountID string
	Balance   decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %s, requested %s",
		e.Balance.String(), e.Requested.String())
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientFunds
}

// ValidationError carries the field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// IsRetryable reports whether the operation might succeed if retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsClientError reports whether the error is due to caller input rather
// than a system failure. Used by the API layer for status mapping.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrNotFound)
}
