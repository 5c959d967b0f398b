package patron

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("patron: not found")
	ErrAlreadyExists = errors.New("patron: already exists")
	ErrInvalidInput  = errors.New("patron: invalid input")

	// Tier errors
	ErrTierNotFound     = errors.New("patron: tier not found")
	ErrTierNotActive    = errors.New("patron: tier not active")
	ErrEmptyTierName    = errors.New("patron: tier name is empty")
	ErrInvalidTierPrice = errors.New("patron: tier price must be positive")
	ErrOnlyOwner        = errors.New("patron: only the contract owner may do this")

	// Subscription errors
	ErrAlreadySubscribed = errors.New("patron: already subscribed")
	ErrNotSubscribed     = errors.New("patron: no active subscription")
	ErrAllowanceNotZero  = errors.New("patron: outstanding pull-authorization must be revoked first")

	// Billing errors
	ErrPaymentFailed = errors.New("patron: payment failed")
	ErrJournalFull   = errors.New("patron: payment journal buffer full")

	// Contract errors
	ErrContractNotFound = errors.New("patron: contract not found")
	ErrBadgeNotFound    = errors.New("patron: badge token not found")

	// Store errors
	ErrStoreNotReady     = errors.New("patron: store not ready")
	ErrStoreClosed       = errors.New("patron: store is closed")
	ErrTransactionFailed = errors.New("patron: transaction failed")
	ErrMigrationFailed   = errors.New("patron: migration failed")

	// Cache errors
	ErrCacheMiss       = errors.New("patron: cache miss")
	ErrCacheInvalidate = errors.New("patron: cache invalidation failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("patron: validation failed for %s: %s", e.Field, e.Message)
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "patron: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("patron: %d errors occurred", len(e.Errors))
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTierNotFound) ||
		errors.Is(err, ErrContractNotFound) ||
		errors.Is(err, ErrBadgeNotFound)
}

// IsPaymentError returns true if the error came out of the charge path.
// Callers branch on the uniform ErrPaymentFailed kind; the root cause is
// wrapped but never part of the public contract.
func IsPaymentError(err error) bool {
	return errors.Is(err, ErrPaymentFailed)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
// Note that a failed charge is deliberately NOT retryable through the engine:
// retrying is the external scheduler's decision on a later settlement pass.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrJournalFull) ||
		errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransactionFailed) ||
		errors.Is(err, ErrCacheInvalidate)
}
