package domain

import (
	"errors"
	"fmt"
)

var (
	// Selection errors
	ErrInvalidPaidBy          = errors.New("invalid paid by value")
	ErrInvalidTransactionDate = errors.New("invalid transaction date")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrSelectionSaveFailed    = errors.New("save selection failed")

	// Period errors
	ErrInvalidPeriod = errors.New("invalid year or month")

	// Remote API errors
	ErrInvalidParameter  = errors.New("Invalid year or month parameter")
	ErrInvalidPaidData   = errors.New("Invalid paid transaction data")
	ErrHealthCheckFailed = errors.New("Health check failed")
)

// SelectionSaveFailedMessage is shown to the user whenever a remote selection write fails.
const SelectionSaveFailedMessage = "Failed to save selection. Please try again."

// APIError is returned for non-2xx responses that have no more specific meaning.
type APIError struct {
	Op         string
	Status     int
	StatusText string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Failed to %s: %s", e.Op, e.StatusText)
}
