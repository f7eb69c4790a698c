package dto

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/expensesplit/internal/domain"
	"github.com/iho/expensesplit/internal/usecase"
)

// ErrMissingIdentifier is returned when a selection names no transaction.
var ErrMissingIdentifier = errors.New("either key or date and amount are required")

// AssignSelectionRequest represents a request to set who paid for a transaction.
// The transaction is named either by storage key or by date and amount.
type AssignSelectionRequest struct {
	Key    string           `json:"key,omitempty"`
	Date   string           `json:"date,omitempty"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
	PaidBy string           `json:"paidBy"`
}

// ToUseCaseInput validates the request and converts it to use case input.
func (r *AssignSelectionRequest) ToUseCaseInput() (usecase.AssignInput, error) {
	paidBy, err := domain.ParsePaidBy(r.PaidBy)
	if err != nil {
		return usecase.AssignInput{}, err
	}

	input := usecase.AssignInput{PaidBy: paidBy}

	switch {
	case r.Key != "":
		if !domain.IsStorageKey(r.Key) {
			return usecase.AssignInput{}, fmt.Errorf("%w: malformed key %q", ErrMissingIdentifier, r.Key)
		}
		input.Key = r.Key
	case r.Date != "" && r.Amount != nil:
		input.Date = r.Date
		input.Amount = *r.Amount
	default:
		return usecase.AssignInput{}, ErrMissingIdentifier
	}

	return input, nil
}
