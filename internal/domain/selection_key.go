package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// StorageKeyPrefix namespaces persisted selections.
const StorageKeyPrefix = "expense-selection"

// TransactionIdentifier is the fingerprint a selection is stored under.
type TransactionIdentifier struct {
	Year   int
	Month  int
	Day    int
	Amount decimal.Decimal
}

// GenerateStorageKey formats an identifier as
// expense-selection:{year}:{MM}:{DD}:{amount with two decimals}.
//
// Two transactions on the same day with the same amount share a key.
func GenerateStorageKey(id TransactionIdentifier) string {
	return fmt.Sprintf("%s:%d:%02d:%02d:%s", StorageKeyPrefix, id.Year, id.Month, id.Day, id.Amount.StringFixed(2))
}

// ParseDateString splits a DD/MM/YYYY date into its components.
func ParseDateString(date string) (day, month, year int, err error) {
	parts := strings.Split(strings.TrimSpace(date), "/")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidTransactionDate, date)
	}

	values := make([]int, 3)
	for i, part := range parts {
		v, convErr := strconv.Atoi(part)
		if convErr != nil {
			return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidTransactionDate, date)
		}
		values[i] = v
	}

	day, month, year = values[0], values[1], values[2]
	if day < 1 || day > 31 || month < 1 || month > 12 {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidTransactionDate, date)
	}

	return day, month, year, nil
}

// IdentifierFromTransaction builds the identifier for a date and amount.
func IdentifierFromTransaction(date string, amount decimal.Decimal) (TransactionIdentifier, error) {
	day, month, year, err := ParseDateString(date)
	if err != nil {
		return TransactionIdentifier{}, err
	}
	return TransactionIdentifier{Year: year, Month: month, Day: day, Amount: amount}, nil
}

// StorageKeyForTransaction returns the storage key of tx.
func StorageKeyForTransaction(tx Transaction) (string, error) {
	id, err := IdentifierFromTransaction(tx.Date, tx.Amount)
	if err != nil {
		return "", err
	}
	return GenerateStorageKey(id), nil
}

// IsStorageKey reports whether key carries the selection namespace.
func IsStorageKey(key string) bool {
	return strings.HasPrefix(key, StorageKeyPrefix+":")
}
