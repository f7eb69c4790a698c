package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PaidBy records who paid for a transaction.
type PaidBy string

const (
	PaidByRoland PaidBy = "Roland"
	PaidBySplit  PaidBy = "Split"
	PaidByChris  PaidBy = "Chris"

	// DefaultPaidBy is used when a transaction has no valid selection.
	DefaultPaidBy = PaidByRoland
)

// PaidByOptions lists every valid PaidBy value in display order.
var PaidByOptions = []PaidBy{PaidByRoland, PaidBySplit, PaidByChris}

// IsValidPaidBy reports whether value is one of the three payer options.
func IsValidPaidBy(value string) bool {
	switch PaidBy(value) {
	case PaidByRoland, PaidBySplit, PaidByChris:
		return true
	default:
		return false
	}
}

// ParsePaidBy converts a raw value into a PaidBy.
func ParsePaidBy(value string) (PaidBy, error) {
	if !IsValidPaidBy(value) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPaidBy, value)
	}
	return PaidBy(value), nil
}

// IsValid reports whether p is a recognized payer.
func (p PaidBy) IsValid() bool {
	return IsValidPaidBy(string(p))
}

// Transaction is a single card transaction as returned by the transactions API.
type Transaction struct {
	// Date in DD/MM/YYYY format.
	Date          string          `json:"date"`
	Description   string          `json:"description"`
	CardMember    string          `json:"cardMember"`
	AccountNumber string          `json:"accountNumber"`
	Amount        decimal.Decimal `json:"amount"`
	PaidBy        PaidBy          `json:"paidBy,omitempty"`
}

// TransactionResponse summarizes the transactions of one period.
type TransactionResponse struct {
	Year             int             `json:"year"`
	Month            int             `json:"month"`
	Transactions     []Transaction   `json:"transactions"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	TransactionCount int             `json:"transactionCount"`
}

// NewTransactionResponse builds the summary envelope for a period.
func NewTransactionResponse(period TransactionPeriod, txs []Transaction) TransactionResponse {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.Amount)
	}
	if txs == nil {
		txs = []Transaction{}
	}

	return TransactionResponse{
		Year:             period.Year,
		Month:            period.Month,
		Transactions:     txs,
		TotalAmount:      total,
		TransactionCount: len(txs),
	}
}

// CloneTransactions returns a shallow copy of txs so callers can't mutate cached slices.
func CloneTransactions(txs []Transaction) []Transaction {
	if txs == nil {
		return nil
	}
	out := make([]Transaction, len(txs))
	copy(out, txs)
	return out
}
