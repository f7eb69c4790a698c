package domain

import "github.com/shopspring/decimal"

var two = decimal.NewFromInt(2)

// Totals holds the sums for a list of transactions.
// PayerA accumulates Roland's share and PayerB accumulates Chris's share.
type Totals struct {
	Total  decimal.Decimal `json:"total"`
	PayerA decimal.Decimal `json:"payerA"`
	PayerB decimal.Decimal `json:"payerB"`
}

// CalculateTotals sums txs using lookup to resolve each payer.
// A split adds half the amount to each payer; Total always gets the full amount.
func CalculateTotals(txs []Transaction, lookup func(Transaction) PaidBy) Totals {
	totals := Totals{
		Total:  decimal.Zero,
		PayerA: decimal.Zero,
		PayerB: decimal.Zero,
	}

	for _, tx := range txs {
		totals.Total = totals.Total.Add(tx.Amount)

		switch lookup(tx) {
		case PaidByRoland:
			totals.PayerA = totals.PayerA.Add(tx.Amount)
		case PaidByChris:
			totals.PayerB = totals.PayerB.Add(tx.Amount)
		case PaidBySplit:
			half := tx.Amount.Div(two)
			totals.PayerA = totals.PayerA.Add(half)
			totals.PayerB = totals.PayerB.Add(half)
		}
	}

	return totals
}

// Sign tells a display layer how to style an amount.
type Sign string

const (
	SignCredit Sign = "credit"
	SignDebit  Sign = "debit"
)

// FormatAmount renders the absolute amount in pounds with two decimals.
// The sign is returned separately.
func FormatAmount(amount decimal.Decimal) (string, Sign) {
	sign := SignCredit
	if amount.IsNegative() {
		sign = SignDebit
	}
	return "£" + amount.Abs().StringFixed(2), sign
}
