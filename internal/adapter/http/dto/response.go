package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/expensesplit/internal/domain"
	"github.com/iho/expensesplit/internal/usecase"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// AmountResponse is an amount with its display form.
type AmountResponse struct {
	Value   decimal.Decimal `json:"value"`
	Display string          `json:"display"`
	Sign    domain.Sign     `json:"sign"`
}

// AmountFromDecimal formats d for display.
func AmountFromDecimal(d decimal.Decimal) AmountResponse {
	display, sign := domain.FormatAmount(d)
	return AmountResponse{Value: d, Display: display, Sign: sign}
}

// TotalsResponse represents per-payer totals.
type TotalsResponse struct {
	Total  AmountResponse `json:"total"`
	Roland AmountResponse `json:"roland"`
	Chris  AmountResponse `json:"chris"`
}

// TotalsFromDomain converts domain totals to response.
func TotalsFromDomain(t domain.Totals) TotalsResponse {
	return TotalsResponse{
		Total:  AmountFromDecimal(t.Total),
		Roland: AmountFromDecimal(t.PayerA),
		Chris:  AmountFromDecimal(t.PayerB),
	}
}

// TransactionResponse represents a transaction with its effective payer.
type TransactionResponse struct {
	Key           string          `json:"key"`
	Date          string          `json:"date"`
	Description   string          `json:"description"`
	CardMember    string          `json:"cardMember"`
	AccountNumber string          `json:"accountNumber"`
	Amount        decimal.Decimal `json:"amount"`
	DisplayAmount string          `json:"displayAmount"`
	Sign          domain.Sign     `json:"sign"`
	PaidBy        domain.PaidBy   `json:"paidBy"`
}

// TransactionFromView converts a transaction view to response.
func TransactionFromView(v usecase.TransactionView) TransactionResponse {
	display, sign := domain.FormatAmount(v.Amount)
	return TransactionResponse{
		Key:           v.Key,
		Date:          v.Date,
		Description:   v.Description,
		CardMember:    v.CardMember,
		AccountNumber: v.AccountNumber,
		Amount:        v.Amount,
		DisplayAmount: display,
		Sign:          sign,
		PaidBy:        v.Selection,
	}
}

// MonthResponse represents the transactions of one month.
type MonthResponse struct {
	Year             int                   `json:"year"`
	Month            int                   `json:"month"`
	Status           usecase.QueryStatus   `json:"status"`
	Error            string                `json:"error,omitempty"`
	Transactions     []TransactionResponse `json:"transactions"`
	TransactionCount int                   `json:"transactionCount"`
	TotalAmount      decimal.Decimal       `json:"totalAmount"`
	Totals           TotalsResponse        `json:"totals"`
	SelectionError   string                `json:"selectionError,omitempty"`
	PaidByOptions    []domain.PaidBy       `json:"paidByOptions"`
}

// MonthFromView converts a month view to response.
func MonthFromView(v usecase.MonthView) MonthResponse {
	txs := make([]TransactionResponse, len(v.Transactions))
	for i, tx := range v.Transactions {
		txs[i] = TransactionFromView(tx)
	}

	return MonthResponse{
		Year:             v.Period.Year,
		Month:            v.Period.Month,
		Status:           v.Status,
		Error:            v.Error,
		Transactions:     txs,
		TransactionCount: v.Summary.TransactionCount,
		TotalAmount:      v.Summary.TotalAmount,
		Totals:           TotalsFromDomain(v.Totals),
		SelectionError:   v.SelectionError,
		PaidByOptions:    domain.PaidByOptions,
	}
}

// SelectionErrorResponse carries the last selection save error.
type SelectionErrorResponse struct {
	Error string `json:"error"`
}

// UpstreamHealthResponse carries the transactions API health message.
type UpstreamHealthResponse struct {
	Status string `json:"status"`
}
