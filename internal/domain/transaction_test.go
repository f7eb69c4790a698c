package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestIsValidPaidBy(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"Roland", true},
		{"Split", true},
		{"Chris", true},
		{"Invalid", false},
		{"", false},
		{"roland", false},
	}

	for _, tt := range tests {
		if got := IsValidPaidBy(tt.input); got != tt.want {
			t.Errorf("IsValidPaidBy(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParsePaidBy(t *testing.T) {
	p, err := ParsePaidBy("Split")
	if err != nil || p != PaidBySplit {
		t.Fatalf("expected Split, got %q err=%v", p, err)
	}

	if _, err := ParsePaidBy("Nobody"); !errors.Is(err, ErrInvalidPaidBy) {
		t.Fatalf("expected ErrInvalidPaidBy, got %v", err)
	}
}

func TestTransaction_UnmarshalJSON(t *testing.T) {
	payload := `[
		{"date":"15/01/2025","description":"GROCERY STORE - NEW YORK NY","cardMember":"John Doe","accountNumber":"-1234","amount":-125.50},
		{"date":"17/01/2025","description":"PAYMENT RECEIVED - THANK YOU","cardMember":"John Doe","accountNumber":"-1234","amount":500,"paidBy":"Chris"}
	]`

	var txs []Transaction
	if err := json.Unmarshal([]byte(payload), &txs); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	if !txs[0].Amount.Equal(decimal.RequireFromString("-125.5")) {
		t.Errorf("unexpected amount %s", txs[0].Amount)
	}
	if txs[0].PaidBy != "" {
		t.Errorf("expected empty paidBy, got %q", txs[0].PaidBy)
	}
	if txs[1].PaidBy != PaidByChris {
		t.Errorf("expected Chris, got %q", txs[1].PaidBy)
	}
}

func TestNewTransactionResponse(t *testing.T) {
	period := TransactionPeriod{Year: 2025, Month: 1}
	resp := NewTransactionResponse(period, []Transaction{
		{Amount: decimal.RequireFromString("-125.50")},
		{Amount: decimal.RequireFromString("-45.00")},
		{Amount: decimal.RequireFromString("500.00")},
	})

	if resp.TransactionCount != 3 {
		t.Errorf("expected 3 transactions, got %d", resp.TransactionCount)
	}
	if !resp.TotalAmount.Equal(decimal.RequireFromString("329.5")) {
		t.Errorf("expected total 329.5, got %s", resp.TotalAmount)
	}

	empty := NewTransactionResponse(period, nil)
	if empty.Transactions == nil || empty.TransactionCount != 0 || !empty.TotalAmount.IsZero() {
		t.Errorf("unexpected empty response: %+v", empty)
	}
}

func TestTransactionPeriod_Validate(t *testing.T) {
	if _, err := NewTransactionPeriod(2025, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range []TransactionPeriod{{2025, 0}, {2025, 13}, {0, 5}} {
		if err := p.Validate(); !errors.Is(err, ErrInvalidPeriod) {
			t.Errorf("Validate(%+v) = %v, want ErrInvalidPeriod", p, err)
		}
	}
	if got := (TransactionPeriod{Year: 2024, Month: 6}).String(); got != "2024-06" {
		t.Errorf("String() = %q", got)
	}
}

func TestAPIError(t *testing.T) {
	err := &APIError{Op: "fetch transactions", Status: 500, StatusText: "Internal Server Error"}
	if err.Error() != "Failed to fetch transactions: Internal Server Error" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
