package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/expensesplit/internal/domain"
)

// TransactionView is a transaction with its resolved selection.
type TransactionView struct {
	domain.Transaction
	Key       string
	Selection domain.PaidBy
}

// MonthView is everything needed to render one period.
type MonthView struct {
	Period         domain.TransactionPeriod
	Status         QueryStatus
	Error          string
	Transactions   []TransactionView
	Summary        domain.TransactionResponse
	Totals         domain.Totals
	SelectionError string
}

// AssignInput identifies a transaction either by storage key or by date and amount.
type AssignInput struct {
	Key    string
	Date   string
	Amount decimal.Decimal
	PaidBy domain.PaidBy
}

// TransactionsUseCase combines the query, selections and totals for a period.
type TransactionsUseCase struct {
	query      *TransactionQuery
	selections *SelectionUseCase
}

// NewTransactionsUseCase creates a new TransactionsUseCase.
func NewTransactionsUseCase(query *TransactionQuery, selections *SelectionUseCase) *TransactionsUseCase {
	return &TransactionsUseCase{
		query:      query,
		selections: selections,
	}
}

// Month returns the view for period, fetching if enabled and needed.
func (uc *TransactionsUseCase) Month(ctx context.Context, period domain.TransactionPeriod, enabled bool) MonthView {
	return uc.view(ctx, uc.query.Query(ctx, period, QueryOptions{Enabled: enabled}))
}

// Refetch refreshes period from the API and returns the new view.
func (uc *TransactionsUseCase) Refetch(ctx context.Context, period domain.TransactionPeriod) MonthView {
	return uc.view(ctx, uc.query.Refetch(ctx, period))
}

// Assign sets the payer of one transaction of period and returns the updated view.
func (uc *TransactionsUseCase) Assign(ctx context.Context, period domain.TransactionPeriod, input AssignInput) (MonthView, error) {
	state := uc.query.Query(ctx, period, QueryOptions{Enabled: true})
	if state.IsError() && state.Data == nil {
		return uc.view(ctx, state), state.Err
	}

	key := input.Key
	if key == "" {
		id, err := domain.IdentifierFromTransaction(input.Date, input.Amount)
		if err != nil {
			return uc.view(ctx, state), err
		}
		key = domain.GenerateStorageKey(id)
	}

	tx, ok := findByKey(state.Data, key)
	if !ok {
		return uc.view(ctx, state), fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, key)
	}

	err := uc.selections.SetSelection(ctx, period, tx, input.PaidBy)

	return uc.view(ctx, uc.query.State(period)), err
}

// ClearSelectionError resets the last selection save error.
func (uc *TransactionsUseCase) ClearSelectionError() {
	uc.selections.ClearError()
}

// SelectionError returns the last selection save error.
func (uc *TransactionsUseCase) SelectionError() string {
	return uc.selections.Error()
}

func (uc *TransactionsUseCase) view(ctx context.Context, state QueryState) MonthView {
	view := MonthView{
		Period:         state.Period,
		Status:         state.Status,
		SelectionError: uc.selections.Error(),
		Summary:        domain.NewTransactionResponse(state.Period, state.Data),
		Totals:         uc.selections.Totals(ctx, state.Data),
	}
	if state.Err != nil {
		view.Error = state.Err.Error()
	}

	selections := uc.selections.Selections(ctx, state.Data)
	view.Transactions = make([]TransactionView, 0, len(state.Data))
	for _, tx := range state.Data {
		key, _ := domain.StorageKeyForTransaction(tx)
		selection, ok := selections[key]
		if !ok {
			selection = uc.selections.Selection(ctx, tx)
		}
		view.Transactions = append(view.Transactions, TransactionView{
			Transaction: tx,
			Key:         key,
			Selection:   selection,
		})
	}

	return view
}

func findByKey(txs []domain.Transaction, key string) (domain.Transaction, bool) {
	for _, tx := range txs {
		txKey, err := domain.StorageKeyForTransaction(tx)
		if err == nil && txKey == key {
			return tx, true
		}
	}
	return domain.Transaction{}, false
}
