package usecase

import (
	"context"

	"github.com/iho/expensesplit/internal/domain"
)

// TransactionAPI is the remote transactions service.
type TransactionAPI interface {
	GetTransactions(ctx context.Context, year, month int) ([]domain.Transaction, error)
	SavePaidTransaction(ctx context.Context, key string, paidBy domain.PaidBy) error
	HealthCheck(ctx context.Context) (string, error)
}

// SelectionStore persists selections under their storage key.
type SelectionStore interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Retrier retries an operation on transient failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}
