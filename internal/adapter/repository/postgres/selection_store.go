package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/expensesplit/internal/infrastructure/metrics"
	"github.com/iho/expensesplit/internal/usecase"
)

const backend = "postgres"

const (
	getSelectionSQL = `SELECT paid_by FROM expense_selections WHERE key = $1`

	upsertSelectionSQL = `INSERT INTO expense_selections (key, paid_by, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET paid_by = EXCLUDED.paid_by, updated_at = EXCLUDED.updated_at`
)

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// SelectionStore implements usecase.SelectionStore on the expense_selections table.
type SelectionStore struct {
	pool    pgxPool
	retrier usecase.Retrier
	metrics *metrics.Metrics
}

// NewSelectionStore creates a new SelectionStore.
func NewSelectionStore(pool *pgxpool.Pool, retrier usecase.Retrier, m *metrics.Metrics) *SelectionStore {
	return newSelectionStoreWithPool(pool, retrier, m)
}

func newSelectionStoreWithPool(pool pgxPool, retrier usecase.Retrier, m *metrics.Metrics) *SelectionStore {
	return &SelectionStore{
		pool:    pool,
		retrier: retrier,
		metrics: m,
	}
}

// Get returns the payer stored under key.
func (s *SelectionStore) Get(ctx context.Context, key string) (string, bool, error) {
	var paidBy string
	err := s.pool.QueryRow(ctx, getSelectionSQL, key).Scan(&paidBy)
	if errors.Is(err, pgx.ErrNoRows) {
		s.metrics.StoreOp(backend, "get", nil)
		return "", false, nil
	}
	s.metrics.StoreOp(backend, "get", err)
	if err != nil {
		return "", false, err
	}
	return paidBy, true, nil
}

// Set upserts the payer for key.
func (s *SelectionStore) Set(ctx context.Context, key, value string) error {
	write := func() error {
		_, err := s.pool.Exec(ctx, upsertSelectionSQL, key, value)
		return err
	}

	var err error
	if s.retrier != nil {
		err = s.retrier.Retry(ctx, write)
	} else {
		err = write()
	}

	s.metrics.StoreOp(backend, "set", err)
	return err
}

// Ping checks the connection.
func (s *SelectionStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
