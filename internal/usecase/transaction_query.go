package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/iho/expensesplit/internal/domain"
	"github.com/iho/expensesplit/internal/infrastructure/metrics"
)

// QueryStatus is the lifecycle state of a cached query.
type QueryStatus string

const (
	StatusIdle    QueryStatus = "idle"
	StatusLoading QueryStatus = "loading"
	StatusSuccess QueryStatus = "success"
	StatusError   QueryStatus = "error"
)

// QueryState is a snapshot of one period's query.
type QueryState struct {
	Period     domain.TransactionPeriod
	Status     QueryStatus
	Data       []domain.Transaction
	Err        error
	UpdatedAt  time.Time
	IsFetching bool
}

// IsIdle reports whether the query has never been triggered.
func (s QueryState) IsIdle() bool { return s.Status == StatusIdle }

// IsLoading reports whether the first fetch is in flight.
func (s QueryState) IsLoading() bool { return s.Status == StatusLoading }

// IsSuccess reports whether data is available.
func (s QueryState) IsSuccess() bool { return s.Status == StatusSuccess }

// IsError reports whether the last fetch failed.
func (s QueryState) IsError() bool { return s.Status == StatusError }

// QueryOptions controls a single Query call.
type QueryOptions struct {
	// Enabled=false never reaches the API.
	Enabled bool
}

// TransactionQueryConfig holds the dependencies of a TransactionQuery.
type TransactionQueryConfig struct {
	API        TransactionAPI
	StaleTime  time.Duration
	Retries    int
	RetryDelay time.Duration
	// FetchTimeout bounds one shared fetch, retries included.
	FetchTimeout time.Duration
	Logger       zerolog.Logger
	Metrics      *metrics.Metrics
}

type queryEntry struct {
	status     QueryStatus
	prevStatus QueryStatus
	data       []domain.Transaction
	err        error
	updatedAt  time.Time
	fetching   bool
	generation uint64
}

// TransactionQuery fetches and caches transactions per period.
type TransactionQuery struct {
	api        TransactionAPI
	staleTime  time.Duration
	retries    int
	retryDelay   time.Duration
	fetchTimeout time.Duration
	logger       zerolog.Logger
	metrics      *metrics.Metrics
	now          func() time.Time

	mu      sync.Mutex
	entries map[domain.TransactionPeriod]*queryEntry
	group   singleflight.Group
}

// NewTransactionQuery creates a new TransactionQuery.
func NewTransactionQuery(cfg TransactionQueryConfig) *TransactionQuery {
	if cfg.StaleTime <= 0 {
		cfg.StaleTime = DefaultStaleTime
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}

	return &TransactionQuery{
		api:          cfg.API,
		staleTime:    cfg.StaleTime,
		retries:      cfg.Retries,
		retryDelay:   cfg.RetryDelay,
		fetchTimeout: cfg.FetchTimeout,
		logger:       cfg.Logger.With().Str("component", "transaction_query").Logger(),
		metrics:      cfg.Metrics,
		now:          time.Now,
		entries:      make(map[domain.TransactionPeriod]*queryEntry),
	}
}

// Query returns the cached state for period, fetching when the cache is empty or stale.
func (q *TransactionQuery) Query(ctx context.Context, period domain.TransactionPeriod, opts QueryOptions) QueryState {
	if !opts.Enabled {
		return q.State(period)
	}

	q.mu.Lock()
	e := q.entry(period)
	if e.status == StatusSuccess && q.now().Sub(e.updatedAt) < q.staleTime {
		state := snapshot(period, e)
		q.mu.Unlock()
		q.metrics.CacheHit()
		q.logger.Debug().Str("period", period.String()).Msg("transactions served from cache")
		return state
	}
	q.mu.Unlock()

	return q.fetch(ctx, period)
}

// Refetch fetches period regardless of freshness.
func (q *TransactionQuery) Refetch(ctx context.Context, period domain.TransactionPeriod) QueryState {
	return q.fetch(ctx, period)
}

// State returns the current state without fetching.
func (q *TransactionQuery) State(period domain.TransactionPeriod) QueryState {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.entries[period]
	if !ok {
		return QueryState{Period: period, Status: StatusIdle}
	}
	return snapshot(period, e)
}

// Data returns a copy of the cached transactions.
func (q *TransactionQuery) Data(period domain.TransactionPeriod) ([]domain.Transaction, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.entries[period]
	if !ok || e.data == nil {
		return nil, false
	}
	return domain.CloneTransactions(e.data), true
}

// SetData rewrites the cached transactions with update. It is a no-op when nothing is cached.
func (q *TransactionQuery) SetData(period domain.TransactionPeriod, update func([]domain.Transaction) []domain.Transaction) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.entries[period]
	if !ok || e.data == nil {
		return false
	}
	e.data = update(domain.CloneTransactions(e.data))
	return true
}

// RestoreData replaces the cached transactions with a previously taken snapshot.
func (q *TransactionQuery) RestoreData(period domain.TransactionPeriod, data []domain.Transaction) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e := q.entry(period)
	e.data = domain.CloneTransactions(data)
}

// Cancel discards the result of any in-flight fetch for period.
func (q *TransactionQuery) Cancel(period domain.TransactionPeriod) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.entries[period]
	if !ok || !e.fetching {
		return
	}

	e.generation++
	e.fetching = false
	if e.status == StatusLoading {
		e.status = e.prevStatus
	}
	q.logger.Debug().Str("period", period.String()).Msg("in-flight fetch cancelled")
}

// Invalidate marks period as stale so the next Query refetches it.
func (q *TransactionQuery) Invalidate(period domain.TransactionPeriod) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if e, ok := q.entries[period]; ok {
		e.updatedAt = time.Time{}
	}
}

// fetch joins or starts the shared fetch for period. The fetch runs detached from ctx
// and is bounded by fetchTimeout; ctx only bounds how long this caller waits.
func (q *TransactionQuery) fetch(ctx context.Context, period domain.TransactionPeriod) QueryState {
	ch := q.group.DoChan(period.String(), func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.fetchTimeout)
		defer cancel()

		q.mu.Lock()
		e := q.entry(period)
		e.generation++
		gen := e.generation
		e.fetching = true
		if e.data == nil && e.status != StatusLoading {
			e.prevStatus = e.status
			e.status = StatusLoading
		}
		q.mu.Unlock()

		start := q.now()
		data, err := q.load(fetchCtx, period)
		elapsed := q.now().Sub(start)

		q.mu.Lock()
		defer q.mu.Unlock()

		if e.generation != gen {
			q.metrics.ObserveFetch("cancelled", elapsed)
			return nil, nil
		}

		e.fetching = false
		if err != nil {
			e.status = StatusError
			e.err = err
			q.metrics.ObserveFetch("error", elapsed)
			q.logger.Error().Err(err).Str("period", period.String()).Msg("failed to fetch transactions")
			return nil, nil
		}

		if data == nil {
			data = []domain.Transaction{}
		}
		e.status = StatusSuccess
		e.data = data
		e.err = nil
		e.updatedAt = q.now()
		q.metrics.ObserveFetch("success", elapsed)
		q.logger.Info().Str("period", period.String()).Int("count", len(data)).Msg("transactions fetched")

		return nil, nil
	})

	select {
	case <-ch:
	case <-ctx.Done():
	}

	return q.State(period)
}

// load calls the API, retrying failures that may be transient.
func (q *TransactionQuery) load(ctx context.Context, period domain.TransactionPeriod) ([]domain.Transaction, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = q.retryDelay
	b.MaxElapsedTime = 0

	var (
		data    []domain.Transaction
		attempt int
	)

	err := backoff.Retry(func() error {
		attempt++
		result, err := q.api.GetTransactions(ctx, period.Year, period.Month)
		if err == nil {
			data = result
			return nil
		}

		if errors.Is(err, domain.ErrInvalidParameter) {
			return backoff.Permanent(err)
		}

		if attempt <= q.retries {
			q.logger.Warn().Err(err).Int("attempt", attempt).Str("period", period.String()).Msg("fetch failed, retrying")
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(q.retries)), ctx))

	return data, err
}

// entry must be called with q.mu held.
func (q *TransactionQuery) entry(period domain.TransactionPeriod) *queryEntry {
	e, ok := q.entries[period]
	if !ok {
		e = &queryEntry{status: StatusIdle}
		q.entries[period] = e
	}
	return e
}

func snapshot(period domain.TransactionPeriod, e *queryEntry) QueryState {
	return QueryState{
		Period:     period,
		Status:     e.status,
		Data:       domain.CloneTransactions(e.data),
		Err:        e.err,
		UpdatedAt:  e.updatedAt,
		IsFetching: e.fetching,
	}
}
