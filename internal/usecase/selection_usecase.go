package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/iho/expensesplit/internal/domain"
	"github.com/iho/expensesplit/internal/infrastructure/metrics"
)

// SelectionMode selects where selections are persisted.
type SelectionMode string

const (
	// SelectionModeLocal keeps selections in a SelectionStore.
	SelectionModeLocal SelectionMode = "local"
	// SelectionModeRemote saves selections through the transactions API.
	SelectionModeRemote SelectionMode = "remote"
)

// IsValid reports whether m is a known mode.
func (m SelectionMode) IsValid() bool {
	return m == SelectionModeLocal || m == SelectionModeRemote
}

// SelectionConfig holds the dependencies of a SelectionUseCase.
type SelectionConfig struct {
	Mode  SelectionMode
	Store SelectionStore
	API   TransactionAPI
	Query *TransactionQuery
	// DefaultPaidBy is returned for transactions without a valid selection.
	DefaultPaidBy domain.PaidBy
	Logger        zerolog.Logger
	Metrics       *metrics.Metrics
}

// SelectionUseCase reads and writes who paid for each transaction.
type SelectionUseCase struct {
	mode          SelectionMode
	store         SelectionStore
	api           TransactionAPI
	query         *TransactionQuery
	defaultPaidBy domain.PaidBy
	logger        zerolog.Logger
	metrics       *metrics.Metrics

	mu      sync.RWMutex
	overlay map[string]domain.PaidBy
	errMsg  string
}

// NewSelectionUseCase creates a new SelectionUseCase.
func NewSelectionUseCase(cfg SelectionConfig) *SelectionUseCase {
	if !cfg.Mode.IsValid() {
		cfg.Mode = SelectionModeRemote
	}
	if !cfg.DefaultPaidBy.IsValid() {
		cfg.DefaultPaidBy = domain.DefaultPaidBy
	}

	return &SelectionUseCase{
		mode:          cfg.Mode,
		store:         cfg.Store,
		api:           cfg.API,
		query:         cfg.Query,
		defaultPaidBy: cfg.DefaultPaidBy,
		logger:        cfg.Logger.With().Str("component", "selection").Str("mode", string(cfg.Mode)).Logger(),
		metrics:       cfg.Metrics,
		overlay:       make(map[string]domain.PaidBy),
	}
}

// Mode returns the configured persistence mode.
func (uc *SelectionUseCase) Mode() SelectionMode {
	return uc.mode
}

// Selection returns the payer for tx, falling back to the default payer.
func (uc *SelectionUseCase) Selection(ctx context.Context, tx domain.Transaction) domain.PaidBy {
	if uc.mode == SelectionModeRemote {
		if tx.PaidBy.IsValid() {
			return tx.PaidBy
		}
		return uc.defaultPaidBy
	}

	key, err := domain.StorageKeyForTransaction(tx)
	if err != nil {
		return uc.defaultPaidBy
	}

	uc.mu.RLock()
	value, ok := uc.overlay[key]
	uc.mu.RUnlock()
	if ok {
		return value
	}

	if uc.store == nil {
		return uc.defaultPaidBy
	}

	stored, found, err := uc.store.Get(ctx, key)
	if err != nil {
		uc.logger.Warn().Err(err).Str("key", key).Msg("failed to read selection")
		return uc.defaultPaidBy
	}
	if !found || !domain.IsValidPaidBy(stored) {
		return uc.defaultPaidBy
	}

	return domain.PaidBy(stored)
}

// Selections resolves the payer of every transaction in txs, keyed by storage key.
// Transactions with an unparseable date are left out.
func (uc *SelectionUseCase) Selections(ctx context.Context, txs []domain.Transaction) map[string]domain.PaidBy {
	out := make(map[string]domain.PaidBy, len(txs))
	for _, tx := range txs {
		key, err := domain.StorageKeyForTransaction(tx)
		if err != nil {
			continue
		}
		out[key] = uc.Selection(ctx, tx)
	}
	return out
}

// Lookup binds ctx for use with domain.CalculateTotals.
func (uc *SelectionUseCase) Lookup(ctx context.Context) func(domain.Transaction) domain.PaidBy {
	return func(tx domain.Transaction) domain.PaidBy {
		return uc.Selection(ctx, tx)
	}
}

// Totals computes the per-payer totals of txs with the current selections.
func (uc *SelectionUseCase) Totals(ctx context.Context, txs []domain.Transaction) domain.Totals {
	return domain.CalculateTotals(txs, uc.Lookup(ctx))
}

// SetSelection records value for tx.
//
// In local mode a failed write is logged and otherwise ignored. In remote mode the
// cached transactions of period are updated before the API call and restored if it fails.
func (uc *SelectionUseCase) SetSelection(ctx context.Context, period domain.TransactionPeriod, tx domain.Transaction, value domain.PaidBy) error {
	if !value.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidPaidBy, value)
	}

	key, err := domain.StorageKeyForTransaction(tx)
	if err != nil {
		return err
	}

	if uc.mode == SelectionModeLocal {
		uc.setLocal(ctx, key, value)
		return nil
	}

	return uc.setRemote(ctx, period, key, value)
}

// Error returns the message of the last failed remote save, if any.
func (uc *SelectionUseCase) Error() string {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.errMsg
}

// ClearError resets the save error.
func (uc *SelectionUseCase) ClearError() {
	uc.mu.Lock()
	uc.errMsg = ""
	uc.mu.Unlock()
}

func (uc *SelectionUseCase) setLocal(ctx context.Context, key string, value domain.PaidBy) {
	uc.mu.Lock()
	uc.overlay[key] = value
	uc.mu.Unlock()

	if uc.store == nil {
		uc.metrics.SelectionSaved(string(uc.mode), "success")
		return
	}

	if err := uc.store.Set(ctx, key, string(value)); err != nil {
		uc.metrics.SelectionSaved(string(uc.mode), "failure")
		uc.logger.Error().Err(err).Str("key", key).Msg("failed to persist selection")
		return
	}

	uc.metrics.SelectionSaved(string(uc.mode), "success")
	uc.logger.Debug().Str("key", key).Str("paid_by", string(value)).Msg("selection saved")
}

func (uc *SelectionUseCase) setRemote(ctx context.Context, period domain.TransactionPeriod, key string, value domain.PaidBy) error {
	uc.ClearError()

	var (
		previous []domain.Transaction
		hadData  bool
	)

	if uc.query != nil {
		uc.query.Cancel(period)
		previous, hadData = uc.query.Data(period)
		uc.query.SetData(period, func(txs []domain.Transaction) []domain.Transaction {
			for i := range txs {
				txKey, err := domain.StorageKeyForTransaction(txs[i])
				if err == nil && txKey == key {
					txs[i].PaidBy = value
				}
			}
			return txs
		})
	}

	if err := uc.api.SavePaidTransaction(ctx, key, value); err != nil {
		if hadData {
			uc.query.RestoreData(period, previous)
			uc.metrics.Rollback()
		}

		uc.mu.Lock()
		uc.errMsg = domain.SelectionSaveFailedMessage
		uc.mu.Unlock()

		uc.metrics.SelectionSaved(string(uc.mode), "failure")
		uc.logger.Error().Err(err).Str("key", key).Str("period", period.String()).Msg("failed to save selection")

		return fmt.Errorf("%w: %s: %w", domain.ErrSelectionSaveFailed, key, err)
	}

	uc.metrics.SelectionSaved(string(uc.mode), "success")
	uc.logger.Info().Str("key", key).Str("paid_by", string(value)).Msg("selection saved")

	return nil
}
