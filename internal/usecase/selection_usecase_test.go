package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/expensesplit/internal/domain"
	"github.com/iho/expensesplit/internal/infrastructure/metrics"
	"github.com/iho/expensesplit/internal/usecase"
	"github.com/iho/expensesplit/internal/usecase/mocks"
)

const groceryKey = "expense-selection:2025:01:15:-125.50"

func TestSelectionUseCase_DefaultsToRoland(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSelectionStore(ctrl)
	store.EXPECT().Get(gomock.Any(), groceryKey).Return("", false, nil)

	uc := usecase.NewSelectionUseCase(usecase.SelectionConfig{
		Mode:   usecase.SelectionModeLocal,
		Store:  store,
		Logger: zerolog.Nop(),
	})

	assert.Equal(t, domain.PaidByRoland, uc.Selection(context.Background(), fixtureTransactions()[0]))
}

func TestSelectionUseCase_UnknownModeFallsBackToRemote(t *testing.T) {
	uc := usecase.NewSelectionUseCase(usecase.SelectionConfig{Mode: "cloud", Logger: zerolog.Nop()})
	assert.Equal(t, usecase.SelectionModeRemote, uc.Mode())
}

func TestSelectionUseCase_LocalStoredValues(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		found  bool
		err    error
		want   domain.PaidBy
	}{
		{name: "valid stored value", stored: "Split", found: true, want: domain.PaidBySplit},
		{name: "invalid stored value", stored: "Alice", found: true, want: domain.PaidByRoland},
		{name: "missing", want: domain.PaidByRoland},
		{name: "store failure", err: errors.New("redis down"), want: domain.PaidByRoland},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mocks.NewMockSelectionStore(ctrl)
			store.EXPECT().Get(gomock.Any(), groceryKey).Return(tt.stored, tt.found, tt.err)

			uc := usecase.NewSelectionUseCase(usecase.SelectionConfig{
				Mode:   usecase.SelectionModeLocal,
				Store:  store,
				Logger: zerolog.Nop(),
			})

			assert.Equal(t, tt.want, uc.Selection(context.Background(), fixtureTransactions()[0]))
		})
	}
}

func TestSelectionUseCase_LocalSet(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSelectionStore(ctrl)
	store.EXPECT().Set(gomock.Any(), groceryKey, "Chris").Return(nil)
	store.EXPECT().Get(gomock.Any(), gomock.Any()).Times(0)

	m := metrics.New(prometheus.NewRegistry())
	uc := usecase.NewSelectionUseCase(usecase.SelectionConfig{
		Mode:    usecase.SelectionModeLocal,
		Store:   store,
		Logger:  zerolog.Nop(),
		Metrics: m,
	})

	tx := fixtureTransactions()[0]
	require.NoError(t, uc.SetSelection(context.Background(), january, tx, domain.PaidByChris))

	// The overlay answers without touching the store.
	assert.Equal(t, domain.PaidByChris, uc.Selection(context.Background(), tx))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SelectionSaves.WithLabelValues("local", "success")))
}

func TestSelectionUseCase_LocalSetSwallowsStoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSelectionStore(ctrl)
	store.EXPECT().Set(gomock.Any(), groceryKey, "Split").Return(errors.New("quota exceeded"))

	uc := usecase.NewSelectionUseCase(usecase.SelectionConfig{
		Mode:   usecase.SelectionModeLocal,
		Store:  store,
		Logger: zerolog.Nop(),
	})

	tx := fixtureTransactions()[0]
	require.NoError(t, uc.SetSelection(context.Background(), january, tx, domain.PaidBySplit))
	assert.Equal(t, domain.PaidBySplit, uc.Selection(context.Background(), tx))
	assert.Empty(t, uc.Error())
}

func TestSelectionUseCase_RejectsInvalidValue(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockTransactionAPI(ctrl)
	api.EXPECT().SavePaidTransaction(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	uc := usecase.NewSelectionUseCase(usecase.SelectionConfig{
		Mode:   usecase.SelectionModeRemote,
		API:    api,
		Logger: zerolog.Nop(),
	})

	err := uc.SetSelection(context.Background(), january, fixtureTransactions()[0], "Alice")
	assert.ErrorIs(t, err, domain.ErrInvalidPaidBy)
}

func TestSelectionUseCase_RemoteReadsTransactionPaidBy(t *testing.T) {
	uc := usecase.NewSelectionUseCase(usecase.SelectionConfig{
		Mode:   usecase.SelectionModeRemote,
		Logger: zerolog.Nop(),
	})

	tx := fixtureTransactions()[1]
	assert.Equal(t, domain.PaidByRoland, uc.Selection(context.Background(), tx))

	tx.PaidBy = domain.PaidBySplit
	assert.Equal(t, domain.PaidBySplit, uc.Selection(context.Background(), tx))

	tx.PaidBy = "Nobody"
	assert.Equal(t, domain.PaidByRoland, uc.Selection(context.Background(), tx))
}

func TestSelectionUseCase_RemoteOptimisticUpdate(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockTransactionAPI(ctrl)
	api.EXPECT().GetTransactions(gomock.Any(), 2025, 1).Return(fixtureTransactions(), nil)

	q := newQuery(api)
	uc := usecase.NewSelectionUseCase(usecase.SelectionConfig{
		Mode:   usecase.SelectionModeRemote,
		API:    api,
		Query:  q,
		Logger: zerolog.Nop(),
	})

	q.Query(context.Background(), january, usecase.QueryOptions{Enabled: true})

	api.EXPECT().SavePaidTransaction(gomock.Any(), groceryKey, domain.PaidBySplit).DoAndReturn(
		func(ctx context.Context, key string, paidBy domain.PaidBy) error {
			// The cache already reflects the new value while the save is in flight.
			data, _ := q.Data(january)
			assert.Equal(t, domain.PaidBySplit, data[0].PaidBy)
			return nil
		},
	)

	require.NoError(t, uc.SetSelection(context.Background(), january, fixtureTransactions()[0], domain.PaidBySplit))

	data, _ := q.Data(january)
	assert.Equal(t, domain.PaidBySplit, data[0].PaidBy)
	assert.Empty(t, data[1].PaidBy)
	assert.Empty(t, uc.Error())
}

func TestSelectionUseCase_RemoteRollback(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockTransactionAPI(ctrl)

	initial := fixtureTransactions()
	initial[0].PaidBy = domain.PaidByChris
	api.EXPECT().GetTransactions(gomock.Any(), 2025, 1).Return(initial, nil)
	api.EXPECT().SavePaidTransaction(gomock.Any(), groceryKey, domain.PaidBySplit).
		Return(&domain.APIError{Op: "save paid transaction", Status: 500, StatusText: "Internal Server Error"})

	m := metrics.New(prometheus.NewRegistry())
	q := newQuery(api)
	uc := usecase.NewSelectionUseCase(usecase.SelectionConfig{
		Mode:    usecase.SelectionModeRemote,
		API:     api,
		Query:   q,
		Logger:  zerolog.Nop(),
		Metrics: m,
	})

	q.Query(context.Background(), january, usecase.QueryOptions{Enabled: true})
	before, _ := q.Data(january)

	err := uc.SetSelection(context.Background(), january, initial[0], domain.PaidBySplit)
	require.ErrorIs(t, err, domain.ErrSelectionSaveFailed)

	var apiErr *domain.APIError
	assert.ErrorAs(t, err, &apiErr)

	after, _ := q.Data(january)
	assert.Equal(t, before, after)
	assert.Equal(t, domain.SelectionSaveFailedMessage, uc.Error())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SelectionRollbacks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SelectionSaves.WithLabelValues("remote", "failure")))

	uc.ClearError()
	assert.Empty(t, uc.Error())
}

func TestSelectionUseCase_RemoteClearsPreviousError(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockTransactionAPI(ctrl)
	gomock.InOrder(
		api.EXPECT().SavePaidTransaction(gomock.Any(), groceryKey, domain.PaidByChris).Return(errors.New("timeout")),
		api.EXPECT().SavePaidTransaction(gomock.Any(), groceryKey, domain.PaidByChris).Return(nil),
	)

	uc := usecase.NewSelectionUseCase(usecase.SelectionConfig{
		Mode:   usecase.SelectionModeRemote,
		API:    api,
		Logger: zerolog.Nop(),
	})

	tx := fixtureTransactions()[0]
	require.Error(t, uc.SetSelection(context.Background(), january, tx, domain.PaidByChris))
	require.Equal(t, domain.SelectionSaveFailedMessage, uc.Error())

	require.NoError(t, uc.SetSelection(context.Background(), january, tx, domain.PaidByChris))
	assert.Empty(t, uc.Error())
}

func TestSelectionUseCase_Totals(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSelectionStore(ctrl)
	store.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	uc := usecase.NewSelectionUseCase(usecase.SelectionConfig{
		Mode:   usecase.SelectionModeLocal,
		Store:  store,
		Logger: zerolog.Nop(),
	})

	txs := fixtureTransactions()
	ctx := context.Background()
	require.NoError(t, uc.SetSelection(ctx, january, txs[0], domain.PaidByRoland))
	require.NoError(t, uc.SetSelection(ctx, january, txs[1], domain.PaidBySplit))
	require.NoError(t, uc.SetSelection(ctx, january, txs[2], domain.PaidByChris))

	totals := uc.Totals(ctx, txs)
	assert.Equal(t, "329.50", totals.Total.StringFixed(2))
	assert.Equal(t, "-148.00", totals.PayerA.StringFixed(2))
	assert.Equal(t, "477.50", totals.PayerB.StringFixed(2))
}

func TestSelectionUseCase_Selections(t *testing.T) {
	txs := fixtureTransactions()
	txs[1].PaidBy = domain.PaidByChris
	txs = append(txs, domain.Transaction{Date: "not-a-date", PaidBy: domain.PaidBySplit})

	uc := usecase.NewSelectionUseCase(usecase.SelectionConfig{Mode: usecase.SelectionModeRemote, Logger: zerolog.Nop()})

	got := uc.Selections(context.Background(), txs)
	assert.Equal(t, map[string]domain.PaidBy{
		groceryKey:                            domain.PaidByRoland,
		"expense-selection:2025:01:16:-45.00": domain.PaidByChris,
		"expense-selection:2025:01:17:500.00": domain.PaidByRoland,
	}, got)
}
