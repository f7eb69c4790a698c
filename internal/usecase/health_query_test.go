package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"

	"github.com/iho/expensesplit/internal/domain"
	"github.com/iho/expensesplit/internal/usecase"
	"github.com/iho/expensesplit/internal/usecase/mocks"
)

func TestHealthQuery_Check(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(*mocks.MockTransactionAPI)
		want       string
		wantErr    bool
	}{
		{
			name: "healthy",
			setupMocks: func(api *mocks.MockTransactionAPI) {
				api.EXPECT().HealthCheck(gomock.Any()).Return("OK", nil)
			},
			want: "OK",
		},
		{
			name: "recovers within retries",
			setupMocks: func(api *mocks.MockTransactionAPI) {
				gomock.InOrder(
					api.EXPECT().HealthCheck(gomock.Any()).Return("", domain.ErrHealthCheckFailed).Times(3),
					api.EXPECT().HealthCheck(gomock.Any()).Return("OK", nil),
				)
			},
			want: "OK",
		},
		{
			name: "gives up after retries",
			setupMocks: func(api *mocks.MockTransactionAPI) {
				api.EXPECT().HealthCheck(gomock.Any()).Return("", domain.ErrHealthCheckFailed).Times(usecase.HealthRetries + 1)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			api := mocks.NewMockTransactionAPI(ctrl)
			tt.setupMocks(api)

			h := usecase.NewHealthQuery(api, time.Millisecond, zerolog.Nop())
			got, err := h.Check(context.Background())

			if tt.wantErr {
				if !errors.Is(err, domain.ErrHealthCheckFailed) {
					t.Errorf("expected ErrHealthCheckFailed, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestHealthQuery_CachesHealthyResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockTransactionAPI(ctrl)
	api.EXPECT().HealthCheck(gomock.Any()).Return("OK", nil).Times(2)

	now := time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC)
	h := usecase.NewHealthQuery(api, time.Millisecond, zerolog.Nop())
	usecase.SetHealthClock(h, func() time.Time { return now })

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := h.Check(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		now = now.Add(10 * time.Second)
	}

	// Past the one minute window the API is called again.
	now = now.Add(time.Minute)
	if _, err := h.Check(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHealthQuery_SharedCheckOutlivesCancelledCaller(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockTransactionAPI(ctrl)

	started := make(chan struct{})
	release := make(chan struct{})
	api.EXPECT().HealthCheck(gomock.Any()).DoAndReturn(func(ctx context.Context) (string, error) {
		close(started)
		select {
		case <-release:
			return "OK", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}).Times(1)

	h := usecase.NewHealthQuery(api, time.Millisecond, zerolog.Nop())

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error)
	go func() {
		_, err := h.Check(ctxA)
		errA <- err
	}()

	<-started
	type result struct {
		status string
		err    error
	}
	doneB := make(chan result)
	go func() {
		status, err := h.Check(context.Background())
		doneB <- result{status, err}
	}()

	cancelA()
	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancelled caller to get context.Canceled, got %v", err)
	}

	close(release)
	res := <-doneB
	if res.err != nil || res.status != "OK" {
		t.Fatalf("expected shared check to succeed, got %q %v", res.status, res.err)
	}
}
