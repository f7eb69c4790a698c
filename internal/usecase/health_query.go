package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// HealthQuery checks the transactions API and caches a healthy result briefly.
type HealthQuery struct {
	api        TransactionAPI
	staleTime  time.Duration
	retries    int
	retryDelay time.Duration
	logger     zerolog.Logger
	now        func() time.Time

	mu        sync.Mutex
	status    string
	checkedAt time.Time
	group     singleflight.Group
}

// NewHealthQuery creates a new HealthQuery.
func NewHealthQuery(api TransactionAPI, retryDelay time.Duration, logger zerolog.Logger) *HealthQuery {
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	return &HealthQuery{
		api:        api,
		staleTime:  HealthStaleTime,
		retries:    HealthRetries,
		retryDelay: retryDelay,
		logger:     logger.With().Str("component", "health_query").Logger(),
		now:        time.Now,
	}
}

// Check returns the upstream health message.
func (h *HealthQuery) Check(ctx context.Context) (string, error) {
	h.mu.Lock()
	if !h.checkedAt.IsZero() && h.now().Sub(h.checkedAt) < h.staleTime {
		status := h.status
		h.mu.Unlock()
		return status, nil
	}
	h.mu.Unlock()

	ch := h.group.DoChan("health", func() (any, error) {
		checkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), HealthCheckTimeout)
		defer cancel()

		b := backoff.NewExponentialBackOff()
		b.InitialInterval = h.retryDelay
		b.MaxElapsedTime = 0

		var status string
		err := backoff.Retry(func() error {
			s, err := h.api.HealthCheck(checkCtx)
			if err != nil {
				h.logger.Warn().Err(err).Msg("health check failed")
				return err
			}
			status = s
			return nil
		}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(h.retries)), checkCtx))
		if err != nil {
			return "", err
		}

		h.mu.Lock()
		h.status = status
		h.checkedAt = h.now()
		h.mu.Unlock()

		return status, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
