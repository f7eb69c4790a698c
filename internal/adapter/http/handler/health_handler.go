package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/iho/expensesplit/internal/adapter/http/dto"
)

const readinessTimeout = 5 * time.Second

// UpstreamChecker reports the health of the transactions API.
type UpstreamChecker interface {
	Check(ctx context.Context) (string, error)
}

// Pinger is implemented by selection store backends.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	upstream  UpstreamChecker
	store     Pinger
	storeName string
}

// NewHealthHandler creates a new HealthHandler. store may be nil.
func NewHealthHandler(upstream UpstreamChecker, store Pinger, storeName string) *HealthHandler {
	return &HealthHandler{
		upstream:  upstream,
		store:     store,
		storeName: storeName,
	}
}

// Liveness returns 200 if the service is alive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness returns 200 if the service is ready to accept traffic.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := map[string]string{"status": "ready"}

	if h.store != nil {
		if err := h.store.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, h.storeName+" unhealthy", err.Error())
			return
		}
		status[h.storeName] = "ok"
	}

	if h.upstream != nil {
		if _, err := h.upstream.Check(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "transactions api unhealthy", err.Error())
			return
		}
		status["transactions_api"] = "ok"
	}

	writeJSON(w, http.StatusOK, status)
}

// Upstream returns the health message of the transactions API.
func (h *HealthHandler) Upstream(w http.ResponseWriter, r *http.Request) {
	if h.upstream == nil {
		writeError(w, http.StatusServiceUnavailable, "transactions api not configured", "")
		return
	}

	msg, err := h.upstream.Check(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "health check failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.UpstreamHealthResponse{Status: msg})
}
