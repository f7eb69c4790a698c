package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/iho/expensesplit/internal/adapter/http/dto"
	"github.com/iho/expensesplit/internal/domain"
)

func TestParseBoolQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/transactions/2025/1?enabled=false", nil)
	if got := parseBoolQuery(req, "enabled", true); got {
		t.Fatalf("expected enabled=false")
	}

	req = httptest.NewRequest(http.MethodGet, "/transactions/2025/1?enabled=maybe", nil)
	if got := parseBoolQuery(req, "enabled", true); !got {
		t.Fatalf("expected fallback to default")
	}

	req = httptest.NewRequest(http.MethodGet, "/transactions/2025/1", nil)
	if got := parseBoolQuery(req, "enabled", true); !got {
		t.Fatalf("expected default when missing")
	}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		year, month string
		wantErr     bool
	}{
		{"2025", "1", false},
		{"2025", "12", false},
		{"2025", "13", true},
		{"2025", "0", true},
		{"abc", "1", true},
		{"2025", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.year+"-"+tt.month, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("year", tt.year)
			rctx.URLParams.Add("month", tt.month)
			req = withRouteContext(req, rctx)

			_, err := parsePeriod(req)
			if tt.wantErr != (err != nil) {
				t.Fatalf("wantErr=%v, got %v", tt.wantErr, err)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidPeriod) {
				t.Fatalf("expected ErrInvalidPeriod, got %v", err)
			}
		})
	}
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"transaction not found", fmt.Errorf("%w: key", domain.ErrTransactionNotFound), http.StatusNotFound},
		{"invalid paid by", domain.ErrInvalidPaidBy, http.StatusBadRequest},
		{"invalid date", domain.ErrInvalidTransactionDate, http.StatusBadRequest},
		{"invalid period", domain.ErrInvalidPeriod, http.StatusBadRequest},
		{"upstream bad parameter", domain.ErrInvalidParameter, http.StatusBadRequest},
		{"missing identifier", dto.ErrMissingIdentifier, http.StatusBadRequest},
		{"upstream failure", &domain.APIError{Op: "fetch transactions", Status: 500, StatusText: "Internal Server Error"}, http.StatusBadGateway},
		{"health", domain.ErrHealthCheckFailed, http.StatusServiceUnavailable},
		{"save failed", fmt.Errorf("%w: key: %w", domain.ErrSelectionSaveFailed, domain.ErrInvalidPaidData), http.StatusBadGateway},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapDomainError(tt.err); got != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusBadRequest, "bad", "details")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "bad" || resp.Message != "details" {
		t.Fatalf("unexpected error response %+v", resp)
	}
}
