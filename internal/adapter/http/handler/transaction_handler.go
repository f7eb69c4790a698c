package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iho/expensesplit/internal/adapter/http/dto"
	"github.com/iho/expensesplit/internal/domain"
	"github.com/iho/expensesplit/internal/usecase"
)

// TransactionService defines the behavior needed by TransactionHandler.
type TransactionService interface {
	Month(ctx context.Context, period domain.TransactionPeriod, enabled bool) usecase.MonthView
	Refetch(ctx context.Context, period domain.TransactionPeriod) usecase.MonthView
	Assign(ctx context.Context, period domain.TransactionPeriod, input usecase.AssignInput) (usecase.MonthView, error)
	SelectionError() string
	ClearSelectionError()
}

// TransactionHandler handles transaction and selection HTTP requests.
type TransactionHandler struct {
	transactionsUC TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionsUC TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionsUC: transactionsUC}
}

// GetMonth returns the transactions, selections and totals of a month.
// ?enabled=false returns the cached state without contacting the API.
func (h *TransactionHandler) GetMonth(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period", err.Error())
		return
	}

	view := h.transactionsUC.Month(r.Context(), period, parseBoolQuery(r, "enabled", true))
	writeJSON(w, http.StatusOK, dto.MonthFromView(view))
}

// Refetch reloads a month from the API.
func (h *TransactionHandler) Refetch(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period", err.Error())
		return
	}

	view := h.transactionsUC.Refetch(r.Context(), period)
	writeJSON(w, http.StatusOK, dto.MonthFromView(view))
}

// AssignSelection sets who paid for one transaction.
func (h *TransactionHandler) AssignSelection(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period", err.Error())
		return
	}

	var req dto.AssignSelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, mapDomainError(err), "invalid selection", err.Error())
		return
	}

	view, err := h.transactionsUC.Assign(r.Context(), period, input)
	if err != nil {
		// A failed remote save has already been rolled back; return the restored view.
		if errors.Is(err, domain.ErrSelectionSaveFailed) {
			writeJSON(w, http.StatusBadGateway, dto.MonthFromView(view))
			return
		}
		writeError(w, mapDomainError(err), "failed to assign selection", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.MonthFromView(view))
}

// GetSelectionError returns the last selection save error.
func (h *TransactionHandler) GetSelectionError(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.SelectionErrorResponse{Error: h.transactionsUC.SelectionError()})
}

// ClearSelectionError resets the selection save error.
func (h *TransactionHandler) ClearSelectionError(w http.ResponseWriter, r *http.Request) {
	h.transactionsUC.ClearSelectionError()
	w.WriteHeader(http.StatusNoContent)
}
