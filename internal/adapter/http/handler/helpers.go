package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/iho/expensesplit/internal/adapter/http/dto"
	"github.com/iho/expensesplit/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	var apiErr *domain.APIError

	switch {
	case errors.Is(err, domain.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidPaidBy),
		errors.Is(err, domain.ErrInvalidTransactionDate),
		errors.Is(err, domain.ErrInvalidPeriod),
		errors.Is(err, domain.ErrInvalidParameter),
		errors.Is(err, domain.ErrInvalidPaidData),
		errors.Is(err, dto.ErrMissingIdentifier):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSelectionSaveFailed):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrHealthCheckFailed):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// parsePeriod reads the {year} and {month} URL parameters.
func parsePeriod(r *http.Request) (domain.TransactionPeriod, error) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return domain.TransactionPeriod{}, domain.ErrInvalidPeriod
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		return domain.TransactionPeriod{}, domain.ErrInvalidPeriod
	}
	return domain.NewTransactionPeriod(year, month)
}

// parseBoolQuery parses a boolean query parameter with a default value.
func parseBoolQuery(r *http.Request, key string, defaultValue bool) bool {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultValue
	}
	return b
}
