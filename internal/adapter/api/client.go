// Package api is the HTTP client for the remote transactions service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/iho/expensesplit/internal/domain"
	"github.com/iho/expensesplit/internal/infrastructure/metrics"
)

const (
	endpointTransactions = "transactions"
	endpointPaid         = "paid"
	endpointHealth       = "health"

	// RequestIDHeader carries a ULID per outbound request.
	RequestIDHeader = "X-Request-ID"
)

// Config holds Client settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
	// HTTPClient overrides the default client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client implements usecase.TransactionAPI over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// NewClient creates a new Client.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		logger:     cfg.Logger.With().Str("component", "api_client").Logger(),
		metrics:    cfg.Metrics,
	}
}

type paidTransactionRequest struct {
	Key    string        `json:"key"`
	PaidBy domain.PaidBy `json:"paidBy"`
}

// GetTransactions fetches the transactions of one month.
func (c *Client) GetTransactions(ctx context.Context, year, month int) ([]domain.Transaction, error) {
	url := fmt.Sprintf("%s/transactions/%d/%d", c.baseURL, year, month)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache, max-age=0, must-revalidate")
	req.Header.Set("Expires", "0")

	resp, err := c.do(req, endpointTransactions)
	if err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		return nil, domain.ErrInvalidParameter
	}
	if !isSuccess(resp.StatusCode) {
		return nil, &domain.APIError{Op: "fetch transactions", Status: resp.StatusCode, StatusText: statusText(resp)}
	}

	var txs []domain.Transaction
	if err := json.NewDecoder(resp.Body).Decode(&txs); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}

	return txs, nil
}

// SavePaidTransaction stores the payer of the transaction identified by key.
func (c *Client) SavePaidTransaction(ctx context.Context, key string, paidBy domain.PaidBy) error {
	body, err := json.Marshal(paidTransactionRequest{Key: key, PaidBy: paidBy})
	if err != nil {
		return fmt.Errorf("encode paid transaction: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/transactions/paid", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req, endpointPaid)
	if err != nil {
		return fmt.Errorf("save paid transaction: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusBadRequest {
		return domain.ErrInvalidPaidData
	}
	if !isSuccess(resp.StatusCode) {
		return &domain.APIError{Op: "save paid transaction", Status: resp.StatusCode, StatusText: statusText(resp)}
	}

	return nil
}

// HealthCheck returns the body of the service root.
func (c *Client) HealthCheck(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := c.do(req, endpointHealth)
	if err != nil {
		return "", fmt.Errorf("health check: %w", err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return "", domain.ErrHealthCheckFailed
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read health response: %w", err)
	}

	return string(body), nil
}

func (c *Client) do(req *http.Request, endpoint string) (*http.Response, error) {
	requestID := ulid.Make().String()
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		c.metrics.ObserveAPI(endpoint, "error", elapsed)
		c.logger.Error().
			Err(err).
			Str("request_id", requestID).
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Msg("upstream request failed")
		return nil, err
	}

	c.metrics.ObserveAPI(endpoint, strconv.Itoa(resp.StatusCode), elapsed)
	c.logger.Debug().
		Str("request_id", requestID).
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Dur("duration", elapsed).
		Msg("upstream request")

	return resp, nil
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

// statusText returns the reason phrase sent by the server.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		return http.StatusText(resp.StatusCode)
	}
	return text
}
