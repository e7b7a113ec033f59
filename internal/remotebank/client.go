// Package remotebank is the HTTP client for the remote transaction source.
// The remote API serves bank transactions filtered by date range; its
// nearest-available-boundary adjustment is the server's contract, so this
// client stays a thin transport wrapper.
package remotebank

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/ar-automation/reconciliation/internal/config"
	"github.com/ar-automation/reconciliation/internal/domain/bank"
)

// Client fetches transactions from the remote bank API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a remote bank API client from configuration
func NewClient(logger *slog.Logger, cfg *config.RemoteBankConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// FetchRange returns all transactions whose date falls inside the inclusive
// range. An empty slice is a valid outcome, not an error: the server adjusts
// the window to the nearest available transaction dates and reports no rows
// when the adjusted window is empty.
func (c *Client) FetchRange(ctx context.Context, from, to bank.Date) ([]bank.Transaction, error) {
	endpoint := fmt.Sprintf("%s/transactions/date_range/?start_date=%s&end_date=%s",
		c.baseURL,
		url.QueryEscape(from.Format(bank.DateLayout)),
		url.QueryEscape(to.Format(bank.DateLayout)),
	)
	return c.fetch(ctx, endpoint)
}

// FetchAll returns the remote bank's full transaction list
func (c *Client) FetchAll(ctx context.Context) ([]bank.Transaction, error) {
	return c.fetch(ctx, c.baseURL+"/transactions/")
}

func (c *Client) fetch(ctx context.Context, endpoint string) ([]bank.Transaction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build remote bank request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote bank request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote bank returned status %d", res.StatusCode)
	}

	var txns []bank.Transaction
	if err := json.NewDecoder(res.Body).Decode(&txns); err != nil {
		return nil, fmt.Errorf("failed to decode remote bank response: %w", err)
	}

	c.logger.Debug("Fetched transactions from remote bank", "count", len(txns))
	return txns, nil
}
