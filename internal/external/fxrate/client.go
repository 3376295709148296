// Package fxrate fetches the USD/KRW rate from open.er-api.com.
package fxrate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/wonny/overseas-dashboard/pkg/httputil"
	"github.com/wonny/overseas-dashboard/pkg/logger"
)

// Client for open.er-api.com
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	url        string
}

// NewClient creates a client for the given latest-rates URL
// (e.g. https://open.er-api.com/v6/latest/USD)
func NewClient(url string, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("client", "er-api"),
		url:        url,
	}
}

type latestResponse struct {
	Result    string             `json:"result"`
	BaseCode  string             `json:"base_code"`
	ErrorType string             `json:"error-type"`
	Rates     map[string]float64 `json:"rates"`
}

// Name identifies the source in logs and responses
func (c *Client) Name() string {
	return "er-api"
}

// FetchUSDKRW returns rates.KRW from the latest USD table
func (c *Client) FetchUSDKRW(ctx context.Context) (float64, error) {
	resp, err := c.httpClient.Get(ctx, c.url)
	if err != nil {
		return 0, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var result latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Result != "" && result.Result != "success" {
		return 0, fmt.Errorf("API result %q: %s", result.Result, result.ErrorType)
	}

	rate, ok := result.Rates["KRW"]
	if !ok {
		return 0, fmt.Errorf("rate not found for USD->KRW")
	}
	if rate <= 0 {
		return 0, fmt.Errorf("invalid USD->KRW rate %v", rate)
	}

	c.logger.WithField("rate", rate).Debug("Fetched rate")
	return rate, nil
}
