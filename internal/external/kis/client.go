package kis

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/wonny/overseas-dashboard/pkg/config"
	"github.com/wonny/overseas-dashboard/pkg/httputil"
	"github.com/wonny/overseas-dashboard/pkg/logger"
)

// Client handles communication with KIS (한국투자증권) API
// ⭐ SSOT: KIS API 호출은 이 클라이언트에서만
//
// The client is stateless: credentials are passed per call and no token
// is cached between calls.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
}

// NewClient creates a new KIS API client
func NewClient(httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
	}
}

// request makes an authenticated request to KIS API
func (c *Client) request(ctx context.Context, method, path string, query url.Values, token, trID string, creds config.KISConfig, body io.Reader) (*http.Response, error) {
	target := creds.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// Set required headers
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("authorization", "Bearer "+token)
	req.Header.Set("appkey", creds.AppKey)
	req.Header.Set("appsecret", creds.AppSecret)
	req.Header.Set("tr_id", trID)
	req.Header.Set("custtype", "P") // 개인

	return c.httpClient.Do(req)
}
