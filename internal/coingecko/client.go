// Package coingecko provides an HTTP client for the CoinGecko markets API.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/M-Afifff/coingecko-project/internal/domain"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.coingecko.com/api/v3"
	DefaultTimeout = 30 * time.Second
	PingTimeout    = 10 * time.Second

	apiKeyHeader = "x-cg-demo-api-key"
)

// UpstreamError reports a failed or malformed response from the
// pricing source. StatusCode is zero for transport-level failures.
type UpstreamError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s: unexpected status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("upstream %s: %v", e.Endpoint, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Client calls the CoinGecko REST API. It performs no retries;
// retry policy belongs to the scheduler above the orchestrator.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithAPIKey sets the demo API key header on every request.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a new CoinGecko API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchMarkets requests up to limit assets from /coins/markets,
// ordered by descending market capitalization, sparklines disabled.
func (c *Client) FetchMarkets(ctx context.Context, limit int) ([]domain.RawMarketRecord, error) {
	endpoint := c.baseURL + "/coins/markets"

	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("order", "market_cap_desc")
	params.Set("per_page", strconv.Itoa(limit))
	params.Set("page", "1")
	params.Set("sparkline", "false")

	body, err := c.get(ctx, endpoint+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var records []domain.RawMarketRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, &UpstreamError{Endpoint: "/coins/markets", Err: fmt.Errorf("decode markets payload: %w", err)}
	}
	return records, nil
}

// Ping probes /ping. A nil error means the source is reachable.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()

	_, err := c.get(ctx, c.baseURL+"/ping")
	return err
}

// get performs a GET request and returns the response body.
// Non-2xx responses and transport failures become UpstreamError.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &UpstreamError{Endpoint: rawURL, Err: fmt.Errorf("build request: %w", err)}
	}
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Endpoint: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, &UpstreamError{Endpoint: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Endpoint: rawURL, Err: fmt.Errorf("read response body: %w", err)}
	}
	return body, nil
}
