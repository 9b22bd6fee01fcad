// Package metricduck is a thin client for the MetricDuck fundamentals API.
//
// All endpoints work without an API key at reduced guest limits; a bearer
// token raises them. Failures are terminal: the client never retries.
package metricduck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the public API root.
	DefaultBaseURL = "https://api.metricduck.com/api/v1"

	// batchSize caps tickers per metrics request; larger lists are chunked.
	batchSize = 100
)

// Client calls the MetricDuck API.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
	Logger  *zap.Logger
}

// NewClient builds a client. An empty apiKey selects guest access.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: timeout},
		Logger:  logger,
	}
}

// HasKey reports whether the client authenticates as a registered user.
func (c *Client) HasKey() bool { return c.APIKey != "" }

// MetricsQuery selects what GET /data/metrics returns.
type MetricsQuery struct {
	Tickers    []string
	Metrics    []string
	Period     string // accounting period, e.g. "ttm"
	Price      string // pricing mode, e.g. "current"
	Dimensions []string
	Years      int
}

// FetchMetrics fetches metric values for the queried tickers, chunking the
// ticker list into batches of 100 and merging the per-ticker payloads.
func (c *Client) FetchMetrics(ctx context.Context, q MetricsQuery) (map[string]Company, error) {
	merged := make(map[string]Company)

	for start := 0; start < len(q.Tickers); start += batchSize {
		end := start + batchSize
		if end > len(q.Tickers) {
			end = len(q.Tickers)
		}

		params := url.Values{}
		params.Set("tickers", strings.Join(q.Tickers[start:end], ","))
		params.Set("metrics", strings.Join(q.Metrics, ","))
		if q.Period != "" {
			params.Set("period", q.Period)
		}
		if q.Price != "" {
			params.Set("price", q.Price)
		}
		if len(q.Dimensions) > 0 {
			params.Set("dimensions", strings.Join(q.Dimensions, ","))
		}
		if q.Years > 0 {
			params.Set("years", strconv.Itoa(q.Years))
		}

		var resp MetricsResponse
		if err := c.get(ctx, "/data/metrics", params, &resp); err != nil {
			return nil, err
		}
		for ticker, company := range resp.Data {
			merged[ticker] = company
		}
	}

	return merged, nil
}

// FetchUniverse returns the top companies ranked by market capitalization.
func (c *Client) FetchUniverse(ctx context.Context, limit int) ([]UniverseCompany, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	var resp UniverseResponse
	if err := c.get(ctx, "/companies/universe", params, &resp); err != nil {
		return nil, err
	}
	return resp.Companies, nil
}

// Sync runs a full or delta sync of latest metric snapshots.
func (c *Client) Sync(ctx context.Context, req SyncRequest) (*SyncResponse, error) {
	var resp SyncResponse
	if err := c.post(ctx, "/screener/sync", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SyncStatus checks sync entitlements and credit usage without spending credits.
func (c *Client) SyncStatus(ctx context.Context) (*SyncStatus, error) {
	var resp SyncStatus
	if err := c.get(ctx, "/screener/sync/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := c.BaseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	start := time.Now()
	res, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("could not reach MetricDuck API: %w", err)
	}
	defer res.Body.Close()

	c.Logger.Debug("api call",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status", res.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return parseAPIError(res.StatusCode, res.Header.Get("Retry-After"), raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
