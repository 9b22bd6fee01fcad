package metricduck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", 5*time.Second, nil)
}

func TestFetchMetrics(t *testing.T) {
	var gotQuery map[string]string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/metrics", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		gotQuery = map[string]string{
			"tickers": r.URL.Query().Get("tickers"),
			"metrics": r.URL.Query().Get("metrics"),
			"period":  r.URL.Query().Get("period"),
			"price":   r.URL.Query().Get("price"),
			"years":   r.URL.Query().Get("years"),
		}
		json.NewEncoder(w).Encode(MetricsResponse{Data: map[string]Company{
			"AAPL": {CompanyName: "Apple Inc."},
		}})
	})

	data, err := client.FetchMetrics(context.Background(), MetricsQuery{
		Tickers: []string{"AAPL", "MSFT"},
		Metrics: []string{"pe_ratio", "roic"},
		Period:  "ttm",
		Price:   "current",
		Years:   1,
	})
	require.NoError(t, err)

	assert.Equal(t, "AAPL,MSFT", gotQuery["tickers"])
	assert.Equal(t, "pe_ratio,roic", gotQuery["metrics"])
	assert.Equal(t, "ttm", gotQuery["period"])
	assert.Equal(t, "current", gotQuery["price"])
	assert.Equal(t, "1", gotQuery["years"])
	assert.Equal(t, "Apple Inc.", data["AAPL"].CompanyName)
}

func TestFetchMetricsChunksLargeTickerLists(t *testing.T) {
	var batches []int
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		tickers := strings.Split(r.URL.Query().Get("tickers"), ",")
		batches = append(batches, len(tickers))
		resp := MetricsResponse{Data: map[string]Company{}}
		for _, tk := range tickers {
			resp.Data[tk] = Company{CompanyName: tk}
		}
		json.NewEncoder(w).Encode(resp)
	})

	tickers := make([]string, 0, 230)
	for i := 0; i < 230; i++ {
		tickers = append(tickers, fmt.Sprintf("T%03d", i))
	}
	data, err := client.FetchMetrics(context.Background(), MetricsQuery{
		Tickers: tickers,
		Metrics: []string{"pe_ratio"},
	})
	require.NoError(t, err)

	assert.Equal(t, []int{100, 100, 30}, batches)
	assert.Len(t, data, 230)
}

func TestGuestRequestsOmitAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(MetricsResponse{})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 5*time.Second, nil)
	_, err := client.FetchMetrics(context.Background(), MetricsQuery{
		Tickers: []string{"AAPL"},
		Metrics: []string{"pe_ratio"},
	})
	require.NoError(t, err)
	assert.False(t, client.HasKey())
}

func TestUnauthorized(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": {"error": "Invalid API key"}}`, http.StatusUnauthorized)
	})

	_, err := client.FetchMetrics(context.Background(), MetricsQuery{
		Tickers: []string{"AAPL"}, Metrics: []string{"pe_ratio"},
	})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsAuth())
	assert.Contains(t, apiErr.Hint(), "METRICDUCK_API_KEY")
}

func TestRateLimitVariants(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		wantHint string
	}{
		{
			name:     "monthly credits",
			body:     `{"detail": {"error": "Insufficient credits", "monthly_limit": 200000}}`,
			wantHint: "Monthly credit limit reached (200000 credits)",
		},
		{
			name:     "daily credits",
			body:     `{"detail": {"error": "Daily credit limit reached", "daily_limit": 500, "resets_at": "2026-08-31T00:00:00Z"}}`,
			wantHint: "Daily credit limit reached (500 credits/day)",
		},
		{
			name:     "daily requests",
			body:     `{"detail": {"error": "Daily request limit reached", "daily_limit": 5}}`,
			wantHint: "Daily request limit reached (5/day for guests)",
		},
		{
			name:     "generic",
			body:     `{"detail": {"error": "Too many requests"}}`,
			wantHint: "Wait 42s",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "42")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(tc.body))
			})

			_, err := client.FetchUniverse(context.Background(), 50)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.True(t, apiErr.IsRateLimited())
			assert.Equal(t, 42, apiErr.RetryAfter)
			assert.Contains(t, apiErr.Hint(), tc.wantHint)
		})
	}
}

func TestTruncatedErrorBodyIsRepaired(t *testing.T) {
	// A proxy cut the body mid-object; the repaired JSON still yields the
	// discriminator.
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"detail": {"error": "Insufficient credits", "monthly_limit": 200000`))
	})

	_, err := client.FetchUniverse(context.Background(), 10)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrMonthlyCredit, apiErr.Detail)
}

func TestGenericAPIError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": {"error": "ticker not found"}}`, http.StatusBadRequest)
	})

	_, err := client.FetchUniverse(context.Background(), 10)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.StatusCode)
	assert.Equal(t, "ticker not found", apiErr.Detail)
	assert.False(t, apiErr.IsAuth())
	assert.False(t, apiErr.IsRateLimited())
}

func TestConnectionErrorIsNotAPIError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "", 500*time.Millisecond, nil)

	_, err := client.FetchUniverse(context.Background(), 10)
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestSync(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/screener/sync", r.URL.Path)

		var req SyncRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "json", req.Format)
		assert.Equal(t, []string{"pe_ratio", "roic"}, req.Metrics)
		assert.Equal(t, 500, req.TopN)

		json.NewEncoder(w).Encode(SyncResponse{
			SyncID:  "sync-123",
			IsDelta: false,
			Credits: SyncCredits{Used: 50000, Remaining: 150000},
			Data: []SyncCompany{{
				Ticker:      "AAPL",
				CompanyName: "Apple Inc.",
				Metrics:     map[string]*float64{"pe_ratio": fptr(28.1)},
			}},
		})
	})

	resp, err := client.Sync(context.Background(), SyncRequest{
		Format:  "json",
		Metrics: []string{"pe_ratio", "roic"},
		TopN:    500,
	})
	require.NoError(t, err)
	assert.Equal(t, "sync-123", resp.SyncID)
	assert.Equal(t, int64(50000), resp.Credits.Used)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "AAPL", resp.Data[0].Ticker)
}

func TestSyncStatus(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/screener/sync/status", r.URL.Path)
		w.Write([]byte(`{
			"tier": "seed",
			"is_enterprise": true,
			"limits": {"monthly_credits": 200000},
			"usage": {"syncs_used_this_month": 3, "last_sync": "2026-08-29T06:00:00Z"},
			"access": {"universe": "full", "metrics": "all"}
		}`))
	})

	status, err := client.SyncStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "seed", status.Tier)
	assert.True(t, status.IsEnterprise)
	assert.Equal(t, int64(200000), status.Limits.MonthlyCredits)
	assert.Equal(t, 3, status.Usage.SyncsUsedThisMonth)
}
