package syncer

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metric-duck/labs/pkg/metricduck"
	"github.com/metric-duck/labs/pkg/store"
)

type fakeAPI struct {
	lastReq metricduck.SyncRequest
	resp    *metricduck.SyncResponse
	status  *metricduck.SyncStatus
	err     error
}

func (f *fakeAPI) Sync(_ context.Context, req metricduck.SyncRequest) (*metricduck.SyncResponse, error) {
	f.lastReq = req
	return f.resp, f.err
}

func (f *fakeAPI) SyncStatus(context.Context) (*metricduck.SyncStatus, error) {
	return f.status, f.err
}

func fptr(v float64) *float64 { return &v }
func sptr(s string) *string   { return &s }

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		req     Request
		wantErr string
	}{
		{"ok tickers", Request{Metrics: []string{"pe_ratio"}, Tickers: []string{"AAPL"}}, ""},
		{"ok top-n", Request{Metrics: []string{"pe_ratio"}, TopN: 100}, ""},
		{"no metrics", Request{Tickers: []string{"AAPL"}}, "at least one metric"},
		{"both selectors", Request{Metrics: []string{"pe_ratio"}, Tickers: []string{"AAPL"}, TopN: 5}, "not both"},
		{"no selector", Request{Metrics: []string{"pe_ratio"}}, "ticker list or a top-n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.req)
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

func TestRunFullSync(t *testing.T) {
	api := &fakeAPI{resp: &metricduck.SyncResponse{
		SyncID:  "sync-123",
		IsDelta: false,
		Credits: metricduck.SyncCredits{Used: 40, Remaining: 960},
		Data: []metricduck.SyncCompany{
			{
				Ticker:      "AAPL",
				CompanyName: "Apple Inc.",
				SIC:         sptr("3571"),
				Metrics:     map[string]*float64{"pe_ratio": fptr(29.4), "roic": fptr(0.42)},
			},
			{
				Ticker:  "MSFT",
				Metrics: map[string]*float64{"pe_ratio": fptr(33.8), "roic": nil},
			},
		},
	}}
	mem := store.NewMemory()
	s := New(api, mem, nil)
	fixed := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	summary, err := s.Run(context.Background(), Request{
		Metrics: []string{"pe_ratio", "roic"},
		Tickers: []string{"AAPL", "MSFT"},
	})
	require.NoError(t, err)

	assert.Equal(t, "json", api.lastReq.Format)
	assert.Empty(t, api.lastReq.DeltaSince)
	assert.Equal(t, "sync-123", summary.SyncID)
	assert.Equal(t, 2, summary.CompaniesWritten)
	assert.Equal(t, 3, summary.MetricsWritten) // nil roic skipped
	assert.Equal(t, int64(40), summary.CreditsUsed)

	snap, err := mem.CompanyMetrics(context.Background(), "AAPL")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "Apple Inc.", snap.Company.Name)
	assert.Equal(t, "3571", snap.Company.Industry)
	require.Len(t, snap.Metrics, 2)
	assert.True(t, snap.Metrics[0].Value.Equal(decimal.NewFromFloat(29.4)))

	// company name falls back to ticker
	snap, err = mem.CompanyMetrics(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, "MSFT", snap.Company.Name)

	log := mem.SyncLog()
	require.Len(t, log, 1)
	assert.Equal(t, "sync-123", log[0].SyncID)
	assert.Equal(t, 40, log[0].CreditsSpent)
	assert.True(t, log[0].SyncedAt.Equal(fixed))
}

func TestRunDeltaUsesLastSyncTime(t *testing.T) {
	api := &fakeAPI{resp: &metricduck.SyncResponse{SyncID: "sync-2", IsDelta: true}}
	mem := store.NewMemory()
	last := time.Date(2026, 8, 20, 6, 30, 0, 0, time.UTC)
	require.NoError(t, mem.AppendSyncLog(context.Background(), store.SyncLogEntry{SyncID: "sync-1", SyncedAt: last}))

	s := New(api, mem, nil)
	_, err := s.Run(context.Background(), Request{Metrics: []string{"pe_ratio"}, TopN: 50})
	require.NoError(t, err)
	assert.Equal(t, "2026-08-20T06:30:00Z", api.lastReq.DeltaSince)
	assert.Equal(t, 50, api.lastReq.TopN)
}

func TestRunFullIgnoresSyncLog(t *testing.T) {
	api := &fakeAPI{resp: &metricduck.SyncResponse{SyncID: "sync-3"}}
	mem := store.NewMemory()
	require.NoError(t, mem.AppendSyncLog(context.Background(), store.SyncLogEntry{SyncID: "sync-1", SyncedAt: time.Now()}))

	s := New(api, mem, nil)
	_, err := s.Run(context.Background(), Request{Metrics: []string{"pe_ratio"}, TopN: 10, Full: true})
	require.NoError(t, err)
	assert.Empty(t, api.lastReq.DeltaSince)
}

func TestRunGeneratesSyncIDWhenMissing(t *testing.T) {
	api := &fakeAPI{resp: &metricduck.SyncResponse{}}
	mem := store.NewMemory()

	s := New(api, mem, nil)
	summary, err := s.Run(context.Background(), Request{Metrics: []string{"pe_ratio"}, TopN: 10})
	require.NoError(t, err)
	assert.NotEmpty(t, summary.SyncID)

	log := mem.SyncLog()
	require.Len(t, log, 1)
	assert.Equal(t, summary.SyncID, log[0].SyncID)
}

func TestRunRejectsInvalidRequest(t *testing.T) {
	s := New(&fakeAPI{}, store.NewMemory(), nil)
	_, err := s.Run(context.Background(), Request{TopN: 10})
	require.Error(t, err)
}
