package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestParseFilters(t *testing.T) {
	filters, err := ParseFilters(`{
		"pe_ratio": {"lt": 15},
		"roic": {"gt": 0.15},
		"fcf_margin": {"between": [0.1, 0.3]},
		"debt_to_equity": {"eq": 0}
	}`)
	require.NoError(t, err)
	require.Len(t, filters, 4)

	// alphabetical by metric
	assert.Equal(t, "debt_to_equity", filters[0].MetricID)
	assert.Equal(t, OpEQ, filters[0].Op)
	assert.Equal(t, "fcf_margin", filters[1].MetricID)
	assert.Equal(t, OpBetween, filters[1].Op)
	assert.True(t, filters[1].Value.Equal(dec("0.1")))
	assert.True(t, filters[1].High.Equal(dec("0.3")))
	assert.Equal(t, "pe_ratio", filters[2].MetricID)
	assert.Equal(t, OpLT, filters[2].Op)
	assert.Equal(t, "roic", filters[3].MetricID)
	assert.Equal(t, OpGT, filters[3].Op)
}

func TestParseFiltersSwapsReversedBounds(t *testing.T) {
	filters, err := ParseFilters(`{"pe_ratio": {"between": [30, 10]}}`)
	require.NoError(t, err)
	assert.True(t, filters[0].Value.Equal(dec("10")))
	assert.True(t, filters[0].High.Equal(dec("30")))
}

func TestParseFiltersRejectsUnknownOperator(t *testing.T) {
	_, err := ParseFilters(`{"pe_ratio": {"lte": 15}}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operator")
}

func TestParseFiltersRejectsBadBetween(t *testing.T) {
	_, err := ParseFilters(`{"pe_ratio": {"between": [15]}}`)
	require.Error(t, err)
}

func TestFilterMatches(t *testing.T) {
	cases := []struct {
		name   string
		filter Filter
		value  string
		want   bool
	}{
		{"lt below", Filter{Op: OpLT, Value: dec("15")}, "14.9", true},
		{"lt at bound", Filter{Op: OpLT, Value: dec("15")}, "15", false},
		{"gt above", Filter{Op: OpGT, Value: dec("0.15")}, "0.2", true},
		{"eq exact", Filter{Op: OpEQ, Value: dec("0")}, "0", true},
		{"eq near", Filter{Op: OpEQ, Value: dec("0")}, "0.001", false},
		{"between inside", Filter{Op: OpBetween, Value: dec("10"), High: dec("20")}, "10", true},
		{"between outside", Filter{Op: OpBetween, Value: dec("10"), High: dec("20")}, "20.01", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.filter.Matches(dec(tc.value)))
		})
	}
}

func TestBuildScreenQuery(t *testing.T) {
	filters := []Filter{
		{MetricID: "pe_ratio", Op: OpLT, Value: dec("15")},
		{MetricID: "fcf_margin", Op: OpBetween, Value: dec("0.1"), High: dec("0.3")},
	}
	query, args, err := buildScreenQuery(filters, 25)
	require.NoError(t, err)
	assert.Contains(t, query, "m.metric_id = $1 AND m.value < $2")
	assert.Contains(t, query, "m.metric_id = $3 AND m.value BETWEEN $4 AND $5")
	assert.Contains(t, query, "ORDER BY c.ticker")
	assert.Contains(t, query, "LIMIT $6")
	require.Len(t, args, 6)
	assert.Equal(t, "pe_ratio", args[0])
	assert.Equal(t, 25, args[5])
}

func TestBuildScreenQueryNoFilters(t *testing.T) {
	query, args, err := buildScreenQuery(nil, 0)
	require.NoError(t, err)
	assert.NotContains(t, query, "WHERE")
	assert.NotContains(t, query, "LIMIT")
	assert.Empty(t, args)
}

func seedMemory(t *testing.T) *Memory {
	t.Helper()
	m := NewMemory()
	ctx := context.Background()

	_, err := m.UpsertCompanies(ctx, []Company{
		{Ticker: "AAPL", Name: "Apple Inc.", Sector: "Technology"},
		{Ticker: "F", Name: "Ford Motor Company"},
		{Ticker: "MSFT", Name: "Microsoft Corporation"},
	})
	require.NoError(t, err)

	asOf := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	_, err = m.UpsertMetrics(ctx, []Metric{
		{Ticker: "AAPL", MetricID: "pe_ratio", Value: dec("29.4"), AsOf: asOf},
		{Ticker: "AAPL", MetricID: "roic", Value: dec("0.42"), AsOf: asOf},
		{Ticker: "F", MetricID: "pe_ratio", Value: dec("6.1"), AsOf: asOf},
		{Ticker: "F", MetricID: "roic", Value: dec("0.04"), AsOf: asOf},
		{Ticker: "MSFT", MetricID: "pe_ratio", Value: dec("33.8"), AsOf: asOf},
	})
	require.NoError(t, err)
	return m
}

func TestMemoryScreen(t *testing.T) {
	m := seedMemory(t)

	rows, err := m.RunScreen(context.Background(), []Filter{
		{MetricID: "pe_ratio", Op: OpLT, Value: dec("30")},
	}, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "AAPL", rows[0].Ticker)
	assert.Equal(t, "F", rows[1].Ticker)
	assert.True(t, rows[1].Values["pe_ratio"].Equal(dec("6.1")))
}

func TestMemoryScreenRequiresStoredValue(t *testing.T) {
	m := seedMemory(t)

	// MSFT has no roic row, so it cannot match a roic filter.
	rows, err := m.RunScreen(context.Background(), []Filter{
		{MetricID: "roic", Op: OpGT, Value: dec("0")},
	}, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.NotEqual(t, "MSFT", row.Ticker)
	}
}

func TestMemoryScreenLimit(t *testing.T) {
	m := seedMemory(t)
	rows, err := m.RunScreen(context.Background(), nil, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "AAPL", rows[0].Ticker)
}

func TestMemoryCompanyMetrics(t *testing.T) {
	m := seedMemory(t)

	snap, err := m.CompanyMetrics(context.Background(), "AAPL")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "Apple Inc.", snap.Company.Name)
	require.Len(t, snap.Metrics, 2)
	assert.Equal(t, "pe_ratio", snap.Metrics[0].MetricID)
	assert.Equal(t, "roic", snap.Metrics[1].MetricID)

	missing, err := m.CompanyMetrics(context.Background(), "ZZZZ")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemorySectorPreservedOnResync(t *testing.T) {
	m := seedMemory(t)
	ctx := context.Background()

	_, err := m.UpsertCompanies(ctx, []Company{{Ticker: "AAPL", Name: "Apple Inc."}})
	require.NoError(t, err)

	snap, err := m.CompanyMetrics(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Technology", snap.Company.Sector)
}

func TestMemoryLastSyncTime(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	ts, err := m.LastSyncTime(ctx)
	require.NoError(t, err)
	assert.Nil(t, ts)

	first := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	second := first.Add(24 * time.Hour)
	require.NoError(t, m.AppendSyncLog(ctx, SyncLogEntry{SyncID: "a", SyncedAt: second}))
	require.NoError(t, m.AppendSyncLog(ctx, SyncLogEntry{SyncID: "b", SyncedAt: first}))

	ts, err = m.LastSyncTime(ctx)
	require.NoError(t, err)
	require.NotNil(t, ts)
	assert.True(t, ts.Equal(second))
}
