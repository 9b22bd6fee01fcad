package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Memory is an in-process Store. It backs tests and ad-hoc runs where no
// database is configured.
type Memory struct {
	mu        sync.Mutex
	companies map[string]Company
	metrics   map[string]map[string]Metric
	log       []SyncLogEntry
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		companies: make(map[string]Company),
		metrics:   make(map[string]map[string]Metric),
	}
}

func (m *Memory) Init(context.Context) error { return nil }

func (m *Memory) UpsertCompanies(_ context.Context, companies []Company) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range companies {
		existing, ok := m.companies[c.Ticker]
		if ok {
			if c.Sector == "" {
				c.Sector = existing.Sector
			}
			if c.Industry == "" {
				c.Industry = existing.Industry
			}
		}
		m.companies[c.Ticker] = c
	}
	return len(companies), nil
}

func (m *Memory) UpsertMetrics(_ context.Context, metrics []Metric) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, metric := range metrics {
		byID := m.metrics[metric.Ticker]
		if byID == nil {
			byID = make(map[string]Metric)
			m.metrics[metric.Ticker] = byID
		}
		byID[metric.MetricID] = metric
	}
	return len(metrics), nil
}

func (m *Memory) AppendSyncLog(_ context.Context, entry SyncLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = append(m.log, entry)
	return nil
}

func (m *Memory) LastSyncTime(context.Context) (*time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.log) == 0 {
		return nil, nil
	}
	latest := m.log[0].SyncedAt
	for _, entry := range m.log[1:] {
		if entry.SyncedAt.After(latest) {
			latest = entry.SyncedAt
		}
	}
	return &latest, nil
}

func (m *Memory) RunScreen(_ context.Context, filters []Filter, limit int) ([]ScreenRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tickers := make([]string, 0, len(m.companies))
	for ticker := range m.companies {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	var out []ScreenRow
	for _, ticker := range tickers {
		byID := m.metrics[ticker]
		matched := true
		for _, f := range filters {
			metric, ok := byID[f.MetricID]
			if !ok || !f.Matches(metric.Value) {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}
		row := ScreenRow{
			Ticker: ticker,
			Name:   m.companies[ticker].Name,
			Values: make(map[string]decimal.Decimal, len(filters)),
		}
		for _, f := range filters {
			row.Values[f.MetricID] = byID[f.MetricID].Value
		}
		out = append(out, row)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) CompanyMetrics(_ context.Context, ticker string) (*CompanySnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	company, ok := m.companies[ticker]
	if !ok {
		return nil, nil
	}
	snap := &CompanySnapshot{Company: company}
	ids := make([]string, 0, len(m.metrics[ticker]))
	for id := range m.metrics[ticker] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		snap.Metrics = append(snap.Metrics, m.metrics[ticker][id])
	}
	return snap, nil
}

// SyncLog returns a copy of the recorded runs.
func (m *Memory) SyncLog() []SyncLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SyncLogEntry, len(m.log))
	copy(out, m.log)
	return out
}

func (m *Memory) Close() {}
