// Package store persists synced fundamentals in a relational datastore and
// answers local screens against them.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Company is one row of the companies table.
type Company struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Sector   string `json:"sector,omitempty"`
	Industry string `json:"industry,omitempty"`
}

// Metric is the latest known value of one metric for one ticker.
type Metric struct {
	Ticker   string          `json:"ticker"`
	MetricID string          `json:"metric_id"`
	Value    decimal.Decimal `json:"value"`
	AsOf     time.Time       `json:"as_of"`
}

// SyncLogEntry records one completed sync run.
type SyncLogEntry struct {
	SyncID       string    `json:"sync_id"`
	Companies    int       `json:"companies"`
	Metrics      int       `json:"metrics"`
	CreditsSpent int       `json:"credits_spent"`
	SyncedAt     time.Time `json:"synced_at"`
}

// ScreenRow is one company matched by a local screen, with the filtered
// metric values attached.
type ScreenRow struct {
	Ticker string                     `json:"ticker"`
	Name   string                     `json:"name"`
	Values map[string]decimal.Decimal `json:"values"`
}

// CompanySnapshot is everything stored for a single ticker.
type CompanySnapshot struct {
	Company Company  `json:"company"`
	Metrics []Metric `json:"metrics"`
}

// Store is the persistence surface the sync and query labs use.
type Store interface {
	Init(ctx context.Context) error
	UpsertCompanies(ctx context.Context, companies []Company) (int, error)
	UpsertMetrics(ctx context.Context, metrics []Metric) (int, error)
	AppendSyncLog(ctx context.Context, entry SyncLogEntry) error
	LastSyncTime(ctx context.Context) (*time.Time, error)
	RunScreen(ctx context.Context, filters []Filter, limit int) ([]ScreenRow, error)
	CompanyMetrics(ctx context.Context, ticker string) (*CompanySnapshot, error)
	Close()
}

// FilterOp is a comparison applied to a stored metric value.
type FilterOp string

const (
	OpLT      FilterOp = "lt"
	OpGT      FilterOp = "gt"
	OpEQ      FilterOp = "eq"
	OpBetween FilterOp = "between"
)

// Filter constrains one metric. Between uses Value as the lower bound and
// High as the upper.
type Filter struct {
	MetricID string
	Op       FilterOp
	Value    decimal.Decimal
	High     decimal.Decimal
}

// ParseFilters decodes the query lab's filter document:
//
//	{"pe_ratio": {"lt": 15}, "roic": {"gt": 0.15}, "fcf_margin": {"between": [0.1, 0.3]}}
//
// Metric order in the result is alphabetical so screens are reproducible.
func ParseFilters(raw string) ([]Filter, error) {
	var doc map[string]map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("parse filters: %w", err)
	}

	metricIDs := make([]string, 0, len(doc))
	for id := range doc {
		metricIDs = append(metricIDs, id)
	}
	sort.Strings(metricIDs)

	var filters []Filter
	for _, id := range metricIDs {
		conditions := doc[id]
		if len(conditions) == 0 {
			return nil, fmt.Errorf("filter for %q has no condition", id)
		}
		ops := make([]string, 0, len(conditions))
		for op := range conditions {
			ops = append(ops, op)
		}
		sort.Strings(ops)

		for _, op := range ops {
			f, err := parseCondition(id, op, conditions[op])
			if err != nil {
				return nil, err
			}
			filters = append(filters, f)
		}
	}
	return filters, nil
}

func parseCondition(metricID, op string, raw json.RawMessage) (Filter, error) {
	f := Filter{MetricID: metricID, Op: FilterOp(op)}
	switch f.Op {
	case OpLT, OpGT, OpEQ:
		if err := json.Unmarshal(raw, &f.Value); err != nil {
			return Filter{}, fmt.Errorf("filter %s.%s: %w", metricID, op, err)
		}
	case OpBetween:
		var bounds []decimal.Decimal
		if err := json.Unmarshal(raw, &bounds); err != nil {
			return Filter{}, fmt.Errorf("filter %s.between: %w", metricID, err)
		}
		if len(bounds) != 2 {
			return Filter{}, fmt.Errorf("filter %s.between needs exactly two bounds", metricID)
		}
		f.Value, f.High = bounds[0], bounds[1]
		if f.Value.GreaterThan(f.High) {
			f.Value, f.High = f.High, f.Value
		}
	default:
		return Filter{}, fmt.Errorf("filter %s: unknown operator %q (want lt, gt, eq, between)", metricID, op)
	}
	return f, nil
}

// Matches reports whether a value satisfies the filter. The SQL screen is
// authoritative; this exists for in-memory stores and tests.
func (f Filter) Matches(v decimal.Decimal) bool {
	switch f.Op {
	case OpLT:
		return v.LessThan(f.Value)
	case OpGT:
		return v.GreaterThan(f.Value)
	case OpEQ:
		return v.Equal(f.Value)
	case OpBetween:
		return v.GreaterThanOrEqual(f.Value) && v.LessThanOrEqual(f.High)
	}
	return false
}
