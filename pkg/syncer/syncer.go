// Package syncer drives the enterprise sync endpoint and lands the results
// in the local datastore.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/metric-duck/labs/pkg/metricduck"
	"github.com/metric-duck/labs/pkg/store"
)

// api is the slice of the MetricDuck client the syncer consumes.
type api interface {
	Sync(ctx context.Context, req metricduck.SyncRequest) (*metricduck.SyncResponse, error)
	SyncStatus(ctx context.Context) (*metricduck.SyncStatus, error)
}

// Request selects what to sync. Exactly one of Tickers and TopN must be set.
// Full forces a complete snapshot even when a previous sync exists.
type Request struct {
	Metrics []string
	Tickers []string
	TopN    int
	Full    bool
}

// Summary reports what one sync run did.
type Summary struct {
	SyncID           string    `json:"sync_id"`
	IsDelta          bool      `json:"is_delta"`
	CompaniesWritten int       `json:"companies_written"`
	MetricsWritten   int       `json:"metrics_written"`
	CreditsUsed      int64     `json:"credits_used"`
	CreditsRemaining int64     `json:"credits_remaining"`
	SyncedAt         time.Time `json:"synced_at"`
}

// Syncer wires the API client to the store.
type Syncer struct {
	API    api
	Store  store.Store
	Logger *zap.Logger

	// now is swappable in tests
	now func() time.Time
}

// New builds a syncer.
func New(client api, st store.Store, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{API: client, Store: st, Logger: logger, now: time.Now}
}

// Validate checks a request before any credits are spent.
func Validate(req Request) error {
	if len(req.Metrics) == 0 {
		return errors.New("sync needs at least one metric")
	}
	if len(req.Tickers) > 0 && req.TopN > 0 {
		return errors.New("choose tickers or top-n, not both")
	}
	if len(req.Tickers) == 0 && req.TopN <= 0 {
		return errors.New("sync needs a ticker list or a top-n count")
	}
	return nil
}

// Run performs one sync: resolves the delta window from the sync log, calls
// the endpoint, upserts everything it returned, and records the run.
func (s *Syncer) Run(ctx context.Context, req Request) (*Summary, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	apiReq := metricduck.SyncRequest{
		Format:  "json",
		Metrics: req.Metrics,
		Tickers: req.Tickers,
		TopN:    req.TopN,
	}
	if !req.Full {
		since, err := s.Store.LastSyncTime(ctx)
		if err != nil {
			return nil, err
		}
		if since != nil {
			apiReq.DeltaSince = since.UTC().Format(time.RFC3339)
			s.Logger.Info("requesting delta sync", zap.String("since", apiReq.DeltaSince))
		}
	}

	resp, err := s.API.Sync(ctx, apiReq)
	if err != nil {
		return nil, err
	}

	syncedAt := s.now().UTC()
	companies, metrics := flatten(resp.Data, syncedAt)

	companiesWritten, err := s.Store.UpsertCompanies(ctx, companies)
	if err != nil {
		return nil, fmt.Errorf("store companies: %w", err)
	}
	metricsWritten, err := s.Store.UpsertMetrics(ctx, metrics)
	if err != nil {
		return nil, fmt.Errorf("store metrics: %w", err)
	}

	syncID := resp.SyncID
	if syncID == "" {
		syncID = uuid.NewString()
	}
	entry := store.SyncLogEntry{
		SyncID:       syncID,
		Companies:    companiesWritten,
		Metrics:      metricsWritten,
		CreditsSpent: int(resp.Credits.Used),
		SyncedAt:     syncedAt,
	}
	if err := s.Store.AppendSyncLog(ctx, entry); err != nil {
		return nil, fmt.Errorf("record sync: %w", err)
	}

	s.Logger.Info("sync complete",
		zap.String("sync_id", syncID),
		zap.Bool("delta", resp.IsDelta),
		zap.Int("companies", companiesWritten),
		zap.Int("metrics", metricsWritten),
		zap.Int64("credits_used", resp.Credits.Used))

	return &Summary{
		SyncID:           syncID,
		IsDelta:          resp.IsDelta,
		CompaniesWritten: companiesWritten,
		MetricsWritten:   metricsWritten,
		CreditsUsed:      resp.Credits.Used,
		CreditsRemaining: resp.Credits.Remaining,
		SyncedAt:         syncedAt,
	}, nil
}

// Status passes the enterprise status through.
func (s *Syncer) Status(ctx context.Context) (*metricduck.SyncStatus, error) {
	return s.API.SyncStatus(ctx)
}

// flatten turns sync payload companies into store rows. Metrics with no
// value are skipped, not stored as zero.
func flatten(data []metricduck.SyncCompany, asOf time.Time) ([]store.Company, []store.Metric) {
	companies := make([]store.Company, 0, len(data))
	var metrics []store.Metric
	for _, c := range data {
		name := c.CompanyName
		if name == "" {
			name = c.Ticker
		}
		company := store.Company{Ticker: c.Ticker, Name: name}
		if c.SIC != nil {
			company.Industry = *c.SIC
		}
		companies = append(companies, company)

		for id, value := range c.Metrics {
			if value == nil {
				continue
			}
			metrics = append(metrics, store.Metric{
				Ticker:   c.Ticker,
				MetricID: id,
				Value:    decimal.NewFromFloat(*value),
				AsOf:     asOf,
			})
		}
	}
	return companies, metrics
}
