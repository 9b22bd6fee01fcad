package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres connects to the database named by url.
func NewPostgres(ctx context.Context, url string, logger *zap.Logger) (*Postgres, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Postgres{pool: pool, logger: logger}, nil
}

// Init creates the tables if they do not exist.
func (p *Postgres) Init(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS companies (
			ticker    TEXT PRIMARY KEY,
			name      TEXT NOT NULL,
			sector    TEXT NOT NULL DEFAULT '',
			industry  TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS metrics_latest (
			ticker    TEXT NOT NULL REFERENCES companies(ticker),
			metric_id TEXT NOT NULL,
			value     NUMERIC NOT NULL,
			as_of     TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (ticker, metric_id)
		);
		CREATE TABLE IF NOT EXISTS sync_log (
			id            BIGSERIAL PRIMARY KEY,
			sync_id       TEXT NOT NULL,
			companies     INT NOT NULL,
			metrics       INT NOT NULL,
			credits_spent INT NOT NULL,
			synced_at     TIMESTAMPTZ NOT NULL
		);
	`
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// UpsertCompanies writes companies in one batch, keyed on ticker.
func (p *Postgres) UpsertCompanies(ctx context.Context, companies []Company) (int, error) {
	if len(companies) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO companies (ticker, name, sector, industry, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (ticker) DO UPDATE SET
			name = EXCLUDED.name,
			sector = CASE WHEN EXCLUDED.sector <> '' THEN EXCLUDED.sector ELSE companies.sector END,
			industry = CASE WHEN EXCLUDED.industry <> '' THEN EXCLUDED.industry ELSE companies.industry END,
			updated_at = now()
	`

	batch := &pgx.Batch{}
	for _, c := range companies {
		batch.Queue(query, c.Ticker, c.Name, c.Sector, c.Industry)
	}

	br := p.pool.SendBatch(ctx, batch)
	defer br.Close()

	count := 0
	for range companies {
		if _, err := br.Exec(); err != nil {
			return count, fmt.Errorf("upsert companies: %w", err)
		}
		count++
	}
	p.logger.Debug("companies upserted", zap.Int("count", count))
	return count, nil
}

// UpsertMetrics writes metric values in one batch, keyed on (ticker, metric).
func (p *Postgres) UpsertMetrics(ctx context.Context, metrics []Metric) (int, error) {
	if len(metrics) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO metrics_latest (ticker, metric_id, value, as_of)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ticker, metric_id) DO UPDATE SET
			value = EXCLUDED.value,
			as_of = EXCLUDED.as_of
	`

	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(query, m.Ticker, m.MetricID, m.Value, m.AsOf)
	}

	br := p.pool.SendBatch(ctx, batch)
	defer br.Close()

	count := 0
	for range metrics {
		if _, err := br.Exec(); err != nil {
			return count, fmt.Errorf("upsert metrics: %w", err)
		}
		count++
	}
	p.logger.Debug("metrics upserted", zap.Int("count", count))
	return count, nil
}

// AppendSyncLog records a completed run.
func (p *Postgres) AppendSyncLog(ctx context.Context, entry SyncLogEntry) error {
	query := `
		INSERT INTO sync_log (sync_id, companies, metrics, credits_spent, synced_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := p.pool.Exec(ctx, query,
		entry.SyncID, entry.Companies, entry.Metrics, entry.CreditsSpent, entry.SyncedAt)
	if err != nil {
		return fmt.Errorf("append sync log: %w", err)
	}
	return nil
}

// LastSyncTime returns when the most recent sync ran, or nil if none has.
func (p *Postgres) LastSyncTime(ctx context.Context) (*time.Time, error) {
	var ts time.Time
	err := p.pool.QueryRow(ctx,
		`SELECT synced_at FROM sync_log ORDER BY synced_at DESC LIMIT 1`).Scan(&ts)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("last sync time: %w", err)
	}
	return &ts, nil
}

// RunScreen returns companies whose stored metrics satisfy every filter,
// ordered by ticker. Each filter becomes an EXISTS clause so a company must
// have a stored value for the metric to match at all.
func (p *Postgres) RunScreen(ctx context.Context, filters []Filter, limit int) ([]ScreenRow, error) {
	query, args, err := buildScreenQuery(filters, limit)
	if err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("run screen: %w", err)
	}
	defer rows.Close()

	var out []ScreenRow
	for rows.Next() {
		row := ScreenRow{Values: make(map[string]decimal.Decimal, len(filters))}
		if err := rows.Scan(&row.Ticker, &row.Name); err != nil {
			return nil, fmt.Errorf("scan screen row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("screen rows: %w", err)
	}

	if err := p.attachValues(ctx, out, filters); err != nil {
		return nil, err
	}
	return out, nil
}

func buildScreenQuery(filters []Filter, limit int) (string, []any, error) {
	var sb strings.Builder
	sb.WriteString("SELECT c.ticker, c.name FROM companies c")

	var args []any
	if len(filters) > 0 {
		sb.WriteString(" WHERE ")
		for i, f := range filters {
			if i > 0 {
				sb.WriteString(" AND ")
			}
			clause, clauseArgs, err := filterClause(f, len(args)+1)
			if err != nil {
				return "", nil, err
			}
			sb.WriteString(clause)
			args = append(args, clauseArgs...)
		}
	}

	sb.WriteString(" ORDER BY c.ticker")
	if limit > 0 {
		args = append(args, limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	return sb.String(), args, nil
}

func filterClause(f Filter, argStart int) (string, []any, error) {
	base := "EXISTS (SELECT 1 FROM metrics_latest m WHERE m.ticker = c.ticker AND m.metric_id = $%d AND m.value %s)"
	switch f.Op {
	case OpLT:
		return fmt.Sprintf(base, argStart, fmt.Sprintf("< $%d", argStart+1)),
			[]any{f.MetricID, f.Value}, nil
	case OpGT:
		return fmt.Sprintf(base, argStart, fmt.Sprintf("> $%d", argStart+1)),
			[]any{f.MetricID, f.Value}, nil
	case OpEQ:
		return fmt.Sprintf(base, argStart, fmt.Sprintf("= $%d", argStart+1)),
			[]any{f.MetricID, f.Value}, nil
	case OpBetween:
		return fmt.Sprintf(base, argStart, fmt.Sprintf("BETWEEN $%d AND $%d", argStart+1, argStart+2)),
			[]any{f.MetricID, f.Value, f.High}, nil
	default:
		return "", nil, fmt.Errorf("unknown filter operator %q", f.Op)
	}
}

// attachValues loads the filtered metrics for each matched company.
func (p *Postgres) attachValues(ctx context.Context, screenRows []ScreenRow, filters []Filter) error {
	if len(screenRows) == 0 || len(filters) == 0 {
		return nil
	}

	metricIDs := make([]string, 0, len(filters))
	seen := make(map[string]bool, len(filters))
	for _, f := range filters {
		if !seen[f.MetricID] {
			seen[f.MetricID] = true
			metricIDs = append(metricIDs, f.MetricID)
		}
	}
	tickers := make([]string, len(screenRows))
	index := make(map[string]int, len(screenRows))
	for i, row := range screenRows {
		tickers[i] = row.Ticker
		index[row.Ticker] = i
	}

	rows, err := p.pool.Query(ctx,
		`SELECT ticker, metric_id, value FROM metrics_latest
		 WHERE ticker = ANY($1) AND metric_id = ANY($2)`,
		tickers, metricIDs)
	if err != nil {
		return fmt.Errorf("load screen values: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m Metric
		if err := rows.Scan(&m.Ticker, &m.MetricID, &m.Value); err != nil {
			return fmt.Errorf("scan screen value: %w", err)
		}
		if i, ok := index[m.Ticker]; ok {
			screenRows[i].Values[m.MetricID] = m.Value
		}
	}
	return rows.Err()
}

// CompanyMetrics returns the stored company row and all its metrics, or nil
// if the ticker has never been synced.
func (p *Postgres) CompanyMetrics(ctx context.Context, ticker string) (*CompanySnapshot, error) {
	var snap CompanySnapshot
	err := p.pool.QueryRow(ctx,
		`SELECT ticker, name, sector, industry FROM companies WHERE ticker = $1`,
		ticker).Scan(&snap.Company.Ticker, &snap.Company.Name, &snap.Company.Sector, &snap.Company.Industry)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("load company: %w", err)
	}

	rows, err := p.pool.Query(ctx,
		`SELECT ticker, metric_id, value, as_of FROM metrics_latest
		 WHERE ticker = $1 ORDER BY metric_id`,
		ticker)
	if err != nil {
		return nil, fmt.Errorf("load company metrics: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m Metric
		if err := rows.Scan(&m.Ticker, &m.MetricID, &m.Value, &m.AsOf); err != nil {
			return nil, fmt.Errorf("scan company metric: %w", err)
		}
		snap.Metrics = append(snap.Metrics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("company metrics: %w", err)
	}
	return &snap, nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}
