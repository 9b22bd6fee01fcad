package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/metric-duck/labs/pkg/store"
)

var (
	queryFilters string
	queryTicker  string
	queryLimit   int
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Screen the local datastore without spending API credits",
	Long: `Runs screens against data landed by 'labs sync'. Filters are a JSON
document keyed by metric id:

  labs query --filters '{"pe_ratio":{"lt":15},"roic":{"gt":0.15}}'
  labs query --filters '{"fcf_margin":{"between":[0.1,0.3]}}'
  labs query --ticker AAPL`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVar(&queryFilters, "filters", "", "JSON filter document (lt, gt, eq, between)")
	queryCmd.Flags().StringVar(&queryTicker, "ticker", "", "show all stored metrics for one ticker")
	queryCmd.Flags().IntVar(&queryLimit, "limit", 0, "cap the number of matches")
	queryCmd.Flags().BoolVar(&jsonOut, "json", false, "emit results as JSON")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if (queryFilters == "") == (queryTicker == "") {
		return errors.New("pass exactly one of --filters or --ticker")
	}
	if cfg.DatabaseURL == "" {
		return errors.New("database_url is not configured (set LABS_DATABASE_URL or DATABASE_URL)")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.MetricsTimeout)
	defer cancel()

	st, err := store.NewPostgres(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	if queryTicker != "" {
		return queryCompany(ctx, st, strings.ToUpper(strings.TrimSpace(queryTicker)))
	}
	return queryScreen(ctx, st)
}

func queryScreen(ctx context.Context, st store.Store) error {
	filters, err := store.ParseFilters(queryFilters)
	if err != nil {
		return err
	}
	rows, err := st.RunScreen(ctx, filters, queryLimit)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(map[string]any{"matches": len(rows), "results": rows})
	}

	fmt.Printf("\nFound %d matches:\n\n", len(rows))
	for _, row := range rows {
		var values []string
		for _, f := range filters {
			if v, ok := row.Values[f.MetricID]; ok {
				values = append(values, fmt.Sprintf("%s=%s", f.MetricID, v.String()))
			}
		}
		line := fmt.Sprintf("  %s: %s", row.Ticker, row.Name)
		if len(values) > 0 {
			line += "  (" + strings.Join(values, ", ") + ")"
		}
		fmt.Println(line)
	}
	return nil
}

func queryCompany(ctx context.Context, st store.Store, ticker string) error {
	snap, err := st.CompanyMetrics(ctx, ticker)
	if err != nil {
		return err
	}
	if snap == nil {
		return fmt.Errorf("%s has not been synced", ticker)
	}

	if jsonOut {
		return printJSON(snap)
	}

	fmt.Printf("\n%s (%s)\n", snap.Company.Name, snap.Company.Ticker)
	if snap.Company.Sector != "" {
		fmt.Printf("Sector: %s\n", snap.Company.Sector)
	}
	if snap.Company.Industry != "" {
		fmt.Printf("SIC: %s\n", snap.Company.Industry)
	}
	fmt.Println("\nMetrics:")
	for _, m := range snap.Metrics {
		fmt.Printf("  %s: %s\n", m.MetricID, m.Value.String())
	}
	return nil
}
