package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/metric-duck/labs/pkg/alert"
	"github.com/metric-duck/labs/pkg/metricduck"
)

var alertThreshold float64

var alertCmd = &cobra.Command{
	Use:   "alert [TICKER...]",
	Short: "Alert on watchlist stocks with a PE ratio below the threshold",
	Long: `Checks current PE ratios for the configured watchlist (or the tickers
given as arguments) and reports every stock strictly below the threshold.
When email delivery is configured, triggered alerts are also sent over SMTP.`,
	RunE: runAlert,
}

func init() {
	rootCmd.AddCommand(alertCmd)
	alertCmd.Flags().Float64Var(&alertThreshold, "threshold", 0, "PE threshold (default from config)")
	alertCmd.Flags().BoolVar(&jsonOut, "json", false, "emit the report as JSON")
}

func runAlert(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	watchlist := cfg.Watchlist
	if len(args) > 0 {
		watchlist = upper(args)
	}
	threshold := cfg.PEThreshold
	if alertThreshold > 0 {
		threshold = alertThreshold
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.MetricsTimeout)
	defer cancel()

	client := newClient(cfg, cfg.MetricsTimeout, logger)
	data, err := client.FetchMetrics(ctx, metricduck.MetricsQuery{
		Tickers: watchlist,
		Metrics: []string{"pe_ratio"},
		Period:  "ttm",
		Price:   "current",
	})
	if err != nil {
		return err
	}

	peRatios := make(map[string]*float64, len(watchlist))
	for _, ticker := range watchlist {
		peRatios[ticker] = metricduck.Metric(data, ticker, "pe_ratio")
	}

	report := alert.Check(watchlist, peRatios, threshold)

	if jsonOut {
		return printJSON(report)
	}
	fmt.Print(report.Render())

	notifier := alert.NewNotifier(cfg.Email, logger)
	sent, err := notifier.Notify(report)
	if err != nil {
		return err
	}
	if sent {
		fmt.Printf("Alert email sent to %s\n", cfg.Email.To)
	}
	return nil
}

func upper(tickers []string) []string {
	out := make([]string, len(tickers))
	for i, t := range tickers {
		out[i] = strings.ToUpper(strings.TrimSpace(t))
	}
	return out
}
