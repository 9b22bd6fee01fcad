package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/metric-duck/labs/pkg/metricduck"
	"github.com/metric-duck/labs/pkg/pulse"
)

var pulseCmd = &cobra.Command{
	Use:   "pulse [TICKER]",
	Short: "One-company health report against its own 8-quarter history",
	Long: `Reads current values plus statistical dimensions (8-quarter medians and
trends, YoY and 3-year growth) for one ticker and diagnoses where the
company stands: OPPORTUNITY, VALUE TRAP, EARNING IT, WATCH or STABLE.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPulse,
}

func init() {
	rootCmd.AddCommand(pulseCmd)
	pulseCmd.Flags().BoolVar(&jsonOut, "json", false, "emit the report as JSON")
}

func runPulse(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ticker := "AAPL"
	if len(args) == 1 {
		ticker = strings.ToUpper(strings.TrimSpace(args[0]))
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.MetricsTimeout)
	defer cancel()

	client := newClient(cfg, cfg.MetricsTimeout, logger)
	data, err := client.FetchMetrics(ctx, metricduck.MetricsQuery{
		Tickers:    []string{ticker},
		Metrics:    cfg.Pulse.MetricIDs(),
		Period:     "ttm",
		Price:      "current",
		Dimensions: cfg.Pulse.Dimensions(),
	})
	if err != nil {
		return err
	}
	if _, ok := data[ticker]; !ok {
		return fmt.Errorf("no data returned for %s", ticker)
	}

	report := pulse.Build(data, ticker, cfg.Pulse)
	if jsonOut {
		return printJSON(report)
	}
	fmt.Print(report.Render())
	return nil
}
