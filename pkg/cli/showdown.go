package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/metric-duck/labs/pkg/format"
	"github.com/metric-duck/labs/pkg/marketdata"
	"github.com/metric-duck/labs/pkg/metricduck"
	"github.com/metric-duck/labs/pkg/showdown"
)

var showdownNoContext bool

var showdownCmd = &cobra.Command{
	Use:   "showdown TICKER_A TICKER_B",
	Short: "Head-to-head valuation and quality comparison of two stocks",
	Args:  cobra.ExactArgs(2),
	RunE:  runShowdown,
}

func init() {
	rootCmd.AddCommand(showdownCmd)
	showdownCmd.Flags().BoolVar(&jsonOut, "json", false, "emit the comparison as JSON")
	showdownCmd.Flags().BoolVar(&showdownNoContext, "no-context", false, "skip the market-context lookup")
}

func runShowdown(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	tickerA := strings.ToUpper(strings.TrimSpace(args[0]))
	tickerB := strings.ToUpper(strings.TrimSpace(args[1]))
	if tickerA == tickerB {
		return fmt.Errorf("cannot compare %s with itself", tickerA)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.MetricsTimeout)
	defer cancel()

	client := newClient(cfg, cfg.MetricsTimeout, logger)
	data, err := client.FetchMetrics(ctx, metricduck.MetricsQuery{
		Tickers: []string{tickerA, tickerB},
		Metrics: cfg.Showdown.MetricIDs(),
		Period:  "ttm",
		Price:   "current",
	})
	if err != nil {
		return err
	}

	result := showdown.Run(data, tickerA, tickerB, cfg.Showdown)

	var enriched map[string]marketdata.Context
	if !showdownNoContext {
		enricher := marketdata.New(cfg.AlpacaKey, cfg.AlpacaSecret, logger)
		enriched = enricher.Enrich(tickerA, tickerB)
	}

	if jsonOut {
		doc := struct {
			showdown.Result
			MarketContext map[string]marketdata.Context `json:"market_context,omitempty"`
		}{Result: result, MarketContext: enriched}
		return printJSON(doc)
	}

	fmt.Print(result.Render())
	printMarketContext(enriched, tickerA, tickerB)
	return nil
}

// printMarketContext appends whatever enrichment came back. Nothing prints
// when both lookups failed.
func printMarketContext(enriched map[string]marketdata.Context, tickers ...string) {
	var lines []string
	for _, ticker := range tickers {
		ctx := enriched[ticker]
		var parts []string
		if ctx.Sector != "" {
			parts = append(parts, ctx.Sector)
		}
		if ctx.Beta != nil {
			parts = append(parts, fmt.Sprintf("beta %.2f", *ctx.Beta))
		}
		if ctx.FiftyTwoLow != nil && ctx.FiftyTwoHigh != nil {
			parts = append(parts, fmt.Sprintf("52w %s-%s",
				format.Dollars(ctx.FiftyTwoLow), format.Dollars(ctx.FiftyTwoHigh)))
		}
		if len(parts) > 0 {
			lines = append(lines, fmt.Sprintf("  %-6s %s", ticker, strings.Join(parts, " | ")))
		}
	}
	if len(lines) == 0 {
		return
	}
	fmt.Println("\nMARKET CONTEXT")
	for _, line := range lines {
		fmt.Println(line)
	}
}
