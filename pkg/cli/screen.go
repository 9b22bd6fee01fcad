package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metric-duck/labs/pkg/metricduck"
	"github.com/metric-duck/labs/pkg/screener"
)

var (
	screenTickers string
	screenCount   int
	screenTop     int
	screenDryRun  bool
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Rank stocks by a quality + value composite of percentile ranks",
	Long: `Screens a universe of stocks (top of the market-cap ranking, or an
explicit ticker list) and ranks them by a weighted composite of quality
and value percentile ranks. Guest runs are capped to a small universe;
--dry-run prints the credit estimate without calling the API.`,
	RunE: runScreen,
}

func init() {
	rootCmd.AddCommand(screenCmd)
	screenCmd.Flags().StringVar(&screenTickers, "tickers", "", "comma-separated tickers to screen instead of the universe")
	screenCmd.Flags().IntVar(&screenCount, "count", 0, "universe size to screen (default from config)")
	screenCmd.Flags().IntVar(&screenTop, "top", 0, "rows to show (default from config)")
	screenCmd.Flags().BoolVar(&screenDryRun, "dry-run", false, "print the credit estimate and exit")
	screenCmd.Flags().BoolVar(&jsonOut, "json", false, "emit results as JSON")
}

func runScreen(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	client := newClient(cfg, cfg.ScreenTimeout, logger)
	guest := !client.HasKey()

	count := cfg.ScreenCount
	if screenCount > 0 {
		count = screenCount
	}
	top := cfg.ScreenTop
	if screenTop > 0 {
		top = screenTop
	}

	var tickers []string
	if screenTickers != "" {
		tickers = upper(splitList(screenTickers))
	}

	tickerCount := count
	if len(tickers) > 0 {
		tickerCount = len(tickers)
	} else if guest && tickerCount > cfg.GuestCap {
		tickerCount = cfg.GuestCap
		if !jsonOut && !screenDryRun {
			fmt.Printf("Guest mode: screening top %d (register free for up to 200 tickers)\n", tickerCount)
		}
	}

	metricIDs := cfg.Screen.MetricIDs()
	if screenDryRun {
		fmt.Print(screener.RenderDryRun(tickerCount, len(metricIDs), guest))
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.ScreenTimeout)
	defer cancel()

	if len(tickers) == 0 {
		if !jsonOut {
			fmt.Printf("Fetching top %d companies by market cap...\n", tickerCount)
		}
		universe, err := client.FetchUniverse(ctx, tickerCount)
		if err != nil {
			return err
		}
		for _, c := range universe {
			tickers = append(tickers, c.Ticker)
		}
		if len(tickers) == 0 {
			return errors.New("no companies returned from universe")
		}
		if !jsonOut {
			fmt.Printf("Got %d companies. Fetching metrics...\n", len(tickers))
		}
	} else if !jsonOut {
		fmt.Printf("Screening %d custom tickers...\n", len(tickers))
	}

	data, err := client.FetchMetrics(ctx, metricduck.MetricsQuery{
		Tickers: tickers,
		Metrics: metricIDs,
		Period:  "ttm",
		Price:   "current",
	})
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return errors.New("no metric data returned")
	}

	candidates := make([]screener.Candidate, 0, len(tickers))
	for _, ticker := range tickers {
		values := make(map[string]*float64, len(metricIDs))
		for _, id := range metricIDs {
			values[id] = metricduck.Metric(data, ticker, id)
		}
		candidates = append(candidates, screener.Candidate{
			Ticker:      ticker,
			CompanyName: metricduck.CompanyName(data, ticker),
			Values:      values,
		})
	}

	results := screener.Score(cfg.Screen, candidates)
	if len(results) == 0 {
		return errors.New("no stocks had enough data to score")
	}

	if jsonOut {
		shown := top
		if shown > len(results) {
			shown = len(results)
		}
		return printJSON(map[string]any{
			"screened":       len(tickers),
			"showing":        shown,
			"quality_weight": cfg.Screen.QualityWeight,
			"value_weight":   cfg.Screen.ValueWeight,
			"metrics":        metricIDs,
			"results":        results[:shown],
		})
	}

	fmt.Print(screener.Render(results, cfg.Screen, len(tickers), top, guest))
	return nil
}
