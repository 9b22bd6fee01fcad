// Package cli contains all subcommands of the labs binary.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"

	"github.com/metric-duck/labs/pkg/config"
	"github.com/metric-duck/labs/pkg/logging"
	"github.com/metric-duck/labs/pkg/metricduck"
)

var (
	cfgFile  string
	logLevel string
	jsonOut  bool
)

var rootCmd = &cobra.Command{
	Use:   "labs",
	Short: "Stock fundamentals labs on the MetricDuck API",
	Long: `labs runs a set of small fundamentals studies against the MetricDuck
financial data API: watchlist alerts, head-to-head showdowns, company
pulse reports, a percentile-rank screener, and an enterprise sync into a
local datastore you can query offline.

Works without an API key on the guest tier (rate limited). Put
METRICDUCK_API_KEY in the environment or a .env file for full access.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI. API errors print their upgrade/registration hint
// before the process exits 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var apiErr *metricduck.APIError
		if errors.As(err, &apiErr) {
			if hint := apiErr.Hint(); hint != "" {
				fmt.Fprintln(os.Stderr, hint)
			}
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to YAML config file (default: $LABS_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log verbosity: debug, info, warn, error")
}

// setup loads configuration and builds the logger every command starts from.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	logger, err := logging.New(level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newClient(cfg *config.Config, timeout time.Duration, logger *zap.Logger) *metricduck.Client {
	return metricduck.NewClient(cfg.BaseURL, cfg.APIKey, timeout, logger)
}

// printJSON writes an indented JSON document to stdout.
func printJSON(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	_, err = os.Stdout.Write(pretty.Pretty(raw))
	return err
}
