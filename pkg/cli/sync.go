package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/metric-duck/labs/pkg/metricduck"
	"github.com/metric-duck/labs/pkg/store"
	"github.com/metric-duck/labs/pkg/syncer"
)

var (
	syncMetrics     string
	syncTickers     string
	syncTopN        int
	syncDelta       bool
	syncCheckStatus bool
	syncDryRun      bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync fundamentals from the enterprise endpoint into the local datastore",
	Long: `Pulls company snapshots from POST /screener/sync into the local
database (companies, metrics_latest, sync_log). After the first run,
syncs are deltas from the last recorded run unless --delta=false.

Requires an enterprise-tier API key and a configured database_url.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().StringVar(&syncMetrics, "metrics", "", "comma-separated metric ids to sync (required)")
	syncCmd.Flags().StringVar(&syncTickers, "tickers", "", "comma-separated tickers to sync")
	syncCmd.Flags().IntVar(&syncTopN, "top-n", 0, "sync the top N companies by market cap instead of a ticker list")
	syncCmd.Flags().BoolVar(&syncDelta, "delta", true, "sync only changes since the last recorded run")
	syncCmd.Flags().BoolVar(&syncCheckStatus, "check-status", false, "print sync status and credit limits, no sync")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "validate and describe the request without syncing")
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	client := newClient(cfg, cfg.SyncTimeout, logger)

	if syncCheckStatus {
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.MetricsTimeout)
		defer cancel()
		status, err := client.SyncStatus(ctx)
		if err != nil {
			return err
		}
		printSyncStatus(status)
		return nil
	}

	req := syncer.Request{
		TopN: syncTopN,
		Full: !syncDelta,
	}
	if syncMetrics != "" {
		req.Metrics = splitList(syncMetrics)
	}
	if syncTickers != "" {
		req.Tickers = upper(splitList(syncTickers))
	}
	if err := syncer.Validate(req); err != nil {
		return err
	}

	if syncDryRun {
		printSyncPlan(req)
		return nil
	}

	if cfg.DatabaseURL == "" {
		return errors.New("database_url is not configured (set LABS_DATABASE_URL or DATABASE_URL)")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.SyncTimeout)
	defer cancel()

	st, err := store.NewPostgres(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Init(ctx); err != nil {
		return err
	}

	s := syncer.New(client, st, logger)
	summary, err := s.Run(ctx, req)
	if err != nil {
		return err
	}

	syncType := "Full"
	if summary.IsDelta {
		syncType = "Delta"
	}
	fmt.Printf("Sync type: %s\n", syncType)
	fmt.Printf("Companies: %d\n", summary.CompaniesWritten)
	fmt.Printf("Metrics: %d\n", summary.MetricsWritten)
	fmt.Printf("Credits used: %d\n", summary.CreditsUsed)
	fmt.Printf("Credits remaining: %d\n", summary.CreditsRemaining)
	logger.Info("sync recorded", zap.String("sync_id", summary.SyncID))
	return nil
}

func printSyncPlan(req syncer.Request) {
	fmt.Println("Dry run: no sync performed.")
	fmt.Printf("Syncing %d metrics\n", len(req.Metrics))
	if len(req.Tickers) > 0 {
		fmt.Printf("Companies: %d specific tickers\n", len(req.Tickers))
	} else {
		fmt.Printf("Companies: top %d by market cap\n", req.TopN)
	}
	if req.Full {
		fmt.Println("Full sync...")
	} else {
		fmt.Println("Delta sync if a previous run is recorded, else full.")
	}
}

func printSyncStatus(status *metricduck.SyncStatus) {
	fmt.Println("Sync Status:")
	fmt.Printf("  Tier: %s\n", status.Tier)
	if !status.IsEnterprise {
		fmt.Println("  Enterprise tier required for sync API")
		return
	}
	fmt.Printf("  Universe: %s\n", status.Access.Universe)
	fmt.Printf("  Metrics: %s\n", status.Access.Metrics)
	fmt.Printf("  Monthly credits: %d\n", status.Limits.MonthlyCredits)
	fmt.Printf("  Syncs this month: %d\n", status.Usage.SyncsUsedThisMonth)
	lastSync := status.Usage.LastSync
	if lastSync == "" {
		lastSync = "Never"
	}
	fmt.Printf("  Last sync: %s\n", lastSync)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
