package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sawpanic/leakradar/internal/app"
	"github.com/sawpanic/leakradar/internal/snapshot"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one full pipeline pass",
		Long:  "Collect (when collectors are registered), rebuild features, score, extract anomalies, compare hype vs reality, generate briefs, and record the run.",
		RunE:  runRun,
	}
	cmd.Flags().Bool("no-cache", false, "Skip publishing latest snapshots to redis")
	return cmd
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := setupFromFlags(cmd)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := []app.Option{app.WithCodeSHA(buildSHA)}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); !noCache {
		cache := snapshot.New(cfg.RedisAddr)
		defer cache.Close()
		opts = append(opts, app.WithCache(cache))
	}

	pipeline := app.NewPipeline(cfg, store, opts...)
	report, err := pipeline.Run(cmd.Context())
	if err != nil {
		return err
	}

	printReport(cmd, report)
	return nil
}

func printReport(cmd *cobra.Command, report *app.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== leakradar run ===")
	fmt.Fprintf(out, "run_id: %s status: %s\n", report.RunID, report.Status)

	var inserted, quarantined int
	for _, r := range report.Collectors {
		inserted += r.Inserted
		quarantined += r.Quarantined
	}
	fmt.Fprintf(out, "events inserted: %d | quarantined: %d\n", inserted, quarantined)
	fmt.Fprintf(out, "features: %d | scores: %d | anomalies: %d (severe %d)\n",
		report.FeatureRows, report.ScoreRows, len(report.Anomalies), report.SevereCount)

	stale := "none"
	if len(report.StaleSources) > 0 {
		stale = strings.Join(report.StaleSources, ", ")
	}
	fmt.Fprintf(out, "stale sources: %s\n", stale)

	if len(report.Comparisons) > 0 {
		fmt.Fprintln(out, "Hype vs Reality:")
		for _, row := range report.Comparisons {
			fmt.Fprintf(out, "  %s: hype %.1f, reality %.1f, gap %+.1f\n",
				row.Sector, row.HypeIndex, row.RealityIndex, row.Gap)
		}
	}
	fmt.Fprintf(out, "briefs generated: %d\n", report.BriefCount)
}
