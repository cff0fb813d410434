package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sawpanic/leakradar/internal/backtest"
)

func newBacktestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backtest",
		Short: "Evaluate anomaly persistence and false-spike rate",
		Long:  "Read-only pass over the full anomaly history. Reports how often flagged (sector, metric) pairs recurred within 7 days and how many reviewed anomalies were judged noise or bug.",
		RunE:  runBacktest,
	}
}

func runBacktest(cmd *cobra.Command, _ []string) error {
	cfg, err := setupFromFlags(cmd)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	anomalies, err := store.Anomalies().LoadAll(cmd.Context())
	if err != nil {
		return err
	}

	summary := backtest.Evaluate(anomalies)
	path, err := backtest.WriteSummary(summary, cfg.DataDir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "anomalies: %d\n", summary.AnomalyCount)
	fmt.Fprintf(out, "persist_pct: %.3f\n", summary.PersistPct)
	fmt.Fprintf(out, "false_spike_rate: %.3f\n", summary.FalseSpikeRate)
	fmt.Fprintf(out, "summary written to %s\n", path)
	return nil
}
