package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sawpanic/leakradar/internal/aggregate"
	"github.com/sawpanic/leakradar/internal/scoring"
)

func newComputeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compute",
		Short: "Rebuild the feature and score tables from the event log",
		Long:  "Re-derives the full feature matrix and score table from the event log without collecting, comparing, or alerting. Idempotent: unchanged input yields identical tables.",
		RunE:  runCompute,
	}
}

func runCompute(cmd *cobra.Command, _ []string) error {
	cfg, err := setupFromFlags(cmd)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	events, err := store.Events().LoadAll(ctx)
	if err != nil {
		return err
	}

	features := aggregate.New(cfg).Build(events, time.Now().UTC())
	if err := store.Features().ReplaceAll(ctx, features); err != nil {
		return err
	}

	scores := scoring.Compute(features, cfg.MetricWeights)
	if err := store.Scores().ReplaceAll(ctx, scores); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "features: %d | scores: %d\n", len(features), len(scores))
	return nil
}
