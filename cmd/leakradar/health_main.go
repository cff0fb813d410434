package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sawpanic/leakradar/internal/monitor"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show collector staleness",
		RunE:  runHealth,
	}
}

func runHealth(cmd *cobra.Command, _ []string) error {
	cfg, err := setupFromFlags(cmd)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	lastFetch, err := store.Events().LastFetchBySource(cmd.Context())
	if err != nil {
		return err
	}

	statuses := monitor.CollectorHealth(lastFetch, time.Now().UTC(), cfg.SourceSilence())
	if len(statuses) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no sources have reported yet")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), monitor.Summarize(statuses))
	return nil
}
