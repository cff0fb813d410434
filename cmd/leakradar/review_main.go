package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newReviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review <anomaly-id> <confirm|noise|bug>",
		Short: "Record a human verdict on an anomaly",
		Long:  "Sets verified_status on one anomaly row. This is the only mutation the audit trail permits; pipeline runs never overwrite a verdict.",
		Args:  cobra.ExactArgs(2),
		RunE:  runReview,
	}
}

func runReview(cmd *cobra.Command, args []string) error {
	cfg, err := setupFromFlags(cmd)
	if err != nil {
		return err
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid anomaly id %q", args[0])
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Anomalies().Review(cmd.Context(), id, args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "anomaly %d marked %s\n", id, args[1])
	return nil
}
