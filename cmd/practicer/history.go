package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/practicer/internal/config"
	"github.com/verte-zerg/practicer/internal/report"
	"github.com/verte-zerg/practicer/internal/store"
)

var (
	historyLast    int
	historySetID   int
	historyDetails bool
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previous generation runs",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historyLast, "last", 20, "number of runs to show (0 for all)")
	cmd.Flags().IntVar(&historySetID, "set", 0, "only runs of this beatmap set")
	cmd.Flags().BoolVar(&historyDetails, "details", false, "list the segments of each run")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := cmd.Context()
	runs, err := st.ListRuns(ctx, historyLast, historySetID)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	ids := make([]uuid.UUID, len(runs))
	for i, run := range runs {
		ids[i] = run.ID
	}
	segments, err := st.ListSegmentsForRuns(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to list segments: %w", err)
	}
	for i := range runs {
		runs[i].Segments = segments[runs[i].ID]
	}

	lines := report.HistoryLines(runs, time.Now())
	if historyDetails {
		for _, run := range runs {
			lines = append(lines, "")
			lines = append(lines, report.RunDetailLines(run)...)
		}
	}
	out := cmd.OutOrStdout()
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
