// ABOUTME: CLI command for browsing recorded evaluation runs.
// ABOUTME: Lists recent runs or shows one run's match log and latency chart.
package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/2389-research/vibematch/internal/report"
	"github.com/2389-research/vibematch/internal/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show recorded evaluation runs",
	Long:  "List recent evaluation runs, newest first, or show the full log of one run.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

var historyLimit int

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Maximum number of runs to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := openRunStore()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid run id %q: %w", args[0], err)
		}
		run, err := store.GetRun(ctx, id)
		if errors.Is(err, storage.ErrRunNotFound) {
			return fmt.Errorf("no run with id %s", id)
		}
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintln(out, headingStyle.Render(fmt.Sprintf("Run %s", run.ID)))
		_, _ = fmt.Fprintf(out, "Started %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
		_, _ = fmt.Fprintln(out, report.Summary(run))
		_, _ = fmt.Fprintln(out, report.ConsoleTable(run.Logs))
		_, _ = fmt.Fprintln(out, report.LatencyChart(run.Latencies))
		return nil
	}

	runs, err := store.ListRuns(ctx, historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(out, "No evaluation runs recorded.")
		return nil
	}
	for _, r := range runs {
		mode := goodStyle.Render("live")
		if !r.Live {
			mode = warnStyle.Render("fallback")
		}
		_, _ = fmt.Fprintf(out, "%s  %s  %s/%s  %s\n", r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Provider, r.Model, mode)
		_, _ = fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("    %d queries, %d matched, %d good, mean latency %.4fs",
			r.QueryCount, r.MatchedQueries, r.GoodCount, r.MeanLatency)))
	}
	return nil
}
