// ABOUTME: CLI command for running the evaluation query set.
// ABOUTME: Prints per-query results, writes CSV/markdown/chart reports, and records run history.
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/2389-research/vibematch/internal/config"
	"github.com/2389-research/vibematch/internal/eval"
	"github.com/2389-research/vibematch/internal/matcher"
	"github.com/2389-research/vibematch/internal/models"
	"github.com/2389-research/vibematch/internal/report"
	"github.com/2389-research/vibematch/internal/storage"
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run the evaluation query set",
	Long: `Run every evaluation query through the matcher, timing each one.

Writes latency_data.csv, log_metrics.csv, latency_plot.txt and
log_metrics.md into the report directory and records the run in
the history database.`,
	RunE: runEval,
}

// Flags
var (
	queriesFile string
	reportOut   string
	noSave      bool
)

func init() {
	rootCmd.AddCommand(evalCmd)
	addMatchFlags(evalCmd)
	evalCmd.Flags().StringVar(&queriesFile, "queries", "", "File with one query per line (default: built-in set)")
	evalCmd.Flags().StringVar(&reportOut, "out", "", "Report directory; overrides report.dir")
	evalCmd.Flags().BoolVar(&noSave, "no-save", false, "Do not record the run in history")
}

func runEval(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	opts := matchOptions(cmd, globalConfig)

	queries := eval.DefaultQueries
	if queriesFile != "" {
		loaded, err := eval.LoadQueries(queriesFile)
		if err != nil {
			return err
		}
		queries = loaded
	}

	path, err := catalogPath(globalConfig)
	if err != nil {
		return err
	}
	embedder, err := newEmbedder(globalConfig, globalLogger)
	if err != nil {
		return err
	}
	products, err := loadEmbeddedCatalog(ctx, cmd.ErrOrStderr(), path, embedder, globalConfig.Embedding.Workers)
	if err != nil {
		return err
	}

	runner := eval.NewRunner(
		matcher.New(embedder, matcher.WithLogger(globalLogger)),
		products,
		opts,
		eval.WithProvider(embedder.Name(), globalConfig.Embedding.Model),
		eval.WithThreshold(globalConfig.Match.GoodThreshold),
	)

	run, err := runner.Run(ctx, queries, func(o eval.Outcome) {
		_, _ = fmt.Fprintf(out, "\n%s %s\n", headingStyle.Render(fmt.Sprintf("Query %d:", o.QueryID)), o.Query)
		_, _ = fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("  latency %.4fs", o.Latency.Seconds())))
		printResult(out, o.Result, opts, globalConfig.Match.GoodThreshold)
	})
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "\n%s\n", headingStyle.Render("Match log"))
	_, _ = fmt.Fprintln(out, report.ConsoleTable(run.Logs))
	_, _ = fmt.Fprintln(out, report.LatencyChart(run.Latencies))

	dir := reportOut
	if dir == "" {
		dir, err = globalConfig.GetReportDir()
	} else {
		dir, err = config.ExpandPath(dir)
	}
	if err != nil {
		return err
	}
	paths, err := report.WriteAll(dir, run)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "Reports written: %s, %s, %s, %s\n", paths.LatencyCSV, paths.LogCSV, paths.LatencyPlot, paths.LogMarkdown)

	if !noSave {
		if err := saveRun(ctx, run); err != nil {
			globalLogger.Warn("failed to record run history", "error", err)
		} else {
			_, _ = fmt.Fprintf(out, "Run %s recorded in history.\n", run.ID)
		}
	}

	_, _ = fmt.Fprintln(out, report.Summary(run))
	if !run.Live {
		_, _ = fmt.Fprintln(out, warnStyle.Render("This run used random placeholder vectors; scores are not meaningful."))
	}
	return nil
}

// saveRun records run in the configured history database.
func saveRun(ctx context.Context, run *models.EvalRun) error {
	store, err := openRunStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return store.SaveRun(ctx, run)
}

func openRunStore() (storage.RunStore, error) {
	dsn, err := globalConfig.GetHistoryDSN()
	if err != nil {
		return nil, err
	}
	return storage.NewRunStore(dsn)
}
