// ABOUTME: CLI command for matching a single vibe query.
// ABOUTME: Embeds the catalog, ranks it against the query, and prints the top matches.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/2389-research/vibematch/internal/matcher"
)

var matchCmd = &cobra.Command{
	Use:   "match <query>",
	Short: "Find products matching a vibe",
	Long:  "Embed the catalog and print the products whose descriptions best match the query.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)
	addMatchFlags(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Errorf("query must not be empty")
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	opts := matchOptions(cmd, globalConfig)

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

	m := matcher.New(embedder, matcher.WithLogger(globalLogger))
	res, err := m.Match(ctx, query, products, opts)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, headingStyle.Render(fmt.Sprintf("Matches for %q", query)))
	printResult(out, res, opts, globalConfig.Match.GoodThreshold)
	return nil
}
