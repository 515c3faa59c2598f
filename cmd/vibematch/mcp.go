// ABOUTME: MCP server command implementation for vibematch.
// ABOUTME: Embeds the catalog once, then serves match tools over stdio.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcppkg "github.com/2389-research/vibematch/internal/mcp"
	"github.com/2389-research/vibematch/internal/matcher"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server (stdio mode)",
	Long: `Start the Model Context Protocol server for AI agent integration.

The catalog is embedded once at startup. The server communicates via
stdio, exposing match_vibe, list_products and list_runs tools.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	addMatchFlags(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	path, err := catalogPath(globalConfig)
	if err != nil {
		return err
	}
	embedder, err := newEmbedder(globalConfig, globalLogger)
	if err != nil {
		return err
	}
	// stdout belongs to the protocol; progress goes to stderr.
	products, err := loadEmbeddedCatalog(ctx, cmd.ErrOrStderr(), path, embedder, globalConfig.Embedding.Workers)
	if err != nil {
		return err
	}

	opts := []mcppkg.ServerOption{mcppkg.WithDefaults(matchOptions(cmd, globalConfig))}
	if store, err := openRunStore(); err != nil {
		globalLogger.Warn("run history unavailable, list_runs disabled", "error", err)
	} else {
		defer func() { _ = store.Close() }()
		opts = append(opts, mcppkg.WithRunStore(store))
	}

	server, err := mcppkg.NewServer(matcher.New(embedder, matcher.WithLogger(globalLogger)), products, opts...)
	if err != nil {
		return err
	}

	return server.Serve(ctx)
}
