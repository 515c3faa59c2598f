// ABOUTME: MCP tool implementations for vibe matching.
// ABOUTME: Registers match_vibe, list_products, and list_runs.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/vibematch/internal/eval"
)

func (s *Server) registerVibeTools() {
	s.mcp.AddTool(&gomcp.Tool{
		Name:        "match_vibe",
		Description: "Find catalog products whose vibe matches a free-text query. Returns up to top_k products ranked by cosine similarity, or a suggestion when nothing reaches min_score.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "Free-text description of the desired vibe"},
				"top_k": {"type": "number", "description": "Maximum number of products to return (default 3)"},
				"min_score": {"type": "number", "description": "Best similarity required to return any match (default 0.7)"}
			},
			"required": ["query"]
		}`),
	}, s.handleMatchVibe)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "list_products",
		Description: "List every product in the catalog with its description and vibe tags.",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
	}, s.handleListProducts)
}

func (s *Server) registerHistoryTools() {
	s.mcp.AddTool(&gomcp.Tool{
		Name:        "list_runs",
		Description: "List recent evaluation runs with match counts and mean latency.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"limit": {"type": "number", "description": "Maximum number of runs to return (default 10)"}
			}
		}`),
	}, s.handleListRuns)
}

const fallbackNote = "Note: some vectors were random placeholders because the embedding service was unavailable; scores are not meaningful.\n"

func (s *Server) handleMatchVibe(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Query    string   `json:"query"`
		TopK     *int     `json:"top_k"`
		MinScore *float64 `json:"min_score"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	query := strings.TrimSpace(args.Query)
	if query == "" {
		return toolError("query is required"), nil
	}

	opts := s.defaults
	if args.TopK != nil {
		opts.TopK = *args.TopK
	}
	if args.MinScore != nil {
		opts.MinScore = *args.MinScore
	}

	res, err := s.matcher.Match(ctx, query, s.catalog, opts)
	if err != nil {
		return toolError("match failed: %v", err), nil
	}

	var sb strings.Builder
	if res.NoMatch() {
		fmt.Fprintf(&sb, "No strong match for %q (best score %.4f, threshold %.2f).\n%s", query, res.BestScore, opts.MinScore, eval.NoMatchSuggestion)
		if res.Fallback() {
			sb.WriteString("\n" + fallbackNote)
		}
		return textResult(sb.String()), nil
	}

	fmt.Fprintf(&sb, "Top %d match(es) for %q:\n", len(res.Matches), query)
	for i, m := range res.Matches {
		fmt.Fprintf(&sb, "%d. %s (score %.4f)\n   %s\n", i+1, m.Product.Name, m.SimScore, m.Product.Desc)
		if len(m.Product.Vibes) > 0 {
			fmt.Fprintf(&sb, "   vibes: %s\n", strings.Join(m.Product.Vibes, ", "))
		}
	}
	if res.Fallback() {
		sb.WriteString("\n" + fallbackNote)
	}
	return textResult(sb.String()), nil
}

func (s *Server) handleListProducts(_ context.Context, _ *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d products:\n", len(s.catalog))
	for i, p := range s.catalog {
		fmt.Fprintf(&sb, "%d. %s: %s", i+1, p.Name, p.Desc)
		if len(p.Vibes) > 0 {
			fmt.Fprintf(&sb, " [%s]", strings.Join(p.Vibes, ", "))
		}
		sb.WriteString("\n")
	}
	return textResult(sb.String()), nil
}

func (s *Server) handleListRuns(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Limit int `json:"limit"`
	}
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return toolError("invalid arguments: %v", err), nil
		}
	}
	if args.Limit <= 0 {
		args.Limit = 10
	}

	runs, err := s.runs.ListRuns(ctx, args.Limit)
	if err != nil {
		return toolError("failed to list runs: %v", err), nil
	}
	if len(runs) == 0 {
		return textResult("No evaluation runs recorded."), nil
	}

	var sb strings.Builder
	for _, r := range runs {
		mode := "live"
		if !r.Live {
			mode = "fallback"
		}
		fmt.Fprintf(&sb, "%s  %s  %s/%s (%s)  queries=%d matched=%d good=%d mean_latency=%.4fs\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Provider, r.Model, mode,
			r.QueryCount, r.MatchedQueries, r.GoodCount, r.MeanLatency)
	}
	return textResult(sb.String()), nil
}

func textResult(text string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: text}},
	}
}

func toolError(format string, args ...interface{}) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}
