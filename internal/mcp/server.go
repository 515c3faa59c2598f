// ABOUTME: MCP server initialization and configuration for vibematch.
// ABOUTME: Exposes vibe matching over an embedded catalog to AI agents via stdio.
package mcp

import (
	"context"
	"fmt"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/vibematch/internal/matcher"
	"github.com/2389-research/vibematch/internal/models"
	"github.com/2389-research/vibematch/internal/storage"
)

// Server wraps the MCP server with a matcher and its embedded catalog.
type Server struct {
	mcp      *gomcp.Server
	matcher  *matcher.Matcher
	catalog  []models.Product
	defaults matcher.Options
	runs     storage.RunStore
}

// ServerOption configures optional Server dependencies.
type ServerOption func(*Server)

// WithRunStore enables the list_runs tool backed by the run history.
func WithRunStore(rs storage.RunStore) ServerOption {
	return func(s *Server) {
		s.runs = rs
	}
}

// WithDefaults sets the top_k and min_score used when a call omits them.
func WithDefaults(opts matcher.Options) ServerOption {
	return func(s *Server) {
		s.defaults = opts
	}
}

// NewServer creates an MCP server over an already-embedded catalog.
func NewServer(m *matcher.Matcher, catalog []models.Product, opts ...ServerOption) (*Server, error) {
	if m == nil {
		return nil, fmt.Errorf("matcher is required")
	}
	if len(catalog) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}

	mcpServer := gomcp.NewServer(
		&gomcp.Implementation{
			Name:    "vibematch",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcp:      mcpServer,
		matcher:  m,
		catalog:  catalog,
		defaults: matcher.DefaultOptions(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.registerVibeTools()
	if s.runs != nil {
		s.registerHistoryTools()
	}

	return s, nil
}

// Serve starts the MCP server in stdio mode.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcp.Run(ctx, &gomcp.StdioTransport{})
}
