// Package mcp exposes the quality engine as Model Context Protocol tools over
// stdio.
package mcp

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/lcq/internal/analysis"
	"github.com/standardbeagle/lcq/internal/cache"
	"github.com/standardbeagle/lcq/internal/config"
	lcqdebug "github.com/standardbeagle/lcq/internal/debug"
	"github.com/standardbeagle/lcq/internal/version"
)

const serverName = "lightning-code-quality-mcp"

// Server wires the scorer and project driver to MCP tool handlers
type Server struct {
	cfg     *config.Config
	scorer  *analysis.Scorer
	results *cache.ResultCache
	server  *mcp.Server
}

// NewServer creates the MCP server and registers its tools. cfg supplies
// the default project root and analysis settings.
func NewServer(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mcp server requires a configuration")
	}
	s := &Server{
		cfg:     cfg,
		scorer:  analysis.NewScorer(analysis.FromConfig(cfg)...),
		results: cache.NewResultCache(cache.DefaultResultCacheConfig()),
		server: mcp.NewServer(&mcp.Implementation{
			Name:    serverName,
			Version: version.Version,
		}, nil),
	}
	s.registerTools()
	lcqdebug.LogMCP("server initialised for %s\n", cfg.Project.Root)
	return s, nil
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "analyze_source",
		Description: "Score a source fragment. Returns the quality score, concrete issues and complexity metrics.",
		InputSchema: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"source", "language"},
			Properties: map[string]*jsonschema.Schema{
				"source": {
					Type:        "string",
					Description: "Source code to analyse",
				},
				"language": {
					Type:        "string",
					Description: "Language name or extension (python, js, tsx, go, rust, ...)",
				},
				"path": {
					Type:        "string",
					Description: "Optional file path used to pick a grammar dialect and label issues",
				},
			},
		},
	}, s.handleAnalyzeSource)

	s.server.AddTool(&mcp.Tool{
		Name:        "analyze_file",
		Description: "Score one file on disk. Relative paths resolve against the project root.",
		InputSchema: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"path"},
			Properties: map[string]*jsonschema.Schema{
				"path": {
					Type:        "string",
					Description: "File to analyse",
				},
			},
		},
	}, s.handleAnalyzeFile)

	s.server.AddTool(&mcp.Tool{
		Name:        "analyze_project",
		Description: "Analyse every source file under a root and report per-file scores with project metrics.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"root": {
					Type:        "string",
					Description: "Project root (defaults to the server's root)",
				},
				"strict": {
					Type:        "boolean",
					Description: "Fail when any file could not be analysed",
				},
				"format": {
					Type:        "string",
					Description: "text, json or compact",
				},
			},
		},
	}, s.handleAnalyzeProject)

	s.server.AddTool(&mcp.Tool{
		Name:        "project_summary",
		Description: "Token-efficient project overview: directory tree, metrics and important files in the compact form.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"root": {
					Type:        "string",
					Description: "Project root (defaults to the server's root)",
				},
			},
		},
	}, s.handleProjectSummary)

	s.server.AddTool(&mcp.Tool{
		Name:        "version",
		Description: "Server version and build information",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleVersion)
}

// recoverFromPanic runs handler and turns a panic or error into an error
// result so the client sees it.
func (s *Server) recoverFromPanic(operation string, handler func() (*mcp.CallToolResult, error)) (result *mcp.CallToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			lcqdebug.LogMCP("PANIC RECOVERED in %s: %v\n%s\n", operation, r, debug.Stack())
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			lcqdebug.LogMCP("memory: alloc %d KB, sys %d KB, gc %d\n", m.Alloc/1024, m.Sys/1024, m.NumGC)
			result, err = createErrorResponse(operation, fmt.Errorf("internal error: %v", r))
		}
	}()

	result, err = handler()
	if err != nil {
		lcqdebug.LogMCP("error in %s: %v\n", operation, err)
		return createErrorResponse(operation, err)
	}
	return result, nil
}

// Start serves MCP over stdio until ctx is cancelled or the client leaves
func (s *Server) Start(ctx context.Context) error {
	lcqdebug.LogMCP("starting MCP server with stdio transport\n")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Close releases resources held by the server
func (s *Server) Close() error {
	s.results.Close()
	return nil
}
