package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/lcq/internal/analysis"
	"github.com/standardbeagle/lcq/internal/config"
	"github.com/standardbeagle/lcq/internal/display"
	"github.com/standardbeagle/lcq/internal/parser"
	"github.com/standardbeagle/lcq/internal/project"
	"github.com/standardbeagle/lcq/internal/types"
	"github.com/standardbeagle/lcq/internal/version"
)

// AnalyzeSourceParams are the analyze_source arguments
type AnalyzeSourceParams struct {
	Source   string `json:"source"`
	Language string `json:"language"`
	Path     string `json:"path,omitempty"`
	Metrics  bool   `json:"metrics,omitempty"`
}

// AnalyzeFileParams are the analyze_file arguments
type AnalyzeFileParams struct {
	Path    string `json:"path"`
	Metrics bool   `json:"metrics,omitempty"`
}

// ProjectParams are the analyze_project and project_summary arguments
type ProjectParams struct {
	Root   string `json:"root,omitempty"`
	Strict bool   `json:"strict,omitempty"`
	Format string `json:"format,omitempty"`
}

// AnalysisResponse is returned by the single-file tools
type AnalysisResponse struct {
	Path    string                   `json:"path,omitempty"`
	Summary string                   `json:"summary"`
	Score   *types.QualityScore      `json:"score"`
	Metrics *types.ComplexityMetrics `json:"metrics,omitempty"`
}

func decodeParams(req *mcp.CallToolRequest, v interface{}) error {
	if req == nil || req.Params == nil || len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params.Arguments, v); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}

func (s *Server) timeout() time.Duration {
	if s.cfg.Analysis.TimeoutMs > 0 {
		return time.Duration(s.cfg.Analysis.TimeoutMs) * time.Millisecond
	}
	return project.DefaultFileTimeout
}

func (s *Server) handleAnalyzeSource(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.recoverFromPanic("analyze_source", func() (*mcp.CallToolResult, error) {
		var params AnalyzeSourceParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		lang, err := parser.FromName(params.Language)
		if err != nil {
			return nil, err
		}
		return s.analyze(ctx, params.Source, lang, params.Path, params.Metrics)
	})
}

func (s *Server) handleAnalyzeFile(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.recoverFromPanic("analyze_file", func() (*mcp.CallToolResult, error) {
		var params AnalyzeFileParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		if strings.TrimSpace(params.Path) == "" {
			return nil, fmt.Errorf("path is required")
		}
		path := params.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.cfg.Project.Root, path)
		}
		lang, ok := parser.FromPath(path)
		if !ok {
			return nil, fmt.Errorf("unsupported file type: %s", params.Path)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", params.Path, err)
		}
		return s.analyze(ctx, string(content), lang, path, params.Metrics)
	})
}

// analyze scores source, serving repeated requests from the result cache.
// Metrics always need a fresh parse.
func (s *Server) analyze(ctx context.Context, source string, lang parser.Language, path string, withMetrics bool) (*mcp.CallToolResult, error) {
	resp := AnalysisResponse{Path: path}
	scope := string(lang) + ":" + path

	switch {
	case withMetrics:
		report, err := s.scorer.ReportWithTimeout(ctx, source, lang, path, s.timeout())
		if err != nil {
			return nil, err
		}
		resp.Score, resp.Metrics = report.Score, report.Metrics
		s.results.Put(scope, source, report.Score)
	default:
		if cached := s.results.Get(scope, source); cached != nil {
			resp.Score = cached
			break
		}
		score, err := s.scorer.AnalyzeWithTimeout(ctx, source, lang, path, s.timeout())
		if err != nil {
			return nil, err
		}
		resp.Score = score
		s.results.Put(scope, source, score)
	}
	resp.Summary = analysis.Summary(resp.Score)
	return createJSONResponse(resp)
}

// projectConfig returns the configuration for root, reusing the server's
// when root is its own.
func (s *Server) projectConfig(root string) (*config.Config, error) {
	if root == "" || root == s.cfg.Project.Root {
		return s.cfg, nil
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("project root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project root %s is not a directory", root)
	}
	return config.LoadWithRoot("", root)
}

func (s *Server) runProject(ctx context.Context, params ProjectParams) (*project.Result, error) {
	cfg, err := s.projectConfig(params.Root)
	if err != nil {
		return nil, err
	}
	d := project.NewDriverFromConfig(cfg, nil)
	if params.Strict {
		return d.AnalyzeProjectStrict(ctx, cfg.Project.Root)
	}
	return d.AnalyzeProject(ctx, cfg.Project.Root)
}

func (s *Server) handleAnalyzeProject(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.recoverFromPanic("analyze_project", func() (*mcp.CallToolResult, error) {
		var params ProjectParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		format, err := display.ParseFormat(params.Format)
		if err != nil {
			return nil, err
		}
		res, err := s.runProject(ctx, params)
		if err != nil {
			return nil, err
		}
		formatter := display.NewReportFormatter(display.FormatterOptions{Format: format, AgentMode: true})
		return createTextResponse(formatter.FormatProject(res)), nil
	})
}

func (s *Server) handleProjectSummary(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.recoverFromPanic("project_summary", func() (*mcp.CallToolResult, error) {
		var params ProjectParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		params.Strict = false
		res, err := s.runProject(ctx, params)
		if err != nil {
			return nil, err
		}
		return createTextResponse(res.Compact().String()), nil
	})
}

func (s *Server) handleVersion(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return createJSONResponse(map[string]interface{}{
		"server_name":    serverName,
		"server_version": version.FullInfo(),
		"build_id":       version.BuildID(),
		"go_version":     runtime.Version(),
		"platform":       runtime.GOOS + "/" + runtime.GOARCH,
		"languages":      languageNames(),
		"result_cache":   s.results.Stats(),
	})
}

func languageNames() []string {
	langs := parser.All()
	names := make([]string, 0, len(langs))
	for _, lang := range langs {
		names = append(names, string(lang))
	}
	return names
}
