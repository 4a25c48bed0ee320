package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/standardbeagle/lcq/internal/analysis"
	"github.com/standardbeagle/lcq/internal/cache"
	"github.com/standardbeagle/lcq/internal/config"
	"github.com/standardbeagle/lcq/internal/debug"
	"github.com/standardbeagle/lcq/internal/display"
	"github.com/standardbeagle/lcq/internal/hook"
	"github.com/standardbeagle/lcq/internal/mcp"
	"github.com/standardbeagle/lcq/internal/metrics"
	"github.com/standardbeagle/lcq/internal/parser"
	"github.com/standardbeagle/lcq/internal/project"

	"github.com/urfave/cli/v2"
)

// maxStdinSource bounds `lcq score` input; the scorer rejects larger
// sources anyway.
const maxStdinSource = 64 << 20

func fileTimeout(cfg *config.Config) time.Duration {
	if cfg.Analysis.TimeoutMs > 0 {
		return time.Duration(cfg.Analysis.TimeoutMs) * time.Millisecond
	}
	return project.DefaultFileTimeout
}

func formatterFor(c *cli.Context, showMetrics bool) (*display.ReportFormatter, error) {
	format, err := display.ParseFormat(c.String("format"))
	if err != nil {
		return nil, err
	}
	return display.NewReportFormatter(display.FormatterOptions{
		Format:      format,
		ShowMetrics: showMetrics,
		MaxFiles:    c.Int("max-files"),
	}), nil
}

func analyzeCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("analyze requires exactly one file argument")
	}
	path := c.Args().First()

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	formatter, err := formatterFor(c, c.Bool("metrics"))
	if err != nil {
		return err
	}

	lang, ok := parser.FromPath(path)
	if !ok {
		return fmt.Errorf("unsupported file type: %s", path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	scorer := analysis.NewScorer(analysis.FromConfig(cfg)...)
	report, err := scorer.ReportWithTimeout(c.Context, string(content), lang, path, fileTimeout(cfg))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, formatter.FormatScore(path, report.Score, report.Metrics))
	return nil
}

func scoreCommand(c *cli.Context) error {
	if c.NArg() > 1 || (c.NArg() == 1 && c.Args().First() != "-") {
		return fmt.Errorf("score reads source from stdin; pass no argument or '-'")
	}
	lang, err := parser.FromName(c.String("lang"))
	if err != nil {
		return err
	}
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	formatter, err := formatterFor(c, false)
	if err != nil {
		return err
	}

	source, err := io.ReadAll(io.LimitReader(c.App.Reader, maxStdinSource))
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}

	scorer := analysis.NewScorer(analysis.FromConfig(cfg)...)
	score, err := scorer.AnalyzeWithTimeout(c.Context, string(source), lang, c.String("path"), fileTimeout(cfg))
	if err != nil {
		return err
	}
	label := c.String("path")
	if label == "" {
		label = "<stdin>"
	}
	fmt.Fprintln(c.App.Writer, formatter.FormatScore(label, score, nil))
	return nil
}

// openProjectCache returns the cache at cfg.CachePath, or a fresh one when
// the file is missing, stale or belongs to another root.
func openProjectCache(cfg *config.Config) *cache.ProjectCache {
	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	pc, err := cache.LoadWithTTL(cfg.CachePath(), ttl)
	if err != nil {
		debug.LogCache("ignoring unreadable cache: %v\n", err)
	}
	if pc == nil || pc.Root != cfg.Project.Root {
		pc = cache.NewProjectCache(cfg.Project.Root)
	}
	return pc
}

func useCache(c *cli.Context, cfg *config.Config) bool {
	if c.IsSet("cache") {
		return c.Bool("cache")
	}
	return cfg.Cache.Enabled
}

func projectCommand(c *cli.Context) error {
	cfg, err := rootArg(c)
	if err != nil {
		return err
	}
	formatter, err := formatterFor(c, false)
	if err != nil {
		return err
	}

	var pc *cache.ProjectCache
	if useCache(c, cfg) {
		pc = openProjectCache(cfg)
	}
	d := project.NewDriverFromConfig(cfg, pc)

	var res *project.Result
	if c.Bool("strict") {
		res, err = d.AnalyzeProjectStrict(c.Context, cfg.Project.Root)
	} else {
		res, err = d.AnalyzeProject(c.Context, cfg.Project.Root)
	}
	if res == nil {
		return err
	}

	if pc != nil {
		keep := make([]string, 0, len(res.Results)+len(res.Failures))
		for _, fr := range res.Results {
			keep = append(keep, fr.Path)
		}
		for _, ff := range res.Failures {
			keep = append(keep, ff.Path)
		}
		pc.Prune(keep)
		if saveErr := cache.Save(cfg.CachePath(), pc); saveErr != nil {
			fmt.Fprintf(c.App.ErrWriter, "Warning: %v\n", saveErr)
		}
	}

	fmt.Fprintln(c.App.Writer, formatter.FormatProject(res))
	return err
}

func watchCommand(c *cli.Context) error {
	cfg, err := rootArg(c)
	if err != nil {
		return err
	}

	debounce := time.Duration(cfg.Watch.DebounceMs) * time.Millisecond
	if c.IsSet("debounce") {
		debounce = time.Duration(c.Int("debounce")) * time.Millisecond
	}

	var pc *cache.ProjectCache
	if cfg.Cache.Enabled {
		pc = openProjectCache(cfg)
	}
	d := project.NewDriverFromConfig(cfg, pc)
	formatter := display.NewReportFormatter(display.FormatterOptions{Format: display.FormatCompact})
	out := c.App.Writer

	w, err := project.NewWatcher(d, cfg.Project.Root, debounce, func(res *project.Result, err error) {
		if err != nil {
			fmt.Fprintf(c.App.ErrWriter, "Re-analysis failed: %v\n", err)
			return
		}
		changed := make([]string, 0, len(res.Results)+len(res.Failures))
		for _, fr := range res.Results {
			changed = append(changed, fr.Path)
		}
		for _, ff := range res.Failures {
			changed = append(changed, ff.Path)
		}
		fmt.Fprintln(out, metrics.IncrementalUpdate(res.Root, changed))
		for _, fr := range res.Results {
			fmt.Fprintln(out, formatter.FormatScore(fr.Path, fr.Score, nil))
		}
		for _, ff := range res.Failures {
			fmt.Fprintf(out, "%s failed: %v\n", ff.Path, ff.Err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	w.OnRemove(func(path string) {
		fmt.Fprintf(out, "%s removed\n", path)
	})

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := w.Start(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", cfg.Project.Root)
	if pc != nil && pc.Len() > 0 {
		if stale := pc.ChangedFiles(""); len(stale) > 0 {
			fmt.Fprintf(out, "Changed since last run: %s\n", metrics.IncrementalUpdate(cfg.Project.Root, stale))
		}
	}
	<-ctx.Done()

	err = w.Stop()
	if pc != nil {
		if saveErr := cache.Save(cfg.CachePath(), pc); saveErr != nil {
			fmt.Fprintf(c.App.ErrWriter, "Warning: %v\n", saveErr)
		}
	}
	return err
}

func hookCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		// the hook must still answer; fall back to defaults
		debug.LogHook("config: %v\n", err)
		cfg = config.Default("")
		config.ApplyEnv(cfg)
	}

	results := cache.NewResultCache(cache.DefaultResultCacheConfig())
	defer results.Close()

	return hook.NewRunnerFromConfig(cfg, results).Handle(c.Context, c.App.Reader, c.App.Writer)
}

func mcpCommand(c *cli.Context) error {
	// Enable MCP mode to suppress all debug output
	debug.SetMCPMode(true)

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return debug.Fatal("failed to load config: %v\n", err)
	}
	server, err := mcp.NewServer(cfg)
	if err != nil {
		return debug.Fatal("failed to create MCP server: %v\n", err)
	}
	defer server.Close()

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return debug.Fatal("MCP server error: %v\n", err)
		}
		return nil
	case sig := <-sigChan:
		debug.LogMCP("Received signal %v, shutting down gracefully...\n", sig)
		cancel()

		shutdownTimer := time.NewTimer(2 * time.Second)
		defer shutdownTimer.Stop()
		select {
		case <-errChan:
			debug.LogMCP("Server shutdown completed\n")
		case <-shutdownTimer.C:
			debug.LogMCP("Graceful shutdown timeout, forcing exit\n")
		}
		return nil
	}
}

func languagesCommand(c *cli.Context) error {
	out := c.App.Writer
	for _, lang := range parser.All() {
		engine := "dedicated"
		if parser.IsParserBacked(lang) {
			engine = "tree-sitter"
		}
		fmt.Fprintf(out, "%-12s %-12s %s\n", parser.DisplayName(lang), engine, strings.Join(parser.Extensions(lang), " "))
	}
	return nil
}
