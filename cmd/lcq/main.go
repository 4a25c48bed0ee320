package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/standardbeagle/lcq/internal/config"
	"github.com/standardbeagle/lcq/internal/debug"
	"github.com/standardbeagle/lcq/internal/version"

	"github.com/urfave/cli/v2"
)

var Version = version.Version

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")
	rootFlag := c.String("root")

	var absRoot string
	if rootFlag != "" {
		// Convert to absolute path to ensure consistent path handling
		abs, err := filepath.Abs(rootFlag)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root path %q: %w", rootFlag, err)
		}
		absRoot = abs
	}

	cfg, err := config.LoadWithRoot(configPath, absRoot)
	if err != nil {
		if configPath == "" {
			configPath = config.ConfigFileName
		}
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		cfg.Exclude = config.DeduplicatePatterns(append(cfg.Exclude, excludeFlags...))
	}
	if absRoot != "" {
		cfg.Project.Root = absRoot
		cfg.Project.Name = filepath.Base(absRoot)
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// rootArg resolves a positional [root] argument, falling back to the
// configured project root.
func rootArg(c *cli.Context) (*config.Config, error) {
	if c.NArg() == 0 {
		return loadConfigWithOverrides(c)
	}
	abs, err := filepath.Abs(c.Args().First())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path %q: %w", c.Args().First(), err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("project root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project root %s is not a directory", abs)
	}
	if err := c.Set("root", abs); err != nil {
		return nil, err
	}
	return loadConfigWithOverrides(c)
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: text, json or compact",
		Value:   "text",
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:                   "lcq",
		Usage:                  "Lightning fast code quality scoring for AI assistants",
		Version:                Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (defaults to <root>/" + config.ConfigFileName + ")",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory (overrides config)",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude files matching glob patterns (e.g., --exclude '**/generated/**')",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Write debug output to stderr",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "analyze",
				Aliases:   []string{"a"},
				Usage:     "Score a single file",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					formatFlag(),
					&cli.BoolFlag{
						Name:    "metrics",
						Aliases: []string{"m"},
						Usage:   "Include complexity metrics",
					},
				},
				Action: analyzeCommand,
			},
			{
				Name:      "score",
				Usage:     "Score source read from stdin",
				ArgsUsage: "[-]",
				Flags: []cli.Flag{
					formatFlag(),
					&cli.StringFlag{
						Name:     "lang",
						Aliases:  []string{"l"},
						Usage:    "Language name or extension (python, js, tsx, go, ...)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "path",
						Usage: "Path used to label issues and pick a grammar dialect",
					},
				},
				Action: scoreCommand,
			},
			{
				Name:      "project",
				Aliases:   []string{"p"},
				Usage:     "Analyse every source file under a root",
				ArgsUsage: "[root]",
				Flags: []cli.Flag{
					formatFlag(),
					&cli.BoolFlag{
						Name:  "strict",
						Usage: "Fail when any file could not be analysed",
					},
					&cli.BoolFlag{
						Name:  "cache",
						Usage: "Reuse and update the project cache (defaults to the config setting)",
					},
					&cli.IntFlag{
						Name:  "max-files",
						Usage: "Files listed in text output (0 = all)",
					},
				},
				Action: projectCommand,
			},
			{
				Name:      "watch",
				Aliases:   []string{"w"},
				Usage:     "Re-analyse source files as they change",
				ArgsUsage: "[root]",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "debounce",
						Usage: "Debounce window in milliseconds (defaults to the config setting)",
					},
				},
				Action: watchCommand,
			},
			{
				Name:   "hook",
				Usage:  "Run as a PostToolUse hook: read the event on stdin, write the envelope to stdout",
				Action: hookCommand,
			},
			{
				Name:   "mcp",
				Usage:  "Start the MCP server on stdio",
				Action: mcpCommand,
			},
			{
				Name:   "languages",
				Usage:  "List supported languages and extensions",
				Action: languagesCommand,
			},
			{
				Name:  "version",
				Usage: "Show version and build information",
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, version.FullInfo())
					return nil
				},
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				debug.EnableDebug = "true"
				debug.SetDebugOutput(c.App.ErrWriter)
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			return cli.ShowAppHelp(c)
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}
