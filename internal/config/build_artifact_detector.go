package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// BuildArtifactDetector reads build manifests (package.json, tsconfig.json,
// Cargo.toml, pyproject.toml) for declared output directories so generated
// code is not scored.
type BuildArtifactDetector struct {
	projectRoot string
}

func NewBuildArtifactDetector(projectRoot string) *BuildArtifactDetector {
	return &BuildArtifactDetector{projectRoot: projectRoot}
}

// DetectOutputDirectories returns "**/<dir>/**" globs for every output
// directory found.
func (d *BuildArtifactDetector) DetectOutputDirectories() []string {
	var dirs []string
	dirs = append(dirs, d.javaScriptOutputs()...)
	dirs = append(dirs, d.rustOutputs()...)
	dirs = append(dirs, d.pythonOutputs()...)

	patterns := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		dir = strings.Trim(strings.TrimPrefix(dir, "./"), "/\"' ")
		if dir == "" || dir == "." {
			continue
		}
		patterns = append(patterns, "**/"+dir+"/**")
	}
	return DeduplicatePatterns(patterns)
}

func (d *BuildArtifactDetector) read(name string) ([]byte, bool) {
	data, err := os.ReadFile(filepath.Join(d.projectRoot, name))
	return data, err == nil
}

func (d *BuildArtifactDetector) javaScriptOutputs() []string {
	var dirs []string

	if data, ok := d.read("package.json"); ok {
		var pkg struct {
			Scripts map[string]string `json:"scripts"`
			Build   struct {
				OutDir string `json:"outDir"`
			} `json:"build"`
		}
		if json.Unmarshal(data, &pkg) == nil {
			for _, script := range pkg.Scripts {
				parts := strings.Fields(script)
				for i, part := range parts {
					if (part == "--outDir" || part == "-outDir") && i+1 < len(parts) {
						dirs = append(dirs, parts[i+1])
					}
				}
			}
			dirs = append(dirs, pkg.Build.OutDir)
		}
	}

	if data, ok := d.read("tsconfig.json"); ok {
		var ts struct {
			CompilerOptions struct {
				OutDir string `json:"outDir"`
			} `json:"compilerOptions"`
		}
		if json.Unmarshal(data, &ts) == nil {
			dirs = append(dirs, ts.CompilerOptions.OutDir)
		}
	}
	return dirs
}

func (d *BuildArtifactDetector) rustOutputs() []string {
	data, ok := d.read("Cargo.toml")
	if !ok {
		return nil
	}
	var cargo struct {
		Build struct {
			TargetDir string `toml:"target-dir"`
		} `toml:"build"`
		Profile map[string]struct {
			TargetDir string `toml:"target-dir"`
		} `toml:"profile"`
	}
	if toml.Unmarshal(data, &cargo) != nil {
		return nil
	}
	dirs := []string{cargo.Build.TargetDir}
	for _, p := range cargo.Profile {
		dirs = append(dirs, p.TargetDir)
	}
	return dirs
}

func (d *BuildArtifactDetector) pythonOutputs() []string {
	data, ok := d.read("pyproject.toml")
	if !ok {
		return nil
	}
	var py struct {
		Tool struct {
			Poetry struct {
				Build struct {
					TargetDir string `toml:"target-dir"`
				} `toml:"build"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if toml.Unmarshal(data, &py) != nil {
		return nil
	}
	return []string{py.Tool.Poetry.Build.TargetDir}
}

// DeduplicatePatterns removes duplicates while keeping first-seen order
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]bool, len(patterns))
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if !seen[pattern] {
			seen[pattern] = true
			result = append(result, pattern)
		}
	}
	return result
}
