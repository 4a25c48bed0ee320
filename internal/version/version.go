package version

import (
	"crypto/sha256"
	"fmt"
	"runtime/debug"
	"sync"
)

// Version is the current semantic version of lcq
const Version = "0.3.0"

// Set with -ldflags "-X github.com/standardbeagle/lcq/internal/version.GitCommit=..."
var (
	BuildDate = "development"
	GitCommit = "unknown"
)

// Info returns the bare version string
func Info() string {
	return Version
}

// FullInfo returns the version with build metadata
func FullInfo() string {
	return "Lightning Code Quality " + Version + " (commit: " + GitCommit + ", built: " + BuildDate + ")"
}

var (
	buildID     string
	buildIDOnce sync.Once
)

// BuildID fingerprints the running binary from its Go version, module and
// VCS settings. Scores from two binaries with the same ID are comparable.
func BuildID() string {
	buildIDOnce.Do(func() {
		buildID = computeBuildID()
	})
	return buildID
}

func computeBuildID() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Version + "-" + GitCommit
	}

	h := sha256.New()
	h.Write([]byte(Version))
	h.Write([]byte(info.GoVersion))
	h.Write([]byte(info.Main.Path))
	h.Write([]byte(info.Main.Version))

	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision", "vcs.modified", "vcs.time":
			h.Write([]byte(s.Key))
			h.Write([]byte(s.Value))
		}
	}

	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}
