package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IncrementalUpdate describes changed files as
// INCREMENTAL[MOD:<rel>:<size>b,...]. Paths that can no longer be
// stat'ed are left out.
func IncrementalUpdate(root string, changed []string) string {
	updates := make([]string, 0, len(changed))
	for _, p := range changed {
		full := p
		if !filepath.IsAbs(full) {
			full = filepath.Join(root, p)
		}
		info, err := os.Stat(full)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(root, full)
		if err != nil {
			rel = full
		}
		updates = append(updates, fmt.Sprintf("MOD:%s:%db", filepath.ToSlash(rel), info.Size()))
	}
	return "INCREMENTAL[" + strings.Join(updates, ",") + "]"
}
