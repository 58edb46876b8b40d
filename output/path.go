package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPath derives the per-account destination inside the output
// directory. The default account gets the base name as-is; a prefixed
// account gets the lowercased prefix inserted before the extension, e.g.
// harvest_export_alice.csv for ALICE_.
func DefaultPath(outputDir, baseName, prefix string) string {
	if baseName == "" {
		baseName = "harvest_export.csv"
	}
	name := baseName
	if trimmed := strings.ToLower(strings.TrimSuffix(prefix, "_")); trimmed != "" {
		ext := filepath.Ext(baseName)
		name = strings.TrimSuffix(baseName, ext) + "_" + trimmed + ext
	}
	return filepath.Join(outputDir, name)
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", dir, err)
	}
	return nil
}
