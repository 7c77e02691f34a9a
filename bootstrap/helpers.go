package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// EnsureTextfileDir creates the directory holding the metrics textfile and
// verifies it is writable. This is a pre-flight check that runs before the
// scheduler starts.
func EnsureTextfileDir(path string, sugar *zap.SugaredLogger) (string, error) {
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s: %w", path, err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return dir, fmt.Errorf("failed to create directory %s: %w\n"+
			"  Remediation: Ensure the parent directory exists and is writable\n"+
			"  For Docker: Check volume mount permissions", dir, err)
	}

	probe, err := os.CreateTemp(dir, ".heartbeatd_write_test")
	if err != nil {
		return dir, fmt.Errorf("directory %s is not writable: %w\n"+
			"  Remediation: Check file system permissions or set metrics.textfile_path", dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())

	sugar.Infow("Metrics textfile directory ready", "path", dir)
	return dir, nil
}
