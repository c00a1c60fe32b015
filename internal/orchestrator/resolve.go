package orchestrator

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// ResolveBinary locates the recorder executable: the configured path if
// set, then next to the running executable, then $PATH.
func ResolveBinary(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err != nil {
			return "", fmt.Errorf("recorder %s: %w", configured, err)
		}
		return configured, nil
	}

	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), RecorderBinary)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	path, err := exec.LookPath(RecorderBinary)
	if err != nil {
		return "", fmt.Errorf("%s not found next to this program or in PATH: %w", RecorderBinary, err)
	}
	return path, nil
}

// ArtifactPath returns the recording location inside dataDir.
func ArtifactPath(dataDir string) string {
	return filepath.Join(dataDir, ArtifactName)
}
