package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/fwbuild/internal/logfields"
)

// Manager handles the scratch directory used for per-run artifacts such as
// process failure transcripts.
type Manager struct {
	baseDir string
	tempDir string
}

// NewManager creates a scratch directory manager rooted at baseDir.
// An empty baseDir falls back to the system temp directory.
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir}
}

// Create creates a timestamped scratch directory under the base directory.
func (m *Manager) Create() error {
	timestamp := time.Now().Format("20060102-150405")
	tempDir := filepath.Join(m.baseDir, fmt.Sprintf("fwbuild-%s", timestamp))

	if err := os.MkdirAll(tempDir, 0o750); err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}

	m.tempDir = tempDir
	slog.Debug("Created scratch directory", logfields.Path(tempDir))
	return nil
}

// GetPath returns the path to the scratch directory.
func (m *Manager) GetPath() string {
	return m.tempDir
}

// Cleanup removes the scratch directory and everything in it.
func (m *Manager) Cleanup() error {
	if m.tempDir == "" {
		return nil
	}

	if err := os.RemoveAll(m.tempDir); err != nil {
		return fmt.Errorf("failed to cleanup scratch directory: %w", err)
	}

	slog.Debug("Cleaned up scratch directory", logfields.Path(m.tempDir))
	m.tempDir = ""
	return nil
}
