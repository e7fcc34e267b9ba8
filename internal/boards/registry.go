// Package boards enumerates the build targets known to the firmware tree.
// A board is a directory under a hardware-definition root that carries a main
// definition file; the registry only reads the filesystem, it owns nothing.
package boards

import (
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/fwbuild/internal/hwdef"
	"git.home.luguber.info/inful/fwbuild/internal/util/sets"
)

// Board is a single build target.
type Board struct {
	Name string
}

// Registry holds the known boards and the hardware-definition root
// directories they were discovered in.
type Registry struct {
	boards    []Board
	hwdefDirs []string
}

// Load scans each hwdef root directory for board subdirectories containing a
// main definition file. A non-empty allow-list restricts the result to the
// named boards.
func Load(hwdefDirs []string, allow []string) (*Registry, error) {
	if len(hwdefDirs) == 0 {
		return nil, fmt.Errorf("no hwdef directories configured")
	}

	allowed := sets.New(allow...)
	seen := sets.New[string]()
	var found []Board

	for _, dir := range hwdefDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to scan hwdef directory %s: %w", dir, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			name := entry.Name()
			if seen.Has(name) {
				continue
			}
			if len(allowed) > 0 && !allowed.Has(name) {
				continue
			}
			if _, err := os.Stat(filepath.Join(dir, name, hwdef.MainDefinition)); err != nil {
				continue
			}
			seen.Add(name)
			found = append(found, Board{Name: name})
		}
	}

	return &Registry{boards: found, hwdefDirs: hwdefDirs}, nil
}

// Boards returns the known boards in discovery order.
func (r *Registry) Boards() []Board {
	return r.boards
}

// HwdefDirs returns the hardware-definition root directories.
func (r *Registry) HwdefDirs() []string {
	return r.hwdefDirs
}
