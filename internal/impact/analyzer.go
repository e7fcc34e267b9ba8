// Package impact decides which boards must be rebuilt after a change.
//
// A board is affected when the transitive include set of its hardware
// definition (main or bootloader) intersects the set of hwdef files changed
// between two version-control references.
package impact

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/fwbuild/internal/boards"
	"git.home.luguber.info/inful/fwbuild/internal/hwdef"
	"git.home.luguber.info/inful/fwbuild/internal/logfields"
	"git.home.luguber.info/inful/fwbuild/internal/util/sets"
)

// ChangeSource supplies version-control queries. Implemented by
// gitcli.Client; kept narrow so tests can stub the repository.
type ChangeSource interface {
	MergeBase(refA, refB string) (string, error)
	ChangedFiles(baseRef, targetRef string) ([]string, error)
}

// Analyzer maps changed hwdef files to affected boards.
type Analyzer struct {
	vcs      ChangeSource
	registry *boards.Registry
	repoRoot string
}

// NewAnalyzer creates an analyzer. repoRoot anchors repository-relative
// changed paths; empty means the current directory.
func NewAnalyzer(vcs ChangeSource, registry *boards.Registry, repoRoot string) *Analyzer {
	return &Analyzer{vcs: vcs, registry: registry, repoRoot: repoRoot}
}

// FindModifiedBoards returns the names of all boards whose hardware
// definition is affected by changes between branch and master, sorted
// case-insensitively. With useMergeBase the comparison base is the merge-base
// commit of the two references, otherwise master is used directly.
func (a *Analyzer) FindModifiedBoards(branch, master string, useMergeBase bool) ([]string, error) {
	base := master
	if useMergeBase {
		var err error
		base, err = a.vcs.MergeBase(branch, master)
		if err != nil {
			return nil, fmt.Errorf("failed to find merge base of %s and %s: %w", branch, master, err)
		}
	}

	files, err := a.vcs.ChangedFiles(base, branch)
	if err != nil {
		return nil, fmt.Errorf("failed to list changed files: %w", err)
	}

	changed := filterHwdefPaths(files)
	if len(changed) == 0 {
		return nil, nil
	}
	for _, p := range changed {
		slog.Info("Modified hwdef", logfields.Path(p))
	}

	changedAbs := sets.New[string]()
	for _, p := range changed {
		changedAbs.Add(hwdef.Canonicalize(filepath.Join(a.repoRoot, p)))
	}

	var modified []string
	for _, board := range a.registry.Boards() {
		for _, dir := range a.registry.HwdefDirs() {
			mainPath := filepath.Join(dir, board.Name, hwdef.MainDefinition)
			if _, err := os.Stat(mainPath); err != nil {
				continue
			}
			includes := hwdef.ResolveIncludes(mainPath)
			blPath := filepath.Join(dir, board.Name, hwdef.BootloaderDefinition)
			if _, err := os.Stat(blPath); err == nil {
				includes.Union(hwdef.ResolveIncludes(blPath))
			}
			if includes.Intersects(changedAbs) {
				slog.Info("Board uses modified hwdef", logfields.Board(board.Name))
				modified = append(modified, board.Name)
				break
			}
		}
	}

	sort.SliceStable(modified, func(i, j int) bool {
		return strings.ToLower(modified[i]) < strings.ToLower(modified[j])
	})
	return modified, nil
}

// filterHwdefPaths keeps changed paths that belong to hardware-definition
// content: the path mentions hwdef and the filename carries one of the
// recognized definition suffixes.
func filterHwdefPaths(files []string) []string {
	var out []string
	for _, f := range files {
		f = strings.TrimSpace(f)
		if f == "" || !strings.Contains(f, "hwdef") {
			continue
		}
		if !hasHwdefSuffix(f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func hasHwdefSuffix(path string) bool {
	for _, s := range hwdef.Suffixes {
		if strings.HasSuffix(path, s) {
			return true
		}
	}
	return false
}
