// Package hwdef resolves hardware-definition files and their transitive
// includes. Hardware-definition files are line-oriented; a line of the form
// "include <relative-path>" pulls in another file relative to the including
// file's directory. Nothing else in the file format is interpreted here.
package hwdef

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"

	"git.home.luguber.info/inful/fwbuild/internal/util/sets"
)

// MainDefinition and friends are the recognized hardware-definition file
// names and suffixes.
const (
	MainDefinition       = "hwdef.dat"
	BootloaderDefinition = "hwdef-bl.dat"
)

// Suffixes lists the file-name suffixes that identify hardware-definition
// content in a changed-file list.
var Suffixes = []string{"hwdef.dat", "hwdef.inc", "hwdef-bl.dat", "hwdef-bl.inc"}

var includeRe = regexp.MustCompile(`^\s*include\s+(.+?)\s*$`)

// ResolveIncludes returns the set of canonical file paths reachable from path
// via include directives, including path itself. A missing file contributes
// no includes but is still recorded; optional bootloader definitions rely on
// this soft not-found behavior.
func ResolveIncludes(path string) sets.Set[string] {
	result := sets.New[string]()
	collect(path, sets.New[string](), result)
	return result
}

// collect walks the include graph. The visited set spans the whole resolution
// pass so cyclic or repeated includes degrade to inclusion-without-duplication
// instead of infinite recursion. Each file is recorded before its includes are
// followed, which keeps a self-including root in the result.
func collect(path string, visited, result sets.Set[string]) {
	path = Canonicalize(path)
	if visited.Has(path) {
		return
	}
	visited.Add(path)
	result.Add(path)

	f, err := os.Open(path)
	if err != nil {
		// Soft not-found: absent files contribute no includes.
		return
	}
	defer f.Close()

	dir := filepath.Dir(path)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m := includeRe.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		inc := m[1]
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(dir, inc)
		}
		collect(inc, visited, result)
	}
}

// Canonicalize makes path absolute and resolves symlinks when the file
// exists. Missing files keep their cleaned absolute form so set membership
// still behaves sensibly.
func Canonicalize(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
