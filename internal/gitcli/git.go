// Package gitcli wraps the git command line for the version-control queries
// build automation needs: current branch, merge bases and changed-file lists.
// All commands are executed through the process runner so failures get the
// same transcript capture as every other subprocess.
package gitcli

import (
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"

	"git.home.luguber.info/inful/fwbuild/internal/procrun"
)

const label = "GIT"

// Client executes git queries in a fixed working directory.
type Client struct {
	runner *procrun.Runner
	dir    string
}

// New creates a git client running in dir. An empty dir means the current
// directory.
func New(runner *procrun.Runner, dir string) *Client {
	return &Client{runner: runner, dir: dir}
}

// CurrentBranchOrCommit returns the short symbolic branch name, falling back
// to the short commit hash when HEAD is detached. It fails only when both
// queries fail.
func (c *Client) CurrentBranchOrCommit() (string, error) {
	out, err := c.run([]string{"symbolic-ref", "--short", "HEAD"}, true)
	if err == nil {
		return strings.TrimSpace(out), nil
	}

	// Probably a detached-head state; use a short hash instead.
	out, err = c.run([]string{"rev-parse", "--short", "HEAD"}, false)
	if err != nil {
		return "", fmt.Errorf("failed to determine branch or commit: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// MergeBase returns the common-ancestor commit of two references.
func (c *Client) MergeBase(refA, refB string) (string, error) {
	out, err := c.run([]string{"merge-base", refA, refB}, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ChangedFiles returns the repository-relative paths that differ between two
// references. Renames and copies are reported by name only.
func (c *Client) ChangedFiles(baseRef, targetRef string) ([]string, error) {
	out, err := c.run([]string{"diff", "--name-only", baseRef, targetRef}, false)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		files = append(files, line)
	}
	return files, nil
}

// RepoRoot returns the root directory of the repository containing the
// client's working directory.
func (c *Client) RepoRoot() (string, error) {
	dir := c.dir
	if dir == "" {
		dir = "."
	}
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("failed to open repository at %s: %w", dir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to resolve repository worktree: %w", err)
	}
	return wt.Filesystem.Root(), nil
}

// run executes git with the given arguments, output captured. quiet
// suppresses the error-path transcript dump for probes whose failure is an
// expected outcome rather than a problem.
func (c *Client) run(args []string, quiet bool) (string, error) {
	cmdline := append([]string{"git"}, args...)
	return c.runner.Run(label, cmdline, procrun.Options{
		CaptureOnly:  true,
		QuietOnError: quiet,
		HideCommand:  quiet,
		Dir:          c.dir,
	})
}
