// Package buildtool invokes the project's waf build tool through the process
// runner with a normalized environment so repeated builds of the same tree
// produce identical output.
package buildtool

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/fwbuild/internal/procrun"
)

const label = "WAF"

// Build-identity values pinned in the child environment. The firmware embeds
// version strings derived from git state; fixing them keeps binaries
// reproducible independent of the actual source tree state.
var pinnedEnv = map[string]string{
	"CHIBIOS_GIT_VERSION":  "12345678",
	"GIT_VERSION":          "abcdef",
	"GIT_VERSION_EXTENDED": "0123456789abcdef",
	"GIT_VERSION_INT":      "15",
}

// ToolchainError reports a cross-compiler toolchain directory that does not
// exist. Raised before anything is spawned.
type ToolchainError struct {
	Compiler string
	Path     string
}

func (e *ToolchainError) Error() string {
	return fmt.Sprintf("missing compiler toolchain %s (expected at %s)", e.Compiler, e.Path)
}

// InvokeOptions controls a single waf invocation.
type InvokeOptions struct {
	// Compiler selects a cross-compiler toolchain by name, e.g. "10".
	// Empty uses whatever is already on PATH.
	Compiler string
	// Dir is the source tree to build in. Empty means the current
	// directory.
	Dir string
}

// Waf invokes the waf build tool.
type Waf struct {
	runner *procrun.Runner
}

// New creates a waf wrapper around the given runner.
func New(runner *procrun.Runner) *Waf {
	return &Waf{runner: runner}
}

// Invoke runs waf with args. The important output is already streamed by the
// runner, so only success or failure is reported.
func (w *Waf) Invoke(args []string, opts InvokeOptions) error {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	// Prefer a local waf copy over the one inside the waf submodule.
	entry := "./waf"
	if _, err := os.Stat(filepath.Join(dir, "waf")); err != nil {
		entry = filepath.Join(".", "modules", "waf", "waf-light")
	}

	// Environment changes are scoped to the child's snapshot; the parent
	// process environment is never touched.
	env := os.Environ()
	for k, v := range pinnedEnv {
		env = overrideEnv(env, k, v)
	}

	if opts.Compiler != "" {
		gccPath, err := toolchainBinDir(opts.Compiler)
		if err != nil {
			return err
		}
		// Route the compiler through ccache with the toolchain first on
		// PATH.
		env = overrideEnv(env, "PATH", gccPath+string(os.PathListSeparator)+os.Getenv("PATH"))
		env = overrideEnv(env, "CC", "ccache arm-none-eabi-gcc")
		env = overrideEnv(env, "CXX", "ccache arm-none-eabi-g++")
	}

	cmdline := append([]string{entry}, args...)
	_, err := w.runner.Run(label, cmdline, procrun.Options{Dir: dir, Env: env})
	return err
}

// toolchainBinDir resolves the bin directory of the named toolchain from
// AP_GCC_HOME, falling back to $HOME/arm-gcc.
func toolchainBinDir(compiler string) (string, error) {
	gccHome := os.Getenv("AP_GCC_HOME")
	if gccHome == "" {
		gccHome = filepath.Join(os.Getenv("HOME"), "arm-gcc")
	}
	gccPath := filepath.Join(gccHome, compiler, "bin")
	if _, err := os.Stat(gccPath); err != nil {
		return "", &ToolchainError{Compiler: compiler, Path: gccPath}
	}
	return gccPath, nil
}

// overrideEnv replaces key in env or appends it when absent.
func overrideEnv(env []string, key, val string) []string {
	prefix := key + "="
	for i, kv := range env {
		if strings.HasPrefix(kv, prefix) {
			env[i] = prefix + val
			return env
		}
	}
	return append(env, prefix+val)
}
