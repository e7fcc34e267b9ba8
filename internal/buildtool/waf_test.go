package buildtool

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/fwbuild/internal/procrun"
)

// writeFakeWaf installs a shell script at path that dumps selected child
// environment variables to dumpFile.
func writeFakeWaf(t *testing.T, path, dumpFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests use shell scripts")
	}
	script := "#!/bin/sh\n" +
		"echo \"GIT_VERSION=$GIT_VERSION\" > " + dumpFile + "\n" +
		"echo \"GIT_VERSION_INT=$GIT_VERSION_INT\" >> " + dumpFile + "\n" +
		"echo \"CC=$CC\" >> " + dumpFile + "\n" +
		"echo \"PATH=$PATH\" >> " + dumpFile + "\n"
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(script), 0o700))
}

func newTestWaf(t *testing.T) *Waf {
	t.Helper()
	return New(procrun.NewRunner(t.TempDir()).WithSink(&bytes.Buffer{}))
}

func TestInvoke_PinsBuildIdentityInChildOnly(t *testing.T) {
	dir := t.TempDir()
	dump := filepath.Join(t.TempDir(), "env.txt")
	writeFakeWaf(t, filepath.Join(dir, "waf"), dump)

	t.Setenv("GIT_VERSION", "untouched")

	err := newTestWaf(t).Invoke([]string{"configure"}, InvokeOptions{Dir: dir})
	require.NoError(t, err)

	content, readErr := os.ReadFile(dump)
	require.NoError(t, readErr)
	assert.Contains(t, string(content), "GIT_VERSION=abcdef")
	assert.Contains(t, string(content), "GIT_VERSION_INT=15")

	// The parent environment must not be mutated.
	assert.Equal(t, "untouched", os.Getenv("GIT_VERSION"))
}

func TestInvoke_FallsBackToSubmoduleEntryPoint(t *testing.T) {
	dir := t.TempDir()
	dump := filepath.Join(t.TempDir(), "env.txt")
	writeFakeWaf(t, filepath.Join(dir, "modules", "waf", "waf-light"), dump)

	err := newTestWaf(t).Invoke(nil, InvokeOptions{Dir: dir})
	require.NoError(t, err)

	_, statErr := os.Stat(dump)
	assert.NoError(t, statErr, "waf-light should have run")
}

func TestInvoke_CompilerToolchainRouting(t *testing.T) {
	dir := t.TempDir()
	dump := filepath.Join(t.TempDir(), "env.txt")
	writeFakeWaf(t, filepath.Join(dir, "waf"), dump)

	gccHome := t.TempDir()
	binDir := filepath.Join(gccHome, "10", "bin")
	require.NoError(t, os.MkdirAll(binDir, 0o750))
	t.Setenv("AP_GCC_HOME", gccHome)

	err := newTestWaf(t).Invoke([]string{"copter"}, InvokeOptions{Dir: dir, Compiler: "10"})
	require.NoError(t, err)

	content, readErr := os.ReadFile(dump)
	require.NoError(t, readErr)
	assert.Contains(t, string(content), "CC=ccache arm-none-eabi-gcc")
	assert.Contains(t, string(content), "PATH="+binDir+string(os.PathListSeparator))
}

func TestInvoke_MissingToolchainFailsBeforeSpawn(t *testing.T) {
	dir := t.TempDir()
	dump := filepath.Join(t.TempDir(), "env.txt")
	writeFakeWaf(t, filepath.Join(dir, "waf"), dump)

	t.Setenv("AP_GCC_HOME", filepath.Join(t.TempDir(), "empty"))

	err := newTestWaf(t).Invoke(nil, InvokeOptions{Dir: dir, Compiler: "10"})
	require.Error(t, err)

	var tcErr *ToolchainError
	require.True(t, errors.As(err, &tcErr), "expected *ToolchainError, got %T", err)
	assert.Equal(t, "10", tcErr.Compiler)
	assert.True(t, strings.HasSuffix(tcErr.Path, filepath.Join("10", "bin")))

	// Nothing was spawned.
	_, statErr := os.Stat(dump)
	assert.True(t, os.IsNotExist(statErr))
}

func TestInvoke_BuildFailureSurfacesExecError(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("tests use shell scripts")
	}
	dir := t.TempDir()
	script := "#!/bin/sh\necho build broke\nexit 1\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "waf"), []byte(script), 0o700))

	err := newTestWaf(t).Invoke(nil, InvokeOptions{Dir: dir})
	require.Error(t, err)

	var execErr *procrun.ExecError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, 1, execErr.ExitCode)
}
