package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "master", cfg.MasterBranch)
	assert.Contains(t, cfg.HwdefDirs, "libraries/AP_HAL_ChibiOS/hwdef")
	assert.Empty(t, cfg.Boards)
	assert.Empty(t, cfg.ScratchDir)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fwbuild.yaml")
	content := `
hwdef_dirs:
  - custom/hwdef
boards:
  - CubeOrange
master_branch: main
scratch_dir: /var/tmp/fwbuild
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"custom/hwdef"}, cfg.HwdefDirs)
	assert.Equal(t, []string{"CubeOrange"}, cfg.Boards)
	assert.Equal(t, "main", cfg.MasterBranch)
	assert.Equal(t, "/var/tmp/fwbuild", cfg.ScratchDir)
}

func TestLoad_ExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("FWBUILD_TEST_SCRATCH", "/tmp/from-env")

	path := filepath.Join(t.TempDir(), "fwbuild.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scratch_dir: ${FWBUILD_TEST_SCRATCH}\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-env", cfg.ScratchDir)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fwbuild.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hwdef_dirs: [unclosed\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}
