package boards

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeBoard(t *testing.T, root, name string, withMain bool) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o750))
	if withMain {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "hwdef.dat"), []byte("MCU STM32\n"), 0o600))
	}
}

func names(r *Registry) []string {
	var out []string
	for _, b := range r.Boards() {
		out = append(out, b.Name)
	}
	return out
}

func TestLoad_ScansBoardDirectories(t *testing.T) {
	root := t.TempDir()
	makeBoard(t, root, "CubeOrange", true)
	makeBoard(t, root, "MatekF405", true)
	makeBoard(t, root, "EmptyDir", false) // no hwdef.dat, not a board

	r, err := Load([]string{root}, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"CubeOrange", "MatekF405"}, names(r))
	assert.Equal(t, []string{root}, r.HwdefDirs())
}

func TestLoad_AllowListRestricts(t *testing.T) {
	root := t.TempDir()
	makeBoard(t, root, "CubeOrange", true)
	makeBoard(t, root, "MatekF405", true)

	r, err := Load([]string{root}, []string{"MatekF405"})
	require.NoError(t, err)
	assert.Equal(t, []string{"MatekF405"}, names(r))
}

func TestLoad_MultipleRootsDeduplicated(t *testing.T) {
	root1 := t.TempDir()
	root2 := t.TempDir()
	makeBoard(t, root1, "CubeOrange", true)
	makeBoard(t, root2, "CubeOrange", true)
	makeBoard(t, root2, "Periph", true)

	r, err := Load([]string{root1, root2}, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"CubeOrange", "Periph"}, names(r))
}

func TestLoad_MissingRootIsSkipped(t *testing.T) {
	root := t.TempDir()
	makeBoard(t, root, "CubeOrange", true)

	r, err := Load([]string{filepath.Join(root, "nope"), root}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"CubeOrange"}, names(r))
}

func TestLoad_NoRootsConfigured(t *testing.T) {
	_, err := Load(nil, nil)
	require.Error(t, err)
}
