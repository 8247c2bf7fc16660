package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPersistsAcrossRestarts(t *testing.T) {
	dir := t.TempDir()

	first, err := Load(dir, "test rig")
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := Load(dir, "test rig")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLoadCreatesStateDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")

	id, err := Load(dir, "")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	raw, err := os.ReadFile(filepath.Join(dir, idFileName))
	require.NoError(t, err)
	assert.Contains(t, string(raw), id)
}

func TestWipedStateDirYieldsNewIdentity(t *testing.T) {
	dir := t.TempDir()

	first, err := Load(dir, "")
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, idFileName)))

	second, err := Load(dir, "")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestBlankIDFileRegenerates(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, idFileName), []byte("  \n"), 0o644))

	id, err := Load(dir, "")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}
