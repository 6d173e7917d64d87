package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeFlagsWinOverBase(t *testing.T) {
	t.Parallel()
	base := Options{Temperature: 0.5, Width: 80}
	override := Options{Temperature: 0.9}
	merged := base.Merge(override)
	require.Equal(t, 0.9, merged.Temperature)
	require.Equal(t, 80, merged.Width)
}

func TestLoadMissingFileReturnsZeroValue(t *testing.T) {
	t.Parallel()
	o, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	require.Equal(t, Options{}, o)
}

func TestLoadParsesTOML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "nub.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
temperature = 0.7
width = 100
height = 30
line_numbers = true

[weights]
class = 4.0
`), 0o644))

	o, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 0.7, o.Temperature)
	require.Equal(t, 100, o.Width)
	require.True(t, o.LineNumbers)
	require.Equal(t, 4.0, o.Weights.Class)
}

func TestCharBudgetTotal(t *testing.T) {
	t.Parallel()
	require.Equal(t, 1920, CharBudget{Width: 80, Height: 24}.Total())
}
