package format

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/horiacristescu/nub/internal/tree"
	"github.com/stretchr/testify/require"
)

func writeTestTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.txt"), []byte("world"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "ignored"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored", "c.txt"), []byte("skip"), 0o644))
	return dir
}

func TestFolderParseDirBuildsNestedTree(t *testing.T) {
	t.Parallel()
	dir := writeTestTree(t)
	root, err := NewFolder().ParseDir(dir, nil)
	require.NoError(t, err)
	require.Equal(t, tree.KindRoot, root.Kind)

	var names []string
	for _, c := range root.Children {
		names = append(names, c.Name)
	}
	require.Contains(t, names, "a.txt")
	require.Contains(t, names, "sub")
	require.Contains(t, names, "ignored")
}

func TestFolderParseDirHonorsExcludeGlobs(t *testing.T) {
	t.Parallel()
	dir := writeTestTree(t)
	root, err := NewFolder().ParseDir(dir, []string{"ignored", "ignored/**"})
	require.NoError(t, err)

	for _, c := range root.Children {
		require.NotEqual(t, "ignored", c.Name)
	}
}

func TestFolderParseDirSubdirHasChild(t *testing.T) {
	t.Parallel()
	dir := writeTestTree(t)
	root, err := NewFolder().ParseDir(dir, nil)
	require.NoError(t, err)

	var sub *tree.Node
	for _, c := range root.Children {
		if c.Name == "sub" {
			sub = c
		}
	}
	require.NotNil(t, sub)
	require.Len(t, sub.Children, 1)
	require.Equal(t, "b.txt", sub.Children[0].Name)
}

func TestFolderParseDirFillsPreviewAndGatesSizeOnThreshold(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "small.txt"), []byte("hello world"), 0o644))
	big := make([]byte, previewSizeThreshold+1)
	for i := range big {
		big[i] = 'x'
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "big.txt"), big, 0o644))

	root, err := NewFolder().ParseDir(dir, nil)
	require.NoError(t, err)

	var small, large *tree.Node
	for _, c := range root.Children {
		switch c.Name {
		case "small.txt":
			small = c
		case "big.txt":
			large = c
		}
	}
	require.NotNil(t, small)
	require.NotNil(t, large)

	require.Equal(t, "hello world", small.Preview)
	require.Equal(t, "small.txt", small.Signature)
	require.Contains(t, large.Signature, "big.txt (")
}
