package format

import (
	"testing"

	"github.com/horiacristescu/nub/internal/tree"
	"github.com/stretchr/testify/require"
)

const samplePython = `import os
import sys

class Greeter:
    def __init__(self, name):
        self.name = name

    def greet(self):
        return "hello " + self.name


def standalone():
    return 42
`

func TestPythonParseBuildsModuleTree(t *testing.T) {
	t.Parallel()
	root, err := NewPython().Parse("greeter.py", []byte(samplePython))
	require.NoError(t, err)
	require.Equal(t, tree.KindRoot, root.Kind)

	var names []string
	for _, c := range root.Children {
		names = append(names, c.Name)
	}
	require.Contains(t, names, "imports")
	require.Contains(t, names, "Greeter")
	require.Contains(t, names, "standalone")
}

func TestPythonParseCollapsesImports(t *testing.T) {
	t.Parallel()
	root, err := NewPython().Parse("greeter.py", []byte(samplePython))
	require.NoError(t, err)
	imports := root.Children[0]
	require.Equal(t, tree.KindImport, imports.Kind)
	require.Len(t, imports.BodyLines, 2)
	require.Equal(t, "[2 imports, lines 1-2]", imports.Signature)
}

func TestPythonParseClassHasMethodChildren(t *testing.T) {
	t.Parallel()
	root, err := NewPython().Parse("greeter.py", []byte(samplePython))
	require.NoError(t, err)

	var class *tree.Node
	for _, c := range root.Children {
		if c.Name == "Greeter" {
			class = c
		}
	}
	require.NotNil(t, class)
	require.Equal(t, tree.KindContainer, class.Kind)
	require.Len(t, class.Children, 2)
	require.Equal(t, "__init__", class.Children[0].Name)
	require.Equal(t, tree.KindDefinition, class.Children[1].Kind)
}

func TestPythonParseRejectsSyntaxErrors(t *testing.T) {
	t.Parallel()
	_, err := NewPython().Parse("broken.py", []byte("def f(:\n    pass\n"))
	require.Error(t, err)
}

func TestPythonParseAssignsDepths(t *testing.T) {
	t.Parallel()
	root, err := NewPython().Parse("greeter.py", []byte(samplePython))
	require.NoError(t, err)
	require.Equal(t, 0, root.Depth)
	for _, c := range root.Children {
		require.Equal(t, 1, c.Depth)
	}
}
