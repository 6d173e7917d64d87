package render

import (
	"testing"

	"github.com/horiacristescu/nub/internal/scorer"
	"github.com/horiacristescu/nub/internal/tree"
	"github.com/stretchr/testify/require"
)

func leafNode(name string, lineCount int) *tree.Node {
	body := make([]tree.BodyLine, lineCount)
	for i := range body {
		body[i] = tree.BodyLine{Number: i + 1, Text: "line content here " + name}
	}
	return &tree.Node{
		Kind:            tree.KindDefinition,
		Name:            name,
		Signature:       "func " + name + "()",
		Preview:         "does a thing",
		BodyLines:       body,
		Span:            tree.LineSpan{Start: 1, End: float64(lineCount)},
		IntrinsicWeight: scorer.DefaultWeights().Function,
	}
}

func TestNodeFocusWhenBudgetExceedsFullSize(t *testing.T) {
	t.Parallel()
	n := leafNode("small", 3)
	out := Node(n, 10000, DefaultOptions(), nil)
	require.Greater(t, len(out), 3)
}

func TestNodeFoldsWhenBudgetIsZero(t *testing.T) {
	t.Parallel()
	n := leafNode("tiny", 50)
	out := Node(n, 0, DefaultOptions(), nil)
	require.Len(t, out, 1)
	require.Equal(t, tree.KindFoldMarker, out[0].Kind)
}

func TestNodeOverviewForTightBudget(t *testing.T) {
	t.Parallel()
	n := leafNode("x", 100)
	out := Node(n, len(n.Name)+1, DefaultOptions(), nil)
	require.NotEmpty(t, out)
	require.LessOrEqual(t, tree.TotalChars(out), len(n.Name)+1)
}

func TestNodeContainerRecursesIntoChildren(t *testing.T) {
	t.Parallel()
	child1 := leafNode("a", 20)
	child2 := leafNode("b", 20)
	container := &tree.Node{
		Kind:            tree.KindContainer,
		Name:            "C",
		Signature:       "class C:",
		Children:        []*tree.Node{child1, child2},
		IntrinsicWeight: scorer.DefaultWeights().Class,
	}
	tree.AssignDepths(container)

	out := Node(container, 60, DefaultOptions(), nil)
	require.NotEmpty(t, out)
	require.Equal(t, "class C:", out[0].Text)
}

func TestNodeFullSizeWithinBudgetProducesVerbatimBody(t *testing.T) {
	t.Parallel()
	n := leafNode("verbatim", 2)
	full := fullRenderLen(n)
	out := Node(n, full+5, DefaultOptions(), nil)
	var bodyLines int
	for _, l := range out {
		if l.Kind == tree.KindDefinition {
			bodyLines++
		}
	}
	require.GreaterOrEqual(t, bodyLines, 2)
}
