package enforce

import (
	"strings"
	"testing"

	"github.com/horiacristescu/nub/internal/tree"
	"github.com/stretchr/testify/require"
)

func TestMergeAdjacentFolds(t *testing.T) {
	t.Parallel()
	lines := []tree.OutputLine{
		{Line: 1, Text: "a", Kind: tree.KindTextBlock},
		{Line: 2, Text: tree.FoldText(3), Kind: tree.KindFoldMarker},
		{Line: 5, Text: tree.FoldText(2), Kind: tree.KindFoldMarker},
		{Line: 8, Text: "b", Kind: tree.KindTextBlock},
	}
	merged := mergeAdjacentFolds(lines)
	require.Len(t, merged, 3)
	require.Equal(t, tree.FoldText(5), merged[1].Text)
}

func TestMergeFoldsAcrossBlankLine(t *testing.T) {
	t.Parallel()
	lines := []tree.OutputLine{
		{Text: tree.FoldText(1), Kind: tree.KindFoldMarker},
		{Text: ""},
		{Text: tree.FoldText(1), Kind: tree.KindFoldMarker},
	}
	merged := mergeAdjacentFolds(lines)
	require.Len(t, merged, 1)
	require.Equal(t, tree.FoldText(2), merged[0].Text)
}

func TestTruncateOrWrapTruncatesByDefault(t *testing.T) {
	t.Parallel()
	lines := []tree.OutputLine{{Text: "0123456789"}}
	out := truncateOrWrap(lines, 5, false)
	require.Len(t, out, 1)
	require.LessOrEqual(t, len(out[0].Text), 5)
	require.True(t, strings.HasSuffix(out[0].Text, "…"))
}

func TestTruncateOrWrapWraps(t *testing.T) {
	t.Parallel()
	lines := []tree.OutputLine{{Line: 10, Text: "0123456789"}}
	out := truncateOrWrap(lines, 4, true)
	require.Greater(t, len(out), 1)
	for _, l := range out {
		require.LessOrEqual(t, len(l.Text), 4)
	}
	require.Equal(t, 10.0, out[0].Line)
	require.Greater(t, out[1].Line, 10.0)
}

func TestEnforceRespectsHardCap(t *testing.T) {
	t.Parallel()
	lines := []tree.OutputLine{
		{Line: 1, Text: "aaaaaaaaaa", Kind: tree.KindTextBlock, Score: 1},
		{Line: 2, Text: "bbbbbbbbbb", Kind: tree.KindTextBlock, Score: 5},
		{Line: 3, Text: "class Foo:", Kind: tree.KindContainer, Score: 9},
	}
	out := Enforce(lines, Options{HardCap: 15})
	require.LessOrEqual(t, tree.TotalChars(out), 15)
}

func TestEnforceEvictsLowScoreFirst(t *testing.T) {
	t.Parallel()
	lines := []tree.OutputLine{
		{Line: 1, Text: "low", Kind: tree.KindTextBlock, Score: 1},
		{Line: 2, Text: "high", Kind: tree.KindTextBlock, Score: 100},
	}
	out := Enforce(lines, Options{HardCap: 5})
	require.Len(t, out, 1)
	require.Equal(t, "high", out[0].Text)
}

func TestEnforceNoAdjacentFoldMarkersInOutput(t *testing.T) {
	t.Parallel()
	lines := []tree.OutputLine{
		{Line: 1, Text: tree.FoldText(2), Kind: tree.KindFoldMarker, Score: 0},
		{Line: 2, Text: tree.FoldText(2), Kind: tree.KindFoldMarker, Score: 0},
		{Line: 3, Text: "kept", Kind: tree.KindDefinition, Score: 100},
	}
	out := Enforce(lines, Options{})
	for i := 1; i < len(out); i++ {
		require.False(t, out[i-1].Kind == tree.KindFoldMarker && out[i].Kind == tree.KindFoldMarker)
	}
}

func TestDedupe3gram(t *testing.T) {
	t.Parallel()
	lines := []tree.OutputLine{
		{Text: "the quick brown fox"},
		{Text: "the quick brown fox"},
	}
	out := dedupe3gram(lines)
	require.Len(t, out, 1)
}

func TestPrefixLineNumbers(t *testing.T) {
	t.Parallel()
	lines := []tree.OutputLine{{Line: 42, Text: "hello"}, {Line: 42.5, Text: "world"}}
	out := prefixLineNumbers(lines, 0)
	require.Equal(t, "42: hello", out[0].Text)
	require.Equal(t, "42.5: world", out[1].Text)
}
