package tree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFoldTextSingleFormat(t *testing.T) {
	t.Parallel()
	require.Equal(t, "[…3 more lines…]", FoldText(3))
}

func TestAssignDepths(t *testing.T) {
	t.Parallel()
	root := &Node{Span: LineSpan{Start: 1, End: 10}, Children: []*Node{
		{Span: LineSpan{Start: 1, End: 5}, Children: []*Node{
			{Span: LineSpan{Start: 2, End: 3}},
		}},
		{Span: LineSpan{Start: 6, End: 10}},
	}}
	AssignDepths(root)
	require.Equal(t, 0, root.Depth)
	require.Equal(t, 1, root.Children[0].Depth)
	require.Equal(t, 2, root.Children[0].Children[0].Depth)
	require.Equal(t, 1, root.Children[1].Depth)
}

func TestValidateDetectsOverlap(t *testing.T) {
	t.Parallel()
	root := &Node{Span: LineSpan{Start: 1, End: 10}, Children: []*Node{
		{Name: "a", Span: LineSpan{Start: 1, End: 5}},
		{Name: "b", Span: LineSpan{Start: 4, End: 8}},
	}}
	require.Error(t, Validate(root))
}

func TestValidateDetectsOutOfBounds(t *testing.T) {
	t.Parallel()
	root := &Node{Span: LineSpan{Start: 1, End: 5}, Children: []*Node{
		{Name: "a", Span: LineSpan{Start: 1, End: 9}},
	}}
	require.Error(t, Validate(root))
}

func TestValidateOK(t *testing.T) {
	t.Parallel()
	root := &Node{Span: LineSpan{Start: 1, End: 10}, Children: []*Node{
		{Name: "a", Span: LineSpan{Start: 1, End: 5}},
		{Name: "b", Span: LineSpan{Start: 6, End: 10}},
	}}
	require.NoError(t, Validate(root))
}

func TestTotalBodyLines(t *testing.T) {
	t.Parallel()
	root := &Node{Children: []*Node{
		{BodyLines: []BodyLine{{Number: 1, Text: "a"}, {Number: 2, Text: "b"}}},
		{BodyLines: []BodyLine{{Number: 3, Text: "c"}}},
	}}
	require.Equal(t, 3, TotalBodyLines(root))
}

func TestPruneClipsSpanAndBody(t *testing.T) {
	t.Parallel()
	root := &Node{
		Kind: KindRoot,
		Span: LineSpan{Start: 1, End: 5},
		Children: []*Node{
			{Kind: KindTextBlock, Span: LineSpan{Start: 1, End: 5}, BodyLines: []BodyLine{
				{Number: 1, Text: "one"},
				{Number: 2, Text: "two"},
				{Number: 3, Text: "three"},
				{Number: 4, Text: "four"},
				{Number: 5, Text: "five"},
			}},
		},
	}
	pruned := Prune(root, 2, 4)
	require.Len(t, pruned.Children, 1)
	require.Len(t, pruned.Children[0].BodyLines, 3)
	require.Equal(t, 2, pruned.Children[0].BodyLines[0].Number)
	require.Equal(t, 4, pruned.Children[0].BodyLines[2].Number)
}

func TestPruneDropsOutOfRangeSubtree(t *testing.T) {
	t.Parallel()
	root := &Node{
		Kind: KindRoot,
		Span: LineSpan{Start: 1, End: 20},
		Children: []*Node{
			{Name: "a", Span: LineSpan{Start: 1, End: 5}},
			{Name: "b", Span: LineSpan{Start: 15, End: 20}},
		},
	}
	pruned := Prune(root, 1, 5)
	require.Len(t, pruned.Children, 1)
	require.Equal(t, "a", pruned.Children[0].Name)
}

func TestTotalChars(t *testing.T) {
	t.Parallel()
	lines := []OutputLine{{Text: "abc"}, {Text: "de"}}
	require.Equal(t, 3+2+1, TotalChars(lines))
}
