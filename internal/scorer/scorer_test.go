package scorer

import (
	"regexp"
	"testing"

	"github.com/horiacristescu/nub/internal/tree"
	"github.com/stretchr/testify/require"
)

func TestPositionalIsUShaped(t *testing.T) {
	t.Parallel()
	first := Positional(0, 10, 2.0)
	middle := Positional(5, 10, 2.0)
	last := Positional(9, 10, 2.0)
	require.Greater(t, first, middle)
	require.Greater(t, last, middle)
}

func TestPositionalSingleSibling(t *testing.T) {
	t.Parallel()
	require.Equal(t, 1.0, Positional(0, 1, 2.0))
}

func TestTopologicalDecaysWithDepth(t *testing.T) {
	t.Parallel()
	shallow := Topological(3.0, 0)
	deep := Topological(3.0, 3)
	require.Greater(t, shallow, deep)
}

func TestGrepBoostNoMatchesIsNeutral(t *testing.T) {
	t.Parallel()
	require.Equal(t, 1.0, GrepBoost(0, 2.0))
}

func TestGrepBoostIncreasesWithMatches(t *testing.T) {
	t.Parallel()
	require.Greater(t, GrepBoost(5, 2.0), GrepBoost(1, 2.0))
}

func TestMatchCountsAggregateBottomUp(t *testing.T) {
	t.Parallel()
	leaf := &tree.Node{BodyLines: []tree.BodyLine{{Text: "def auth():"}, {Text: "pass"}}}
	root := &tree.Node{Children: []*tree.Node{leaf}}
	re := regexp.MustCompile(`auth`)
	counts := scoreMatches(t, root, re)
	require.Equal(t, 1, counts[leaf])
	require.Equal(t, 1, counts[root])
}

func scoreMatches(t *testing.T, root *tree.Node, re *regexp.Regexp) map[*tree.Node]int {
	t.Helper()
	return MatchCounts(root, re)
}

func TestScoreNeverZero(t *testing.T) {
	t.Parallel()
	n := &tree.Node{IntrinsicWeight: 0, Depth: 100}
	s := Score(n, 5, 10, DefaultParams(), nil)
	require.Greater(t, s, 0.0)
}

func TestWeightForFallsBackToDefault(t *testing.T) {
	t.Parallel()
	require.Equal(t, 3.0, WeightFor(tree.KindContainer, Weights{}))
	require.Equal(t, 9.0, WeightFor(tree.KindContainer, Weights{Class: 9.0}))
}
