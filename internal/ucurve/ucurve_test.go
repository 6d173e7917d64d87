package ucurve

import (
	"fmt"
	"testing"

	"github.com/horiacristescu/nub/internal/tree"
	"github.com/stretchr/testify/require"
)

func lines(n int) []tree.BodyLine {
	out := make([]tree.BodyLine, n)
	for i := range out {
		out[i] = tree.BodyLine{Number: i + 1, Text: fmt.Sprintf("L%02d", i+1)}
	}
	return out
}

func TestSelectKeepsAllWhenKExceedsL(t *testing.T) {
	t.Parallel()
	ls := lines(10)
	kept, folds := Select(ls, 20, DefaultBeta)
	require.Equal(t, ls, kept)
	require.Empty(t, folds)
}

func TestSelectHeadAndTailBiasedS2(t *testing.T) {
	t.Parallel()
	ls := lines(100)
	kept, folds := Select(ls, 6, DefaultBeta)
	require.GreaterOrEqual(t, len(kept), 3)
	require.Equal(t, 1, kept[0].Number)
	require.Equal(t, 100, kept[len(kept)-1].Number)
	require.Len(t, folds, 1, "exactly one fold marker between head and tail runs")
	require.Greater(t, folds[0].StartLine, kept[0].Number)
	require.Less(t, folds[0].EndLine, kept[len(kept)-1].Number)
}

func TestSelectOrderMatchesSource(t *testing.T) {
	t.Parallel()
	ls := lines(50)
	kept, _ := Select(ls, 10, DefaultBeta)
	for i := 1; i < len(kept); i++ {
		require.Less(t, kept[i-1].Number, kept[i].Number)
	}
}

func TestSelectKLessThanTwoKeepsFirstLinePlusMarker(t *testing.T) {
	t.Parallel()
	ls := lines(20)
	kept, folds := Select(ls, 1, DefaultBeta)
	require.Len(t, kept, 1)
	require.Equal(t, 1, kept[0].Number)
	require.Len(t, folds, 1)
	require.Equal(t, 19, folds[0].Count)
}

func TestSelectEmptyInput(t *testing.T) {
	t.Parallel()
	kept, folds := Select(nil, 5, DefaultBeta)
	require.Nil(t, kept)
	require.Nil(t, folds)
}

func TestUWeightIsSymmetricUShape(t *testing.T) {
	t.Parallel()
	require.InDelta(t, u(0, 2), u(1, 2), 1e-9)
	require.Greater(t, u(0, 2), u(0.5, 2))
}
