// Package ucurve implements the U-curve line selector: when a leaf text
// block exceeds its budget, bias toward keeping head and tail lines,
// folding the middle.
package ucurve

import (
	"math"
	"sort"

	"github.com/horiacristescu/nub/internal/tree"
)

// DefaultBeta is the default U-curve exponent.
const DefaultBeta = 2.0

// FoldSpan describes one contiguous run of elided lines.
type FoldSpan struct {
	StartLine int // 1-indexed, inclusive
	EndLine   int
	Count     int
}

// Select picks which of lines to keep to fit a target of k output
// lines, returning the kept lines in source order plus fold spans for
// each maximal gap of dropped lines.
func Select(lines []tree.BodyLine, k int, beta float64) (kept []tree.BodyLine, folds []FoldSpan) {
	l := len(lines)
	if l == 0 {
		return nil, nil
	}
	if beta <= 0 {
		beta = DefaultBeta
	}
	if k >= l {
		return lines, nil
	}
	if k < 2 {
		folds = foldGaps(lines, map[int]bool{0: true})
		return lines[:1], folds
	}

	type weighted struct {
		idx int
		w   float64
	}
	ws := make([]weighted, l)
	for i := 0; i < l; i++ {
		x := float64(i) / float64(l-1)
		if l == 1 {
			x = 0
		}
		ws[i] = weighted{idx: i, w: u(x, beta)}
	}
	sort.SliceStable(ws, func(a, b int) bool {
		if ws[a].w != ws[b].w {
			return ws[a].w > ws[b].w
		}
		return ws[a].idx < ws[b].idx // stable tie-break by original order
	})

	keepSet := make(map[int]bool, k)
	for i := 0; i < k && i < len(ws); i++ {
		keepSet[ws[i].idx] = true
	}

	keptIdx := make([]int, 0, k)
	for i := range lines {
		if keepSet[i] {
			keptIdx = append(keptIdx, i)
		}
	}
	sort.Ints(keptIdx)

	kept = make([]tree.BodyLine, 0, len(keptIdx))
	for _, i := range keptIdx {
		kept = append(kept, lines[i])
	}
	folds = foldGaps(lines, keepSet)
	return kept, folds
}

// u is the U-shaped weight function: max((1-x)^beta, x^beta).
func u(x, beta float64) float64 {
	return math.Max(math.Pow(max0(1-x), beta), math.Pow(max0(x), beta))
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// foldGaps walks lines in order and emits one FoldSpan per maximal run
// of indices absent from keepSet.
func foldGaps(lines []tree.BodyLine, keepSet map[int]bool) []FoldSpan {
	var folds []FoldSpan
	inGap := false
	var start int
	for i, bl := range lines {
		if keepSet[i] {
			if inGap {
				folds = append(folds, FoldSpan{
					StartLine: lines[start].Number,
					EndLine:   lines[i-1].Number,
					Count:     i - start,
				})
				inGap = false
			}
			continue
		}
		if !inGap {
			inGap = true
			start = i
		}
		_ = bl
	}
	if inGap {
		last := len(lines) - 1
		folds = append(folds, FoldSpan{
			StartLine: lines[start].Number,
			EndLine:   lines[last].Number,
			Count:     last - start + 1,
		})
	}
	return folds
}
