// Package allocator implements softmax budget distribution:
// temperature-scaled softmax over child scores, integer floor with
// largest-remainder distribution, and an iterative minimum-line-floor
// reclaim for children too small to render.
package allocator

import (
	"math"
	"sort"
)

// DefaultTemperature is the default softmax temperature.
const DefaultTemperature = 0.5

// DefaultMinLineChars is the default minimum-line floor.
const DefaultMinLineChars = 8

// Share is one child's allocation result.
type Share struct {
	Chars    int
	Survived bool // false if this child was dropped below minLineChars
}

// Allocate distributes budget across len(scores) children. Postcondition:
// sum(Chars) <= budget; every surviving share has Chars >= minLineChars.
func Allocate(budget int, scores []float64, minLineChars int, temperature float64) []Share {
	n := len(scores)
	shares := make([]Share, n)
	if n == 0 || budget <= 0 {
		return shares
	}
	if minLineChars <= 0 {
		minLineChars = DefaultMinLineChars
	}
	if temperature <= 0 {
		temperature = DefaultTemperature
	}

	alive := make([]bool, n)
	for i := range alive {
		alive[i] = true
	}

	maxIterations := 1
	for (1 << maxIterations) < n {
		maxIterations++
	}
	maxIterations++ // at most log2(n)+1 reclaim passes

	for iter := 0; iter < maxIterations; iter++ {
		weights := softmax(scores, alive, temperature)
		chars := floorWithRemainder(budget, weights, alive)

		changed := false
		for i := 0; i < n; i++ {
			if !alive[i] {
				continue
			}
			shares[i] = Share{Chars: chars[i], Survived: chars[i] >= minLineChars}
			if !shares[i].Survived {
				shares[i].Chars = 0
				alive[i] = false
				changed = true
			}
		}
		if !changed {
			break
		}
		anyAlive := false
		for _, a := range alive {
			if a {
				anyAlive = true
				break
			}
		}
		if !anyAlive {
			break
		}
	}
	return shares
}

// softmax computes temperature-scaled softmax weights over the living
// indices only; dead indices get weight 0. Max-normalization keeps
// exp() numerically stable.
func softmax(scores []float64, alive []bool, temperature float64) []float64 {
	n := len(scores)
	weights := make([]float64, n)

	maxScore := math.Inf(-1)
	for i, s := range scores {
		if alive[i] && s > maxScore {
			maxScore = s
		}
	}
	if math.IsInf(maxScore, -1) {
		return weights
	}

	var sum float64
	exps := make([]float64, n)
	for i, s := range scores {
		if !alive[i] {
			continue
		}
		normalized := s / maxScore
		e := math.Exp(normalized / temperature)
		exps[i] = e
		sum += e
	}
	if sum <= 0 {
		return weights
	}
	for i := range weights {
		if alive[i] {
			weights[i] = exps[i] / sum
		}
	}
	return weights
}

// floorWithRemainder computes floor(budget*w_i) per index, then
// distributes the remainder characters by largest fractional part,
// stable tie-break by index.
func floorWithRemainder(budget int, weights []float64, alive []bool) []int {
	n := len(weights)
	chars := make([]int, n)
	fracs := make([]float64, n)
	used := 0
	for i, w := range weights {
		if !alive[i] {
			continue
		}
		raw := float64(budget) * w
		chars[i] = int(math.Floor(raw))
		fracs[i] = raw - math.Floor(raw)
		used += chars[i]
	}
	remainder := budget - used
	if remainder <= 0 {
		return chars
	}

	order := make([]int, 0, n)
	for i := range weights {
		if alive[i] {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return fracs[order[a]] > fracs[order[b]]
	})
	for k := 0; k < remainder && k < len(order); k++ {
		chars[order[k]]++
	}
	return chars
}
