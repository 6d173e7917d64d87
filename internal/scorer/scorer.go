// Package scorer computes the per-node importance signal the allocator
// distributes budget by. Three signals — positional, topological, grep
// — combine additively then multiplicatively; scores are always
// strictly positive so softmax never collapses.
package scorer

import (
	"math"
	"regexp"

	"github.com/horiacristescu/nub/internal/tree"
)

// Epsilon is the floor substituted for zero weights so a node can never
// contribute exactly zero score.
const Epsilon = 1e-6

// Weights overrides intrinsic_weight per node kind. A zero value for a
// kind falls back to DefaultWeights().
type Weights struct {
	Class    float64
	Function float64
	Heading  float64 // divided by the heading level for Markdown sections
	Import   float64
	Text     float64
}

// DefaultWeights returns the default intrinsic weights per node kind.
func DefaultWeights() Weights {
	return Weights{Class: 3.0, Function: 2.0, Heading: 2.5, Import: 0.3, Text: 1.0}
}

// Params bundles the tunables for Score.
type Params struct {
	Alpha   float64 // positional exponent, default 2.
	GrepK   float64 // grep boost coefficient, default 2.
	Pattern *regexp.Regexp
}

// DefaultParams returns the default scoring parameters.
func DefaultParams() Params {
	return Params{Alpha: 2.0, GrepK: 2.0}
}

// Positional returns the U-shaped positional score for sibling index i
// out of n total siblings: p(i,n) = max(f(i/n), f(1-i/n)),
// f(x) = (1-x)^alpha.
func Positional(i, n int, alpha float64) float64 {
	if n <= 1 {
		return 1.0
	}
	x := float64(i) / float64(n)
	f := func(v float64) float64 {
		base := 1 - v
		if base < 0 {
			base = 0
		}
		return math.Pow(base, alpha)
	}
	return math.Max(f(x), f(1-x))
}

// Topological returns intrinsic_weight / (1 + depth).
func Topological(intrinsicWeight float64, depth int) float64 {
	return intrinsicWeight / (1 + float64(depth))
}

// GrepBoost returns 1 for zero matches (no boost, never a penalty), and
// 1 + k*log(1+matches) otherwise.
func GrepBoost(matches int, k float64) float64 {
	if matches <= 0 {
		return 1
	}
	return 1 + k*math.Log1p(float64(matches))
}

// MatchCounts maps every node in the tree rooted at root to the number
// of pattern matches in its own body lines plus every descendant's.
// Computed once, bottom-up, so Score can look values up in O(1) instead
// of re-scanning the subtree per call.
func MatchCounts(root *tree.Node, pattern *regexp.Regexp) map[*tree.Node]int {
	counts := make(map[*tree.Node]int)
	if pattern == nil {
		return counts
	}
	var walk func(n *tree.Node) int
	walk = func(n *tree.Node) int {
		total := 0
		for _, bl := range n.BodyLines {
			total += len(pattern.FindAllStringIndex(bl.Text, -1))
		}
		for _, c := range n.Children {
			total += walk(c)
		}
		counts[n] = total
		return total
	}
	walk(root)
	return counts
}

// Score computes score = grep_boost * (positional + topological) for a
// node at sibling index i of n, using the precomputed match counts.
func Score(n *tree.Node, i, siblingCount int, params Params, matches map[*tree.Node]int) float64 {
	pos := Positional(i, siblingCount, params.Alpha)
	topo := Topological(n.IntrinsicWeight, n.Depth)
	boost := 1.0
	if params.Pattern != nil {
		boost = GrepBoost(matches[n], params.GrepK)
	}
	score := boost * (pos + topo)
	if score <= 0 {
		score = Epsilon
	}
	return score
}

// WeightFor resolves the intrinsic weight for a node kind given an
// override set, falling back to defaults for zero-valued overrides.
func WeightFor(k tree.Kind, w Weights) float64 {
	d := DefaultWeights()
	switch k {
	case tree.KindContainer:
		if w.Class != 0 {
			return w.Class
		}
		return d.Class
	case tree.KindDefinition:
		if w.Function != 0 {
			return w.Function
		}
		return d.Function
	case tree.KindSection:
		if w.Heading != 0 {
			return w.Heading
		}
		return d.Heading
	case tree.KindImport:
		if w.Import != 0 {
			return w.Import
		}
		return d.Import
	default:
		if w.Text != 0 {
			return w.Text
		}
		return d.Text
	}
}
