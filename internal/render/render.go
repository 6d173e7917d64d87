// Package render implements the level-of-detail cascade: for a node and
// a character budget, pick the densest of Focus, Detailed, Regional,
// Overview, or Fold that fits, recursing into children when Detailed or
// Focus is chosen.
package render

import (
	"regexp"

	"github.com/horiacristescu/nub/internal/allocator"
	"github.com/horiacristescu/nub/internal/scorer"
	"github.com/horiacristescu/nub/internal/tree"
	"github.com/horiacristescu/nub/internal/ucurve"
)

// LoD names the level of detail chosen for a node.
type LoD int

const (
	LoDFold LoD = iota
	LoDOverview
	LoDRegional
	LoDDetailed
	LoDFocus
)

func (l LoD) String() string {
	switch l {
	case LoDFocus:
		return "focus"
	case LoDDetailed:
		return "detailed"
	case LoDRegional:
		return "regional"
	case LoDOverview:
		return "overview"
	default:
		return "fold"
	}
}

// Options bundles the scoring/allocation tunables threaded through
// every recursive call.
type Options struct {
	Alpha        float64
	GrepK        float64
	Temperature  float64
	MinLineChars int
	UBeta        float64
	Pattern      *regexp.Regexp
}

func DefaultOptions() Options {
	p := scorer.DefaultParams()
	return Options{
		Alpha:        p.Alpha,
		GrepK:        p.GrepK,
		Temperature:  allocator.DefaultTemperature,
		MinLineChars: allocator.DefaultMinLineChars,
		UBeta:        ucurve.DefaultBeta,
	}
}

func (o Options) scorerParams() scorer.Params {
	return scorer.Params{Alpha: o.Alpha, GrepK: o.GrepK, Pattern: o.Pattern}
}

// Node renders n within budget characters, choosing the densest LoD
// that fits. matches is the precomputed grep match count per node
// (nil-safe; pass scorer.MatchCounts(root, pattern)).
func Node(n *tree.Node, budget int, opts Options, matches map[*tree.Node]int) []tree.OutputLine {
	if budget <= 0 {
		return foldNode(n)
	}
	if fullRenderLen(n) <= budget {
		return renderFocus(n)
	}
	if len(n.Children) > 0 {
		if lines, ok := renderDetailedContainer(n, budget, opts, matches); ok {
			return lines
		}
	} else if lines, ok := renderDetailedLeaf(n, budget, opts); ok {
		return lines
	}
	if lines, ok := renderRegional(n, budget); ok {
		return lines
	}
	if lines, ok := renderOverview(n, budget); ok {
		return lines
	}
	return renderEllipsisOverview(n, budget)
}

// renderEllipsisOverview is the last resort before folding entirely: a
// budget too small even for the bare name gets a truncated name with a
// trailing ellipsis instead of disappearing or erroring out. Always
// succeeds for budget >= 1, which Node's own budget <= 0 guard already
// guarantees by the time this is reached.
func renderEllipsisOverview(n *tree.Node, budget int) []tree.OutputLine {
	name := n.Name
	if name == "" {
		name = n.Kind.String()
	}
	if len(name) <= budget {
		return []tree.OutputLine{{Line: n.Span.Start, Text: name, Kind: n.Kind, Score: n.IntrinsicWeight}}
	}
	if budget <= len("…") {
		return []tree.OutputLine{{Line: n.Span.Start, Text: name[:budget], Kind: n.Kind, Score: n.IntrinsicWeight}}
	}
	text := name[:budget-len("…")] + "…"
	return []tree.OutputLine{{Line: n.Span.Start, Text: text, Kind: n.Kind, Score: n.IntrinsicWeight}}
}

func signatureLine(n *tree.Node) tree.OutputLine {
	return tree.OutputLine{Line: n.Span.Start, Text: n.Signature, Score: n.IntrinsicWeight, Kind: n.Kind}
}

func foldNode(n *tree.Node) []tree.OutputLine {
	count := tree.TotalBodyLines(n)
	if count == 0 {
		count = n.Span.Len()
	}
	if count == 0 {
		count = 1
	}
	return []tree.OutputLine{{
		Line: n.Span.Start, Text: tree.FoldText(count), Kind: tree.KindFoldMarker, Score: n.IntrinsicWeight,
	}}
}

// fullRenderLen estimates the verbatim rendered size of n and every
// descendant: signature lines plus body lines, recursively.
func fullRenderLen(n *tree.Node) int {
	total := len(n.Signature)
	for _, bl := range n.BodyLines {
		total += len(bl.Text) + 1
	}
	for _, c := range n.Children {
		total += fullRenderLen(c) + 1
	}
	return total
}

func renderFocus(n *tree.Node) []tree.OutputLine {
	var out []tree.OutputLine
	if n.Signature != "" {
		out = append(out, signatureLine(n))
	}
	for _, bl := range n.BodyLines {
		out = append(out, tree.OutputLine{Line: float64(bl.Number), Text: bl.Text, Score: n.IntrinsicWeight, Kind: n.Kind})
	}
	for _, c := range n.Children {
		out = append(out, renderFocus(c)...)
	}
	return out
}

// renderDetailedContainer scores and allocates budget across children,
// recursing into each survivor, and folding the rest. Fails (returns
// ok=false) if signature alone already exceeds budget — the caller then
// tries Regional/Overview instead.
func renderDetailedContainer(n *tree.Node, budget int, opts Options, matches map[*tree.Node]int) ([]tree.OutputLine, bool) {
	if len(n.Signature) > budget {
		return nil, false
	}
	out := []tree.OutputLine{signatureLine(n)}
	remaining := budget - len(n.Signature)
	if remaining <= 0 || len(n.Children) == 0 {
		return out, true
	}

	scores := make([]float64, len(n.Children))
	params := opts.scorerParams()
	for i, c := range n.Children {
		scores[i] = scorer.Score(c, i, len(n.Children), params, matches)
	}
	shares := allocator.Allocate(remaining, scores, opts.MinLineChars, opts.Temperature)

	for i, c := range n.Children {
		if !shares[i].Survived {
			out = append(out, collapsedFold(c)...)
			continue
		}
		out = append(out, Node(c, shares[i].Chars, opts, matches)...)
	}
	if tree.TotalChars(out) > budget {
		return out, false
	}
	return out, true
}

// collapsedFold represents a dropped child as a single FoldMarker line.
func collapsedFold(n *tree.Node) []tree.OutputLine {
	return foldNode(n)
}

// renderDetailedLeaf renders signature + preview + a U-curve sketch of
// the body sized to the remaining budget. The preview is skipped when it
// does not fit. Fails if the signature alone, or the assembled sketch,
// overflows budget — the caller then tries Regional/Overview instead.
func renderDetailedLeaf(n *tree.Node, budget int, opts Options) ([]tree.OutputLine, bool) {
	if len(n.Signature) > budget {
		return nil, false
	}
	out := []tree.OutputLine{}
	used := 0
	if n.Signature != "" {
		out = append(out, signatureLine(n))
		used += len(n.Signature) + 1
	}
	if n.Preview != "" && n.Preview != n.Signature {
		if used+len(n.Preview) <= budget {
			out = append(out, tree.OutputLine{Line: n.Span.Start, Text: n.Preview, Kind: n.Kind, Score: n.IntrinsicWeight})
			used += len(n.Preview) + 1
		}
	}

	remaining := budget - used
	if remaining <= 0 || len(n.BodyLines) == 0 {
		return out, true
	}

	k := estimateLineCount(n.BodyLines, remaining)
	beta := opts.UBeta
	if beta <= 0 {
		beta = ucurve.DefaultBeta
	}
	kept, folds := ucurve.Select(n.BodyLines, k, beta)

	merged := mergeBodyAndFolds(kept, folds, n)
	out = append(out, merged...)
	if tree.TotalChars(out) > budget {
		return out, false
	}
	return out, true
}

// estimateLineCount derives a target output-line count from a
// character budget and the body's mean line width.
func estimateLineCount(lines []tree.BodyLine, budget int) int {
	if len(lines) == 0 {
		return 0
	}
	totalChars := 0
	for _, l := range lines {
		totalChars += len(l.Text) + 1
	}
	meanWidth := float64(totalChars) / float64(len(lines))
	if meanWidth <= 0 {
		meanWidth = 1
	}
	k := int(float64(budget) / meanWidth)
	if k < 0 {
		k = 0
	}
	if k > len(lines) {
		k = len(lines)
	}
	return k
}

func mergeBodyAndFolds(kept []tree.BodyLine, folds []ucurve.FoldSpan, n *tree.Node) []tree.OutputLine {
	type entry struct {
		line float64
		out  tree.OutputLine
	}
	entries := make([]entry, 0, len(kept)+len(folds))
	for _, bl := range kept {
		entries = append(entries, entry{
			line: float64(bl.Number),
			out:  tree.OutputLine{Line: float64(bl.Number), Text: bl.Text, Kind: n.Kind, Score: n.IntrinsicWeight},
		})
	}
	for _, f := range folds {
		mid := float64(f.StartLine) - 0.5
		entries = append(entries, entry{
			line: mid,
			out:  tree.OutputLine{Line: mid, Text: tree.FoldText(f.Count), Kind: tree.KindFoldMarker, Score: n.IntrinsicWeight},
		})
	}
	for i := 1; i < len(entries); i++ {
		j := i
		for j > 0 && entries[j-1].line > entries[j].line {
			entries[j-1], entries[j] = entries[j], entries[j-1]
			j--
		}
	}
	out := make([]tree.OutputLine, len(entries))
	for i, e := range entries {
		out[i] = e.out
	}
	return out
}

func renderRegional(n *tree.Node, budget int) ([]tree.OutputLine, bool) {
	sig := n.Signature
	if sig == "" {
		sig = n.Name
	}
	text := sig
	if n.Preview != "" && n.Preview != sig {
		text = sig + ": " + n.Preview
	}
	if len(text) > budget {
		return nil, false
	}
	return []tree.OutputLine{{Line: n.Span.Start, Text: text, Kind: n.Kind, Score: n.IntrinsicWeight}}, true
}

func renderOverview(n *tree.Node, budget int) ([]tree.OutputLine, bool) {
	name := n.Name
	if name == "" {
		name = n.Kind.String()
	}
	if len(name) > budget {
		return nil, false
	}
	return []tree.OutputLine{{Line: n.Span.Start, Text: name, Kind: n.Kind, Score: n.IntrinsicWeight}}, true
}
