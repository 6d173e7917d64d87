// Package tree defines the uniform node model that every Format parses
// into and the compression engine walks.
package tree

import "fmt"

// Kind tags the structural role of a Node. A closed set, matched with a
// switch rather than modeled via inheritance.
type Kind int

const (
	KindRoot Kind = iota
	KindContainer
	KindSection
	KindDefinition
	KindTextBlock
	KindImport
	KindFoldMarker
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindContainer:
		return "container"
	case KindSection:
		return "section"
	case KindDefinition:
		return "definition"
	case KindTextBlock:
		return "text"
	case KindImport:
		return "import"
	case KindFoldMarker:
		return "fold"
	default:
		return "unknown"
	}
}

// LineSpan is an inclusive, 1-indexed source line range. End may be
// fractional (e.g. 80.5) to represent a mid-line cut from range
// selection.
type LineSpan struct {
	Start float64
	End   float64
}

// Len returns the number of whole lines the span covers.
func (s LineSpan) Len() int {
	n := int(s.End) - int(s.Start) + 1
	if n < 0 {
		return 0
	}
	return n
}

// BodyLine is one raw source line tagged with its original 1-indexed
// line number.
type BodyLine struct {
	Number int
	Text   string
}

// Node is the uniform structural unit every Format parses content into.
type Node struct {
	Kind            Kind
	Name            string
	Signature       string
	Preview         string
	BodyLines       []BodyLine
	Span            LineSpan
	Children        []*Node
	Depth           int
	IntrinsicWeight float64

	// Meta carries format-specific detail that doesn't warrant a
	// dedicated field (decorators, language, in-degree, indent level).
	Meta map[string]string
}

// NewFoldMarker builds a synthetic FoldMarker node covering the given
// span, representing foldedLines elided source lines.
func NewFoldMarker(span LineSpan, foldedLines int) *Node {
	return &Node{
		Kind:      KindFoldMarker,
		Name:      FoldText(foldedLines),
		Signature: FoldText(foldedLines),
		Span:      span,
	}
}

// FoldText is the single literal format used for every elided-content
// marker in the system (U-curve gaps, allocator-dropped subtrees,
// enforcer re-merges). One format, reused everywhere, keeps "merge
// adjacent FoldMarkers" well-defined.
func FoldText(n int) string {
	return fmt.Sprintf("[…%d more lines…]", n)
}

// AssignDepths sets Depth on root and every descendant, root at 0.
func AssignDepths(root *Node) {
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		n.Depth = depth
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(root, 0)
}

// TotalBodyLines counts the raw source lines covered by this node and
// every descendant's body (used for fold-marker counts). Leaves report
// their own BodyLines; containers sum their children's.
func TotalBodyLines(n *Node) int {
	if len(n.Children) == 0 {
		return len(n.BodyLines)
	}
	total := 0
	for _, c := range n.Children {
		total += TotalBodyLines(c)
	}
	return total
}

// Walk visits n and every descendant in source order (pre-order).
func Walk(n *Node, visit func(*Node)) {
	visit(n)
	for _, c := range n.Children {
		Walk(c, visit)
	}
}

// Prune restricts root to the inclusive fractional line range
// [start, end], returning a new working tree. A node whose span lies
// entirely outside the range is dropped; a node whose span straddles a
// boundary is clipped (its BodyLines sliced, its Span narrowed).
func Prune(root *Node, start, end float64) *Node {
	var clip func(n *Node) *Node
	clip = func(n *Node) *Node {
		if n.Span.End < start || n.Span.Start > end {
			return nil
		}
		clone := *n
		lo := max(start, n.Span.Start)
		hi := min(end, n.Span.End)
		clone.Span = LineSpan{Start: lo, End: hi}

		if len(n.BodyLines) > 0 {
			kept := make([]BodyLine, 0, len(n.BodyLines))
			for _, bl := range n.BodyLines {
				ln := float64(bl.Number)
				if ln < lo || ln > hi {
					continue
				}
				if ln == float64(int(hi)) && hi != float64(int(hi)) {
					frac := hi - float64(int(hi))
					cut := int(frac * float64(len(bl.Text)))
					bl.Text = bl.Text[:cut]
				}
				kept = append(kept, bl)
			}
			clone.BodyLines = kept
		}

		if len(n.Children) > 0 {
			kept := make([]*Node, 0, len(n.Children))
			for _, c := range n.Children {
				if cc := clip(c); cc != nil {
					kept = append(kept, cc)
				}
			}
			clone.Children = kept
		}
		return &clone
	}
	clipped := clip(root)
	if clipped == nil {
		return &Node{Kind: KindRoot, Span: LineSpan{Start: start, End: end}}
	}
	AssignDepths(clipped)
	return clipped
}

// Validate checks that children are disjoint and ascending by start
// line, child spans are enclosed by the parent span, and fold markers
// are childless. Returns the first violation found, or nil.
func Validate(n *Node) error {
	if n.Kind == KindFoldMarker && len(n.Children) != 0 {
		return fmt.Errorf("fold marker %q has children", n.Name)
	}
	prevEnd := n.Span.Start - 1
	for i, c := range n.Children {
		if c.Span.Start <= prevEnd {
			return fmt.Errorf("child %d (%q) overlaps or misorders previous sibling", i, c.Name)
		}
		if c.Span.Start < n.Span.Start || c.Span.End > n.Span.End {
			return fmt.Errorf("child %d (%q) span %v not enclosed by parent span %v", i, c.Name, c.Span, n.Span)
		}
		prevEnd = c.Span.End
		if err := Validate(c); err != nil {
			return err
		}
	}
	return nil
}
