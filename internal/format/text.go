package format

import (
	"path/filepath"
	"strings"

	"github.com/horiacristescu/nub/internal/scorer"
	"github.com/horiacristescu/nub/internal/tree"
)

// Text is the fallback format: a single leaf whose rendering invokes
// the U-curve selector. Every other format's parser falls back to this
// one on a parse error.
type Text struct{}

// NewText constructs the fallback Text format.
func NewText() *Text { return &Text{} }

func (*Text) Name() string { return "text" }

// Parse splits source into lines and wraps them in a single TextBlock
// child under a Root node, so the invariant "every character is
// reachable via exactly one leaf descendant of root" holds uniformly
// across formats.
func (*Text) Parse(path string, source []byte) (*tree.Node, error) {
	normalized := strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(string(source))
	rawLines := strings.Split(normalized, "\n")
	if len(rawLines) > 0 && rawLines[len(rawLines)-1] == "" {
		rawLines = rawLines[:len(rawLines)-1]
	}

	body := make([]tree.BodyLine, len(rawLines))
	for i, l := range rawLines {
		body[i] = tree.BodyLine{Number: i + 1, Text: l}
	}

	name := filepath.Base(path)
	if name == "" || name == "." {
		name = "stdin"
	}

	span := tree.LineSpan{Start: 1, End: float64(maxInt(len(rawLines), 1))}
	leaf := &tree.Node{
		Kind:            tree.KindTextBlock,
		Name:            name,
		Signature:       name,
		Preview:         firstNonBlank(rawLines),
		BodyLines:       body,
		Span:            span,
		IntrinsicWeight: scorer.DefaultWeights().Text,
	}
	root := &tree.Node{
		Kind:            tree.KindRoot,
		Name:            name,
		Signature:       name,
		Span:            span,
		Children:        []*tree.Node{leaf},
		IntrinsicWeight: scorer.DefaultWeights().Text,
	}
	tree.AssignDepths(root)
	return root, nil
}

func firstNonBlank(lines []string) string {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return strings.TrimSpace(l)
		}
	}
	return ""
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
