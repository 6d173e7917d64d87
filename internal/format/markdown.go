package format

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/horiacristescu/nub/internal/scorer"
	"github.com/horiacristescu/nub/internal/tree"
)

// Markdown parses a document into one Section per heading, nested by
// heading level, with paragraphs, lists, and code blocks as leaf children
// of whichever heading currently encloses them.
type Markdown struct{}

func NewMarkdown() *Markdown { return &Markdown{} }

func (*Markdown) Name() string { return "markdown" }

func (*Markdown) Parse(path string, source []byte) (*tree.Node, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
	reader := gmtext.NewReader(source)
	doc := md.Parser().Parse(reader)

	offsets := lineOffsets(source)
	totalLines := len(strings.Split(string(source), "\n"))

	name := moduleName(path)
	root := &tree.Node{
		Kind:            tree.KindRoot,
		Name:            name,
		Signature:       name,
		Span:            tree.LineSpan{Start: 1, End: float64(totalLines)},
		IntrinsicWeight: scorer.DefaultWeights().Heading,
	}

	var headingStack []*tree.Node
	var levelStack []int

	child := doc.FirstChild()
	for child != nil {
		walkMarkdownBlock(child, source, offsets, totalLines, root, &headingStack, &levelStack)
		child = child.NextSibling()
	}

	for _, h := range headingStack {
		h.Span.End = float64(totalLines)
	}
	tree.AssignDepths(root)
	return root, nil
}

func walkMarkdownBlock(n ast.Node, source []byte, offsets []int, totalLines int, root *tree.Node, headingStack *[]*tree.Node, levelStack *[]int) {
	switch v := n.(type) {
	case *ast.Heading:
		start := lineOf(offsets, startOffset(n))
		for len(*levelStack) > 0 && (*levelStack)[len(*levelStack)-1] >= v.Level {
			closed := (*headingStack)[len(*headingStack)-1]
			closed.Span.End = float64(start - 1)
			*headingStack = (*headingStack)[:len(*headingStack)-1]
			*levelStack = (*levelStack)[:len(*levelStack)-1]
		}
		title := textOf(v, source)
		section := &tree.Node{
			Kind:            tree.KindSection,
			Name:            title,
			Signature:       strings.Repeat("#", v.Level) + " " + title,
			Span:            tree.LineSpan{Start: float64(start), End: float64(start)},
			IntrinsicWeight: scorer.DefaultWeights().Heading / float64(v.Level),
		}
		if len(*headingStack) == 0 {
			root.Children = append(root.Children, section)
		} else {
			parent := (*headingStack)[len(*headingStack)-1]
			parent.Children = append(parent.Children, section)
		}
		*headingStack = append(*headingStack, section)
		*levelStack = append(*levelStack, v.Level)
		return

	case *ast.Paragraph, *ast.CodeBlock, *ast.FencedCodeBlock, *ast.List:
		start := lineOf(offsets, startOffset(n))
		end := lineOf(offsets, endOffset(n))
		kind := tree.KindTextBlock
		weight := scorer.DefaultWeights().Text
		if _, ok := n.(*ast.FencedCodeBlock); ok {
			weight = scorer.DefaultWeights().Function
		}
		if _, ok := n.(*ast.CodeBlock); ok {
			weight = scorer.DefaultWeights().Function
		}
		body := bodyLinesFromSource(source, start, end)
		leaf := &tree.Node{
			Kind:            kind,
			Name:            blockName(n),
			Signature:       firstNonBlank(linesOfBody(body)),
			BodyLines:       body,
			Span:            tree.LineSpan{Start: float64(start), End: float64(end)},
			IntrinsicWeight: weight,
		}
		if len(*headingStack) == 0 {
			root.Children = append(root.Children, leaf)
		} else {
			parent := (*headingStack)[len(*headingStack)-1]
			parent.Children = append(parent.Children, leaf)
		}
		return
	}

	child := n.FirstChild()
	for child != nil {
		walkMarkdownBlock(child, source, offsets, totalLines, root, headingStack, levelStack)
		child = child.NextSibling()
	}
}

func blockName(n ast.Node) string {
	switch n.(type) {
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		return "code"
	case *ast.List:
		return "list"
	default:
		return "paragraph"
	}
}

func textOf(n ast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
		}
	}
	return strings.TrimSpace(b.String())
}

func startOffset(n ast.Node) int {
	if hasLines, ok := n.(interface{ Lines() *gmtext.Segments }); ok {
		lines := hasLines.Lines()
		if lines.Len() > 0 {
			return lines.At(0).Start
		}
	}
	return -1
}

func endOffset(n ast.Node) int {
	if hasLines, ok := n.(interface{ Lines() *gmtext.Segments }); ok {
		lines := hasLines.Lines()
		if lines.Len() > 0 {
			return lines.At(lines.Len() - 1).Stop
		}
	}
	return -1
}

func lineOffsets(source []byte) []int {
	offsets := []int{0}
	for i, b := range source {
		if b == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// lineOf converts a byte offset into a 1-indexed line number via binary
// search over line-start offsets.
func lineOf(offsets []int, byteOffset int) int {
	if byteOffset < 0 {
		return 1
	}
	lo, hi := 0, len(offsets)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if offsets[mid] <= byteOffset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1
}

func bodyLinesFromSource(source []byte, start, end int) []tree.BodyLine {
	lines := strings.Split(string(source), "\n")
	var body []tree.BodyLine
	for ln := start; ln <= end && ln >= 1 && ln <= len(lines); ln++ {
		body = append(body, tree.BodyLine{Number: ln, Text: lines[ln-1]})
	}
	return body
}

func linesOfBody(body []tree.BodyLine) []string {
	out := make([]string, len(body))
	for i, b := range body {
		out[i] = b.Text
	}
	return out
}
