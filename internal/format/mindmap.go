package format

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/horiacristescu/nub/internal/scorer"
	"github.com/horiacristescu/nub/internal/tree"
)

// MindMap parses an indented outline where a line may declare an id in
// brackets ("Design [2]") and other lines may reference that id ("see
// [2]"). Indentation depth nests Container/Definition nodes; a node's
// in-degree — how many other lines reference its id — multiplies its
// intrinsic weight, so heavily linked nodes survive compression first.
type MindMap struct{}

func NewMindMap() *MindMap { return &MindMap{} }

func (*MindMap) Name() string { return "mindmap" }

var refPattern = regexp.MustCompile(`\[(\w+)\]`)

func (*MindMap) Parse(path string, source []byte) (*tree.Node, error) {
	lines := splitLines(source)

	type rawLine struct {
		number int
		indent int
		text   string
		id     string
	}

	var raw []rawLine
	declared := map[string]bool{}
	for i, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		indent := countIndent(l)
		trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimLeft(l, " \t"), "- "))
		id := declaredID(trimmed)
		if id != "" {
			if declared[id] {
				id = "" // a later line ending in an already-declared id references it
			} else {
				declared[id] = true
			}
		}
		raw = append(raw, rawLine{number: i + 1, indent: indent, text: trimmed, id: id})
	}

	inDegree := map[string]int{}
	for _, rl := range raw {
		for _, m := range refPattern.FindAllStringSubmatch(rl.text, -1) {
			ref := m[1]
			if ref != rl.id {
				inDegree[ref]++
			}
		}
	}

	name := moduleName(path)
	root := &tree.Node{
		Kind:            tree.KindRoot,
		Name:            name,
		Signature:       name,
		IntrinsicWeight: scorer.DefaultWeights().Class,
	}

	type frame struct {
		indent int
		node   *tree.Node
	}
	stack := []frame{{indent: -1, node: root}}

	for _, rl := range raw {
		for len(stack) > 1 && stack[len(stack)-1].indent >= rl.indent {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1].node

		weight := scorer.DefaultWeights().Heading * float64(1+inDegree[rl.id])
		node := &tree.Node{
			Kind:            tree.KindDefinition,
			Name:            nodeLabel(rl.id, rl.text),
			Signature:       rl.text,
			Span:            tree.LineSpan{Start: float64(rl.number), End: float64(rl.number)},
			BodyLines:       []tree.BodyLine{{Number: rl.number, Text: rl.text}},
			IntrinsicWeight: weight,
			Meta:            map[string]string{"id": rl.id, "in_degree": strconv.Itoa(inDegree[rl.id])},
		}
		parent.Children = append(parent.Children, node)
		stack = append(stack, frame{indent: rl.indent, node: node})
	}

	markContainers(root)
	if len(lines) > 0 {
		root.Span = tree.LineSpan{Start: 1, End: float64(len(lines))}
	}
	tree.AssignDepths(root)
	return root, nil
}

// markContainers promotes any node with children from Definition to
// Container, mirroring the rest of the format package's convention that
// Container marks "has descendants to recurse into." Runs post-order so
// a promoted node's one-line Span (set at parse time from its own
// outline line) is widened to enclose every descendant's span first,
// the way folder.go's stampFolderLines computes a directory's span from
// its children — otherwise tree.Validate would reject the tree and
// tree.Prune could drop a whole subtree whose parent line falls outside
// a requested range.
func markContainers(n *tree.Node) {
	for _, c := range n.Children {
		markContainers(c)
	}
	if len(n.Children) == 0 {
		return
	}
	if n.Kind == tree.KindDefinition {
		n.Kind = tree.KindContainer
	}
	for _, c := range n.Children {
		if c.Span.Start < n.Span.Start {
			n.Span.Start = c.Span.Start
		}
		if c.Span.End > n.Span.End {
			n.Span.End = c.Span.End
		}
	}
}

func countIndent(l string) int {
	n := 0
	for _, r := range l {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 4
		default:
			return n
		}
	}
	return n
}

func declaredID(text string) string {
	idx := strings.LastIndex(text, "[")
	if idx < 0 || !strings.HasSuffix(text, "]") {
		return ""
	}
	return text[idx+1 : len(text)-1]
}

func nodeLabel(id, text string) string {
	if id != "" {
		return id
	}
	if len(text) > 24 {
		return text[:24]
	}
	return text
}
