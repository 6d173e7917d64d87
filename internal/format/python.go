package format

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/horiacristescu/nub/internal/scorer"
	"github.com/horiacristescu/nub/internal/tree"
)

// Python parses Python source into a module/class/function tree using the
// tree-sitter grammar. It walks only the named children tree-sitter exposes
// at module and class level; nested closures and comprehensions stay inside
// their enclosing definition's body rather than becoming their own nodes.
type Python struct{}

func NewPython() *Python { return &Python{} }

func (*Python) Name() string { return "python" }

func (*Python) Parse(path string, source []byte) (*tree.Node, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	lang := sitter.NewLanguage(tree_sitter_python.Language())
	if err := parser.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("python: set language: %w", err)
	}

	tr := parser.Parse(source, nil)
	if tr == nil {
		return nil, &ErrUnsupported{Format: "python", Reason: "parse returned nil tree"}
	}
	defer tr.Close()

	root := tr.RootNode()
	if root == nil || root.HasError() {
		return nil, &ErrUnsupported{Format: "python", Reason: "source has syntax errors"}
	}

	lines := splitLines(source)
	name := moduleName(path)

	module := &tree.Node{
		Kind:            tree.KindRoot,
		Name:            name,
		Signature:       name,
		Span:            tree.LineSpan{Start: 1, End: float64(len(lines))},
		IntrinsicWeight: scorer.DefaultWeights().Class,
	}

	var imports []*tree.Node
	flushImports := func() {
		if len(imports) > 0 {
			module.Children = append(module.Children, collapseImports(imports))
			imports = nil
		}
	}
	childCount := int(root.NamedChildCount())
	for i := 0; i < childCount; i++ {
		child := root.NamedChild(uint(i))
		if child == nil {
			continue
		}
		node := buildTopLevel(child, source, lines)
		if node == nil {
			continue
		}
		if node.Kind == tree.KindImport {
			imports = append(imports, node)
			continue
		}
		flushImports()
		module.Children = append(module.Children, node)
	}
	flushImports()

	tree.AssignDepths(module)
	return module, nil
}

// buildTopLevel converts one module-level tree-sitter node into a tree.Node,
// unwrapping decorated_definition so the decorator line stays attached to
// the signature it decorates.
func buildTopLevel(n *sitter.Node, source []byte, lines []string) *tree.Node {
	switch n.Kind() {
	case "class_definition":
		return buildClass(n, source, lines)
	case "function_definition":
		return buildFunction(n, source, lines, "")
	case "decorated_definition":
		def := n.ChildByFieldName("definition")
		if def == nil {
			return nil
		}
		deco := headerLine(n, source, lines)
		switch def.Kind() {
		case "function_definition":
			return buildFunction(def, source, lines, deco)
		case "class_definition":
			node := buildClass(def, source, lines)
			if node != nil {
				node.Signature = deco + "\n" + node.Signature
			}
			return node
		}
		return nil
	case "import_statement", "import_from_statement":
		return buildImport(n, source, lines)
	default:
		return buildTextBlock(n, source, lines)
	}
}

func buildClass(n *sitter.Node, source []byte, lines []string) *tree.Node {
	nameNode := n.ChildByFieldName("name")
	className := "class"
	if nameNode != nil {
		className = nameNode.Utf8Text(source)
	}
	start, end := spanOf(n)

	class := &tree.Node{
		Kind:            tree.KindContainer,
		Name:            className,
		Signature:       headerLine(n, source, lines),
		Span:            tree.LineSpan{Start: float64(start), End: float64(end)},
		IntrinsicWeight: scorer.DefaultWeights().Class,
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		class.BodyLines = sliceBody(lines, start, end)
		return class
	}

	count := int(body.NamedChildCount())
	for i := 0; i < count; i++ {
		member := body.NamedChild(uint(i))
		if member == nil {
			continue
		}
		switch member.Kind() {
		case "function_definition":
			class.Children = append(class.Children, buildFunction(member, source, lines, ""))
		case "decorated_definition":
			def := member.ChildByFieldName("definition")
			if def != nil && def.Kind() == "function_definition" {
				deco := headerLine(member, source, lines)
				class.Children = append(class.Children, buildFunction(def, source, lines, deco))
			}
		}
	}

	if len(class.Children) == 0 {
		class.BodyLines = sliceBody(lines, start, end)
	}
	return class
}

func buildFunction(n *sitter.Node, source []byte, lines []string, decoratorLine string) *tree.Node {
	nameNode := n.ChildByFieldName("name")
	fnName := "func"
	if nameNode != nil {
		fnName = nameNode.Utf8Text(source)
	}
	start, end := spanOf(n)
	signature := headerLine(n, source, lines)
	if decoratorLine != "" {
		signature = decoratorLine + "\n" + signature
	}

	bodyStart := start
	if header := n.ChildByFieldName("body"); header != nil {
		bodyStart = int(header.StartPosition().Row) + 1
	}

	return &tree.Node{
		Kind:            tree.KindDefinition,
		Name:            fnName,
		Signature:       signature,
		Preview:         firstNonBlank(lines[clampIdx(bodyStart-1, lines):clampIdx(end, lines)]),
		BodyLines:       sliceBody(lines, start, end),
		Span:            tree.LineSpan{Start: float64(start), End: float64(end)},
		IntrinsicWeight: scorer.DefaultWeights().Function,
	}
}

func buildImport(n *sitter.Node, source []byte, lines []string) *tree.Node {
	start, end := spanOf(n)
	return &tree.Node{
		Kind:            tree.KindImport,
		Name:            "import",
		Signature:       headerLine(n, source, lines),
		Span:            tree.LineSpan{Start: float64(start), End: float64(end)},
		BodyLines:       sliceBody(lines, start, end),
		IntrinsicWeight: scorer.DefaultWeights().Import,
	}
}

func buildTextBlock(n *sitter.Node, source []byte, lines []string) *tree.Node {
	start, end := spanOf(n)
	return &tree.Node{
		Kind:            tree.KindTextBlock,
		Name:            n.Kind(),
		Signature:       headerLine(n, source, lines),
		Span:            tree.LineSpan{Start: float64(start), End: float64(end)},
		BodyLines:       sliceBody(lines, start, end),
		IntrinsicWeight: scorer.DefaultWeights().Text,
	}
}

// collapseImports merges consecutive top-level import statements into a
// single Import node so the allocator spends one budget decision on the
// whole import block rather than one per line.
func collapseImports(imports []*tree.Node) *tree.Node {
	if len(imports) == 1 {
		return imports[0]
	}
	var body []tree.BodyLine
	for _, imp := range imports {
		body = append(body, imp.BodyLines...)
	}
	start, end := imports[0].Span.Start, imports[len(imports)-1].Span.End
	return &tree.Node{
		Kind:            tree.KindImport,
		Name:            "imports",
		Signature:       fmt.Sprintf("[%d imports, lines %d-%d]", len(imports), int(start), int(end)),
		Span:            tree.LineSpan{Start: start, End: end},
		BodyLines:       body,
		IntrinsicWeight: scorer.DefaultWeights().Import,
	}
}

func spanOf(n *sitter.Node) (start, end int) {
	return int(n.StartPosition().Row) + 1, int(n.EndPosition().Row) + 1
}

func headerLine(n *sitter.Node, source []byte, lines []string) string {
	row := int(n.StartPosition().Row)
	if row < 0 || row >= len(lines) {
		return strings.TrimSpace(n.Utf8Text(source))
	}
	return strings.TrimRight(lines[row], "\r")
}

func sliceBody(lines []string, start, end int) []tree.BodyLine {
	body := make([]tree.BodyLine, 0, end-start+1)
	for ln := start; ln <= end && ln <= len(lines); ln++ {
		body = append(body, tree.BodyLine{Number: ln, Text: lines[ln-1]})
	}
	return body
}

func clampIdx(i int, lines []string) int {
	if i < 0 {
		return 0
	}
	if i > len(lines) {
		return len(lines)
	}
	return i
}

func splitLines(source []byte) []string {
	normalized := strings.ReplaceAll(strings.ReplaceAll(string(source), "\r\n", "\n"), "\r", "\n")
	lines := strings.Split(normalized, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func moduleName(path string) string {
	i := strings.LastIndexAny(path, "/\\")
	name := path
	if i >= 0 {
		name = path[i+1:]
	}
	if name == "" {
		name = "module"
	}
	return name
}
