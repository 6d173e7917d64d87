package format

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/dustin/go-humanize"

	"github.com/horiacristescu/nub/internal/scorer"
	"github.com/horiacristescu/nub/internal/tree"
)

// previewChars bounds how much of a file's content is read for its
// Preview field.
const previewChars = 40

// previewSizeThreshold is the size a file must exceed to get a
// human-readable size suffix on its signature; files of this size or
// smaller are assumed legible enough from their preview alone.
const previewSizeThreshold = 1024

// Folder renders a directory as a tree of Container nodes (subdirectories)
// and Definition leaves (files), one line of signature per entry. Files
// larger than previewSizeThreshold carry a human-readable byte count;
// directories and smaller files do not. It implements DirFormat rather than
// Format since it walks the filesystem directly instead of parsing bytes.
type Folder struct{}

func NewFolder() *Folder { return &Folder{} }

func (*Folder) Name() string { return "folder" }

// Parse treats path as a directory root and source as unused, so Folder
// also satisfies Format for callers that only hold the generic interface.
func (f *Folder) Parse(path string, _ []byte) (*tree.Node, error) {
	return f.ParseDir(path, nil)
}

func (*Folder) ParseDir(root string, excludeGlobs []string) (*tree.Node, error) {
	type entry struct {
		relPath string
		isDir   bool
		size    int64
	}
	var entries []entry

	conf := &fastwalk.Config{Follow: false}
	err := fastwalk.Walk(conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if matchesAnyExclude(rel, excludeGlobs) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		var size int64
		if !d.IsDir() {
			if info, infoErr := d.Info(); infoErr == nil {
				size = info.Size()
			}
		}
		entries = append(entries, entry{relPath: rel, isDir: d.IsDir(), size: size})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("folder: walk %q: %w", root, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].relPath < entries[j].relPath })

	name := filepath.Base(root)
	if name == "." || name == "" {
		name = "root"
	}
	rootNode := &tree.Node{
		Kind:            tree.KindRoot,
		Name:            name,
		Signature:       name + "/",
		IntrinsicWeight: scorer.DefaultWeights().Class,
	}

	dirs := map[string]*tree.Node{"": rootNode}
	for _, e := range entries {
		parentDir := strings.TrimSuffix(filepath.ToSlash(filepath.Dir(e.relPath)), ".")
		parentDir = strings.Trim(parentDir, "/")
		if parentDir == "." {
			parentDir = ""
		}
		parent, ok := dirs[parentDir]
		if !ok {
			parent = rootNode
		}

		base := filepath.Base(e.relPath)
		if e.isDir {
			node := &tree.Node{
				Kind:            tree.KindContainer,
				Name:            base,
				Signature:       base + "/",
				IntrinsicWeight: scorer.DefaultWeights().Class,
			}
			parent.Children = append(parent.Children, node)
			dirs[e.relPath] = node
			continue
		}

		sig := base
		if e.size > previewSizeThreshold {
			sig = fmt.Sprintf("%s (%s)", base, humanize.Bytes(uint64(max64(e.size, 0))))
		}
		leaf := &tree.Node{
			Kind:            tree.KindDefinition,
			Name:            base,
			Signature:       sig,
			Preview:         readPreview(filepath.Join(root, e.relPath)),
			IntrinsicWeight: scorer.DefaultWeights().Function,
		}
		parent.Children = append(parent.Children, leaf)
	}

	stampFolderLines(rootNode, 1)
	tree.AssignDepths(rootNode)
	return rootNode, nil
}

// stampFolderLines assigns a synthetic 1-per-entry line span in listing
// order, since a directory listing has no native line numbers the way a
// parsed source file does.
func stampFolderLines(n *tree.Node, next int) int {
	n.Span.Start = float64(next)
	if len(n.Children) == 0 {
		n.Span.End = float64(next)
		return next + 1
	}
	cur := next + 1
	for _, c := range n.Children {
		cur = stampFolderLines(c, cur)
	}
	n.Span.End = float64(cur - 1)
	return cur
}

// readPreview returns the first previewChars characters of path's
// content, or "" if it can't be read (permissions, binary sniff
// failures, a symlink loop) — a missing preview just means the leaf
// falls back to its signature.
func readPreview(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	buf := make([]byte, previewChars)
	n, _ := f.Read(buf)
	if n == 0 {
		return ""
	}
	preview := string(buf[:n])
	if i := strings.IndexByte(preview, '\n'); i >= 0 {
		preview = preview[:i]
	}
	return strings.TrimSpace(preview)
}

func matchesAnyExclude(path string, patterns []string) bool {
	for _, p := range patterns {
		if matched, err := doublestar.Match(p, path); err == nil && matched {
			return true
		}
	}
	return false
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
