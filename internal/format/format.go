// Package format implements the format contract: each concrete format
// parses raw bytes into the uniform tree.Node model. Level-of-detail
// rendering itself is shared across formats by internal/render — a
// Format only needs to Parse.
package format

import (
	"fmt"

	"github.com/horiacristescu/nub/internal/tree"
)

// Format parses raw source into a tree.Node honoring the tree
// package's structural invariants.
type Format interface {
	// Name identifies the format for error messages and the --type flag.
	Name() string
	// Parse builds a tree from source bytes. path is used only for the
	// root node's Name (e.g. a filename); formats that need real
	// filesystem access (Folder) implement DirFormat instead.
	Parse(path string, source []byte) (*tree.Node, error)
}

// DirFormat is implemented by formats that walk a directory rather than
// a byte slice (Folder). A directory tree has no single byte stream to
// parse — this is the pragmatic extension point for that one format.
type DirFormat interface {
	Format
	ParseDir(root string, excludeGlobs []string) (*tree.Node, error)
}

// ErrUnsupported is returned by formats asked to parse content outside
// their concern (e.g. Python format given non-Python source that fails
// to parse at all).
type ErrUnsupported struct {
	Format string
	Reason string
}

func (e *ErrUnsupported) Error() string {
	return fmt.Sprintf("%s format: %s", e.Format, e.Reason)
}

// Registry resolves a Format by name — the name DetectByExtension
// returns or the CLI --type flag supplies.
func Registry() map[string]Format {
	return map[string]Format{
		"text":     NewText(),
		"python":   NewPython(),
		"markdown": NewMarkdown(),
		"folder":   NewFolder(),
		"mindmap":  NewMindMap(),
	}
}
