package format

import (
	"path/filepath"
	"strings"
)

// DetectByExtension is a minimal stand-in for real format detection
// (content sniffing, shebang lines, language servers) which is an
// external collaborator the engine only consumes the result of. It maps
// the common extensions needed to exercise each bundled format.
func DetectByExtension(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".pyi":
		return "python"
	case ".md", ".markdown":
		return "markdown"
	case ".mm", ".mindmap", ".outline":
		return "mindmap"
	default:
		return "text"
	}
}
