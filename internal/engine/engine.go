// Package engine ties the format, scorer, allocator, render, and
// enforce packages into a single Compress entry point: parse, score,
// render to the level-of-detail cascade, enforce the hard cap, done.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/horiacristescu/nub/internal/config"
	"github.com/horiacristescu/nub/internal/enforce"
	"github.com/horiacristescu/nub/internal/format"
	"github.com/horiacristescu/nub/internal/metrics"
	"github.com/horiacristescu/nub/internal/render"
	"github.com/horiacristescu/nub/internal/scorer"
	"github.com/horiacristescu/nub/internal/tree"
)

// InvalidOptionError reports a bad request caught before any parsing is
// attempted: an unknown format name, a non-positive budget, or an
// unparsable grep pattern.
type InvalidOptionError struct {
	Reason string
}

func (e *InvalidOptionError) Error() string { return "invalid option: " + e.Reason }

// ParseError wraps a format's parse failure. Compress returns this only
// when even the Text fallback format fails to parse, which should never
// happen for an arbitrary byte slice — it exists as a backstop, not an
// expected path.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse (%s): %v", e.Format, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// Request bundles one compression call's input.
type Request struct {
	// Path is used for format detection (by extension) and the root
	// node's display name; it need not exist on disk for Source-based
	// requests ("stdin" is a fine Path).
	Path string
	// Source is the raw bytes to compress. Unused when Format is a
	// DirFormat and Path names a real directory, or when Tree is set.
	Source []byte
	// Tree, when non-nil, is used verbatim instead of parsing Source —
	// the caller has already produced it (e.g. internal/cache serving a
	// watch-mode re-render from a memoized parse).
	Tree *tree.Node
	// Format names an entry in format.Registry() explicitly; empty
	// means detect from Path's extension.
	Format string
	// Range restricts rendering to an inclusive line span before
	// budget allocation, when non-nil.
	Range   *tree.LineSpan
	Options config.Options
}

// Stats summarizes one Compress call for logging and metrics.
type Stats struct {
	Format        string
	InputChars    int
	OutputChars   int
	NodesFolded   int
	ParseFellBack bool
}

// Result is Compress's output.
type Result struct {
	RunID string
	Lines []tree.OutputLine
	Stats Stats
}

// Text joins Result.Lines into the final rendered string. No trailing
// newline, matching the "last line has no separator" TotalChars
// convention.
func (r Result) Text() string {
	parts := make([]string, len(r.Lines))
	for i, l := range r.Lines {
		parts[i] = l.Text
	}
	return strings.Join(parts, "\n")
}

// Compress parses req.Source (or walks req.Path for a DirFormat, or
// reuses req.Tree directly), scores and renders the result to fit the
// configured character budget, then runs the enforcer pass. logger may
// be nil, in which case slog.Default() is used. rec may be nil, in
// which case no metrics are recorded.
func Compress(ctx context.Context, logger *slog.Logger, rec *metrics.Recorder, req Request) (result Result, err error) {
	if logger == nil {
		logger = slog.Default()
	}

	formatName := req.Format
	if formatName == "" {
		formatName = format.DetectByExtension(req.Path)
	}
	start := time.Now()
	defer func() {
		if rec == nil {
			return
		}
		rec.Observe(formatName, result.Stats.NodesFolded, result.Stats.OutputChars,
			result.Stats.ParseFellBack, time.Since(start).Seconds(), err)
	}()

	if err = ctx.Err(); err != nil {
		return Result{}, err
	}

	opts := config.DefaultOptions().Merge(req.Options)
	budget := opts.Width * opts.Height
	hardCap := budget
	if opts.Limit > 0 && opts.Limit < hardCap {
		hardCap = opts.Limit
	}
	if budget <= 0 {
		return Result{}, &InvalidOptionError{Reason: "width*height (or --limit) must be positive"}
	}

	runID := uuid.NewString()
	logger = logger.With("run_id", runID)

	var pattern *regexp.Regexp
	if opts.GrepPattern != "" {
		p, perr := regexp.Compile(opts.GrepPattern)
		if perr != nil {
			return Result{}, &InvalidOptionError{Reason: fmt.Sprintf("bad grep pattern: %v", perr)}
		}
		pattern = p
	}

	root := req.Tree
	fellBack := false
	if root == nil {
		fmtr, ok := format.Registry()[formatName]
		if !ok {
			return Result{}, &InvalidOptionError{Reason: fmt.Sprintf("unknown format %q", formatName)}
		}
		var perr error
		root, fellBack, perr = ParseTree(fmtr, req.Path, req.Source, opts.ExcludeGlobs, logger)
		if perr != nil {
			return Result{}, &ParseError{Format: formatName, Err: perr}
		}
	}

	if req.Range != nil {
		root = tree.Prune(root, req.Range.Start, req.Range.End)
	}
	applyWeightOverrides(root, opts.Weights)

	matches := scorer.MatchCounts(root, pattern)
	renderOpts := render.DefaultOptions()
	renderOpts.Pattern = pattern
	if opts.Temperature > 0 {
		renderOpts.Temperature = opts.Temperature
	}
	if opts.MinLineChars > 0 {
		renderOpts.MinLineChars = opts.MinLineChars
	}

	lines := render.Node(root, budget, renderOpts, matches)

	lines = enforce.Enforce(lines, enforce.Options{
		Width:       opts.WrapWidth,
		HardCap:     hardCap,
		Wrap:        opts.Wrap && opts.WrapWidth > 0,
		LineNumbers: opts.LineNumbers,
		Deduplicate: opts.Deduplicate,
	})

	folded := 0
	for _, l := range lines {
		if l.Kind == tree.KindFoldMarker {
			folded++
		}
	}

	stats := Stats{
		Format:        formatName,
		InputChars:    len(req.Source),
		OutputChars:   tree.TotalChars(lines),
		NodesFolded:   folded,
		ParseFellBack: fellBack,
	}
	logger.Info("compress done",
		"format", formatName, "fell_back", fellBack,
		"input_chars", stats.InputChars, "output_chars", stats.OutputChars, "folded", folded)

	result = Result{RunID: runID, Lines: lines, Stats: stats}
	return result, nil
}

// ParseTree tries the requested format, falling back to the bare Text
// format on failure. Only a failure of the fallback itself is
// propagated — every other per-format error is absorbed here, logged,
// and degraded, so a single unparsable file never aborts a whole run.
// Exported so cmd/nub's watch mode can memoize parses through
// internal/cache without duplicating the fallback logic.
func ParseTree(f format.Format, path string, source []byte, excludeGlobs []string, logger *slog.Logger) (*tree.Node, bool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var root *tree.Node
	var err error
	if df, ok := f.(format.DirFormat); ok {
		root, err = df.ParseDir(path, excludeGlobs)
	} else {
		root, err = f.Parse(path, source)
	}
	if err == nil {
		return root, false, nil
	}
	logger.Warn("parse failed, falling back to text format", "format", f.Name(), "error", err)
	fallback := format.NewText()
	root, ferr := fallback.Parse(path, source)
	if ferr != nil {
		return nil, true, ferr
	}
	return root, true, nil
}

// applyWeightOverrides rescales each node's already-computed intrinsic
// weight by override/default for its kind, preserving whatever
// per-node multiplier a format applied (e.g. mindmap's in-degree
// factor) instead of clobbering it with a flat override.
func applyWeightOverrides(root *tree.Node, w config.WeightOverrides) {
	if w == (config.WeightOverrides{}) {
		return
	}
	d := scorer.DefaultWeights()
	ratio := func(override, base float64) float64 {
		if override == 0 || base == 0 {
			return 1
		}
		return override / base
	}
	rClass := ratio(w.Class, d.Class)
	rFunc := ratio(w.Function, d.Function)
	rHead := ratio(w.Heading, d.Heading)
	rImport := ratio(w.Import, d.Import)
	rText := ratio(w.Text, d.Text)
	tree.Walk(root, func(n *tree.Node) {
		switch n.Kind {
		case tree.KindContainer:
			n.IntrinsicWeight *= rClass
		case tree.KindDefinition:
			n.IntrinsicWeight *= rFunc
		case tree.KindSection:
			n.IntrinsicWeight *= rHead
		case tree.KindImport:
			n.IntrinsicWeight *= rImport
		default:
			n.IntrinsicWeight *= rText
		}
	})
}
