// Package enforce implements the budget enforcer: merge adjacent fold
// markers, wrap/truncate overlong lines, evict lowest-scoring leaf
// lines until the hard cap holds, then optionally dedupe by 3-gram.
package enforce

import (
	"sort"
	"strconv"
	"strings"

	"github.com/horiacristescu/nub/internal/tree"
)

// Options configures the enforcer.
type Options struct {
	Width       int  // per-line cap; 0 disables
	HardCap     int  // total character cap; 0 disables eviction
	Wrap        bool // wrap instead of truncate for overlong lines
	LineNumbers bool // prefix "n: "
	Deduplicate bool // 3-gram filter
}

// Enforce runs the full post-pass: total chars <= HardCap, order
// preserved, no two adjacent fold markers in the result.
func Enforce(lines []tree.OutputLine, opts Options) []tree.OutputLine {
	lines = mergeAdjacentFolds(lines)
	lines = truncateOrWrap(lines, opts.Width, opts.Wrap)
	lines = mergeAdjacentFolds(lines)
	if opts.HardCap > 0 {
		lines = evictToHardCap(lines, opts.HardCap, opts.LineNumbers, opts.Width)
		lines = mergeAdjacentFolds(lines)
	}
	if opts.Deduplicate {
		lines = dedupe3gram(lines)
	}
	if opts.LineNumbers {
		lines = prefixLineNumbers(lines, opts.Width)
	}
	return lines
}

// mergeAdjacentFolds collapses consecutive FoldMarker lines into one,
// summing their elided-line counts. "Adjacent" means back-to-back in
// the output sequence, or separated only by blank lines.
func mergeAdjacentFolds(lines []tree.OutputLine) []tree.OutputLine {
	if len(lines) == 0 {
		return lines
	}
	out := make([]tree.OutputLine, 0, len(lines))
	i := 0
	for i < len(lines) {
		if lines[i].Kind != tree.KindFoldMarker {
			out = append(out, lines[i])
			i++
			continue
		}
		count := extractFoldCount(lines[i].Text)
		first := lines[i]
		j := i + 1
		for j < len(lines) {
			if lines[j].Kind == tree.KindFoldMarker {
				count += extractFoldCount(lines[j].Text)
				j++
				continue
			}
			if strings.TrimSpace(lines[j].Text) == "" {
				// Peek past the blank for another fold marker.
				k := j
				for k < len(lines) && strings.TrimSpace(lines[k].Text) == "" {
					k++
				}
				if k < len(lines) && lines[k].Kind == tree.KindFoldMarker {
					j = k
					continue
				}
			}
			break
		}
		merged := first
		merged.Text = tree.FoldText(count)
		out = append(out, merged)
		i = j
	}
	return out
}

func extractFoldCount(text string) int {
	n := 0
	started := false
	for _, r := range text {
		if r >= '0' && r <= '9' {
			started = true
			n = n*10 + int(r-'0')
		} else if started {
			break
		}
	}
	if !started {
		return 1
	}
	return n
}

// truncateOrWrap handles lines longer than width by either truncating
// with an ellipsis or wrapping into fractional-numbered continuation
// lines.
func truncateOrWrap(lines []tree.OutputLine, width int, wrap bool) []tree.OutputLine {
	if width <= 0 {
		return lines
	}
	out := make([]tree.OutputLine, 0, len(lines))
	for _, l := range lines {
		if len(l.Text) <= width {
			out = append(out, l)
			continue
		}
		if !wrap {
			cut := width - len("…")
			if cut < 0 {
				l.Text = l.Text[:width]
			} else {
				l.Text = l.Text[:cut] + "…"
			}
			out = append(out, l)
			continue
		}
		out = append(out, wrapLine(l, width)...)
	}
	return out
}

// wrapLine splits an overlong line into width-sized chunks, numbering
// continuations n.1, n.2, ... as fractional line numbers.
func wrapLine(l tree.OutputLine, width int) []tree.OutputLine {
	var out []tree.OutputLine
	text := l.Text
	frac := 0.0
	step := 1.0 / 10.0
	for len(text) > 0 {
		chunk := text
		if len(chunk) > width {
			chunk = chunk[:width]
		}
		cont := l
		cont.Line = l.Line + frac
		cont.Text = chunk
		out = append(out, cont)
		text = text[len(chunk):]
		frac += step
	}
	if len(out) == 0 {
		out = append(out, l)
	}
	return out
}

// evictToHardCap drops lowest-scoring leaf lines one at a time until
// total chars <= hardCap, counting the "n: " prefix that
// prefixLineNumbers adds later when lineNumbers is set. Structural
// signatures (Section/Definition/Container) are evicted last;
// FoldMarkers are never evicted first, but may go once adjacent peers
// are gone.
func evictToHardCap(lines []tree.OutputLine, hardCap int, lineNumbers bool, width int) []tree.OutputLine {
	measure := func(ls []tree.OutputLine) int {
		if lineNumbers {
			return tree.TotalChars(prefixLineNumbers(ls, width))
		}
		return tree.TotalChars(ls)
	}
	if measure(lines) <= hardCap {
		return lines
	}
	type idxScore struct {
		idx      int
		priority int // lower evicts first
		score    float64
	}
	candidates := make([]idxScore, 0, len(lines))
	for i, l := range lines {
		p := evictionPriority(l.Kind)
		candidates = append(candidates, idxScore{idx: i, priority: p, score: l.Score})
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].priority != candidates[b].priority {
			return candidates[a].priority < candidates[b].priority
		}
		if candidates[a].score != candidates[b].score {
			return candidates[a].score < candidates[b].score
		}
		return candidates[a].idx > candidates[b].idx
	})

	evicted := make(map[int]bool, len(lines))
	current := append([]tree.OutputLine(nil), lines...)
	for _, c := range candidates {
		if measure(filterOut(current, evicted)) <= hardCap {
			break
		}
		evicted[c.idx] = true
	}
	return filterOut(current, evicted)
}

func filterOut(lines []tree.OutputLine, evicted map[int]bool) []tree.OutputLine {
	out := make([]tree.OutputLine, 0, len(lines))
	for i, l := range lines {
		if evicted[i] {
			continue
		}
		out = append(out, l)
	}
	return out
}

// evictionPriority ranks kinds from first-to-evict (0) to last (3).
// FoldMarkers sit above TextBlock/Import but below structural
// signatures, matching "never the first to go, may be dropped once
// adjacent peers are gone".
func evictionPriority(k tree.Kind) int {
	switch k {
	case tree.KindTextBlock, tree.KindImport:
		return 0
	case tree.KindFoldMarker:
		return 1
	case tree.KindDefinition:
		return 2
	default: // Root, Container, Section
		return 3
	}
}

// dedupe3gram drops any line whose token 3-grams are all previously
// seen earlier in the output. Runs after hard-cap eviction so it can
// only shrink output, never push it over budget.
func dedupe3gram(lines []tree.OutputLine) []tree.OutputLine {
	seen := make(map[string]bool)
	out := make([]tree.OutputLine, 0, len(lines))
	for _, l := range lines {
		grams := trigrams(l.Text)
		if len(grams) == 0 {
			out = append(out, l)
			continue
		}
		allSeen := true
		for _, g := range grams {
			if !seen[g] {
				allSeen = false
				break
			}
		}
		if allSeen {
			continue
		}
		for _, g := range grams {
			seen[g] = true
		}
		out = append(out, l)
	}
	return out
}

func trigrams(text string) []string {
	tokens := strings.Fields(text)
	if len(tokens) < 3 {
		return nil
	}
	grams := make([]string, 0, len(tokens)-2)
	for i := 0; i+3 <= len(tokens); i++ {
		grams = append(grams, strings.Join(tokens[i:i+3], " "))
	}
	return grams
}

// prefixLineNumbers prepends "n: " to each line, trimming the text so
// the total stays within width. Applied last; evictToHardCap has
// already counted the prefix against the cap.
func prefixLineNumbers(lines []tree.OutputLine, width int) []tree.OutputLine {
	out := make([]tree.OutputLine, len(lines))
	for i, l := range lines {
		prefix := formatLineNumber(l.Line) + ": "
		text := l.Text
		if width > 0 && len(prefix)+len(text) > width {
			avail := width - len(prefix)
			if avail < 0 {
				avail = 0
			}
			if avail < len(text) {
				text = text[:avail]
			}
		}
		out[i] = l
		out[i].Text = prefix + text
	}
	return out
}

func formatLineNumber(n float64) string {
	whole := int64(n)
	if n == float64(whole) {
		return strconv.FormatInt(whole, 10)
	}
	frac := int64((n-float64(whole))*10 + 0.5)
	return strconv.FormatInt(whole, 10) + "." + strconv.FormatInt(frac, 10)
}
