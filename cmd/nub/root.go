package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/horiacristescu/nub/internal/cache"
	"github.com/horiacristescu/nub/internal/config"
	"github.com/horiacristescu/nub/internal/engine"
	"github.com/horiacristescu/nub/internal/format"
	"github.com/horiacristescu/nub/internal/metrics"
	"github.com/horiacristescu/nub/internal/tree"
	"github.com/horiacristescu/nub/internal/watch"
)

type rootOptions struct {
	shape         string
	rangeSpec     string
	grepPattern   string
	width         int
	wrap          bool
	dedupe        bool
	formatHint    string
	noLineNumbers bool
	limit         int
	watch         bool
	configPath    string
	metricsAddr   string
}

var opts rootOptions

var rootCmd = &cobra.Command{
	Use:   "nub [path]",
	Short: "Compress a file, directory, or stream into a fixed character budget",
	Long: "nub parses a file, directory, or stdin stream into a uniform tree, " +
		"then renders it into a caller-specified character budget, preferring " +
		"the densest level of detail that still fits.",
	Args: cobra.MaximumNArgs(1),
	RunE: runRoot,
}

func init() {
	rootCmd.Flags().StringVarP(&opts.shape, "shape", "s", "80:24", "Output shape W:H (total budget = W*H)")
	rootCmd.Flags().StringVarP(&opts.rangeSpec, "range", "r", "", "Restrict rendering to line range S:E")
	rootCmd.Flags().StringVarP(&opts.grepPattern, "grep", "g", "", "Boost nodes whose body matches PATTERN")
	rootCmd.Flags().IntVarP(&opts.width, "width", "w", 0, "Per-line width cap (0 disables)")
	rootCmd.Flags().BoolVarP(&opts.wrap, "wrap-mode", "p", false, "Wrap overlong lines instead of truncating them")
	rootCmd.Flags().BoolVarP(&opts.dedupe, "dedupe", "d", false, "Drop lines whose 3-grams were already emitted")
	rootCmd.Flags().StringVar(&opts.formatHint, "type", "", "Force a format name instead of detecting by extension")
	rootCmd.Flags().BoolVar(&opts.noLineNumbers, "no-line-numbers", false, "Omit the n: line-number prefix")
	rootCmd.Flags().IntVar(&opts.limit, "limit", 0, "Hard character cap, overriding shape if smaller")
	rootCmd.Flags().BoolVar(&opts.watch, "watch", false, "Re-render on source change instead of exiting")
	rootCmd.Flags().StringVar(&opts.configPath, "config", "nub.toml", "Path to a nub.toml config file")
	rootCmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics for this process's Compress calls on ADDR (disabled if empty)")
}

func runRoot(cmd *cobra.Command, args []string) error {
	fileOpts, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	flagOpts, err := optionsFromFlags(opts)
	if err != nil {
		return fmt.Errorf("%w", &usageError{err})
	}
	merged := fileOpts.Merge(flagOpts)

	path := "-"
	if len(args) == 1 {
		path = args[0]
	}

	req, err := buildRequest(path, merged, cmd.InOrStdin())
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	rec := metrics.New()
	if opts.metricsAddr != "" {
		go func() {
			if serr := metrics.Serve(opts.metricsAddr, rec); serr != nil {
				logger.Warn("metrics server stopped", "addr", opts.metricsAddr, "error", serr)
			}
		}()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.watch {
		return runWatch(ctx, cmd.OutOrStdout(), logger, rec, req, path)
	}

	res, err := engine.Compress(ctx, logger, rec, req)
	if err != nil {
		return classifyError(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Text())
	return nil
}

// runWatch re-renders req on every debounced source change. Non-folder
// requests route re-parses through an internal/cache.Cache keyed on
// (path, mtime, format) so a burst of saves that lands on the same
// on-disk content parses once, and concurrent renders for the same key
// collapse via the cache's singleflight guard.
func runWatch(ctx context.Context, out io.Writer, logger *slog.Logger, rec *metrics.Recorder, req engine.Request, path string) error {
	if path == "-" {
		return errors.New("--watch requires a file or directory path, not stdin")
	}
	w, err := watch.New(path, watch.DefaultDebounce, logger)
	if err != nil {
		return err
	}

	var parseCache *cache.Cache
	if req.Format != "folder" {
		parseCache, err = cache.New(cache.DefaultSize)
		if err != nil {
			return err
		}
	}

	render := func() {
		freshReq := req
		if parseCache != nil {
			root, rerr := reparseThroughCache(parseCache, freshReq, logger)
			if rerr != nil {
				logger.Warn("watch: parse failed", "path", path, "error", rerr)
				return
			}
			freshReq.Tree = root
		}
		res, err := engine.Compress(ctx, logger, rec, freshReq)
		if err != nil {
			logger.Warn("watch: compress failed", "path", path, "error", err)
			return
		}
		fmt.Fprintln(out, res.Text())
	}
	render()
	return w.Run(ctx, render)
}

// reparseThroughCache re-reads req.Path from disk and returns its parsed
// tree, serving a cache hit when the file's mtime hasn't changed since
// the last render and collapsing concurrent misses for the same key.
func reparseThroughCache(c *cache.Cache, req engine.Request, logger *slog.Logger) (*tree.Node, error) {
	formatName := req.Format
	if formatName == "" {
		formatName = format.DetectByExtension(req.Path)
	}
	fmtr, ok := format.Registry()[formatName]
	if !ok {
		return nil, fmt.Errorf("unknown format %q", formatName)
	}
	key, err := cache.KeyForPath(req.Path, formatName)
	if err != nil {
		return nil, err
	}
	return c.GetOrParse(key, func() (*tree.Node, error) {
		data, rerr := os.ReadFile(req.Path)
		if rerr != nil {
			return nil, rerr
		}
		root, _, perr := engine.ParseTree(fmtr, req.Path, data, req.Options.ExcludeGlobs, logger)
		return root, perr
	})
}

// buildRequest reads source bytes (or leaves them nil for a directory
// format) and assembles the engine.Request for path. stdin is read from
// in rather than os.Stdin so tests can substitute a buffer.
func buildRequest(path string, merged config.Options, in io.Reader) (engine.Request, error) {
	req := engine.Request{Path: path, Format: merged.FormatHint, Options: merged}

	rng, err := parseRange(opts.rangeSpec)
	if err != nil {
		return engine.Request{}, &usageError{err}
	}
	req.Range = rng

	if merged.FormatHint == "folder" {
		return req, nil
	}

	if path == "-" {
		data, err := io.ReadAll(bufio.NewReader(in))
		if err != nil {
			return engine.Request{}, fmt.Errorf("read stdin: %w", err)
		}
		req.Source = data
		req.Path = "stdin"
		return req, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return engine.Request{}, fmt.Errorf("stat %q: %w", path, err)
	}
	if info.IsDir() {
		req.Format = "folder"
		return req, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.Request{}, fmt.Errorf("read %q: %w", path, err)
	}
	req.Source = data
	return req, nil
}

func optionsFromFlags(o rootOptions) (config.Options, error) {
	w, h, err := parseShape(o.shape)
	if err != nil {
		return config.Options{}, err
	}
	return config.Options{
		GrepPattern:  o.grepPattern,
		Width:        w,
		Height:       h,
		WrapWidth:    o.width,
		Wrap:         o.wrap,
		Deduplicate:  o.dedupe,
		Limit:        o.limit,
		FormatHint:   o.formatHint,
		LineNumbers:  !o.noLineNumbers,
	}, nil
}

func parseShape(s string) (width, height int, err error) {
	w, h, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("shape %q: expected W:H", s)
	}
	width, err = strconv.Atoi(w)
	if err != nil {
		return 0, 0, fmt.Errorf("shape %q: bad width: %w", s, err)
	}
	height, err = strconv.Atoi(h)
	if err != nil {
		return 0, 0, fmt.Errorf("shape %q: bad height: %w", s, err)
	}
	return width, height, nil
}

func parseRange(s string) (*tree.LineSpan, error) {
	if s == "" {
		return nil, nil
	}
	a, b, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("range %q: expected S:E", s)
	}
	start, err := strconv.ParseFloat(a, 64)
	if err != nil {
		return nil, fmt.Errorf("range %q: bad start: %w", s, err)
	}
	end, err := strconv.ParseFloat(b, 64)
	if err != nil {
		return nil, fmt.Errorf("range %q: bad end: %w", s, err)
	}
	return &tree.LineSpan{Start: start, End: end}, nil
}

// usageError marks an error as an argument-parsing failure, exit code 2.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func classifyError(err error) error {
	var invalid *engine.InvalidOptionError
	if errors.As(err, &invalid) {
		return &usageError{err}
	}
	return err
}

