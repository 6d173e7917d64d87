// Package config carries the compression engine's options and the
// on-disk nub.toml project/user configuration that seeds them, using
// the same struct-with-tags settings style as the rest of this
// codebase's configuration types, adapted for a CLI config file rather
// than an in-process settings blob.
package config

import (
	"cmp"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// CharBudget is width × height total chars, width additionally
// bounding per-line character count.
type CharBudget struct {
	Width  int
	Height int
}

// Total returns Width * Height.
func (b CharBudget) Total() int {
	return b.Width * b.Height
}

// WeightOverrides mirrors scorer.Weights in on-disk/flag form.
type WeightOverrides struct {
	Class    float64 `toml:"class,omitempty"`
	Function float64 `toml:"function,omitempty"`
	Heading  float64 `toml:"heading,omitempty"`
	Import   float64 `toml:"import,omitempty"`
	Text     float64 `toml:"text,omitempty"`
}

// Options bags up every tunable the compression engine accepts.
type Options struct {
	GrepPattern   string          `toml:"grep_pattern,omitempty"`
	Temperature   float64         `toml:"temperature,omitempty"`
	MinLineChars  int             `toml:"min_line_chars,omitempty"`
	Weights       WeightOverrides `toml:"weights,omitempty"`
	LineNumbers   bool            `toml:"line_numbers,omitempty"`
	WrapWidth     int             `toml:"wrap_width,omitempty"`
	Wrap          bool            `toml:"wrap,omitempty"`
	Deduplicate   bool            `toml:"deduplicate,omitempty"`
	Limit         int             `toml:"limit,omitempty"`
	Width         int             `toml:"width,omitempty"`
	Height        int             `toml:"height,omitempty"`
	FormatHint    string          `toml:"type,omitempty"`
	ExcludeGlobs  []string        `toml:"exclude_globs,omitempty"`
}

// DefaultOptions returns the engine's baked-in defaults.
func DefaultOptions() Options {
	return Options{
		Temperature:  0.5,
		MinLineChars: 8,
		Width:        80,
		Height:       24,
	}
}

// Merge applies non-zero fields of override on top of o: flags win
// over file config, file config wins over defaults.
func (o Options) Merge(override Options) Options {
	o.GrepPattern = cmp.Or(override.GrepPattern, o.GrepPattern)
	o.Temperature = cmp.Or(override.Temperature, o.Temperature)
	o.MinLineChars = cmp.Or(override.MinLineChars, o.MinLineChars)
	o.Weights.Class = cmp.Or(override.Weights.Class, o.Weights.Class)
	o.Weights.Function = cmp.Or(override.Weights.Function, o.Weights.Function)
	o.Weights.Heading = cmp.Or(override.Weights.Heading, o.Weights.Heading)
	o.Weights.Import = cmp.Or(override.Weights.Import, o.Weights.Import)
	o.Weights.Text = cmp.Or(override.Weights.Text, o.Weights.Text)
	o.LineNumbers = o.LineNumbers || override.LineNumbers
	o.WrapWidth = cmp.Or(override.WrapWidth, o.WrapWidth)
	o.Wrap = o.Wrap || override.Wrap
	o.Deduplicate = o.Deduplicate || override.Deduplicate
	o.Limit = cmp.Or(override.Limit, o.Limit)
	o.Width = cmp.Or(override.Width, o.Width)
	o.Height = cmp.Or(override.Height, o.Height)
	o.FormatHint = cmp.Or(override.FormatHint, o.FormatHint)
	if len(override.ExcludeGlobs) > 0 {
		o.ExcludeGlobs = append(append([]string(nil), o.ExcludeGlobs...), override.ExcludeGlobs...)
	}
	return o
}

// Load reads a nub.toml file. A missing file is not an error — callers
// get the zero Options; defaults are applied later by
// DefaultOptions().Merge.
func Load(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Options{}, nil
		}
		return Options{}, fmt.Errorf("read config %q: %w", path, err)
	}
	var o Options
	if err := toml.Unmarshal(data, &o); err != nil {
		return Options{}, fmt.Errorf("parse config %q: %w", path, err)
	}
	return o, nil
}
