// Package compiler assembles a token sequence into a single clip.
//
// Every word is resolved to a source clip, trimmed of leading and trailing
// silence, normalized to the run's canonical format and appended followed by
// a short gap. Delays append a longer pause with no gap. The canonical format
// comes from the first word in the sequence that resolves to a clip.
// The first failure aborts the run.
package compiler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maauso/atis-broadcast/internal/audio"
	"github.com/maauso/atis-broadcast/internal/mapping"
	"github.com/maauso/atis-broadcast/internal/prompt"
)

// Default timing between tokens.
const (
	DefaultGap   = 100 * time.Millisecond
	DefaultDelay = 500 * time.Millisecond
)

// Option configures a Compiler.
type Option func(*Compiler)

// WithGap sets the silence appended after every word.
func WithGap(d time.Duration) Option {
	return func(c *Compiler) {
		if d >= 0 {
			c.gap = d
		}
	}
}

// WithDelay sets the silence emitted for a delay token.
func WithDelay(d time.Duration) Option {
	return func(c *Compiler) {
		if d >= 0 {
			c.delay = d
		}
	}
}

// WithTrimOpts sets the silence detection parameters.
func WithTrimOpts(opts audio.TrimOpts) Option {
	return func(c *Compiler) {
		c.trim = opts
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Compiler turns tokens into audio using clips from an asset directory.
// It holds no per-run state and is safe for concurrent use.
type Compiler struct {
	assetDir string
	gap      time.Duration
	delay    time.Duration
	trim     audio.TrimOpts
	logger   *slog.Logger
}

// New creates a Compiler reading clips from assetDir.
func New(assetDir string, opts ...Option) *Compiler {
	c := &Compiler{
		assetDir: assetDir,
		gap:      DefaultGap,
		delay:    DefaultDelay,
		trim:     audio.DefaultTrimOpts(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AssetDir returns the directory clips are resolved against.
func (c *Compiler) AssetDir() string {
	return c.assetDir
}

// Result is the output of a successful compilation.
type Result struct {
	// Clip is the assembled broadcast in Format.
	Clip audio.Clip
	// Format is the canonical format of the run.
	Format audio.Format
	// Resolutions lists every resolved word in sequence order.
	Resolutions []Resolution
	// Delays is the number of delay tokens emitted.
	Delays int
}

// StrategyCounts returns how many words each strategy resolved.
func (r *Result) StrategyCounts() map[string]int {
	counts := make(map[string]int)
	for _, res := range r.Resolutions {
		counts[res.Strategy]++
	}
	return counts
}

// run holds state scoped to a single compilation.
type run struct {
	resolver *Resolver
	clips    map[string]audio.Clip
}

// decode returns the clip at res.Path, decoding each path at most once per run.
func (r *run) decode(res Resolution) (audio.Clip, error) {
	if clip, ok := r.clips[res.Path]; ok {
		return clip, nil
	}
	clip, err := audio.DecodeFile(res.Path)
	if err != nil {
		return audio.Clip{}, &DecodeError{Token: res.Token, Path: res.Path, Err: err}
	}
	r.clips[res.Path] = clip
	return clip, nil
}

// Compile assembles tokens into a single clip. The table is treated as a
// read-only snapshot for the duration of the call.
func (c *Compiler) Compile(ctx context.Context, tokens []prompt.Token, table mapping.Table) (*Result, error) {
	r := &run{
		resolver: NewDefaultResolver(c.assetDir, table),
		clips:    make(map[string]audio.Clip),
	}

	format, err := c.canonicalFormat(r, tokens)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("canonical format selected",
		slog.String("format", format.String()),
		slog.Int("tokens", len(tokens)),
	)

	result := &Result{Format: format}
	buf := audio.NewBuffer(format)

	for _, tok := range tokens {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("compile cancelled: %w", err)
		}

		if tok.IsDelay() {
			buf.AppendSilence(c.delay)
			result.Delays++
			continue
		}

		res, err := r.resolver.Resolve(tok.Text)
		if err != nil {
			return nil, err
		}

		clip, err := r.decode(res)
		if err != nil {
			return nil, err
		}

		trimmed := audio.Trim(clip, c.trim)
		normalized, err := audio.Normalize(trimmed, format)
		if err != nil {
			return nil, fmt.Errorf("normalize token %q: %w", tok.Text, err)
		}

		if err := buf.Append(normalized); err != nil {
			return nil, fmt.Errorf("append token %q: %w", tok.Text, err)
		}
		buf.AppendSilence(c.gap)

		c.logger.Debug("token appended",
			slog.String("token", tok.Text),
			slog.String("strategy", res.Strategy),
			slog.Duration("source", clip.Duration()),
			slog.Duration("trimmed", trimmed.Duration()),
		)
		result.Resolutions = append(result.Resolutions, res)
	}

	result.Clip = buf.Clip()
	return result, nil
}

// canonicalFormat decodes the first word that resolves and returns its format.
// Words that do not resolve are skipped here and fail later in sequence order.
func (c *Compiler) canonicalFormat(r *run, tokens []prompt.Token) (audio.Format, error) {
	for _, tok := range tokens {
		if tok.IsDelay() {
			continue
		}
		res, err := r.resolver.Resolve(tok.Text)
		if err != nil {
			continue
		}
		clip, err := r.decode(res)
		if err != nil {
			return audio.Format{}, err
		}
		return clip.Format(), nil
	}
	return audio.Format{}, ErrNoResolvableAudio
}
