// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package decompose rewrites a paragraph into short, self-contained factual
// sentences using a text-generation backend. The backend is called once per
// paragraph with a fixed prompt; its free-text answer is parsed into one
// sentence per line.
package decompose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/wikifacts/pkg/types"
)

const (
	defaultMaxRetries = 3

	// DefaultDelimiter ends the reasoning preamble some models emit.
	DefaultDelimiter = "</think>"
)

// ErrNoSentences is returned when a response parses to nothing.
var ErrNoSentences = errors.New("response contained no sentences")

// Backend abstracts the rewriting service so tests can supply a fake.
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Failure is a decomposition that did not produce sentences for one
// paragraph after every retry.
type Failure struct {
	Title    string
	Text     string
	Attempts int
	Err      error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("decomposing paragraph of %s after %d attempts: %v", f.Title, f.Attempts, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Decomposer turns paragraphs into sentences.
type Decomposer struct {
	backend    Backend
	maxRetries int
	delimiter  string
	timeout    time.Duration
	logger     *slog.Logger
}

// Option configures a Decomposer.
type Option func(*Decomposer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Decomposer) { d.logger = l }
}

// New returns a Decomposer calling backend with the retry, timeout and
// delimiter settings of cfg.
func New(backend Backend, cfg types.AIConfig, opts ...Option) *Decomposer {
	d := &Decomposer{
		backend:    backend,
		maxRetries: cfg.MaxRetries,
		delimiter:  cfg.Delimiter,
		timeout:    cfg.Timeout,
		logger:     slog.Default().With("component", "decompose"),
	}
	if d.maxRetries <= 0 {
		d.maxRetries = defaultMaxRetries
	}
	if d.delimiter == "" {
		d.delimiter = DefaultDelimiter
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decompose returns the sentences of p. Any error is a *Failure, except
// cancellation of ctx which is returned as is.
func (d *Decomposer) Decompose(ctx context.Context, p types.ParagraphRecord) ([]string, error) {
	prompt, err := renderPrompt(p.PageTitle, p.Text)
	if err != nil {
		return nil, &Failure{Title: p.PageTitle, Text: p.Text, Err: fmt.Errorf("rendering prompt: %w", err)}
	}

	sentences, attempts, err := d.callWithRetry(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &Failure{Title: p.PageTitle, Text: p.Text, Attempts: attempts, Err: err}
	}
	return sentences, nil
}

// Units attaches the paragraph's page metadata to each sentence.
func Units(p types.ParagraphRecord, sentences []string) []types.SentenceUnit {
	units := make([]types.SentenceUnit, 0, len(sentences))
	meta := types.SentenceMetadata{Title: p.PageTitle, SourceURL: p.SourceURL}
	for _, s := range sentences {
		units = append(units, types.SentenceUnit{Text: s, Metadata: meta})
	}
	return units
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// callWithRetry calls the backend with exponential backoff until a
// response parses to at least one sentence. It returns the number of
// attempts made.
func (d *Decomposer) callWithRetry(ctx context.Context, prompt string) ([]string, int, error) {
	var lastErr error
	attempt := 0
	for ; attempt <= d.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return nil, attempt, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := d.generate(ctx, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return nil, attempt + 1, ctx.Err()
			}
			d.logger.Debug("rewriting call failed", "attempt", attempt+1, "error", err)
			lastErr = err
			continue
		}

		sentences := ParseResponse(resp, d.delimiter)
		if len(sentences) == 0 {
			d.logger.Debug("rewriting response unusable", "attempt", attempt+1, "response", resp)
			lastErr = ErrNoSentences
			continue
		}
		return sentences, attempt + 1, nil
	}
	return nil, attempt, fmt.Errorf("after %d retries: %w", d.maxRetries, lastErr)
}

func (d *Decomposer) generate(ctx context.Context, prompt string) (string, error) {
	if d.timeout <= 0 {
		return d.backend.Generate(ctx, prompt)
	}
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.backend.Generate(callCtx, prompt)
}

// listMarker matches a leading bullet or enumeration: "- ", "* ", "• ", "1. ", "2) ".
var listMarker = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s+`)

// ParseResponse extracts sentences from a rewriting response. Only the text
// after the last delimiter is considered. Each line is trimmed and loses
// any list marker and trailing punctuation; blank lines and code fences are
// dropped. The result contains only non-empty, trimmed, single-line
// strings.
func ParseResponse(resp, delimiter string) []string {
	if delimiter != "" {
		if i := strings.LastIndex(resp, delimiter); i >= 0 {
			resp = resp[i+len(delimiter):]
		}
	}

	var sentences []string
	for _, line := range strings.Split(resp, "\n") {
		s := strings.TrimSpace(line)
		if strings.HasPrefix(s, "```") {
			continue
		}
		s = listMarker.ReplaceAllString(s, "")
		s = strings.TrimSpace(strings.TrimRight(s, ".!?;,:"))
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
