// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives the two phases of a run. Build walks a Source
// page by page and streams retained paragraphs into the corpus checkpoint.
// Index reads a checkpoint back, decomposes each paragraph into sentences
// and adds them to the vector index one at a time.
//
// Per-item problems (a page without a revision, a failed fetch, a failed
// rewrite, a rejected insert) are recorded in the run report and the loop
// moves on. Only enumeration failures, checkpoint read or write failures,
// and cancellation end a run early.
package pipeline

import (
	"context"
	"io"
	"iter"
	"log/slog"

	"github.com/pdiddy/wikifacts/pkg/types"
)

// Source is anything that can list pages and turn one page into paragraph
// records. Enumerate must be finite and restartable: each call starts a
// new listing. Materialize must not depend on state from other pages.
type Source interface {
	Enumerate(ctx context.Context) iter.Seq2[types.PageRef, error]
	Materialize(ctx context.Context, page types.PageRef) (types.PageResult, error)
}

// ParagraphWriter receives retained paragraphs in order.
type ParagraphWriter interface {
	Write(p types.ParagraphRecord) error
}

// Decomposer splits a paragraph into sentences.
type Decomposer interface {
	Decompose(ctx context.Context, p types.ParagraphRecord) ([]string, error)
}

// SentenceIndex stores sentences and remembers which paragraphs are done.
type SentenceIndex interface {
	Add(ctx context.Context, u types.SentenceUnit) types.InsertResult
	ParagraphIndexed(ctx context.Context, id string) (bool, error)
	MarkParagraph(ctx context.Context, p types.ParagraphRecord, sentences int) error
}

// Options controls progress output and resume behaviour.
type Options struct {
	// Out receives one progress line per item. Nil discards progress.
	Out io.Writer

	// Logger receives structured diagnostics for skipped items.
	Logger *slog.Logger

	// Force re-decomposes paragraphs an earlier index run completed.
	Force bool
}

func (o Options) out() io.Writer {
	if o.Out == nil {
		return io.Discard
	}
	return o.Out
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default().With("component", "pipeline")
	}
	return o.Logger
}
