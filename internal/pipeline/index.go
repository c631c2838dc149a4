// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/pdiddy/wikifacts/internal/decompose"
	"github.com/pdiddy/wikifacts/internal/vectorindex"
	"github.com/pdiddy/wikifacts/pkg/types"
)

// Index decomposes every paragraph in records and adds each sentence to
// idx. Paragraphs an earlier run finished are skipped unless opts.Force is
// set. A paragraph is marked finished only when all of its sentences were
// inserted or already present, so a rerun retries the rest.
//
// The returned report is filled in even when err is non-nil.
func Index(ctx context.Context, records iter.Seq2[types.ParagraphRecord, error], d Decomposer, idx SentenceIndex, opts Options) (report types.RunReport, err error) {
	out := opts.out()
	log := opts.logger()
	report = NewReport(types.StageIndex)
	defer func() { report.FinishedAt = time.Now().UTC() }()

	for p, readErr := range records {
		if readErr != nil {
			return report, fmt.Errorf("reading corpus: %w", readErr)
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.ParagraphsRead++

		if !opts.Force {
			done, err := idx.ParagraphIndexed(ctx, vectorindex.ParagraphID(p.PageTitle, p.Text))
			if err != nil {
				log.Warn("resume check failed", "title", p.PageTitle, "error", err)
			}
			if done {
				report.ParagraphsResumed++
				continue
			}
		}

		sentences, err := d.Decompose(ctx, p)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			fmt.Fprintf(out, "failed  %s: %v\n", p.PageTitle, err)
			log.Warn("decomposition failed", "title", p.PageTitle, "source", p.SourceURL, "error", err)
			report.Skip(types.SkipRecord{
				Kind:      types.SkipDecompose,
				Title:     p.PageTitle,
				SourceURL: p.SourceURL,
				Text:      p.Text,
				Detail:    err.Error(),
			})
			continue
		}
		report.ParagraphsDecomposed++

		var inserted, duplicate, failed int
		for _, u := range decompose.Units(p, sentences) {
			res := idx.Add(ctx, u)
			switch res.Status {
			case types.InsertOK:
				inserted++
			case types.InsertDuplicate:
				duplicate++
			default:
				failed++
				log.Error("index insert failed",
					"text", u.Text,
					"title", u.Metadata.Title,
					"source", u.Metadata.SourceURL,
					"error", res.Err)
				report.Skip(types.SkipRecord{
					Kind:      types.SkipIndexInsert,
					Title:     u.Metadata.Title,
					SourceURL: u.Metadata.SourceURL,
					Text:      u.Text,
					Detail:    errString(res.Err),
				})
			}
		}
		report.SentencesIndexed += inserted
		report.SentencesDuplicate += duplicate

		if failed > 0 {
			fmt.Fprintf(out, "partial %s: %d indexed, %d duplicate, %d failed\n", p.PageTitle, inserted, duplicate, failed)
			continue
		}
		if err := idx.MarkParagraph(ctx, p, len(sentences)); err != nil {
			log.Warn("recording paragraph", "title", p.PageTitle, "error", err)
		}
		fmt.Fprintf(out, "indexed %s: %d sentences (%d duplicate)\n", p.PageTitle, inserted, duplicate)
	}

	return report, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
