// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/wikifacts/pkg/types"
)

// Build enumerates src, materializes each page and writes its retained
// paragraphs to w as soon as the page is done, so memory use does not grow
// with the size of the category. The caller commits or aborts w.
//
// The returned report is filled in even when err is non-nil.
func Build(ctx context.Context, src Source, w ParagraphWriter, opts Options) (report types.RunReport, err error) {
	out := opts.out()
	log := opts.logger()
	report = NewReport(types.StageBuild)
	defer func() { report.FinishedAt = time.Now().UTC() }()

	for page, enumErr := range src.Enumerate(ctx) {
		if enumErr != nil {
			return report, fmt.Errorf("enumerating pages: %w", enumErr)
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		report.PagesAttempted++

		res, err := src.Materialize(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			fmt.Fprintf(out, "failed  %s: %v\n", page.Title, err)
			log.Warn("revision lookup failed", "title", page.Title, "error", err)
			report.Skip(types.SkipRecord{Kind: types.SkipRevisionLookup, Title: page.Title, SourceURL: page.CanonicalURL, Detail: err.Error()})
			continue
		}

		if res.Fetched.OK() {
			report.PagesFetched++
		}
		report.ParagraphsDropped += len(res.Rejected)

		switch res.Status {
		case types.PageNoRevision:
			fmt.Fprintf(out, "skipped %s: no revision at cutoff\n", page.Title)
			report.Skip(types.SkipRecord{Kind: types.SkipNoRevision, Title: page.Title, SourceURL: page.CanonicalURL})
			continue
		case types.PageFetchFailed:
			fmt.Fprintf(out, "failed  %s: %s\n", page.Title, res.Fetched.Err)
			report.Skip(types.SkipRecord{Kind: types.SkipFetchFailed, Title: page.Title, SourceURL: res.Fetched.SourceURL, Detail: res.Fetched.Err})
			continue
		case types.PageEmpty:
			fmt.Fprintf(out, "skipped %s: no paragraphs (%d dropped)\n", page.Title, len(res.Rejected))
			log.Info("page yielded no paragraphs", "title", page.Title, "dropped", len(res.Rejected))
			report.Skip(types.SkipRecord{Kind: types.SkipEmptyContent, Title: page.Title, SourceURL: res.Fetched.SourceURL})
			continue
		}

		for _, p := range res.Paragraphs {
			if err := w.Write(p); err != nil {
				return report, fmt.Errorf("writing corpus: %w", err)
			}
		}
		report.ParagraphsExtracted += len(res.Paragraphs)
		fmt.Fprintf(out, "fetched %s (%d paragraphs, %d dropped)\n", page.Title, len(res.Paragraphs), len(res.Rejected))
	}

	return report, nil
}
