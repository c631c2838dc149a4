// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package paragraph turns rendered wiki HTML into clean prose paragraphs.
// It selects the direct paragraph children of the main content container,
// normalizes their text, and drops anything that fails an exclusion
// predicate.
package paragraph

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/wikifacts/pkg/types"
)

// DefaultSelector picks paragraphs that are immediate children of the
// MediaWiki parser output. Paragraphs nested in tables, infoboxes and
// navboxes are not matched.
const DefaultSelector = "div.mw-parser-output > p"

// Extractor selects, cleans and filters paragraphs.
type Extractor struct {
	selector string
	filter   Filter
}

// NewExtractor returns an Extractor using selector (DefaultSelector when
// empty) and filter.
func NewExtractor(selector string, filter Filter) *Extractor {
	if selector == "" {
		selector = DefaultSelector
	}
	return &Extractor{selector: selector, filter: filter}
}

// Extract returns the retained paragraphs of page in document order and
// the rejected ones with the predicate each failed. A page without content
// yields nothing.
func (e *Extractor) Extract(page types.FetchedPage) ([]types.ParagraphRecord, []types.Rejection, error) {
	if !page.OK() {
		return nil, nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Content))
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", page.SourceURL, err)
	}

	var (
		kept     []types.ParagraphRecord
		rejected []types.Rejection
	)
	doc.Find(e.selector).Each(func(_ int, s *goquery.Selection) {
		text := Clean(s.Text())
		if reason, ok := e.filter.Check(text); !ok {
			rejected = append(rejected, types.Rejection{Text: text, Reason: reason})
			return
		}
		kept = append(kept, types.ParagraphRecord{
			PageTitle: page.Page.Title,
			SourceURL: page.SourceURL,
			Text:      text,
		})
	})

	return kept, rejected, nil
}
