// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"time"
)

// NormalizeTitle returns the identity key of a page title: runs of
// whitespace become a single underscore, case is preserved.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(title), "_")
}

// PageRef identifies a wiki page. Created by the category enumerator.
type PageRef struct {
	// Title is the display title as returned by the wiki (e.g. "Stone Bricks").
	Title string `json:"title" yaml:"title"`

	// CanonicalURL is the unpinned page URL.
	CanonicalURL string `json:"canonical_url" yaml:"canonical_url"`
}

// Key returns the normalized title used for de-duplication.
func (p PageRef) Key() string {
	return NormalizeTitle(p.Title)
}

// RevisionRef is the newest revision of a page at or before AsOf.
type RevisionRef struct {
	Page PageRef `json:"page" yaml:"page"`

	// ID is the wiki revision id. Zero means no revision exists at or
	// before AsOf (or the page does not exist).
	ID int64 `json:"revision_id,omitempty" yaml:"revision_id,omitempty"`

	AsOf time.Time `json:"as_of" yaml:"as_of"`
}

// Exists reports whether a revision was found.
func (r RevisionRef) Exists() bool {
	return r.ID > 0
}

// FetchedPage is the rendered markup of one pinned revision.
type FetchedPage struct {
	Page     PageRef     `json:"page" yaml:"page"`
	Revision RevisionRef `json:"revision" yaml:"revision"`

	// SourceURL is the revision-pinned URL the content was fetched from.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// Content is the raw HTML. Nil when the fetch failed.
	Content []byte `json:"-" yaml:"-"`

	// Err describes why Content is nil. Empty on success.
	Err string `json:"error,omitempty" yaml:"error,omitempty"`
}

// OK reports whether the page has content to extract from.
func (f FetchedPage) OK() bool {
	return len(f.Content) > 0
}

// ParagraphRecord is one cleaned, retained body paragraph.
type ParagraphRecord struct {
	PageTitle string `json:"page_title" yaml:"page_title"`
	SourceURL string `json:"source_url" yaml:"source_url"`
	Text      string `json:"text" yaml:"text"`
}

// CorpusSnapshot is the ordered checkpoint between the fetch phase and the
// decomposition and index phase.
type CorpusSnapshot []ParagraphRecord

// SentenceMetadata is the page-level metadata attached to every indexed sentence.
type SentenceMetadata struct {
	Title     string `json:"title" yaml:"title"`
	SourceURL string `json:"source_url" yaml:"source_url"`
}

// SentenceUnit is one atomic sentence produced by the decomposer.
type SentenceUnit struct {
	Text     string           `json:"text" yaml:"text"`
	Metadata SentenceMetadata `json:"metadata" yaml:"metadata"`
}

// RejectReason names the exclusion predicate a paragraph failed.
type RejectReason string

const (
	RejectTooShort    RejectReason = "too_short"
	RejectColonSuffix RejectReason = "colon_suffix"
	RejectErrorMarker RejectReason = "error_marker"
	RejectBoilerplate RejectReason = "boilerplate"
)

// Rejection records a dropped paragraph and the first predicate it failed.
type Rejection struct {
	Text   string       `json:"text" yaml:"text"`
	Reason RejectReason `json:"reason" yaml:"reason"`
}

// PageStatus is the outcome of materializing one page.
type PageStatus string

const (
	PageExtracted   PageStatus = "extracted"
	PageNoRevision  PageStatus = "no_revision"
	PageFetchFailed PageStatus = "fetch_failed"
	PageEmpty       PageStatus = "empty_content"
)

// PageResult is everything one page contributed to the corpus.
type PageResult struct {
	Page       PageRef           `json:"page" yaml:"page"`
	Status     PageStatus        `json:"status" yaml:"status"`
	Fetched    FetchedPage       `json:"fetched" yaml:"fetched"`
	Paragraphs []ParagraphRecord `json:"paragraphs" yaml:"paragraphs"`
	Rejected   []Rejection       `json:"rejected,omitempty" yaml:"rejected,omitempty"`
}
