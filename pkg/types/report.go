// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SkipKind classifies an item that did not make it into the corpus or index.
type SkipKind string

const (
	SkipNoRevision     SkipKind = "no_revision"
	SkipRevisionLookup SkipKind = "revision_lookup_failed"
	SkipFetchFailed    SkipKind = "fetch_failed"
	SkipEmptyContent   SkipKind = "empty_content"
	SkipDecompose      SkipKind = "decompose_failed"
	SkipIndexInsert    SkipKind = "index_insert_failed"
)

// SkipRecord is one skipped item with the reason it was skipped.
type SkipRecord struct {
	Kind      SkipKind `json:"kind" yaml:"kind"`
	Title     string   `json:"title" yaml:"title"`
	SourceURL string   `json:"source_url,omitempty" yaml:"source_url,omitempty"`
	Text      string   `json:"text,omitempty" yaml:"text,omitempty"`
	Detail    string   `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// InsertStatus is the outcome of adding one sentence to the vector index.
type InsertStatus string

const (
	InsertOK        InsertStatus = "inserted"
	InsertDuplicate InsertStatus = "duplicate"
	InsertFailed    InsertStatus = "failed"
)

// InsertResult is the typed result of a single index insertion.
type InsertResult struct {
	Status InsertStatus
	ID     string
	Err    error
}

// Stage names a pipeline run.
type Stage string

const (
	StageBuild Stage = "build"
	StageIndex Stage = "index"
)

// RunReport summarizes a pipeline run: counts plus every skipped item.
type RunReport struct {
	RunID      string    `json:"run_id" yaml:"run_id"`
	Stage      Stage     `json:"stage" yaml:"stage"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`

	PagesAttempted      int `json:"pages_attempted" yaml:"pages_attempted"`
	PagesFetched        int `json:"pages_fetched" yaml:"pages_fetched"`
	ParagraphsExtracted int `json:"paragraphs_extracted" yaml:"paragraphs_extracted"`
	ParagraphsDropped   int `json:"paragraphs_dropped" yaml:"paragraphs_dropped"`

	ParagraphsRead       int `json:"paragraphs_read" yaml:"paragraphs_read"`
	ParagraphsDecomposed int `json:"paragraphs_decomposed" yaml:"paragraphs_decomposed"`
	ParagraphsResumed    int `json:"paragraphs_resumed" yaml:"paragraphs_resumed"`
	SentencesIndexed     int `json:"sentences_indexed" yaml:"sentences_indexed"`
	SentencesDuplicate   int `json:"sentences_duplicate" yaml:"sentences_duplicate"`

	Skipped []SkipRecord `json:"skipped" yaml:"skipped"`
}

// Skip appends a skipped item.
func (r *RunReport) Skip(rec SkipRecord) {
	r.Skipped = append(r.Skipped, rec)
}

// Count returns the number of skipped items of the given kind.
func (r RunReport) Count(kind SkipKind) int {
	n := 0
	for _, s := range r.Skipped {
		if s.Kind == kind {
			n++
		}
	}
	return n
}

// HasFailures reports whether any item failed, as opposed to being skipped
// for a data reason such as a missing revision or an empty page.
func (r RunReport) HasFailures() bool {
	for _, s := range r.Skipped {
		switch s.Kind {
		case SkipRevisionLookup, SkipFetchFailed, SkipDecompose, SkipIndexInsert:
			return true
		}
	}
	return false
}
