// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package wiki

import (
	"context"
	"iter"
	"time"

	"github.com/pdiddy/wikifacts/internal/paragraph"
	"github.com/pdiddy/wikifacts/pkg/types"
)

// Source is a corpus source backed by category membership on one wiki,
// pinned to the revisions current at AsOf.
type Source struct {
	client     *Client
	extractor  *paragraph.Extractor
	categories []string
	asOf       time.Time
}

// NewSource returns a Source over categories as of asOf.
func NewSource(client *Client, extractor *paragraph.Extractor, categories []string, asOf time.Time) *Source {
	return &Source{
		client:     client,
		extractor:  extractor,
		categories: categories,
		asOf:       asOf,
	}
}

// Enumerate lists the member pages of every category, each page once.
// Each call starts a fresh listing.
func (s *Source) Enumerate(ctx context.Context) iter.Seq2[types.PageRef, error] {
	return s.client.MembersAll(ctx, s.categories)
}

// Materialize resolves, fetches and extracts one page. The returned error
// is non-nil only when the revision lookup itself failed; every other
// outcome is encoded in PageResult.Status.
func (s *Source) Materialize(ctx context.Context, page types.PageRef) (types.PageResult, error) {
	res := types.PageResult{Page: page}

	rev, err := s.client.Resolve(ctx, page, s.asOf)
	if err != nil {
		return res, err
	}
	if !rev.Exists() {
		res.Status = types.PageNoRevision
		return res, nil
	}

	res.Fetched = s.client.Fetch(ctx, rev)
	if !res.Fetched.OK() {
		res.Status = types.PageFetchFailed
		return res, nil
	}

	kept, rejected, err := s.extractor.Extract(res.Fetched)
	if err != nil {
		res.Status = types.PageFetchFailed
		res.Fetched.Err = err.Error()
		return res, nil
	}
	res.Paragraphs = kept
	res.Rejected = rejected

	if len(kept) == 0 {
		res.Status = types.PageEmpty
		return res, nil
	}
	res.Status = types.PageExtracted
	return res, nil
}
