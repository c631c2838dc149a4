// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package wiki

import (
	"context"
	"net/url"
	"time"

	"github.com/pdiddy/wikifacts/pkg/types"
)

type revisionResponse struct {
	Query struct {
		Pages []struct {
			Title     string `json:"title"`
			Missing   bool   `json:"missing"`
			Invalid   bool   `json:"invalid"`
			Revisions []struct {
				RevID     int64  `json:"revid"`
				Timestamp string `json:"timestamp"`
			} `json:"revisions"`
		} `json:"pages"`
	} `json:"query"`
}

// Resolve returns the newest revision of page at or before asOf. A missing
// page or one whose first revision postdates asOf yields a RevisionRef with
// ID zero and no error. Request failures are returned as *TransportError.
func (c *Client) Resolve(ctx context.Context, page types.PageRef, asOf time.Time) (types.RevisionRef, error) {
	ref := types.RevisionRef{Page: page, AsOf: asOf}

	params := url.Values{
		"action":  {"query"},
		"prop":    {"revisions"},
		"titles":  {page.Title},
		"rvprop":  {"ids|timestamp"},
		"rvlimit": {"1"},
		"rvstart": {asOf.UTC().Format(time.RFC3339)},
		"rvdir":   {"older"},
	}

	var resp revisionResponse
	if err := c.getJSON(ctx, "resolve revision", params, &resp); err != nil {
		return ref, err
	}

	for _, p := range resp.Query.Pages {
		if p.Missing || p.Invalid {
			continue
		}
		for _, r := range p.Revisions {
			if ts, err := time.Parse(time.RFC3339, r.Timestamp); err == nil && ts.After(asOf) {
				continue // newer than the cutoff
			}
			ref.ID = r.RevID
			return ref, nil
		}
	}

	c.logger.Debug("no revision at or before cutoff", "title", page.Title, "as_of", asOf)
	return ref, nil
}
