// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package wiki

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pdiddy/wikifacts/pkg/types"
)

// Fetch downloads the rendered markup of rev. Failures never return an
// error: a non-2xx status, an empty body or a transport error yield a
// FetchedPage with nil Content and Err describing the cause, so the caller
// can skip the page and move on.
//
// When a cache is configured, a cached body for the same revision is
// returned without contacting the wiki.
func (c *Client) Fetch(ctx context.Context, rev types.RevisionRef) types.FetchedPage {
	fp := types.FetchedPage{
		Page:      rev.Page,
		Revision:  rev,
		SourceURL: c.PageURL(rev.Page.Title, rev.ID),
	}

	if c.cache != nil && rev.Exists() {
		body, ok, err := c.cache.Get(rev.Page.Key(), rev.ID)
		if err != nil {
			c.logger.Warn("page cache read failed", "title", rev.Page.Title, "error", err)
		} else if ok {
			fp.Content = body
			return fp
		}
	}

	body, status, err := c.get(ctx, fp.SourceURL)
	switch {
	case err != nil:
		fp.Err = (&TransportError{Op: "fetch", URL: fp.SourceURL, Err: err}).Error()
	case status < 200 || status >= 300:
		fp.Err = (&TransportError{Op: "fetch", URL: fp.SourceURL, Status: status}).Error()
	case len(body) == 0:
		fp.Err = fmt.Sprintf("fetch %s: empty body (HTTP %d)", fp.SourceURL, status)
	}
	if fp.Err != "" {
		c.logger.Warn("page fetch failed", "title", rev.Page.Title, "url", fp.SourceURL, "error", fp.Err)
		return fp
	}

	fp.Content = body
	if c.cache != nil && rev.Exists() && status == http.StatusOK {
		if err := c.cache.Put(rev.Page.Key(), rev.ID, body); err != nil {
			c.logger.Warn("page cache write failed", "title", rev.Page.Title, "error", err)
		}
	}
	return fp
}
