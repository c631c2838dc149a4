// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package wiki

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/wikifacts/pkg/types"
)

const categoryPrefix = "Category:"

type categoryResponse struct {
	Continue *struct {
		CMContinue string `json:"cmcontinue"`
	} `json:"continue"`
	Query struct {
		CategoryMembers []struct {
			NS    int    `json:"ns"`
			Title string `json:"title"`
		} `json:"categorymembers"`
	} `json:"query"`
}

// CategoryTitle returns the full category page title for c, accepting both
// "Blocks" and "Category:Blocks".
func CategoryTitle(c string) string {
	c = strings.TrimSpace(c)
	if strings.HasPrefix(c, categoryPrefix) {
		return c
	}
	return categoryPrefix + c
}

// Members returns the member pages of category in listing order,
// de-duplicated on normalized title. It follows continuation tokens until
// the API returns none, so k continuation tokens cost k+1 requests. Any
// failed request aborts the listing: a partial membership list is never
// returned.
func (c *Client) Members(ctx context.Context, category string) ([]types.PageRef, error) {
	cmtitle := CategoryTitle(category)

	var (
		members []types.PageRef
		seen    = make(map[string]bool)
		tokens  = make(map[string]bool)
		token   string
		page    int
	)
	for {
		params := url.Values{
			"action":  {"query"},
			"list":    {"categorymembers"},
			"cmtitle": {cmtitle},
			"cmlimit": {strconv.Itoa(c.limit)},
			"cmprop":  {"title"},
			"cmtype":  {"page"},
		}
		if token != "" {
			params.Set("cmcontinue", token)
		}

		var resp categoryResponse
		if err := c.getJSON(ctx, "list "+cmtitle, params, &resp); err != nil {
			return nil, fmt.Errorf("listing %s page %d: %w", cmtitle, page+1, err)
		}
		page++

		for _, m := range resp.Query.CategoryMembers {
			ref := c.pageRef(m.Title)
			if seen[ref.Key()] {
				continue
			}
			seen[ref.Key()] = true
			members = append(members, ref)
		}

		if resp.Continue == nil || resp.Continue.CMContinue == "" {
			break
		}
		token = resp.Continue.CMContinue
		if tokens[token] {
			return nil, fmt.Errorf("listing %s: %w %q", cmtitle, ErrPaginationLoop, token)
		}
		tokens[token] = true
	}

	c.logger.Debug("listed category", "category", cmtitle, "members", len(members), "requests", page)
	return members, nil
}

// MembersAll yields the union of the members of categories, each page once.
// Categories are listed one at a time as the sequence is consumed. An
// enumeration failure is yielded as the final element.
func (c *Client) MembersAll(ctx context.Context, categories []string) iter.Seq2[types.PageRef, error] {
	return func(yield func(types.PageRef, error) bool) {
		seen := make(map[string]bool)
		for _, cat := range categories {
			members, err := c.Members(ctx, cat)
			if err != nil {
				yield(types.PageRef{}, err)
				return
			}
			for _, m := range members {
				if seen[m.Key()] {
					continue
				}
				seen[m.Key()] = true
				if !yield(m, nil) {
					return
				}
			}
		}
	}
}
