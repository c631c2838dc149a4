// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package paragraph

import (
	"strings"

	"github.com/pdiddy/wikifacts/pkg/types"
)

const defaultMinLength = 30

// DefaultErrorMarkers are prefixes of the placeholder text a wiki renders
// for missing or broken pages.
var DefaultErrorMarkers = []string{
	"There is currently no text in this page",
	"The requested page title is empty or invalid",
	"The revision #",
	"Sorry! We could not retrieve",
}

// DefaultBoilerplate are navigation and maintenance phrases. A paragraph
// containing any of them is not article prose.
var DefaultBoilerplate = []string{
	"This article is a stub",
	"You can help by expanding",
	"This article needs to be rewritten",
	"This page was last edited",
	"Retrieved from",
	"Jump to navigation",
	"Jump to search",
}

// Filter holds the four exclusion predicates. A paragraph is retained only
// when every predicate holds.
type Filter struct {
	minLength    int
	errorMarkers []string
	boilerplate  []string
}

// NewFilter builds a Filter from cfg, applying defaults for unset fields.
func NewFilter(cfg types.FilterConfig) Filter {
	f := Filter{
		minLength:    cfg.MinLength,
		errorMarkers: cfg.ErrorMarkers,
		boilerplate:  cfg.BoilerplatePhrases,
	}
	if f.minLength <= 0 {
		f.minLength = defaultMinLength
	}
	if f.errorMarkers == nil {
		f.errorMarkers = DefaultErrorMarkers
	}
	if f.boilerplate == nil {
		f.boilerplate = DefaultBoilerplate
	}
	return f
}

// Check evaluates the predicates in order and returns the first one that
// fails. ok is true when the paragraph is retained.
func (f Filter) Check(text string) (reason types.RejectReason, ok bool) {
	t := strings.TrimSpace(text)
	if len(t) <= f.minLength {
		return types.RejectTooShort, false
	}
	if strings.HasSuffix(t, ":") {
		return types.RejectColonSuffix, false
	}
	for _, m := range f.errorMarkers {
		if m != "" && strings.HasPrefix(t, m) {
			return types.RejectErrorMarker, false
		}
	}
	lower := strings.ToLower(t)
	for _, p := range f.boilerplate {
		if p != "" && strings.Contains(lower, strings.ToLower(p)) {
			return types.RejectBoilerplate, false
		}
	}
	return "", true
}
