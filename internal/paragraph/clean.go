// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package paragraph

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// citationMarker matches bracketed footnote markers: "[1]", "[23]", "[a]", "[n]".
var citationMarker = regexp.MustCompile(`\[(?:\d+|[^\[\]\s])\]`)

// plainReplacer maps letters and punctuation that have no canonical
// decomposition to their conventional plain spelling.
var plainReplacer = strings.NewReplacer(
	"ß", "ss", "æ", "ae", "Æ", "AE", "œ", "oe", "Œ", "OE",
	"ø", "o", "Ø", "O", "ł", "l", "Ł", "L", "đ", "d", "Đ", "D",
	"ð", "d", "Ð", "D", "þ", "th", "Þ", "Th", "ı", "i",
	"‘", "'", "’", "'", "‚", "'", "‹", "'", "›", "'",
	"“", `"`, "”", `"`, "„", `"`, "«", `"`, "»", `"`,
	"–", "-", "—", "-", "‒", "-", "―", "-", "−", "-",
	"×", "x", "•", "*", "·", "*",
)

// Clean normalizes raw paragraph text: whitespace collapse, citation-marker
// removal, transliteration to printable ASCII. Removing markers or
// unmappable runes can leave doubled spaces or expose a new marker, so a
// settling pass runs at the end; Clean(Clean(s)) == Clean(s).
func Clean(raw string) string {
	s := CollapseWhitespace(raw)
	s = StripCitations(s)
	s = Transliterate(s)
	return CollapseWhitespace(StripCitations(s))
}

// CollapseWhitespace replaces every run of Unicode whitespace (including
// non-breaking spaces) with one ASCII space and trims the ends.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// StripCitations removes citation markers until none remain, so nested
// input like "[a[1]]" does not leave a fresh "[a]" behind.
func StripCitations(s string) string {
	for {
		out := citationMarker.ReplaceAllString(s, "")
		if out == s {
			return out
		}
		s = out
	}
}

// Transliterate reduces s to printable ASCII. Diacritics are stripped to
// their base letters, ligatures and typographic punctuation are mapped,
// and runes with no plain equivalent are dropped.
func Transliterate(s string) string {
	t := transform.Chain(
		norm.NFKD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(runes.Predicate(notPlain)),
	)
	out, _, err := transform.String(t, plainReplacer.Replace(s))
	if err != nil {
		return s
	}
	return out
}

func notPlain(r rune) bool {
	if unicode.IsSpace(r) {
		return r > unicode.MaxASCII
	}
	return r > unicode.MaxASCII || !unicode.IsPrint(r)
}
