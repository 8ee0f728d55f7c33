package entity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks removes diacritics so "José" and "Jose" normalize identically.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// generational suffixes dropped during normalization. Providers disagree on
// whether to carry them, so matching must ignore them.
var nameSuffixes = map[string]bool{
	"jr": true, "sr": true, "ii": true, "iii": true, "iv": true, "v": true,
}

// NormalizeName canonicalizes a free-text entity name for exact matching:
// case-folded, whitespace-trimmed, "Last, First" reordered, punctuation
// within tokens stripped, generational suffixes dropped.
func NormalizeName(s string) string {
	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}
	s = strings.ToLower(strings.TrimSpace(s))

	// "Last, First" -> "First Last".
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = strings.TrimSpace(s[i+1:]) + " " + strings.TrimSpace(s[:i])
	}

	tokens := strings.Fields(s)
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return r
			}
			return -1
		}, tok)
		if tok == "" {
			continue
		}
		out = append(out, tok)
	}

	// Drop a trailing generational suffix ("aj brown jr" == "aj brown").
	if len(out) > 1 && nameSuffixes[out[len(out)-1]] {
		out = out[:len(out)-1]
	}

	return strings.Join(out, " ")
}
