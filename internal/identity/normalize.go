// Package identity derives canonical identity keys and tracks which people
// a run has already seen or must exclude.
package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// legalSuffixes are stripped from employer names so "Acme, Inc." and
// "Acme" key to the same company. Entries are lower-case and sorted so
// longer forms come before their prefixes.
var legalSuffixes = []string{
	" incorporated", " corporation", " l.l.c.", " l.l.c", " limited",
	" pllc", " corp.", " corp", " inc.", " inc", " llc", " ltd.", " ltd",
	" llp", " plc", " co.", " gmbh", " s.a.", " ag", " lp",
}

// Fold lower-cases s, trims it, removes diacritics, and collapses runs of
// whitespace. "  José  García " folds to "jose garcia".
func Fold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// NormalizeEmployer folds an employer name and drops legal entity suffixes
// and punctuation.
func NormalizeEmployer(name string) string {
	name = Fold(name)
	if name == "" {
		return ""
	}
	name = strings.TrimSuffix(name, ",")
	for _, suffix := range legalSuffixes {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}
	name = strings.NewReplacer(
		",", "",
		".", "",
		"'", "",
		"\"", "",
		"&", "and",
		"-", " ",
	).Replace(name)
	return strings.Join(strings.Fields(name), " ")
}
