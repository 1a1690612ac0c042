package analysis

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// confusables folds Cyrillic and Greek look-alikes onto Latin letters.
// Keys are lowercase; Normalize lowercases before lookup.
var confusables = map[rune]rune{
	'а': 'a', 'α': 'a',
	'в': 'b',
	'с': 'c', 'σ': 'c', 'ϲ': 'c',
	'е': 'e', 'ε': 'e',
	'һ': 'h',
	'і': 'i', 'ι': 'i',
	'ј': 'j',
	'к': 'k', 'κ': 'k',
	'м': 'm',
	'н': 'n',
	'о': 'o', 'ο': 'o',
	'р': 'p', 'ρ': 'p',
	'ԛ': 'q',
	'ѕ': 's',
	'т': 't', 'τ': 't',
	'ν': 'v', 'ѵ': 'v',
	'ԝ': 'w',
	'х': 'x', 'χ': 'x',
	'у': 'y', 'υ': 'y',
}

// leet maps digits and symbols used in place of letters.
var leet = map[rune]rune{
	'$': 's',
	'5': 's',
	'@': 'a',
	'4': 'a',
	'0': 'o',
	'3': 'e',
	'|': 'l',
	'!': 'l',
}

// Normalize canonicalizes OCR text for comparison. The result only holds
// [a-z0-9] and Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	// decompose, then drop combining marks
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	decomposed, _, err := transform.String(t, raw)
	if err != nil {
		decomposed = raw
	}

	folded := strings.Map(func(r rune) rune {
		r = unicode.ToLower(r)
		if c, ok := confusables[r]; ok {
			r = c
		}
		if c, ok := leet[r]; ok {
			r = c
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, decomposed)

	// OCR often reads "m" as "rn". A single pass cannot create a new "rn".
	return strings.ReplaceAll(folded, "rn", "m")
}
