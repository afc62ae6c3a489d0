package nlp

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	reNonWord = regexp.MustCompile(`[^\p{L}\p{N}]+`)
	reSpaces  = regexp.MustCompile(`\s+`)
)

// Fold lowercases s and strips combining accents: "Lurín" -> "lurin".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// NormalizeText lowercases s, turns every non letter/digit run into one space
// and trims the result.
func NormalizeText(s string) string {
	s = strings.ToLower(s)
	s = reNonWord.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Tokenize splits s into lowercased word tokens of at least minLen runes.
// Accents are kept so labels built from tokens stay readable.
func Tokenize(s string, minLen int) []string {
	normalized := NormalizeText(s)
	if normalized == "" {
		return nil
	}
	parts := strings.Split(normalized, " ")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if len([]rune(p)) < minLen {
			continue
		}
		out = append(out, p)
	}
	return out
}

// WordCount counts whitespace separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// TitleCase capitalizes every word of s.
func TitleCase(s string) string {
	return cases.Title(language.Und).String(s)
}

// CleanText collapses whitespace, including non-breaking spaces.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}
