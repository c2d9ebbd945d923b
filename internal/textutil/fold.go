package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// tokenSplitPattern matches runs of anything that is not a letter or digit.
var tokenSplitPattern = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Fold lower-cases s and strips combining marks, so "Experiência" and
// "experiencia" compare equal.
func Fold(s string) string {
	lowered := strings.ToLower(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, lowered)
	if err != nil {
		return lowered
	}
	return folded
}

// Tokenize splits lower-cased text into letter/digit words. Unlike an ASCII
// \b boundary it keeps accented words such as "não" intact.
func Tokenize(text string) []string {
	raw := tokenSplitPattern.Split(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(raw))
	for _, token := range raw {
		if token == "" {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// CountLetters returns the number of unicode letters in s.
func CountLetters(s string) int {
	count := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			count++
		}
	}
	return count
}
