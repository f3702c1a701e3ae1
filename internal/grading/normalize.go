package grading

import (
	"strings"
	"unicode"
)

// Normalize lowercases s, drops every character outside [a-z0-9 ],
// collapses whitespace runs to a single space and trims. The reference
// script and the candidate text must both go through this before any
// comparison; grading over divergently normalized inputs is meaningless.
func Normalize(s string) string {
	out := make([]rune, 0, len(s))
	space := false
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		switch {
		case unicode.IsSpace(r):
			space = true
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if space && len(out) > 0 {
				out = append(out, ' ')
			}
			space = false
			out = append(out, r)
		default:
			// punctuation and non-ASCII letters are dropped
		}
	}
	return string(out)
}

// Tokenize splits normalized text into word tokens. Empty input yields an
// empty sequence, never a single empty token.
func Tokenize(normalized string) []string {
	return strings.Fields(normalized)
}
