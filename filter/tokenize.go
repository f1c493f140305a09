package filter

import (
	"strings"

	uaxwords "github.com/clipperhouse/uax29/v2/words"
)

// Tokenize splits s into Unicode (UAX #29) words. Punctuation marks are
// tokens of their own; whitespace is dropped.
func Tokenize(s string) []string {
	var tokens []string
	seg := uaxwords.FromString(s)
	for seg.Next() {
		if tok := seg.Value(); strings.TrimSpace(tok) != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}
