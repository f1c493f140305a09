package segment

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Common abbreviations that shouldn't end sentences
var abbreviations = regexp.MustCompile(`(?i)\b(Mr|Mrs|Ms|Dr|Prof|Sr|Jr|St|No|vs|etc|i\.e|e\.g|U\.S|U\.K)\.$`)

// closers may trail a terminal mark and still belong to the sentence.
const closers = `.?!"')]`

// Rules is a deterministic splitter: a sentence ends at '.', '?' or '!'
// (plus trailing closers) followed by whitespace and a token that starts with
// an upper-case letter, a digit or an opening quote.
type Rules struct{}

// Split implements Splitter.
func (Rules) Split(_ context.Context, text string) ([]string, error) {
	return splitRules(text), nil
}

func splitRules(text string) []string {
	if text == "" {
		return nil
	}

	var out []string
	start := 0
	for i := 0; i < len(text); {
		ch := text[i]
		if ch != '.' && ch != '?' && ch != '!' {
			i++
			continue
		}

		end := i + 1
		for end < len(text) && strings.IndexByte(closers, text[end]) >= 0 {
			end++
		}
		next := end
		for next < len(text) && isSpace(text[next]) {
			next++
		}

		switch {
		case end < len(text) && next == end:
			// no whitespace after the mark, e.g. "3.14" or "U.S"
		case next < len(text) && !opensSentence(text[next:]):
		case ch == '.' && end == i+1 && abbreviations.MatchString(text[start:end]):
		default:
			if s := strings.TrimSpace(text[start:end]); s != "" {
				out = append(out, s)
			}
			start = next
		}
		i = end
	}

	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func opensSentence(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	if unicode.IsUpper(r) || unicode.IsDigit(r) {
		return true
	}
	return strings.ContainsRune("\"'“‘([", r)
}
