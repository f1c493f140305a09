package tokenizer

import (
	"unicode"
	"unicode/utf8"
)

const sentencePieceSpace = '▁' // U+2581 LOWER ONE EIGHTH BLOCK

// normalized is the SentencePiece view of a text plus, for every rune, the
// byte span it came from in the original text.
type normalized struct {
	runes  []rune
	starts []int
	ends   []int
}

// normalize prepares text for tokenization following XLM-RoBERTa conventions:
// a dummy prefix before the first word, whitespace runs collapsed into a
// single ▁, trailing whitespace dropped. An inserted ▁ maps to the empty span
// at the start of the word it precedes.
func normalize(text string) normalized {
	var n normalized
	needSpace := true

	for i, r := range text {
		if unicode.IsSpace(r) {
			if len(n.runes) > 0 {
				needSpace = true
			}
			continue
		}
		if needSpace {
			n.runes = append(n.runes, sentencePieceSpace)
			n.starts = append(n.starts, i)
			n.ends = append(n.ends, i)
			needSpace = false
		}
		_, width := utf8.DecodeRuneInString(text[i:])
		n.runes = append(n.runes, r)
		n.starts = append(n.starts, i)
		n.ends = append(n.ends, i+width)
	}

	return n
}

// String returns the normalized text.
func (n normalized) String() string {
	return string(n.runes)
}
