package normalize

import (
	"html"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// maxFixRounds bounds FixText. Text settles in two or three rounds unless it
// was escaped or mis-decoded many times over.
const maxFixRounds = 16

// quotes folds typographic quotes and the modifier apostrophe to ASCII.
var quotes = strings.NewReplacer(
	"\u2018", "'", "\u2019", "'", "\u201a", "'", "\u201b", "'", "\u02bc", "'",
	"\u201c", `"`, "\u201d", `"`, "\u201e", `"`, "\u201f", `"`,
)

// ligatures expands the Latin presentation forms that PDF and OCR text keep.
var ligatures = strings.NewReplacer(
	"ﬀ", "ff",
	"ﬁ", "fi",
	"ﬂ", "fl",
	"ﬃ", "ffi",
	"ﬄ", "ffl",
	"ﬅ", "st",
	"ﬆ", "st",
	"Ĳ", "IJ",
	"ĳ", "ij",
)

// TextFixes returns the character-level repairs FixText repeats, in order.
// Each one is a total function and idempotent on its own.
func TextFixes() []Rule {
	return []Rule{
		{Name: "unescape-html", Apply: html.UnescapeString},
		{Name: "fix-encoding", Apply: FixEncoding},
		{Name: "fix-ligatures", Apply: ligatures.Replace},
		{Name: "fold-width", Apply: width.Fold.String},
		{Name: "uncurl-quotes", Apply: quotes.Replace},
		{Name: "remove-control", Apply: RemoveControl},
	}
}

// FixText runs TextFixes until the text stops changing. The fixes feed each
// other: a repaired encoding can yield curly quotes, and an unescaped entity
// or folded ligature can make a failed encoding repair succeed.
func FixText(s string) string {
	fixes := TextFixes()
	for range maxFixRounds {
		prev := s
		for _, f := range fixes {
			s = f.Apply(s)
		}
		if s == prev {
			break
		}
	}
	return s
}

// RemoveControl deletes control characters other than tab, newline, form feed
// and carriage return, along with byte order marks, interlinear annotation
// marks and the deprecated format characters U+206A to U+206F.
func RemoveControl(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t', r == '\n', r == '\f', r == '\r':
			return r
		case unicode.IsControl(r),
			r == '\ufeff',
			r >= '\ufff9' && r <= '\ufffc',
			r >= '\u206a' && r <= '\u206f':
			return -1
		}
		return r
	}, s)
}
