package normalize

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// markers are the lead characters UTF-8 text acquires when it is decoded as
// Windows-1252: Ã and Â start Latin-1 letters and symbols, â€ starts
// general punctuation.
var markers = []string{"Ã", "Â", "â€"}

// maxRepairPasses bounds the undo loop for text that was mis-decoded more
// than once.
const maxRepairPasses = 3

// FixEncoding repairs text that was UTF-8 encoded, decoded as Windows-1252 and
// encoded again. A repair is kept only when it produces valid UTF-8 with fewer
// mojibake markers; otherwise the text is returned unchanged. Invalid byte
// sequences are dropped and the result is NFC normalized.
func FixEncoding(s string) string {
	s = strings.ToValidUTF8(s, "")

	for range maxRepairPasses {
		n := markerCount(s)
		if n == 0 {
			break
		}
		fixed, ok := undoWindows1252(s)
		if !ok || markerCount(fixed) >= n {
			break
		}
		s = fixed
	}

	return norm.NFC.String(s)
}

func markerCount(s string) int {
	n := 0
	for _, m := range markers {
		n += strings.Count(s, m)
	}
	return n
}

// undoWindows1252 maps every rune back to its Windows-1252 byte and reads the
// bytes as UTF-8. It fails if a rune has no Windows-1252 byte or the bytes are
// not valid UTF-8.
func undoWindows1252(s string) (string, bool) {
	b, err := charmap.Windows1252.NewEncoder().Bytes([]byte(s))
	if err != nil || !utf8.Valid(b) {
		return "", false
	}
	return string(b), true
}
