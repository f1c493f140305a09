// Package bench measures how well a sentence splitter recovers the sentence
// boundaries of hand-segmented book text.
package bench

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Header holds the optional "# Key: value" lines at the top of a gold file.
type Header struct {
	Source string
	Title  string
	Author string
}

// ParseHeader reads header comments and returns the header and the body
// that follows. A file without a header has an empty Header.
func ParseHeader(text string) (Header, string) {
	var h Header
	offset := 0

	for _, raw := range strings.SplitAfter(text, "\n") {
		line := strings.TrimSpace(raw)
		if line != "" && !strings.HasPrefix(line, "#") {
			break
		}
		offset += len(raw)

		line = strings.TrimSpace(strings.TrimPrefix(line, "#"))
		if value, ok := strings.CutPrefix(line, "Source:"); ok {
			h.Source = strings.TrimSpace(value)
		} else if value, ok := strings.CutPrefix(line, "Title:"); ok {
			h.Title = strings.TrimSpace(value)
		} else if value, ok := strings.CutPrefix(line, "Author:"); ok {
			h.Author = strings.TrimSpace(value)
		}
	}

	return h, text[offset:]
}

// Sentence is a gold sentence with its byte span in the paragraph text.
type Sentence struct {
	Text  string
	Start int
	End   int
}

// Paragraph is the text a splitter sees, with the gold sentences it holds.
type Paragraph struct {
	Text      string
	Sentences []Sentence
}

// Boundaries returns the end offsets of every sentence but the last. The
// paragraph end is a boundary for any splitter and is not scored.
func (p Paragraph) Boundaries() []int {
	if len(p.Sentences) < 2 {
		return nil
	}
	out := make([]int, 0, len(p.Sentences)-1)
	for _, s := range p.Sentences[:len(p.Sentences)-1] {
		out = append(out, s.End)
	}
	return out
}

// ParseParagraphs reads gold text: one sentence per line, paragraphs
// separated by blank lines. Each paragraph's sentences are joined with
// single spaces.
func ParseParagraphs(body string) []Paragraph {
	var paras []Paragraph
	var cur []string

	flush := func() {
		if len(cur) == 0 {
			return
		}
		var p Paragraph
		var b strings.Builder
		for i, s := range cur {
			if i > 0 {
				b.WriteByte(' ')
			}
			start := b.Len()
			b.WriteString(s)
			p.Sentences = append(p.Sentences, Sentence{Text: s, Start: start, End: b.Len()})
		}
		p.Text = b.String()
		paras = append(paras, p)
		cur = nil
	}

	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()

	return paras
}

// Doc is one gold file.
type Doc struct {
	ID         string // file name without extension
	Header     Header
	Paragraphs []Paragraph
}

// Sentences returns the number of gold sentences.
func (d *Doc) Sentences() int {
	n := 0
	for _, p := range d.Paragraphs {
		n += len(p.Sentences)
	}
	return n
}

// LoadDoc loads and parses a gold file.
func LoadDoc(path string) (*Doc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	header, body := ParseHeader(string(data))

	base := filepath.Base(path)
	return &Doc{
		ID:         strings.TrimSuffix(base, filepath.Ext(base)),
		Header:     header,
		Paragraphs: ParseParagraphs(body),
	}, nil
}

// LoadCorpus loads all .txt gold files from a directory.
func LoadCorpus(dir string) ([]*Doc, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var docs []*Doc
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".txt" {
			continue
		}

		doc, err := LoadDoc(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", entry.Name(), err)
		}
		docs = append(docs, doc)
	}

	return docs, nil
}
