// Package segment reconstructs sentence boundaries from raw book text.
//
// Book files wrap paragraphs across lines. A single blank line is treated as a
// soft break inside a paragraph; two consecutive blank lines end the paragraph.
// Each finished paragraph is joined with single spaces and handed to a
// Splitter, which produces the candidate sentences.
package segment

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// ParagraphBreak is emitted between flushed paragraphs. It is not a sentence
// and is not counted in Result.Count.
const ParagraphBreak = "\n"

// maxLineBytes bounds a single input line. Books converted from EPUB sometimes
// carry whole chapters on one line.
const maxLineBytes = 16 << 20

// Result holds the candidate sentences of one file in source order.
type Result struct {
	Sentences []string
	Count     int
}

// Segmenter groups lines into paragraphs and splits them into sentences.
// A Segmenter is not safe for concurrent use when its Splitter is not.
type Segmenter struct {
	splitter Splitter
}

// New returns a Segmenter that splits paragraphs with s.
func New(s Splitter) *Segmenter {
	return &Segmenter{splitter: s}
}

// Lines segments an in-memory slice of lines.
func (s *Segmenter) Lines(ctx context.Context, lines []string) (Result, error) {
	acc := accumulator{splitter: s.splitter}
	for _, line := range lines {
		if err := acc.add(ctx, line); err != nil {
			return Result{}, err
		}
	}
	if err := acc.flush(ctx); err != nil {
		return Result{}, err
	}
	return acc.res, nil
}

// Read segments lines streamed from r.
func (s *Segmenter) Read(ctx context.Context, r io.Reader) (Result, error) {
	acc := accumulator{splitter: s.splitter}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		if err := acc.add(ctx, sc.Text()); err != nil {
			return Result{}, err
		}
	}
	if err := sc.Err(); err != nil {
		return Result{}, fmt.Errorf("scanning lines: %w", err)
	}

	if err := acc.flush(ctx); err != nil {
		return Result{}, err
	}
	return acc.res, nil
}

type accumulator struct {
	splitter Splitter
	lines    []string
	blank    int
	res      Result
}

func (a *accumulator) add(ctx context.Context, line string) error {
	stripped := strings.TrimSpace(line)
	if stripped != "" {
		a.blank = 0
		a.lines = append(a.lines, stripped)
		return nil
	}

	a.blank++
	if a.blank < 2 {
		return nil
	}
	a.blank = 0
	if len(a.lines) == 0 {
		return nil
	}
	if err := a.flush(ctx); err != nil {
		return err
	}
	a.res.Sentences = append(a.res.Sentences, ParagraphBreak)
	return nil
}

func (a *accumulator) flush(ctx context.Context) error {
	if len(a.lines) == 0 {
		return nil
	}

	text := strings.Join(a.lines, " ")
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	a.lines = a.lines[:0]

	sents, err := a.splitter.Split(ctx, text)
	if err != nil {
		return fmt.Errorf("splitting paragraph: %w", err)
	}
	for _, sent := range sents {
		sent = strings.TrimSpace(sent)
		if sent == "" {
			continue
		}
		a.res.Sentences = append(a.res.Sentences, sent)
		a.res.Count++
	}
	return nil
}
