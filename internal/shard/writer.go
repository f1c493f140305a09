// Package shard writes accepted sentences, one per line, into numbered shard
// files that rotate at a fixed line count.
package shard

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Defaults for shard naming and size.
const (
	DefaultPrefix = "book_corpus_"
	DefaultSize   = 1_000_000
)

const bufferSize = 1 << 20

// ErrWrite wraps every output failure. Write errors are fatal to a run.
var ErrWrite = errors.New("shard: write failed")

// Info describes one shard file.
type Info struct {
	Index int
	Name  string
	Path  string
	Lines int
}

// Option configures a Writer.
type Option func(*Writer)

// WithPrefix sets the shard file name prefix (default: "book_corpus_").
func WithPrefix(prefix string) Option {
	return func(w *Writer) {
		if prefix != "" {
			w.prefix = prefix
		}
	}
}

// WithSize sets the number of lines per shard (default: 1,000,000).
func WithSize(n int) Option {
	return func(w *Writer) {
		if n > 0 {
			w.size = n
		}
	}
}

// Writer owns the shard files of one run. It is not safe for concurrent use;
// a single goroutine feeds it.
//
// Every shard except the last holds exactly the configured number of lines.
// The next shard is created when its first line arrives, so a total that is
// an exact multiple of the size leaves no empty trailing shard.
type Writer struct {
	dir    string
	prefix string
	size   int

	f   *os.File
	buf *bufio.Writer

	index  int
	total  int
	shards []Info
	closed bool
}

// NewWriter creates dir if needed and returns a Writer for it.
func NewWriter(dir string, opts ...Option) (*Writer, error) {
	w := &Writer{
		dir:    dir,
		prefix: DefaultPrefix,
		size:   DefaultSize,
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating output directory: %w", ErrWrite, err)
	}
	return w, nil
}

// Write appends sentences in order, rotating shards as they fill.
func (w *Writer) Write(sentences []string) error {
	for _, s := range sentences {
		if err := w.WriteLine(s); err != nil {
			return err
		}
	}
	return nil
}

// WriteLine appends one sentence.
func (w *Writer) WriteLine(s string) error {
	if w.closed {
		return fmt.Errorf("%w: writer closed", ErrWrite)
	}
	if w.f == nil {
		if err := w.open(); err != nil {
			return err
		}
	}

	if _, err := w.buf.WriteString(s); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, w.f.Name(), err)
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, w.f.Name(), err)
	}

	w.total++
	w.shards[len(w.shards)-1].Lines++

	if w.total%w.size == 0 {
		if err := w.closeActive(); err != nil {
			return err
		}
		w.index++
	}
	return nil
}

// Close flushes and closes the active shard. A writer that never received a
// line still leaves an empty first shard behind.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if len(w.shards) == 0 {
		if err := w.open(); err != nil {
			return err
		}
	}
	return w.closeActive()
}

// Shard returns the index of the shard the next line goes to.
func (w *Writer) Shard() int { return w.index }

// InShard returns the number of lines in the shard being filled.
func (w *Writer) InShard() int { return w.total % w.size }

// Total returns the number of lines written.
func (w *Writer) Total() int { return w.total }

// Size returns the configured lines per shard.
func (w *Writer) Size() int { return w.size }

// Shards returns the shards created so far.
func (w *Writer) Shards() []Info {
	return append([]Info(nil), w.shards...)
}

// Name returns the file name of shard index.
func (w *Writer) Name(index int) string {
	return fmt.Sprintf("%s%02d.txt", w.prefix, index)
}

func (w *Writer) open() error {
	name := w.Name(w.index)
	path := filepath.Join(w.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	w.f = f
	if w.buf == nil {
		w.buf = bufio.NewWriterSize(f, bufferSize)
	} else {
		w.buf.Reset(f)
	}
	w.shards = append(w.shards, Info{Index: w.index, Name: name, Path: path})
	return nil
}

func (w *Writer) closeActive() error {
	if w.f == nil {
		return nil
	}
	f := w.f
	w.f = nil

	if err := w.buf.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: flushing %s: %w", ErrWrite, f.Name(), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %w", ErrWrite, f.Name(), err)
	}
	return nil
}
