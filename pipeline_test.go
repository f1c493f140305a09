package bookcorpus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jamesainslie/go-bookcorpus/internal/manifest"
	"github.com/jamesainslie/go-bookcorpus/segment"
)

var testBooks = map[string]string{
	"a.txt": "The old man walked to the sea.\nHe looked at the waves for a long time.\n\n\nChapter One\n\n\nShe was not there when he came back.\n",
	"b.txt": "Copyright 2001 by Some Body. All rights reserved.\n\n\n\"Come here,\" she said. It was late.\n",
	"c.txt": "Short.\nYes no.\n",
}

var wantLines = []string{
	"the old man walked to the sea .",
	"he looked at the waves for a long time .",
	"she was not there when he came back .",
	`" come here , " she said .`,
	"it was late .",
	"yes no .",
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeBooks(t *testing.T, books map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, text := range books {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func newTestPipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()
	opts = append([]Option{WithBackend(segment.BackendRules), WithLogger(quietLogger())}, opts...)
	p, err := New(opts...)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return p
}

func readShard(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading shard: %v", err)
	}
	if len(data) == 0 {
		return nil
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func readAllShards(t *testing.T, stats Stats) []string {
	t.Helper()
	var lines []string
	for _, s := range stats.Shards {
		lines = append(lines, readShard(t, s.Path)...)
	}
	return lines
}

func TestRun_SingleWorker(t *testing.T) {
	in := writeBooks(t, testBooks)
	out := filepath.Join(t.TempDir(), "shards")

	p := newTestPipeline(t, WithWorkers(1), WithShardSize(4))
	stats, err := p.Run(context.Background(), in, out)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if got := readAllShards(t, stats); !reflect.DeepEqual(got, wantLines) {
		t.Errorf("lines =\n%q\nwant\n%q", got, wantLines)
	}

	if len(stats.Shards) != 2 {
		t.Fatalf("got %d shards, want 2", len(stats.Shards))
	}
	if stats.Shards[0].Name != "book_corpus_00.txt" || stats.Shards[0].Lines != 4 {
		t.Errorf("shard 0 = %+v", stats.Shards[0])
	}
	if stats.Shards[1].Name != "book_corpus_01.txt" || stats.Shards[1].Lines != 2 {
		t.Errorf("shard 1 = %+v", stats.Shards[1])
	}

	if stats.Files != 3 || stats.FailedFiles != 0 || stats.Sentences != 6 {
		t.Errorf("stats = %+v", stats)
	}
	f := stats.Filter
	if f.Candidates != 10 || f.Accepted != 6 || f.Tokens != 2 || f.Noise != 2 {
		t.Errorf("filter stats = %+v", f)
	}
}

func TestRun_Manifest(t *testing.T) {
	in := writeBooks(t, testBooks)
	out := t.TempDir()

	p := newTestPipeline(t, WithWorkers(1), WithShardSize(4))
	if _, err := p.Run(context.Background(), in, out); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	m, err := manifest.Read(out)
	if err != nil {
		t.Fatalf("manifest.Read() failed: %v", err)
	}
	if m.Files != 3 || m.Sentences != 6 || len(m.Shards) != 2 {
		t.Errorf("manifest = %+v", m)
	}
	if m.Rejected["noise"] != 2 || m.Settings["splitter"] != "rules" {
		t.Errorf("manifest details = %v %v", m.Rejected, m.Settings)
	}
}

func TestRun_WithoutManifest(t *testing.T) {
	in := writeBooks(t, testBooks)
	out := t.TempDir()

	p := newTestPipeline(t, WithManifest(false))
	if _, err := p.Run(context.Background(), in, out); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, manifest.FileName)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected no manifest, stat error = %v", err)
	}
}

func TestRun_ManyWorkers(t *testing.T) {
	books := map[string]string{}
	for i := range 20 {
		name := string(rune('a'+i)) + ".txt"
		books[name] = testBooks["a.txt"] + "\n\n" + testBooks["b.txt"]
	}
	in := writeBooks(t, books)

	p := newTestPipeline(t, WithWorkers(4), WithShardSize(7))
	stats, err := p.Run(context.Background(), in, t.TempDir())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	lines := readAllShards(t, stats)
	if len(lines) != 20*5 || stats.Sentences != 100 {
		t.Fatalf("got %d lines, stats %d; want 100", len(lines), stats.Sentences)
	}

	for i, s := range stats.Shards {
		if i < len(stats.Shards)-1 && s.Lines != 7 {
			t.Errorf("shard %d has %d lines, want 7", i, s.Lines)
		}
		if s.Index != i {
			t.Errorf("shard %d has index %d", i, s.Index)
		}
	}

	// Each file's sentences stay together and in order.
	for i := 0; i < len(lines); i += 5 {
		if lines[i] != wantLines[0] || lines[i+4] != wantLines[4] {
			t.Fatalf("file batch at line %d is interleaved: %q", i, lines[i:i+5])
		}
	}
}

func TestRun_Deterministic(t *testing.T) {
	in := writeBooks(t, testBooks)

	run := func() []string {
		p := newTestPipeline(t, WithWorkers(1), WithShardSize(3))
		stats, err := p.Run(context.Background(), in, t.TempDir())
		if err != nil {
			t.Fatalf("Run() failed: %v", err)
		}
		return readAllShards(t, stats)
	}

	first, second := run(), run()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("runs differ:\n%q\n%q", first, second)
	}
}

func TestRun_SameSentencesAnyWorkerCount(t *testing.T) {
	in := writeBooks(t, testBooks)

	collect := func(workers int) []string {
		p := newTestPipeline(t, WithWorkers(workers))
		stats, err := p.Run(context.Background(), in, t.TempDir())
		if err != nil {
			t.Fatalf("Run() failed: %v", err)
		}
		lines := readAllShards(t, stats)
		slices.Sort(lines)
		return lines
	}

	if one, many := collect(1), collect(3); !reflect.DeepEqual(one, many) {
		t.Errorf("worker count changed the sentence set:\n%q\n%q", one, many)
	}
}

func TestRun_UnreadableFile(t *testing.T) {
	books := map[string]string{
		"a.txt": testBooks["a.txt"],
		"b.txt": strings.Repeat("x", 17<<20),
		"c.txt": testBooks["c.txt"],
	}
	in := writeBooks(t, books)

	p := newTestPipeline(t, WithWorkers(2))
	stats, err := p.Run(context.Background(), in, t.TempDir())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if stats.Files != 3 || stats.FailedFiles != 1 {
		t.Errorf("Files, FailedFiles = %d, %d; want 3, 1", stats.Files, stats.FailedFiles)
	}
	lines := readAllShards(t, stats)
	slices.Sort(lines)
	want := []string{wantLines[0], wantLines[1], wantLines[2], wantLines[5]}
	slices.Sort(want)
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("lines = %q, want %q", lines, want)
	}
}

func TestRun_EmptyInput(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()

	stats, err := newTestPipeline(t).Run(context.Background(), in, out)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if stats.Files != 0 || stats.Sentences != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if len(stats.Shards) != 1 || stats.Shards[0].Lines != 0 {
		t.Errorf("expected one empty shard, got %+v", stats.Shards)
	}
	if _, err := os.Stat(filepath.Join(out, "book_corpus_00.txt")); err != nil {
		t.Errorf("empty shard missing: %v", err)
	}
}

func TestRun_MissingInputDir(t *testing.T) {
	out := filepath.Join(t.TempDir(), "shards")

	_, err := newTestPipeline(t).Run(context.Background(), filepath.Join(t.TempDir(), "nope"), out)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Run() error = %v, want ErrInvalidConfig", err)
	}
	if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
		t.Error("output directory created despite invalid input")
	}
}

func TestRun_OutputNotWritable(t *testing.T) {
	in := writeBooks(t, testBooks)
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := newTestPipeline(t).Run(context.Background(), in, filepath.Join(file, "shards"))
	if !errors.Is(err, ErrWrite) {
		t.Errorf("Run() error = %v, want ErrWrite", err)
	}
}

func TestRun_ShardWriteFails(t *testing.T) {
	books := map[string]string{}
	for i := range 40 {
		books[fmt.Sprintf("book%02d.txt", i)] = testBooks["a.txt"] + "\n\n" + testBooks["b.txt"]
	}
	in := writeBooks(t, books)

	out := t.TempDir()
	if err := os.Mkdir(filepath.Join(out, "book_corpus_02.txt"), 0o755); err != nil {
		t.Fatal(err)
	}

	type outcome struct {
		stats Stats
		err   error
	}
	p := newTestPipeline(t, WithWorkers(4), WithShardSize(10))
	done := make(chan outcome, 1)
	go func() {
		stats, err := p.Run(context.Background(), in, out)
		done <- outcome{stats, err}
	}()

	var res outcome
	select {
	case res = <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("Run() did not return after the shard write failed")
	}

	if !errors.Is(res.err, ErrWrite) {
		t.Fatalf("Run() error = %v, want ErrWrite", res.err)
	}
	if res.stats.Sentences != 20 {
		t.Errorf("stats.Sentences = %d, want 20", res.stats.Sentences)
	}
	if _, err := os.Stat(filepath.Join(out, manifest.FileName)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("manifest written after failed run: %v", err)
	}

	if len(res.stats.Shards) != 2 {
		t.Fatalf("got %d finished shards, want 2", len(res.stats.Shards))
	}
	for i, name := range []string{"book_corpus_00.txt", "book_corpus_01.txt"} {
		if got := len(readShard(t, filepath.Join(out, name))); got != 10 {
			t.Errorf("%s has %d lines, want 10", name, got)
		}
		if s := res.stats.Shards[i]; s.Lines != 10 {
			t.Errorf("shard %d reports %d lines, want 10", i, s.Lines)
		}
	}
}

func TestRun_Cancelled(t *testing.T) {
	in := writeBooks(t, testBooks)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestPipeline(t, WithWorkers(2)).Run(ctx, in, t.TempDir())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestRun_SplitterFactoryError(t *testing.T) {
	in := writeBooks(t, testBooks)
	boom := errors.New("no model")
	failing := func() (segment.Splitter, error) { return nil, boom }

	_, err := newTestPipeline(t, WithSplitter("broken", failing)).Run(context.Background(), in, t.TempDir())
	if !errors.Is(err, boom) || !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Run() error = %v, want ErrInvalidConfig wrapping %v", err, boom)
	}
}

type recordingReporter struct {
	mu       sync.Mutex
	updates  []Progress
	finished int
}

func (r *recordingReporter) Update(s Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, s)
}

func (r *recordingReporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished++
}

func TestRun_Progress(t *testing.T) {
	in := writeBooks(t, testBooks)
	rec := &recordingReporter{}
	var total int

	p := newTestPipeline(t, WithWorkers(1), WithShardSize(4), WithProgress(func(n int) Reporter {
		total = n
		return rec
	}))
	if _, err := p.Run(context.Background(), in, t.TempDir()); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if total != 3 || len(rec.updates) != 3 || rec.finished != 1 {
		t.Fatalf("total %d, updates %d, finished %d", total, len(rec.updates), rec.finished)
	}
	last := rec.updates[2]
	if last.Done != 3 || last.Total != 3 || last.Shard != 1 || last.InShard != 2 {
		t.Errorf("last update = %+v", last)
	}
	if filepath.Base(last.File) != "c.txt" {
		t.Errorf("last file = %q", last.File)
	}
}

func TestDiscover(t *testing.T) {
	in := writeBooks(t, map[string]string{
		"b.txt":     "x",
		"a.txt":     "x",
		"notes.md":  "x",
		"c.txt.bak": "x",
	})
	if err := os.Mkdir(filepath.Join(in, "dir.txt"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := newTestPipeline(t).Discover(in)
	if err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	var names []string
	for i, f := range files {
		names = append(names, filepath.Base(f.Path))
		if f.Index != i {
			t.Errorf("file %s has index %d, want %d", f.Path, f.Index, i)
		}
	}
	if want := []string{"a.txt", "b.txt"}; !reflect.DeepEqual(names, want) {
		t.Errorf("Discover() = %v, want %v", names, want)
	}
}

func TestDiscover_Pattern(t *testing.T) {
	in := writeBooks(t, map[string]string{"1.txt": "x", "2.text": "x", "3.md": "x"})

	files, err := newTestPipeline(t, WithPattern("*.{txt,text}")).Discover(in)
	if err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("got %d files, want 2", len(files))
	}
}

func TestProcessFile(t *testing.T) {
	in := writeBooks(t, testBooks)
	p := newTestPipeline(t)

	res, err := p.ProcessFile(context.Background(), filepath.Join(in, "a.txt"))
	if err != nil {
		t.Fatalf("ProcessFile() failed: %v", err)
	}
	if !reflect.DeepEqual(res.Sentences, wantLines[:3]) {
		t.Errorf("Sentences = %q", res.Sentences)
	}

	_, err = p.ProcessFile(context.Background(), filepath.Join(in, "missing.txt"))
	if !errors.Is(err, ErrInputRead) {
		t.Errorf("ProcessFile() error = %v, want ErrInputRead", err)
	}
}

func TestProcess(t *testing.T) {
	p := newTestPipeline(t)

	out, stats := p.Process([]string{"A fine day it was.", segment.ParagraphBreak, "No.", "ISBN 12345 678"})
	if want := []string{"a fine day it was ."}; !reflect.DeepEqual(out, want) {
		t.Errorf("Process() = %q, want %q", out, want)
	}
	if stats.Candidates != 3 || stats.Accepted != 1 || stats.Tokens != 1 || stats.Noise != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRun_Punkt(t *testing.T) {
	in := writeBooks(t, map[string]string{"a.txt": testBooks["a.txt"]})

	p, err := New(WithWorkers(1), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	stats, err := p.Run(context.Background(), in, t.TempDir())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if got := readAllShards(t, stats); !reflect.DeepEqual(got, wantLines[:3]) {
		t.Errorf("lines = %q, want %q", got, wantLines[:3])
	}
}
