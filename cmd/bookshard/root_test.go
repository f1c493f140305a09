package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jamesainslie/go-bookcorpus/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvFile, "")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeBook(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const book = `The ship left the harbour at dawn. Nobody on board knew where it was going.

Copyright 1851 by the author.
The captain kept the charts locked in his cabin.
`

func TestOverlay(t *testing.T) {
	cmd := runCmd(&globals{})
	if err := cmd.ParseFlags([]string{"--workers", "3", "--splitter", "rules", "--threshold", "0.5", "--input", "books"}); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	want := cfg
	if err := overlay(&cfg, cmd.Flags()); err != nil {
		t.Fatalf("overlay() error = %v", err)
	}

	want.Workers = 3
	want.Splitter = "rules"
	want.SaT.Threshold = 0.5
	want.Input = "books"
	if cfg.Workers != want.Workers || cfg.Splitter != want.Splitter || cfg.SaT.Threshold != want.SaT.Threshold || cfg.Input != want.Input {
		t.Errorf("overlay() = %+v, want %+v", cfg, want)
	}
	if cfg.Output != want.Output || cfg.ShardSize != want.ShardSize {
		t.Error("overlay() changed settings whose flags were not set")
	}
}

func TestRun(t *testing.T) {
	in := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "shards")
	writeBook(t, in, "book.txt", book)

	out, err := execute(t, "run", "-q", "--input", in, "--output", outDir, "--splitter", "rules", "--workers", "2")
	if err != nil {
		t.Fatalf("run error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "wrote 3 sentences to 1 shards") {
		t.Errorf("summary = %q", out)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "book_corpus_00.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 3 {
		t.Errorf("shard has %d lines, want 3", lines)
	}
}

func TestRun_ConfigFile(t *testing.T) {
	in := t.TempDir()
	outDir := t.TempDir()
	writeBook(t, in, "book.txt", book)

	cfgPath := writeBook(t, t.TempDir(), "bookshard.yaml", "splitter: rules\nprefix: test_\nshard_size: 2\n")

	out, err := execute(t, "run", "-q", "--config", cfgPath, "--input", in, "--output", outDir)
	if err != nil {
		t.Fatalf("run error = %v\n%s", err, out)
	}
	for _, name := range []string{"test_00.txt", "test_01.txt"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing shard %s: %v", name, err)
		}
	}
}

func TestRun_InvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero workers", []string{"--workers", "0"}},
		{"empty token range", []string{"--min-tokens", "10", "--max-tokens", "5"}},
		{"unknown splitter", []string{"--splitter", "magic"}},
		{"sat without model", []string{"--splitter", "sat"}},
		{"bad log level", []string{"--log-level", "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"run", "-q", "--input", t.TempDir(), "--output", t.TempDir()}, tt.args...)
			if _, err := execute(t, args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSegment(t *testing.T) {
	path := writeBook(t, t.TempDir(), "book.txt", book)

	out, err := execute(t, "segment", "--splitter", "rules", path)
	if err != nil {
		t.Fatalf("segment error = %v", err)
	}

	want := "the ship left the harbour at dawn .\n" +
		"nobody on board knew where it was going .\n" +
		"the captain kept the charts locked in his cabin .\n"
	if out != want {
		t.Errorf("segment output = %q, want %q", out, want)
	}
}

func TestSegment_MaxChars(t *testing.T) {
	// 34 characters before tokenization.
	path := writeBook(t, t.TempDir(), "book.txt", "The ship left the harbour at dawn.\n")
	const accepted = "the ship left the harbour at dawn .\n"

	tests := []struct {
		maxChars string
		want     string
	}{
		{"35", accepted},
		{"34", accepted},
		{"33", ""},
	}

	for _, tt := range tests {
		t.Run(tt.maxChars, func(t *testing.T) {
			out, err := execute(t, "segment", "--splitter", "rules", "--max-chars", tt.maxChars, path)
			if err != nil {
				t.Fatalf("segment error = %v", err)
			}
			if out != tt.want {
				t.Errorf("segment --max-chars %s = %q, want %q", tt.maxChars, out, tt.want)
			}
		})
	}
}

func TestFilterFlagUsage(t *testing.T) {
	tests := []struct {
		flag  string
		usage string
	}{
		{"min-tokens", "reject sentences with this many tokens or fewer"},
		{"max-tokens", "reject sentences with this many tokens or more"},
		{"max-chars", "reject sentences with more than this many characters"},
	}

	cmd := segmentCmd(&globals{})
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			f := cmd.Flags().Lookup(tt.flag)
			if f == nil {
				t.Fatalf("flag --%s not declared", tt.flag)
			}
			if f.Usage != tt.usage {
				t.Errorf("--%s usage = %q, want %q", tt.flag, f.Usage, tt.usage)
			}
		})
	}
}

func TestSegment_MissingFile(t *testing.T) {
	if _, err := execute(t, "segment", filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEval(t *testing.T) {
	dir := t.TempDir()
	writeBook(t, dir, "gold.txt", "# Title: Gold\n\nThe ship left at dawn.\nNobody knew where it was going.\n")

	out, err := execute(t, "eval", dir, "--backends", "rules")
	if err != nil {
		t.Fatalf("eval error = %v", err)
	}
	if !strings.Contains(out, "Loaded 1 documents (2 sentences)") {
		t.Errorf("output missing corpus summary: %q", out)
	}
	if !strings.Contains(out, "rules") {
		t.Errorf("output missing rules row: %q", out)
	}
}

func TestEval_SweepNeedsModel(t *testing.T) {
	dir := t.TempDir()
	writeBook(t, dir, "gold.txt", "One.\nTwo.\n")

	if _, err := execute(t, "eval", dir, "--sweep"); err == nil {
		t.Error("expected error")
	}
}
