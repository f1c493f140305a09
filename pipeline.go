package bookcorpus

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gobwas/glob"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/jamesainslie/go-bookcorpus/filter"
	"github.com/jamesainslie/go-bookcorpus/internal/manifest"
	"github.com/jamesainslie/go-bookcorpus/internal/progress"
	"github.com/jamesainslie/go-bookcorpus/internal/shard"
	"github.com/jamesainslie/go-bookcorpus/normalize"
	"github.com/jamesainslie/go-bookcorpus/segment"
)

// InputFile is one book to process.
type InputFile struct {
	Path  string
	Index int // position in discovery order
}

// FileResult is a worker's output for one file. Err is set when the file
// could not be processed; Sentences is then empty.
type FileResult struct {
	File      InputFile
	Sentences []string
	Stats     filter.Stats
	Err       error
}

// Stats summarizes a run.
type Stats struct {
	Files       int
	FailedFiles int
	Sentences   int
	Shards      []shard.Info
	Filter      filter.Stats
	Elapsed     time.Duration
}

// Progress is a snapshot passed to a Reporter after each file is written.
type Progress = progress.Status

// Reporter receives progress from the writer.
type Reporter interface {
	Update(Progress)
	Finish()
}

// Pipeline builds a sharded sentence corpus. A Pipeline may run several
// times, but not concurrently into the same output directory.
type Pipeline struct {
	cfg        config
	filter     *filter.Filter
	normalizer *normalize.Normalizer
	pattern    glob.Glob
	splitter   segment.Factory
	logger     *slog.Logger
}

// New validates the options and returns a Pipeline.
func New(opts ...Option) (*Pipeline, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.workers < 1 {
		return nil, fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, cfg.workers)
	}
	if cfg.shardSize < 1 {
		return nil, fmt.Errorf("%w: shard size must be at least 1, got %d", ErrInvalidConfig, cfg.shardSize)
	}
	if cfg.prefix == "" {
		return nil, fmt.Errorf("%w: empty shard prefix", ErrInvalidConfig)
	}

	f, err := filter.New(cfg.filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	pattern, err := glob.Compile(cfg.pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: pattern %q: %w", ErrInvalidConfig, cfg.pattern, err)
	}

	splitter := cfg.splitter
	if splitter == nil {
		splitter, err = segment.FactoryFor(cfg.backend)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	return &Pipeline{
		cfg:        cfg,
		filter:     f,
		normalizer: cfg.normalizer,
		pattern:    pattern,
		splitter:   splitter,
		logger:     cfg.logger,
	}, nil
}

// Discover lists the regular files in dir whose names match the pattern, in
// lexicographic order.
func (p *Pipeline) Discover(dir string) ([]InputFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: input directory: %w", ErrInvalidConfig, err)
	}

	var files []InputFile
	for _, e := range entries {
		if e.IsDir() || !p.pattern.Match(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if !e.Type().IsRegular() {
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
		}
		files = append(files, InputFile{Path: path, Index: len(files)})
	}
	return files, nil
}

// Run processes every matching file in inputDir and writes the shards to
// outputDir. Unreadable files are skipped; the first write error stops the
// run and is returned.
func (p *Pipeline) Run(ctx context.Context, inputDir, outputDir string) (Stats, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	files, err := p.Discover(inputDir)
	if err != nil {
		return Stats{}, err
	}

	w, err := shard.NewWriter(outputDir,
		shard.WithSize(p.cfg.shardSize),
		shard.WithPrefix(p.cfg.prefix))
	if err != nil {
		return Stats{}, err
	}

	workers := min(p.cfg.workers, max(1, len(files)))
	p.logger.Info("starting run",
		"input", inputDir,
		"output", outputDir,
		"files", len(files),
		"workers", workers,
		"splitter", p.cfg.backend)

	var reporter Reporter = progress.Nop{}
	if p.cfg.progress != nil {
		reporter = p.cfg.progress(len(files))
	}

	jobs := make(chan InputFile, 2*workers)
	results := make(chan FileResult, workers)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for _, f := range files {
			select {
			case jobs <- f:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for id := range workers {
		g.Go(func() error {
			return p.work(gctx, id, jobs, results)
		})
	}

	var stats Stats
	g.Go(func() error {
		for done := 1; done <= len(files); done++ {
			var res FileResult
			select {
			case res = <-results:
			case <-gctx.Done():
				return gctx.Err()
			}

			stats.Files++
			if res.Err != nil {
				stats.FailedFiles++
			}
			stats.Filter.Merge(res.Stats)

			if err := w.Write(res.Sentences); err != nil {
				return err
			}
			reporter.Update(Progress{
				Done:    done,
				Total:   len(files),
				Shard:   w.Shard(),
				InShard: w.InShard(),
				File:    res.File.Path,
			})
		}
		return nil
	})

	err = g.Wait()
	reporter.Finish()
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}

	stats.Sentences = w.Total()
	stats.Shards = w.Shards()
	stats.Elapsed = time.Since(start)
	if err != nil {
		return stats, err
	}

	if p.cfg.manifest {
		if err := manifest.Write(outputDir, p.buildManifest(inputDir, stats)); err != nil {
			return stats, fmt.Errorf("%w: %w", ErrWrite, err)
		}
	}

	p.logger.Info("run complete",
		"files", stats.Files,
		"failed", stats.FailedFiles,
		"sentences", stats.Sentences,
		"shards", len(stats.Shards),
		"rejected", stats.Filter.Rejected(),
		"elapsed", stats.Elapsed.Round(time.Millisecond))

	return stats, nil
}

// ProcessFile runs one file through segmentation, normalization and
// filtering without writing anything.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (FileResult, error) {
	splitter, err := p.splitter()
	if err != nil {
		return FileResult{}, fmt.Errorf("%w: building splitter: %w", ErrInvalidConfig, err)
	}
	res := p.processFile(ctx, segment.New(splitter), InputFile{Path: path})
	return res, res.Err
}

// Process normalizes and filters candidate sentences. Paragraph markers are
// skipped and not counted.
func (p *Pipeline) Process(candidates []string) ([]string, filter.Stats) {
	var stats filter.Stats
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == segment.ParagraphBreak {
			continue
		}
		s, reason := p.filter.Check(p.normalizer.Apply(c))
		stats.Add(reason)
		if reason == filter.Accepted {
			out = append(out, s)
		}
	}
	return out, stats
}

func (p *Pipeline) buildManifest(inputDir string, stats Stats) manifest.Manifest {
	return manifest.Manifest{
		Created:     time.Now(),
		Input:       inputDir,
		Files:       stats.Files,
		FailedFiles: stats.FailedFiles,
		Sentences:   stats.Sentences,
		Shards: lo.Map(stats.Shards, func(s shard.Info, _ int) manifest.Shard {
			return manifest.Shard{Name: s.Name, Lines: s.Lines}
		}),
		Rejected: map[string]int{
			filter.RejectEmpty.String():  stats.Filter.Empty,
			filter.RejectLength.String(): stats.Filter.Length,
			filter.RejectTokens.String(): stats.Filter.Tokens,
			filter.RejectNoise.String():  stats.Filter.Noise,
		},
		Settings: map[string]any{
			"workers":    p.cfg.workers,
			"min_tokens": p.cfg.filter.MinTokens,
			"max_tokens": p.cfg.filter.MaxTokens,
			"max_chars":  p.cfg.filter.MaxChars,
			"shard_size": p.cfg.shardSize,
			"prefix":     p.cfg.prefix,
			"pattern":    p.cfg.pattern,
			"splitter":   p.cfg.backend,
		},
	}
}
