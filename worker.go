package bookcorpus

import (
	"context"
	"fmt"
	"os"

	"github.com/jamesainslie/go-bookcorpus/segment"
)

// work takes files from jobs until the channel is closed and sends one
// FileResult per file. Each worker owns its splitter.
func (p *Pipeline) work(ctx context.Context, id int, jobs <-chan InputFile, results chan<- FileResult) error {
	splitter, err := p.splitter()
	if err != nil {
		return fmt.Errorf("%w: building splitter: %w", ErrInvalidConfig, err)
	}
	seg := segment.New(splitter)

	log := p.logger.With("worker", id)
	log.Debug("worker started")

	for {
		var f InputFile
		var ok bool
		select {
		case f, ok = <-jobs:
			if !ok {
				log.Debug("worker done")
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}

		res := p.processFile(ctx, seg, f)
		if res.Err != nil && ctx.Err() != nil {
			return ctx.Err()
		}

		select {
		case results <- res:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// processFile segments, normalizes and filters one file. Failures are
// reported in the result, never returned.
func (p *Pipeline) processFile(ctx context.Context, seg *segment.Segmenter, f InputFile) FileResult {
	res := FileResult{File: f}

	fh, err := os.Open(f.Path)
	if err != nil {
		res.Err = fmt.Errorf("%w: %w", ErrInputRead, err)
		p.logger.Warn("skipping file", "file", f.Path, "error", err)
		return res
	}
	defer func() { _ = fh.Close() }()

	segs, err := seg.Read(ctx, fh)
	if err != nil {
		if ctx.Err() != nil {
			res.Err = err
			return res
		}
		res.Err = fmt.Errorf("%w: %s: %w", ErrInputRead, f.Path, err)
		p.logger.Warn("skipping file", "file", f.Path, "error", err)
		return res
	}

	res.Sentences, res.Stats = p.Process(segs.Sentences)
	p.logger.Debug("file processed",
		"file", f.Path,
		"candidates", segs.Count,
		"accepted", len(res.Sentences))
	return res
}
