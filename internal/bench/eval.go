package bench

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/jamesainslie/go-bookcorpus/segment"
)

// Locate maps sentences returned by a splitter back to end offsets in text,
// dropping the final one. Sentences are searched for in order; one that
// cannot be found advances the cursor by its length.
func Locate(text string, sentences []string) []int {
	if len(sentences) < 2 {
		return nil
	}

	out := make([]int, 0, len(sentences)-1)
	cursor := 0
	for _, s := range sentences[:len(sentences)-1] {
		s = strings.TrimSpace(s)
		if i := strings.Index(text[cursor:], s); i >= 0 {
			cursor += i + len(s)
		} else {
			cursor = min(cursor+len(s), len(text))
		}
		out = append(out, cursor)
	}
	return out
}

// EvaluateDoc splits every paragraph of doc and scores the boundaries.
func EvaluateDoc(ctx context.Context, s segment.Splitter, doc *Doc, cfg Config) (Metrics, error) {
	var total Metrics
	for i, p := range doc.Paragraphs {
		sents, err := s.Split(ctx, p.Text)
		if err != nil {
			return Metrics{}, fmt.Errorf("%s paragraph %d: %w", doc.ID, i, err)
		}
		total = total.Add(Evaluate(Locate(p.Text, sents), p.Boundaries(), cfg), cfg)
	}
	return total, nil
}

// EvaluateCorpus aggregates EvaluateDoc over docs.
func EvaluateCorpus(ctx context.Context, s segment.Splitter, docs []*Doc, cfg Config) (Metrics, error) {
	var total Metrics
	for _, doc := range docs {
		m, err := EvaluateDoc(ctx, s, doc, cfg)
		if err != nil {
			return Metrics{}, err
		}
		total = total.Add(m, cfg)
	}
	return total, nil
}

// Candidate is a named splitter under comparison.
type Candidate struct {
	Name     string
	Splitter segment.Splitter
}

// Result holds the metrics of one candidate.
type Result struct {
	Name    string
	Metrics Metrics
}

// Compare evaluates every candidate on docs and returns the results sorted
// by weighted score, best first. Ties keep the candidate order.
func Compare(ctx context.Context, candidates []Candidate, docs []*Doc, cfg Config) ([]Result, error) {
	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		m, err := EvaluateCorpus(ctx, c.Splitter, docs, cfg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Name, err)
		}
		results = append(results, Result{Name: c.Name, Metrics: m})
	}

	slices.SortStableFunc(results, func(a, b Result) int {
		switch {
		case a.Metrics.WeightedScore > b.Metrics.WeightedScore:
			return -1
		case a.Metrics.WeightedScore < b.Metrics.WeightedScore:
			return 1
		default:
			return 0
		}
	})
	return results, nil
}

// SweepResult holds metrics for one threshold value.
type SweepResult struct {
	Threshold float32
	Metrics   Metrics
}

// SweepThresholds generates threshold values from min to max with given step.
func SweepThresholds(minT, maxT, step float32) []float32 {
	var thresholds []float32
	for t := minT; t < maxT; t += step {
		thresholds = append(thresholds, t)
	}
	return thresholds
}

// Opener builds a splitter for one threshold. The returned close function
// releases it.
type Opener func(threshold float32) (segment.Splitter, func() error, error)

// Sweep evaluates each threshold and returns results sorted by weighted
// score, best first.
func Sweep(ctx context.Context, docs []*Doc, open Opener, thresholds []float32, cfg Config) ([]SweepResult, error) {
	results := make([]SweepResult, 0, len(thresholds))

	for _, threshold := range thresholds {
		s, closeFn, err := open(threshold)
		if err != nil {
			return nil, err
		}

		m, err := EvaluateCorpus(ctx, s, docs, cfg)
		if err := errors.Join(err, closeFn()); err != nil {
			return nil, err
		}
		results = append(results, SweepResult{Threshold: threshold, Metrics: m})
	}

	slices.SortStableFunc(results, func(a, b SweepResult) int {
		switch {
		case a.Metrics.WeightedScore > b.Metrics.WeightedScore:
			return -1
		case a.Metrics.WeightedScore < b.Metrics.WeightedScore:
			return 1
		default:
			return 0
		}
	})
	return results, nil
}

// Names returns the result names in order.
func Names(results []Result) []string {
	return lo.Map(results, func(r Result, _ int) string { return r.Name })
}
