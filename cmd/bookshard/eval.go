package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/go-bookcorpus/internal/bench"
	"github.com/jamesainslie/go-bookcorpus/internal/config"
	"github.com/jamesainslie/go-bookcorpus/segment"
)

type evalOptions struct {
	backends  []string
	tolerance int
	wp        float64
	wr        float64
	sweep     bool
	sweepMin  float32
	sweepMax  float32
	sweepStep float32
}

// evalCmd returns the eval command
func evalCmd(g *globals) *cobra.Command {
	o := &evalOptions{}

	cmd := &cobra.Command{
		Use:   "eval DIR",
		Short: "Score sentence splitters against gold text",
		Long: `Score sentence splitters against hand-segmented text.

DIR holds .txt files with one sentence per line and a blank line between
paragraphs. Optional "# Title:", "# Author:" and "# Source:" lines may
precede the text. Each splitter sees whole paragraphs and is scored on the
boundaries it finds, within --tolerance bytes.

The SaT splitter is included when --model and --tokenizer are set. With
--sweep its threshold is varied instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, g, args[0], o)
		},
	}

	d := bench.DefaultConfig()
	fs := cmd.Flags()
	fs.StringSliceVar(&o.backends, "backends", []string{segment.BackendPunkt, segment.BackendRules}, "model-free splitters to score")
	fs.IntVar(&o.tolerance, "tolerance", d.Tolerance, "byte tolerance for boundary matching")
	fs.Float64Var(&o.wp, "wp", d.PrecisionWeight, "precision weight")
	fs.Float64Var(&o.wr, "wr", d.RecallWeight, "recall weight")
	fs.BoolVar(&o.sweep, "sweep", false, "sweep the SaT threshold")
	fs.Float32Var(&o.sweepMin, "sweep-min", 0.01, "sweep minimum threshold")
	fs.Float32Var(&o.sweepMax, "sweep-max", 0.20, "sweep maximum threshold")
	fs.Float32Var(&o.sweepStep, "sweep-step", 0.01, "sweep step size")
	addSaTFlags(fs)

	return cmd
}

func runEval(cmd *cobra.Command, g *globals, dir string, o *evalOptions) (err error) {
	cfg, logger, err := g.load(cmd)
	if err != nil {
		return err
	}

	docs, err := bench.LoadCorpus(dir)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no gold files in %s", dir)
	}

	out := cmd.OutOrStdout()
	sentences := 0
	for _, d := range docs {
		sentences += d.Sentences()
	}
	fmt.Fprintf(out, "Loaded %d documents (%d sentences) from %s\n\n", len(docs), sentences, dir)

	bcfg := bench.Config{Tolerance: o.tolerance, PrecisionWeight: o.wp, RecallWeight: o.wr}
	withSaT := cfg.SaT.Model != "" && cfg.SaT.Tokenizer != ""

	if o.sweep {
		if !withSaT {
			return errors.New("--sweep needs --model and --tokenizer")
		}
		return runSweep(cmd, cfg, logger, docs, bcfg, o)
	}

	var candidates []bench.Candidate
	for _, name := range o.backends {
		factory, err := segment.FactoryFor(name)
		if err != nil {
			return err
		}
		s, err := factory()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		candidates = append(candidates, bench.Candidate{Name: name, Splitter: s})
	}

	if withSaT {
		sat, satErr := newSaT(cfg, cfg.SaT.Threshold, logger)
		if satErr != nil {
			return satErr
		}
		defer func() { err = errors.Join(err, sat.Close()) }()
		candidates = append(candidates, bench.Candidate{
			Name:     fmt.Sprintf("%s@%.3f", segment.BackendSaT, cfg.SaT.Threshold),
			Splitter: sat,
		})
	}

	results, err := bench.Compare(cmd.Context(), candidates, docs, bcfg)
	if err != nil {
		return err
	}

	printComparison(out, results, bcfg)
	return nil
}

func runSweep(cmd *cobra.Command, cfg config.Config, logger *slog.Logger, docs []*bench.Doc, bcfg bench.Config, o *evalOptions) error {
	thresholds := bench.SweepThresholds(o.sweepMin, o.sweepMax, o.sweepStep)
	if len(thresholds) == 0 {
		return fmt.Errorf("empty sweep range [%g, %g)", o.sweepMin, o.sweepMax)
	}

	open := func(threshold float32) (segment.Splitter, func() error, error) {
		s, err := newSaT(cfg, threshold, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}

	results, err := bench.Sweep(cmd.Context(), docs, open, thresholds, bcfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Threshold Sweep Results (wp=%.1f, wr=%.1f)\n", bcfg.PrecisionWeight, bcfg.RecallWeight)
	fmt.Fprintln(out, strings.Repeat("-", 50))
	fmt.Fprintf(out, "%-8s %-8s %-8s %-8s %-8s\n", "Thresh", "Prec", "Rec", "F1", "Weighted")

	// Print in threshold order for readability.
	for _, t := range thresholds {
		for _, r := range results {
			if r.Threshold == t {
				fmt.Fprintf(out, "%-8.3f %-8.2f %-8.2f %-8.2f %-8.2f\n",
					r.Threshold, r.Metrics.Precision, r.Metrics.Recall, r.Metrics.F1, r.Metrics.WeightedScore)
				break
			}
		}
	}

	fmt.Fprintln(out, strings.Repeat("-", 50))
	best := results[0]
	fmt.Fprintf(out, "Optimal: %.3f (Weighted: %.2f)\n", best.Threshold, best.Metrics.WeightedScore)
	return nil
}

func printComparison(w io.Writer, results []bench.Result, cfg bench.Config) {
	fmt.Fprintf(w, "Splitter Comparison (wp=%.1f, wr=%.1f, tolerance=%d)\n", cfg.PrecisionWeight, cfg.RecallWeight, cfg.Tolerance)
	fmt.Fprintln(w, strings.Repeat("-", 72))
	fmt.Fprintf(w, "%-16s %-8s %-8s %-8s %-8s %-6s %-6s %-6s\n", "Splitter", "Prec", "Rec", "F1", "Weighted", "TP", "FP", "FN")

	for _, r := range results {
		m := r.Metrics
		fmt.Fprintf(w, "%-16s %-8.2f %-8.2f %-8.2f %-8.2f %-6d %-6d %-6d\n",
			r.Name, m.Precision, m.Recall, m.F1, m.WeightedScore, m.TruePositives, m.FalsePositives, m.FalseNegatives)
	}
}
