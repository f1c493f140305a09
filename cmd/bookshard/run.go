package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	bookcorpus "github.com/jamesainslie/go-bookcorpus"
	"github.com/jamesainslie/go-bookcorpus/internal/config"
	"github.com/jamesainslie/go-bookcorpus/internal/progress"
)

// runCmd returns the run command
func runCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build the sharded corpus",
		Long: `Process every matching book in the input directory and write the
accepted sentences into numbered shard files in the output directory.

A book that cannot be read is logged and skipped. A failed shard write
stops the run; shards already written are kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCorpus(cmd, g)
		},
	}

	d := config.Default()
	fs := cmd.Flags()
	fs.String("input", d.Input, "directory of plain-text books")
	fs.String("output", d.Output, "directory for shard files")
	fs.Int("shard-size", d.ShardSize, "sentences per shard")
	fs.String("pattern", d.Pattern, "glob selecting input files")
	fs.String("prefix", d.Prefix, "shard file name prefix")
	addFilterFlags(fs)
	addSplitterFlags(fs)

	return cmd
}

func runCorpus(cmd *cobra.Command, g *globals) (err error) {
	cfg, logger, err := g.load(cmd)
	if err != nil {
		return err
	}

	splitter, closeSplitter, err := openSplitter(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, closeSplitter()) }()

	opts := append(cfg.Options(), splitter, bookcorpus.WithLogger(logger))
	if !g.quiet {
		opts = append(opts, bookcorpus.WithProgress(func(total int) bookcorpus.Reporter {
			return progress.New(os.Stderr, total)
		}))
	}

	p, err := bookcorpus.New(opts...)
	if err != nil {
		return err
	}

	stats, err := p.Run(cmd.Context(), cfg.Input, cfg.Output)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d sentences to %d shards in %s (%d files, %d skipped)\n",
		stats.Sentences, len(stats.Shards), cfg.Output, stats.Files, stats.FailedFiles)
	return nil
}
