package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	bookcorpus "github.com/jamesainslie/go-bookcorpus"
)

// segmentCmd returns the segment command
func segmentCmd(g *globals) *cobra.Command {
	var showStats bool

	cmd := &cobra.Command{
		Use:   "segment FILE",
		Short: "Print the sentences one book would contribute",
		Long: `Run a single book through splitting, normalization and filtering and
print every accepted sentence on its own line. Nothing is written to disk.

Use --stats to also print how many candidates each filter rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSegment(cmd, g, args[0], showStats)
		},
	}

	addFilterFlags(cmd.Flags())
	addSplitterFlags(cmd.Flags())
	cmd.Flags().BoolVar(&showStats, "stats", false, "print filter statistics to stderr")

	return cmd
}

func runSegment(cmd *cobra.Command, g *globals, path string, showStats bool) (err error) {
	cfg, logger, err := g.load(cmd)
	if err != nil {
		return err
	}

	splitter, closeSplitter, err := openSplitter(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, closeSplitter()) }()

	p, err := bookcorpus.New(append(cfg.Options(), splitter, bookcorpus.WithLogger(logger))...)
	if err != nil {
		return err
	}

	res, err := p.ProcessFile(cmd.Context(), path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, s := range res.Sentences {
		fmt.Fprintln(out, s)
	}

	if showStats {
		st := res.Stats
		fmt.Fprintf(cmd.ErrOrStderr(), "candidates=%d accepted=%d empty=%d length=%d tokens=%d noise=%d\n",
			st.Candidates, st.Accepted, st.Empty, st.Length, st.Tokens, st.Noise)
	}
	return nil
}
