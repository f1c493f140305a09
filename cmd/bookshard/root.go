package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	bookcorpus "github.com/jamesainslie/go-bookcorpus"
	"github.com/jamesainslie/go-bookcorpus/internal/config"
	"github.com/jamesainslie/go-bookcorpus/segment"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	configPath string
	quiet      bool
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:   "bookshard",
		Short: "Build a sharded sentence corpus from plain-text books",
		Long: `Build a sharded sentence corpus from plain-text books.

Every book in the input directory is split into paragraphs and sentences,
normalized, and filtered. Accepted sentences are written one per line into
fixed-size shard files.

Settings come from built-in defaults, then the YAML file named by --config
(or $BOOKCORPUS_CONFIG), then command-line flags.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML settings file (default $"+config.EnvFile+")")
	root.PersistentFlags().String("log-level", config.Default().LogLevel, "log level: debug, info, warn or error")
	root.PersistentFlags().BoolVarP(&g.quiet, "quiet", "q", false, "disable the progress bar")

	root.AddCommand(runCmd(g))
	root.AddCommand(segmentCmd(g))
	root.AddCommand(evalCmd(g))

	return root
}

// addSplitterFlags declares the flags selecting and configuring a splitter.
func addSplitterFlags(fs *pflag.FlagSet) {
	d := config.Default()
	fs.String("splitter", d.Splitter, "sentence splitter: punkt, rules or sat")
	addSaTFlags(fs)
}

// addSaTFlags declares the flags locating the SaT model.
func addSaTFlags(fs *pflag.FlagSet) {
	d := config.Default()
	fs.String("model", "", "SaT ONNX model file")
	fs.String("tokenizer", "", "SaT SentencePiece tokenizer file")
	fs.Float32("threshold", d.SaT.Threshold, "SaT boundary threshold")
	fs.Int("workers", d.Workers, "number of workers")
}

// addFilterFlags declares the flags of the sentence filter.
func addFilterFlags(fs *pflag.FlagSet) {
	d := config.Default()
	fs.Int("min-tokens", d.MinTokens, "reject sentences with this many tokens or fewer")
	fs.Int("max-tokens", d.MaxTokens, "reject sentences with this many tokens or more")
	fs.Int("max-chars", d.MaxChars, "reject sentences with more than this many characters")
}

// load reads the settings file, applies the flags the user set and
// validates the result.
func (g *globals) load(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if err := overlay(&cfg, cmd.Flags()); err != nil {
		return config.Config{}, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}

	level, err := cfg.Level()
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return cfg, logger, nil
}

// overlay copies every flag that was set on the command line into cfg.
func overlay(cfg *config.Config, fs *pflag.FlagSet) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "input":
			cfg.Input, err = fs.GetString(f.Name)
		case "output":
			cfg.Output, err = fs.GetString(f.Name)
		case "workers":
			cfg.Workers, err = fs.GetInt(f.Name)
		case "min-tokens":
			cfg.MinTokens, err = fs.GetInt(f.Name)
		case "max-tokens":
			cfg.MaxTokens, err = fs.GetInt(f.Name)
		case "shard-size":
			cfg.ShardSize, err = fs.GetInt(f.Name)
		case "max-chars":
			cfg.MaxChars, err = fs.GetInt(f.Name)
		case "pattern":
			cfg.Pattern, err = fs.GetString(f.Name)
		case "prefix":
			cfg.Prefix, err = fs.GetString(f.Name)
		case "splitter":
			cfg.Splitter, err = fs.GetString(f.Name)
		case "model":
			cfg.SaT.Model, err = fs.GetString(f.Name)
		case "tokenizer":
			cfg.SaT.Tokenizer, err = fs.GetString(f.Name)
		case "threshold":
			cfg.SaT.Threshold, err = fs.GetFloat32(f.Name)
		case "log-level":
			cfg.LogLevel, err = fs.GetString(f.Name)
		}
		if err != nil {
			err = fmt.Errorf("flag --%s: %w", f.Name, err)
		}
	})
	return err
}

// openSplitter returns the pipeline option for the configured splitter and
// a function releasing any model it loaded.
func openSplitter(cfg config.Config, logger *slog.Logger) (bookcorpus.Option, func() error, error) {
	if !strings.EqualFold(cfg.Splitter, segment.BackendSaT) {
		return bookcorpus.WithBackend(cfg.Splitter), func() error { return nil }, nil
	}

	s, err := newSaT(cfg, cfg.SaT.Threshold, logger)
	if err != nil {
		return nil, nil, err
	}
	return bookcorpus.WithSplitter(segment.BackendSaT, segment.Shared(s)), s.Close, nil
}

// newSaT loads the SaT model with one inference session per worker.
func newSaT(cfg config.Config, threshold float32, logger *slog.Logger) (*segment.SaT, error) {
	opts := []segment.SaTOption{
		segment.WithThreshold(threshold),
		segment.WithPoolSize(cfg.Workers),
		segment.WithLogger(logger),
	}
	if cfg.SaT.Library != "" {
		opts = append(opts, segment.WithRuntimeLibrary(cfg.SaT.Library))
	}
	return segment.NewSaT(cfg.SaT.Model, cfg.SaT.Tokenizer, opts...)
}
