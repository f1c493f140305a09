package bookcorpus

import (
	"log/slog"
	"runtime"

	"github.com/jamesainslie/go-bookcorpus/filter"
	"github.com/jamesainslie/go-bookcorpus/internal/shard"
	"github.com/jamesainslie/go-bookcorpus/normalize"
	"github.com/jamesainslie/go-bookcorpus/segment"
)

// DefaultPattern selects input files.
const DefaultPattern = "*.txt"

// DefaultWorkers returns one less than the number of CPUs, at least 1.
func DefaultWorkers() int {
	return max(1, runtime.NumCPU()-1)
}

// Option configures a Pipeline.
type Option func(*config)

type config struct {
	workers   int
	filter    filter.Config
	shardSize int
	prefix    string
	pattern   string

	backend  string
	splitter segment.Factory

	normalizer *normalize.Normalizer
	logger     *slog.Logger
	progress   func(total int) Reporter
	manifest   bool
}

func defaultConfig() config {
	return config{
		workers:    DefaultWorkers(),
		filter:     filter.DefaultConfig(),
		shardSize:  shard.DefaultSize,
		prefix:     shard.DefaultPrefix,
		pattern:    DefaultPattern,
		backend:    segment.BackendPunkt,
		normalizer: normalize.New(),
		logger:     slog.Default(),
		manifest:   true,
	}
}

// WithWorkers sets the number of file workers (default: NumCPU-1, at least 1).
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithTokenRange sets the exclusive token bounds (default: 2 and 128).
// A sentence is kept when min < tokens < max.
func WithTokenRange(minTokens, maxTokens int) Option {
	return func(c *config) {
		c.filter.MinTokens = minTokens
		c.filter.MaxTokens = maxTokens
	}
}

// WithMaxChars sets the longest sentence considered, in characters
// (default: 8192).
func WithMaxChars(n int) Option {
	return func(c *config) {
		c.filter.MaxChars = n
	}
}

// WithNoise replaces the structural noise rules.
func WithNoise(r filter.Rules) Option {
	return func(c *config) {
		c.filter.Noise = r
	}
}

// WithShardSize sets the number of sentences per shard (default: 1,000,000).
func WithShardSize(n int) Option {
	return func(c *config) {
		c.shardSize = n
	}
}

// WithShardPrefix sets the shard file name prefix (default: "book_corpus_").
func WithShardPrefix(prefix string) Option {
	return func(c *config) {
		c.prefix = prefix
	}
}

// WithPattern sets the glob that input file names must match
// (default: "*.txt").
func WithPattern(pattern string) Option {
	return func(c *config) {
		c.pattern = pattern
	}
}

// WithBackend selects a model-free sentence splitter by name: "punkt"
// (default) or "rules".
func WithBackend(name string) Option {
	return func(c *config) {
		c.backend = name
		c.splitter = nil
	}
}

// WithSplitter sets the factory each worker builds its splitter from. The
// name is recorded in the run manifest.
func WithSplitter(name string, f segment.Factory) Option {
	return func(c *config) {
		c.backend = name
		c.splitter = f
	}
}

// WithNormalizer replaces the default normalization rules.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(c *config) {
		if n != nil {
			c.normalizer = n
		}
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithProgress installs a progress reporter. newReporter is called once per
// run with the number of input files.
func WithProgress(newReporter func(total int) Reporter) Option {
	return func(c *config) {
		c.progress = newReporter
	}
}

// WithManifest controls whether Run writes manifest.json next to the shards
// (default: true).
func WithManifest(enabled bool) Option {
	return func(c *config) {
		c.manifest = enabled
	}
}
