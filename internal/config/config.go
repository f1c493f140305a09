// Package config loads run settings from a YAML file. Command-line flags are
// layered on top by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"

	bookcorpus "github.com/jamesainslie/go-bookcorpus"
	"github.com/jamesainslie/go-bookcorpus/filter"
	"github.com/jamesainslie/go-bookcorpus/internal/shard"
	"github.com/jamesainslie/go-bookcorpus/segment"
)

// EnvFile names the environment variable holding a config file path, used
// when no path is given explicitly.
const EnvFile = "BOOKCORPUS_CONFIG"

// ErrInvalid indicates settings that cannot be used.
var ErrInvalid = errors.New("config: invalid settings")

// Config holds every run setting.
type Config struct {
	Input     string `yaml:"input"`
	Output    string `yaml:"output"`
	Workers   int    `yaml:"workers"`
	MinTokens int    `yaml:"min_tokens"`
	MaxTokens int    `yaml:"max_tokens"`
	ShardSize int    `yaml:"shard_size"`
	MaxChars  int    `yaml:"max_chars"`
	Pattern   string `yaml:"pattern"`
	Prefix    string `yaml:"prefix"`
	Splitter  string `yaml:"splitter"`
	LogLevel  string `yaml:"log_level"`

	SaT   SaTConfig     `yaml:"sat"`
	Noise *filter.Rules `yaml:"noise,omitempty"`
}

// SaTConfig locates the files of the neural splitter.
type SaTConfig struct {
	Model     string  `yaml:"model"`
	Tokenizer string  `yaml:"tokenizer"`
	Threshold float32 `yaml:"threshold"`
	Library   string  `yaml:"library"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Input:     "out_txts",
		Output:    "out_shards",
		Workers:   bookcorpus.DefaultWorkers(),
		MinTokens: filter.DefaultMinTokens,
		MaxTokens: filter.DefaultMaxTokens,
		ShardSize: shard.DefaultSize,
		MaxChars:  filter.DefaultMaxChars,
		Pattern:   bookcorpus.DefaultPattern,
		Prefix:    shard.DefaultPrefix,
		Splitter:  segment.BackendPunkt,
		LogLevel:  "info",
		SaT:       SaTConfig{Threshold: 0.025},
	}
}

// Load reads path over the defaults. An empty path falls back to
// $BOOKCORPUS_CONFIG; with neither set the defaults are returned.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(EnvFile)
	}
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Unknown keys are an error.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return cfg, nil
}

// Validate checks the settings the pipeline cannot check itself and those
// that are cheaper to report before any model is loaded.
func (c Config) Validate() error {
	var errs []error

	if c.Input == "" {
		errs = append(errs, errors.New("input directory is empty"))
	}
	if c.Output == "" {
		errs = append(errs, errors.New("output directory is empty"))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.MinTokens < 0 || c.MaxTokens <= c.MinTokens {
		errs = append(errs, fmt.Errorf("token range (%d, %d) is empty", c.MinTokens, c.MaxTokens))
	}
	if c.ShardSize < 1 {
		errs = append(errs, fmt.Errorf("shard size must be at least 1, got %d", c.ShardSize))
	}
	if c.MaxChars < 1 {
		errs = append(errs, fmt.Errorf("max chars must be at least 1, got %d", c.MaxChars))
	}
	if _, err := glob.Compile(c.Pattern); err != nil {
		errs = append(errs, fmt.Errorf("pattern %q: %w", c.Pattern, err))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}

	switch strings.ToLower(c.Splitter) {
	case segment.BackendPunkt, segment.BackendRules:
	case segment.BackendSaT:
		if c.SaT.Model == "" || c.SaT.Tokenizer == "" {
			errs = append(errs, errors.New("sat splitter needs sat.model and sat.tokenizer"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown splitter %q", c.Splitter))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

// NoiseRules returns the configured noise rules, or the built-in ones when
// the file has no noise section.
func (c Config) NoiseRules() filter.Rules {
	if c.Noise != nil {
		return *c.Noise
	}
	return filter.DefaultRules()
}

// Options maps the settings to pipeline options. The splitter is not
// included; the sat backend needs model files opened by the caller.
func (c Config) Options() []bookcorpus.Option {
	return []bookcorpus.Option{
		bookcorpus.WithWorkers(c.Workers),
		bookcorpus.WithTokenRange(c.MinTokens, c.MaxTokens),
		bookcorpus.WithMaxChars(c.MaxChars),
		bookcorpus.WithShardSize(c.ShardSize),
		bookcorpus.WithShardPrefix(c.Prefix),
		bookcorpus.WithPattern(c.Pattern),
		bookcorpus.WithNoise(c.NoiseRules()),
	}
}
