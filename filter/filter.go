// Package filter tokenizes normalized sentences and decides which of them
// enter the corpus.
//
// A sentence is accepted when it is non-empty, at most MaxChars characters
// long, has strictly between MinTokens and MaxTokens word tokens and is not
// structural noise. Accepted sentences are lowercased and their tokens joined
// by single spaces.
package filter

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
)

// Defaults used by the corpus build.
const (
	DefaultMinTokens = 2
	DefaultMaxTokens = 128
	DefaultMaxChars  = 8192
)

// ErrInvalidConfig is returned by New for out-of-range bounds.
var ErrInvalidConfig = errors.New("filter: invalid configuration")

// Reason says why Check accepted or rejected a sentence.
type Reason int

const (
	Accepted Reason = iota
	RejectEmpty
	RejectLength
	RejectTokens
	RejectNoise
)

func (r Reason) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case RejectEmpty:
		return "empty"
	case RejectLength:
		return "length"
	case RejectTokens:
		return "tokens"
	case RejectNoise:
		return "noise"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// Config holds the filter bounds. Both token bounds are exclusive.
type Config struct {
	MinTokens int
	MaxTokens int
	MaxChars  int
	Noise     Rules
}

// DefaultConfig returns the corpus defaults with the built-in noise rules.
func DefaultConfig() Config {
	return Config{
		MinTokens: DefaultMinTokens,
		MaxTokens: DefaultMaxTokens,
		MaxChars:  DefaultMaxChars,
		Noise:     DefaultRules(),
	}
}

// Filter is safe for concurrent use.
type Filter struct {
	minTokens int
	maxTokens int
	maxChars  int
	noise     *Noise
}

// New validates cfg and builds a Filter.
func New(cfg Config) (*Filter, error) {
	if cfg.MinTokens < 0 || cfg.MaxTokens <= cfg.MinTokens {
		return nil, fmt.Errorf("%w: token range (%d, %d)", ErrInvalidConfig, cfg.MinTokens, cfg.MaxTokens)
	}
	if cfg.MaxChars < 1 {
		return nil, fmt.Errorf("%w: max chars %d", ErrInvalidConfig, cfg.MaxChars)
	}
	return &Filter{
		minTokens: cfg.MinTokens,
		maxTokens: cfg.MaxTokens,
		maxChars:  cfg.MaxChars,
		noise:     NewNoise(cfg.Noise),
	}, nil
}

// Check runs s through the filter. It returns the tokenized, lowercased
// sentence and Accepted, or an empty string and the rejection reason.
func (f *Filter) Check(s string) (string, Reason) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", RejectEmpty
	}
	if len(s) > f.maxChars && utf8.RuneCountInString(s) > f.maxChars {
		return "", RejectLength
	}

	tokens := Tokenize(s)
	if n := len(tokens); n <= f.minTokens || n >= f.maxTokens {
		return "", RejectTokens
	}

	out := strings.Join(lo.Map(tokens, func(t string, _ int) string {
		return strings.ToLower(t)
	}), " ")
	if f.noise.Match(out) {
		return "", RejectNoise
	}
	return out, Accepted
}

// Accept is Check reduced to a boolean.
func (f *Filter) Accept(s string) (string, bool) {
	out, r := f.Check(s)
	return out, r == Accepted
}

// Stats counts filter outcomes.
type Stats struct {
	Candidates int
	Accepted   int
	Empty      int
	Length     int
	Tokens     int
	Noise      int
}

// Add records one outcome.
func (s *Stats) Add(r Reason) {
	s.Candidates++
	switch r {
	case Accepted:
		s.Accepted++
	case RejectEmpty:
		s.Empty++
	case RejectLength:
		s.Length++
	case RejectTokens:
		s.Tokens++
	case RejectNoise:
		s.Noise++
	}
}

// Merge adds o into s.
func (s *Stats) Merge(o Stats) {
	s.Candidates += o.Candidates
	s.Accepted += o.Accepted
	s.Empty += o.Empty
	s.Length += o.Length
	s.Tokens += o.Tokens
	s.Noise += o.Noise
}

// Rejected returns the number of candidates that were not accepted.
func (s Stats) Rejected() int {
	return s.Candidates - s.Accepted
}
