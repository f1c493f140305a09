package segment

import (
	"context"
	"fmt"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// Splitter breaks a paragraph into sentences.
type Splitter interface {
	Split(ctx context.Context, text string) ([]string, error)
}

// Factory builds a Splitter. The pipeline calls it once per worker so that
// splitters with internal state are never shared between goroutines.
type Factory func() (Splitter, error)

// Backend names accepted by FactoryFor.
const (
	BackendPunkt = "punkt"
	BackendRules = "rules"
	BackendSaT   = "sat"
)

// FactoryFor returns the factory for a model-free backend. The sat backend
// needs model files and is built with NewSaT and Shared instead.
func FactoryFor(backend string) (Factory, error) {
	switch strings.ToLower(backend) {
	case "", BackendPunkt:
		return NewPunkt, nil
	case BackendRules:
		return func() (Splitter, error) { return Rules{}, nil }, nil
	case BackendSaT:
		return nil, fmt.Errorf("%w: %s requires model files", ErrUnknownBackend, backend)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// Shared returns a factory handing out the same Splitter to every caller.
// Use it only for splitters that are safe for concurrent use.
func Shared(s Splitter) Factory {
	return func() (Splitter, error) { return s, nil }
}

// Punkt splits with the English Punkt model, which learns abbreviations,
// collocations and sentence starters from a training corpus.
type Punkt struct {
	tok *sentences.DefaultSentenceTokenizer
}

// NewPunkt loads the bundled English Punkt model.
func NewPunkt() (Splitter, error) {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("loading punkt model: %w", err)
	}
	return &Punkt{tok: tok}, nil
}

// Split implements Splitter.
func (p *Punkt) Split(_ context.Context, text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}
	sents := p.tok.Tokenize(text)
	out := make([]string, 0, len(sents))
	for _, s := range sents {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	return out, nil
}
