package segment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"runtime"
	"strings"

	"github.com/jamesainslie/go-bookcorpus/inference"
	"github.com/jamesainslie/go-bookcorpus/tokenizer"
)

const (
	// maxSeqLen is the maximum sequence length supported by the model.
	// The model supports positions 0-513, so max is 514 tokens.
	// We use 512 to leave margin for safety.
	maxSeqLen = 512

	// chunkOverlap is the number of overlapping tokens between chunks.
	chunkOverlap = 64
)

// SaTOption configures a SaT splitter.
type SaTOption func(*satConfig)

type satConfig struct {
	threshold float32
	poolSize  int
	library   string
	logger    *slog.Logger
}

func defaultSaTConfig() satConfig {
	return satConfig{
		threshold: 0.025,
		poolSize:  runtime.NumCPU(),
		logger:    slog.Default(),
	}
}

// WithThreshold sets the boundary probability threshold (default: 0.025).
func WithThreshold(t float32) SaTOption {
	return func(c *satConfig) {
		if t > 0 && t < 1 {
			c.threshold = t
		}
	}
}

// WithPoolSize sets the ONNX session pool size (default: runtime.NumCPU()).
// The pipeline sizes it to its worker count.
func WithPoolSize(n int) SaTOption {
	return func(c *satConfig) {
		if n > 0 {
			c.poolSize = n
		}
	}
}

// WithRuntimeLibrary sets the path of the onnxruntime shared library.
func WithRuntimeLibrary(path string) SaTOption {
	return func(c *satConfig) {
		c.library = path
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) SaTOption {
	return func(c *satConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// SaT detects sentence boundaries with a wtpsplit/SaT ONNX model.
// It is safe for concurrent use; inference sessions come from a pool.
type SaT struct {
	tokenizer *tokenizer.Tokenizer
	pool      *inference.Pool
	threshold float32
	logger    *slog.Logger
}

// NewSaT loads the ONNX model and its SentencePiece tokenizer.
func NewSaT(modelPath, tokenizerPath string, opts ...SaTOption) (*SaT, error) {
	cfg := defaultSaTConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, err := os.Stat(modelPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelPath)
		}
		return nil, fmt.Errorf("checking model file: %w", err)
	}

	tok, err := tokenizer.New(tokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenizerFailed, err)
	}

	pool, err := inference.NewPool(modelPath, cfg.poolSize, inference.Config{
		LibraryPath:    cfg.library,
		IntraOpThreads: 1,
	})
	if err != nil {
		_ = tok.Close()
		return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}

	cfg.logger.Debug("sat splitter ready",
		"model", modelPath,
		"max_sessions", pool.Size(),
		"threshold", cfg.threshold)

	return &SaT{
		tokenizer: tok,
		pool:      pool,
		threshold: cfg.threshold,
		logger:    cfg.logger,
	}, nil
}

// Split implements Splitter.
func (s *SaT) Split(ctx context.Context, text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}

	tokens := s.tokenizer.Encode(text)
	if len(tokens) == 0 {
		return nil, nil
	}

	logits, err := s.getLogits(ctx, tokens)
	if err != nil {
		return nil, err
	}

	var sentences []string
	start := 0
	for i, logit := range logits {
		if sigmoid(logit) <= s.threshold {
			continue
		}
		end := tokens[i].End
		if end <= start || end > len(text) {
			continue
		}
		if sent := strings.TrimSpace(text[start:end]); sent != "" {
			sentences = append(sentences, sent)
		}
		start = end
	}
	if start < len(text) {
		if sent := strings.TrimSpace(text[start:]); sent != "" {
			sentences = append(sentences, sent)
		}
	}

	return sentences, nil
}

// getLogits returns logits for all tokens, chunking if necessary.
func (s *SaT) getLogits(ctx context.Context, tokens []tokenizer.TokenInfo) ([]float32, error) {
	session, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Release(session)

	if len(tokens) <= maxSeqLen {
		return s.inferChunk(ctx, session, tokens)
	}

	// Overlapping windows; logits in the overlap are averaged.
	logits := make([]float32, len(tokens))
	counts := make([]int, len(tokens))

	stride := maxSeqLen - chunkOverlap
	for start := 0; start < len(tokens); start += stride {
		end := min(start+maxSeqLen, len(tokens))

		chunkLogits, err := s.inferChunk(ctx, session, tokens[start:end])
		if err != nil {
			return nil, err
		}
		for i, logit := range chunkLogits {
			logits[start+i] += logit
			counts[start+i]++
		}

		if end >= len(tokens) {
			break
		}
	}

	for i := range logits {
		if counts[i] > 1 {
			logits[i] /= float32(counts[i])
		}
	}

	return logits, nil
}

func (s *SaT) inferChunk(ctx context.Context, session *inference.Session, tokens []tokenizer.TokenInfo) ([]float32, error) {
	inputIDs := make([]int64, len(tokens))
	attentionMask := make([]int64, len(tokens))
	for i, t := range tokens {
		inputIDs[i] = int64(t.ID)
		attentionMask[i] = 1
	}

	return session.Infer(ctx, inputIDs, attentionMask)
}

// Close releases the session pool and the tokenizer.
func (s *SaT) Close() error {
	var errs []error

	if s.pool != nil {
		s.logger.Debug("closing sat splitter", "sessions", s.pool.Loaded())
		if err := s.pool.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.tokenizer != nil {
		if err := s.tokenizer.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func sigmoid(x float32) float32 {
	return float32(1.0 / (1.0 + math.Exp(float64(-x))))
}
