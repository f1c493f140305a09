package segment

import "errors"

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrUnknownBackend indicates an unsupported splitter backend name.
	ErrUnknownBackend = errors.New("segment: unknown splitter backend")

	// ErrModelNotFound indicates the SaT model file does not exist.
	ErrModelNotFound = errors.New("segment: model file not found")

	// ErrInvalidModel indicates the model file exists but is malformed.
	ErrInvalidModel = errors.New("segment: invalid model format")

	// ErrTokenizerFailed indicates tokenizer initialization failed.
	ErrTokenizerFailed = errors.New("segment: tokenizer initialization failed")
)
