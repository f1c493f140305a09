package inference

import "errors"

var (
	// ErrPoolClosed is returned by Acquire after Close.
	ErrPoolClosed = errors.New("inference: pool closed")

	// ErrSessionClosed is returned by Infer after Close.
	ErrSessionClosed = errors.New("inference: session closed")

	// ErrShapeMismatch indicates input ids and attention mask differ in length.
	ErrShapeMismatch = errors.New("inference: input shape mismatch")

	// ErrUnexpectedOutput indicates the model produced no usable logits.
	ErrUnexpectedOutput = errors.New("inference: unexpected model output")
)
