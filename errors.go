package bookcorpus

import (
	"errors"

	"github.com/jamesainslie/go-bookcorpus/internal/shard"
)

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrInputRead indicates an input file could not be read or segmented.
	// The file is skipped and the run continues.
	ErrInputRead = errors.New("bookcorpus: input file unreadable")

	// ErrWrite indicates a shard or manifest could not be written. It ends
	// the run; shards already written are left in place.
	ErrWrite = shard.ErrWrite

	// ErrInvalidConfig indicates unusable settings or a missing input
	// directory.
	ErrInvalidConfig = errors.New("bookcorpus: invalid configuration")
)
