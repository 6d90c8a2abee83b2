package training

import "errors"

var (
	// ErrEmptyCorpus indicates a training pass with no samples.
	ErrEmptyCorpus = errors.New("training: empty corpus")
	// ErrFeatureMismatch indicates a model whose feature count disagrees with
	// the vector layout.
	ErrFeatureMismatch = errors.New("training: feature count mismatch")
)
