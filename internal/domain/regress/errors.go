package regress

import "errors"

var (
	// ErrShapeMismatch indicates ragged rows or a row/target count mismatch.
	ErrShapeMismatch = errors.New("regress: shape mismatch")
	// ErrNotFitted indicates use of a model or scaler before Fit.
	ErrNotFitted = errors.New("regress: not fitted")
	// ErrTooFewSamples indicates a corpus too small to split or fit.
	ErrTooFewSamples = errors.New("regress: too few samples")
)
