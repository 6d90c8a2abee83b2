package modelcache

import "errors"

// ErrTrainerFailed wraps any failure of the training function.
var ErrTrainerFailed = errors.New("modelcache: trainer failed")
