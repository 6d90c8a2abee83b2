package calibration

import "errors"

// ErrInvalidConfig reports a calibration parameter outside its domain.
var ErrInvalidConfig = errors.New("invalid calibration config")
