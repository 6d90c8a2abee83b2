package scoring

import "errors"

// ErrInvariant marks a broken output invariant: a non-finite prediction, an
// interval that does not bracket the score, or bounds outside [0,100].
var ErrInvariant = errors.New("scoring: invariant violation")
