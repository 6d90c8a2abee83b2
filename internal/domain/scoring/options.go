package scoring

import "github.com/okian/resonance/pkg/logger"

// Option applies a configuration option to the Predictor.
type Option func(*Predictor)

// WithStrictInvariants makes invariant violations panic instead of degrading
// to the fallback result. Intended for development and tests.
func WithStrictInvariants(strict bool) Option {
	return func(p *Predictor) {
		p.strict = strict
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Predictor) {
		if l != nil {
			p.log = l
		}
	}
}
