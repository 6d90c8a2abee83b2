package model

// BlendCandidate is one point on the ensemble blend-weight grid. Weights are
// aligned with the calibrator's model order and sum to 1.
type BlendCandidate struct {
	ID      string
	Weights []float64
}
