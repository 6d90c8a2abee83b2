package loadtest

import "errors"

var (
	// ErrInvalidConfig is returned for unusable run settings.
	ErrInvalidConfig = errors.New("invalid load test config")
	// ErrUnhealthy is returned when the service health check fails.
	ErrUnhealthy = errors.New("service unhealthy")
	// ErrViolations is returned when any response breaks a result invariant.
	ErrViolations = errors.New("result invariants violated")
)
