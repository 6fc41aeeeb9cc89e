package sim

import "errors"

// Sentinel kinds for simulation errors.
var (
	ErrInvalidTrials = errors.New("trial count must be positive")
)
