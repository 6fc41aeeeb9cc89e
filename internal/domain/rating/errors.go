package rating

import "errors"

// Sentinel kinds for rating errors.
var (
	ErrUnsupportedDistance = errors.New("unsupported race distance")
	ErrMalformedTime       = errors.New("malformed finish time")
)
