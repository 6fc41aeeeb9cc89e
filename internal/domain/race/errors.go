package race

import "errors"

// Sentinel kinds for result sheet errors.
var (
	ErrMalformedSheet = errors.New("malformed result sheet")
)
