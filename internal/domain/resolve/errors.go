package resolve

import "errors"

// Sentinel kinds for resolution errors.
var (
	ErrUnresolved   = errors.New("batch has unresolved names")
	ErrNoCandidates = errors.New("no candidates to confirm")
	ErrBadIndex     = errors.New("item index out of range")
)
