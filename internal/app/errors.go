package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrImportPending   = errors.New("another import is pending")
	ErrNoImportPending = errors.New("no import pending")
	ErrImportNotReady  = errors.New("import has unresolved names")
	ErrUnknownAction   = errors.New("unknown resolution action")
	ErrMissingName     = errors.New("resolution action needs a name")
	ErrBadDivision     = errors.New("division must be M or F")
	ErrUnknownMode     = errors.New("unknown simulation mode")
)
