package repository

import "errors"

// Sentinel kinds for roster store errors.
var (
	ErrNotFound  = errors.New("entity not found")
	ErrDuplicate = errors.New("entity already exists")
)
