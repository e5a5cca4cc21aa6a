package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound    = errors.New("employee not found")
	ErrCapacity    = errors.New("record limit exceeded")
	ErrUnknownMode = errors.New("unknown snapshot mode")
	ErrClosed      = errors.New("store closed")
)
