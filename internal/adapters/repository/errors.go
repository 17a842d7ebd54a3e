package repository

import "errors"

// Sentinel kinds for result store errors.
var (
	ErrNotFound  = errors.New("race result not found")
	ErrNilResult = errors.New("nil race result")
)
