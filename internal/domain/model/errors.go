package model

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidCompetitor   = errors.New("invalid competitor")
	ErrAttributeOutOfRange = errors.New("attribute rating out of range")
	ErrInvalidContext      = errors.New("invalid race context")
	ErrInvalidField        = errors.New("invalid field")
)
