package config

import (
	"errors"
)

// Sentinel errors returned by Load; callers match them with errors.Is.
var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrLoadConfig    = errors.New("configuration load failed")
)
