// Package repository defines the race result store interface and errors.
package repository

import (
	"context"

	"github.com/ovation22/TripleDerby-sub000/internal/sim"
)

// Store provides read/write access to completed race results.
type Store interface {
	// Put stores a finished race result, keyed by its race ID.
	Put(ctx context.Context, res *sim.Result) error

	// Get returns the result for a race ID.
	// Returns ErrNotFound while the race is unknown or still running.
	Get(ctx context.Context, raceID string) (*sim.Result, error)

	// Count returns the number of stored results.
	Count(ctx context.Context) int
}
