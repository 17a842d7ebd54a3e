package model

import (
	"fmt"
	"math"
)

// ReferenceSpeed is the shared baseline speed in distance units per tick.
// All pipeline multipliers apply against it, and total race ticks derive
// from it.
const ReferenceSpeed = 0.1

// Field size bounds; race fields are typically 8-20 entrants.
const (
	MinFieldSize = 2
	MaxFieldSize = 20
)

// Surface is the track surface category.
type Surface int

// Track surfaces.
const (
	SurfaceDirt Surface = iota
	SurfaceTurf
	SurfaceSynthetic

	surfaceCount
)

// String returns the surface name.
func (s Surface) String() string {
	switch s {
	case SurfaceDirt:
		return "dirt"
	case SurfaceTurf:
		return "turf"
	case SurfaceSynthetic:
		return "synthetic"
	default:
		return fmt.Sprintf("surface(%d)", int(s))
	}
}

// Valid reports whether the surface is a known category.
func (s Surface) Valid() bool { return s >= SurfaceDirt && s < surfaceCount }

// Condition is the track condition category.
type Condition int

// Track conditions, best to worst footing.
const (
	ConditionFast Condition = iota
	ConditionGood
	ConditionMuddy
	ConditionSloppy

	conditionCount
)

// String returns the condition name.
func (c Condition) String() string {
	switch c {
	case ConditionFast:
		return "fast"
	case ConditionGood:
		return "good"
	case ConditionMuddy:
		return "muddy"
	case ConditionSloppy:
		return "sloppy"
	default:
		return fmt.Sprintf("condition(%d)", int(c))
	}
}

// Valid reports whether the condition is a known category.
func (c Condition) Valid() bool { return c >= ConditionFast && c < conditionCount }

// RaceContext is the immutable setup of a single race.
type RaceContext struct {
	Distance  float64 // total race distance in distance units
	Surface   Surface
	Condition Condition
	FieldSize int // bounds usable lane numbers: lanes run 1..FieldSize
	// TotalTicks is derived from Distance and ReferenceSpeed; race progress
	// is measured as elapsed ticks over TotalTicks.
	TotalTicks int
}

// NewRaceContext validates the setup and derives TotalTicks.
func NewRaceContext(distance float64, surface Surface, condition Condition, fieldSize int) (RaceContext, error) {
	if distance <= 0 {
		return RaceContext{}, fmt.Errorf("%w: distance %.2f must be positive", ErrInvalidContext, distance)
	}
	if !surface.Valid() {
		return RaceContext{}, fmt.Errorf("%w: unknown surface %d", ErrInvalidContext, int(surface))
	}
	if !condition.Valid() {
		return RaceContext{}, fmt.Errorf("%w: unknown condition %d", ErrInvalidContext, int(condition))
	}
	if fieldSize < MinFieldSize || fieldSize > MaxFieldSize {
		return RaceContext{}, fmt.Errorf("%w: field size %d outside [%d,%d]",
			ErrInvalidContext, fieldSize, MinFieldSize, MaxFieldSize)
	}
	return RaceContext{
		Distance:   distance,
		Surface:    surface,
		Condition:  condition,
		FieldSize:  fieldSize,
		TotalTicks: int(math.Ceil(distance / ReferenceSpeed)),
	}, nil
}

// Progress returns race progress in [0,1] for an elapsed tick count.
func (rc RaceContext) Progress(tick int) float64 {
	if rc.TotalTicks <= 0 {
		return 0
	}
	p := float64(tick) / float64(rc.TotalTicks)
	if p > 1 {
		return 1
	}
	return p
}
