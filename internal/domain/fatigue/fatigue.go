// Package fatigue depletes a competitor's stamina pool each tick and
// derives a speed penalty from the remaining stamina fraction. The penalty
// curve is bounded so a fully exhausted competitor still finishes, just
// slower.
package fatigue

import (
	"math"

	"github.com/ovation22/TripleDerby-sub000/internal/domain/model"
)

// Distance bands and their base depletion per tick. Longer races punish
// thin stamina harder.
const (
	sprintLimit  = 8.0
	middleLimit  = 12.0
	classicLimit = 14.0
	sprintRate   = 0.60
	middleRate   = 0.75
	classicRate  = 0.85
	marathonRate = 0.95
)

// Efficiency term coefficients: higher stamina/durability ratings deplete
// slower. Combined range roughly 0.64x-1.38x.
const (
	staminaBase      = 1.2
	staminaCoeff     = 0.004
	durabilityBase   = 1.15
	durabilityCoeff  = 0.0035
	paceSlope        = 1.5
	paceFloor        = 0.5
	penaltyLinear    = 0.02
	penaltyQuadratic = 0.28
	halfFraction     = 0.5
)

// phasePacing is a per-style step function over race progress: one
// multiplier before the transition point, another after.
type phasePacing struct {
	early      float64
	late       float64
	transition float64
}

// Option applies a configuration option to the Model.
type Option func(*Model)

// WithStylePacing overrides the pacing step function for one style.
func WithStylePacing(style model.RunningStyle, early, late, transition float64) Option {
	return func(m *Model) {
		if style.Valid() && early > 0 && late > 0 {
			m.styles[style] = phasePacing{early: early, late: late, transition: transition}
		}
	}
}

// Model computes per-tick stamina depletion and the fatigue speed factor.
type Model struct {
	styles map[model.RunningStyle]phasePacing
}

// New creates a fatigue model with the default per-style pacing table.
func New(opts ...Option) *Model {
	m := &Model{
		styles: map[model.RunningStyle]phasePacing{
			model.StyleCharger:     {early: 1.20, late: 0.95, transition: 0.25},
			model.StyleFrontRunner: {early: 1.15, late: 0.90, transition: 0.50},
			model.StyleStalker:     {early: 0.95, late: 1.10, transition: 0.60},
			model.StyleCloser:      {early: 0.85, late: 1.25, transition: 0.75},
			model.StyleRailRunner:  {early: 1.00, late: 1.00, transition: 0.50},
		},
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// BaseRate returns the per-tick depletion for a race distance band.
func (m *Model) BaseRate(distance float64) float64 {
	switch {
	case distance < sprintLimit:
		return sprintRate
	case distance < middleLimit:
		return middleRate
	case distance < classicLimit:
		return classicRate
	default:
		return marathonRate
	}
}

// Efficiency returns the stamina/durability depletion multiplier: the
// product of two independent linear terms, each centered on its rating.
func (m *Model) Efficiency(attrs model.Attributes) float64 {
	staminaTerm := staminaBase - attrs.Stamina*staminaCoeff
	durabilityTerm := durabilityBase - attrs.Durability*durabilityCoeff
	return staminaTerm * durabilityTerm
}

// PaceMultiplier scales depletion linearly with effort, the ratio of the
// competitor's effective speed to the reference speed. Pushing hard burns
// fuel faster.
func (m *Model) PaceMultiplier(effort float64) float64 {
	pm := 1 + (effort-1)*paceSlope
	if pm < paceFloor {
		return paceFloor
	}
	return pm
}

// StyleMultiplier returns the per-style pacing multiplier for the current
// race progress.
func (m *Model) StyleMultiplier(style model.RunningStyle, progress float64) float64 {
	pacing, ok := m.styles[style]
	if !ok {
		return 1
	}
	if progress < pacing.transition {
		return pacing.early
	}
	return pacing.late
}

// Drain returns the stamina to subtract this tick. Callers floor the
// remaining pool at zero; depletion never causes a DNF.
func (m *Model) Drain(c model.Competitor, rc model.RaceContext, effectiveSpeed, progress float64) float64 {
	effort := effectiveSpeed / model.ReferenceSpeed
	return m.BaseRate(rc.Distance) *
		m.Efficiency(c.Attrs) *
		m.PaceMultiplier(effort) *
		m.StyleMultiplier(c.Style, progress)
}

// SpeedFactor maps the remaining stamina fraction to a speed multiplier.
// Above half tank the penalty is small and linear; below it the penalty
// grows quadratically to roughly a 9% reduction at full exhaustion, so an
// empty tank slows a competitor but never stalls it.
func (m *Model) SpeedFactor(fraction float64) float64 {
	f := math.Max(0, math.Min(1, fraction))
	factor := 1 - (1-f)*penaltyLinear
	if f <= halfFraction {
		factor -= penaltyQuadratic * (halfFraction - f) * (halfFraction - f)
	}
	return factor
}
