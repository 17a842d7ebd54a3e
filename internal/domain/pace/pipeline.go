// Package pace computes a competitor's effective speed for one tick by
// composing independent multiplicative factors in a fixed order:
// attribute x environment x timing x fatigue x penalty x traffic x jitter,
// all against the shared reference speed. Each factor is a pure function;
// only the jitter draws from the pipeline's rand source.
package pace

import (
	"math/rand"

	"github.com/ovation22/TripleDerby-sub000/internal/domain/model"
)

// Default pipeline configuration constants.
const (
	defaultSpeedCoeff   = 0.002 // per rating point above/below midpoint
	defaultAgilityCoeff = 0.001
	defaultPenaltyCut   = 0.05 // active risky-squeeze penalty
	defaultJitterSpan   = 0.01 // symmetric +/-1% applied last
	defaultRandomSeed   = 42
	ratingMidpoint      = 50
)

// Rail bonus defaults: active only in lane 1 with open track ahead.
const (
	railLane           = 1
	defaultRailBonus   = 1.03
	defaultRailForward = 0.5
)

// timingRule computes the running-style timing factor given full race
// state. Four styles use a progress window; the rail-runner uses a
// lane-and-clearance condition instead.
type timingRule interface {
	factor(f *model.Field, idx int, progress float64) float64
}

// windowRule grants a fixed bonus while race progress falls inside
// [from, to].
type windowRule struct {
	from, to float64
	bonus    float64
}

func (r windowRule) factor(_ *model.Field, _ int, progress float64) float64 {
	if progress >= r.from && progress <= r.to {
		return r.bonus
	}
	return 1
}

// railRule grants its bonus only while the competitor holds lane 1 and no
// other competitor is within the forward clearance in that lane.
type railRule struct {
	bonus   float64
	forward float64
}

func (r railRule) factor(f *model.Field, idx int, _ float64) float64 {
	if f.State(idx).Lane != railLane {
		return 1
	}
	if _, gap, ok := f.AheadInLane(idx, railLane); ok && gap <= r.forward {
		return 1
	}
	return r.bonus
}

// envKey indexes the environment multiplier table.
type envKey struct {
	surface   model.Surface
	condition model.Condition
}

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithRand sets the rand source used for jitter.
func WithRand(rng *rand.Rand) Option {
	return func(p *Pipeline) {
		if rng != nil {
			p.rng = rng
		}
	}
}

// WithJitterSpan sets the half-width of the symmetric jitter.
func WithJitterSpan(span float64) Option {
	return func(p *Pipeline) {
		if span >= 0 && span < 1 {
			p.jitterSpan = span
		}
	}
}

// WithPenaltyCut sets the speed reduction applied while a risky-squeeze
// penalty is active.
func WithPenaltyCut(cut float64) Option {
	return func(p *Pipeline) {
		if cut >= 0 && cut < 1 {
			p.penaltyCut = cut
		}
	}
}

// Pipeline holds the factor tables and coefficients.
type Pipeline struct {
	speedCoeff   float64
	agilityCoeff float64
	penaltyCut   float64
	jitterSpan   float64
	env          map[envKey]float64
	timing       map[model.RunningStyle]timingRule
	rng          *rand.Rand
}

// New creates a pipeline with the default factor tables.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		speedCoeff:   defaultSpeedCoeff,
		agilityCoeff: defaultAgilityCoeff,
		penaltyCut:   defaultPenaltyCut,
		jitterSpan:   defaultJitterSpan,
		env:          defaultEnvTable(),
		timing:       defaultTimingRules(),
		rng:          rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // deterministic seed for reproducible simulation
	}

	// Apply all options
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// defaultEnvTable maps (surface, condition) to a multiplier near 1.0.
// Poor footing costs a few percent; synthetic drains least.
func defaultEnvTable() map[envKey]float64 {
	return map[envKey]float64{
		{model.SurfaceDirt, model.ConditionFast}:        1.00,
		{model.SurfaceDirt, model.ConditionGood}:        0.99,
		{model.SurfaceDirt, model.ConditionMuddy}:       0.97,
		{model.SurfaceDirt, model.ConditionSloppy}:      0.95,
		{model.SurfaceTurf, model.ConditionFast}:        1.01,
		{model.SurfaceTurf, model.ConditionGood}:        1.00,
		{model.SurfaceTurf, model.ConditionMuddy}:       0.97,
		{model.SurfaceTurf, model.ConditionSloppy}:      0.94,
		{model.SurfaceSynthetic, model.ConditionFast}:   1.00,
		{model.SurfaceSynthetic, model.ConditionGood}:   1.00,
		{model.SurfaceSynthetic, model.ConditionMuddy}:  0.98,
		{model.SurfaceSynthetic, model.ConditionSloppy}: 0.97,
	}
}

// defaultTimingRules maps each style to its timing rule. The windows are
// expressed as race progress (elapsed/total ticks).
func defaultTimingRules() map[model.RunningStyle]timingRule {
	return map[model.RunningStyle]timingRule{
		model.StyleCharger:     windowRule{from: 0, to: 0.25, bonus: 1.035},
		model.StyleFrontRunner: windowRule{from: 0, to: 0.5, bonus: 1.03},
		model.StyleStalker:     windowRule{from: 0.40, to: 0.70, bonus: 1.04},
		model.StyleCloser:      windowRule{from: 0.75, to: 1, bonus: 1.04},
		model.StyleRailRunner:  railRule{bonus: defaultRailBonus, forward: defaultRailForward},
	}
}

// AttributeFactor returns the innate-attribute multiplier,
// 1 + (speed-50)*k_speed + (agility-50)*k_agility, range 0.85-1.15 at the
// default coefficients.
func (p *Pipeline) AttributeFactor(attrs model.Attributes) float64 {
	return 1 +
		(attrs.Speed-ratingMidpoint)*p.speedCoeff +
		(attrs.Agility-ratingMidpoint)*p.agilityCoeff
}

// EnvironmentFactor returns the surface/condition multiplier.
func (p *Pipeline) EnvironmentFactor(rc model.RaceContext) float64 {
	if m, ok := p.env[envKey{rc.Surface, rc.Condition}]; ok {
		return m
	}
	return 1
}

// TimingFactor returns the running-style timing multiplier for the
// competitor at the given race progress.
func (p *Pipeline) TimingFactor(f *model.Field, idx int, progress float64) float64 {
	rule, ok := p.timing[f.Competitor(idx).Style]
	if !ok {
		return 1
	}
	return rule.factor(f, idx, progress)
}

// PenaltyFactor returns the risky-squeeze penalty multiplier: a fixed cut
// while the competitor's penalty counter is active, 1.0 otherwise.
func (p *Pipeline) PenaltyFactor(penaltyTicks int) float64 {
	if penaltyTicks > 0 {
		return 1 - p.penaltyCut
	}
	return 1
}

// Jitter draws the bounded random multiplier applied last each tick.
func (p *Pipeline) Jitter() float64 {
	return 1 + (p.rng.Float64()*2-1)*p.jitterSpan
}

// Clean returns the competitor's speed for this tick excluding traffic
// effects, the temporary squeeze penalty and jitter: attribute x
// environment x timing x fatigue x reference speed. This is also the
// reference used when a blocked competitor caps against the one ahead.
func (p *Pipeline) Clean(f *model.Field, idx int, fatigueFactor, progress float64) float64 {
	c := f.Competitor(idx)
	return p.AttributeFactor(c.Attrs) *
		p.EnvironmentFactor(f.Context()) *
		p.TimingFactor(f, idx, progress) *
		fatigueFactor *
		model.ReferenceSpeed
}
