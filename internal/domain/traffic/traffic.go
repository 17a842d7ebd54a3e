// Package traffic decides lane changes and blocked-traffic speed effects.
// Each tick, a competitor may attempt one adjacent lane change, driven by
// an overtaking opportunity or by its style's desired lane. Attempts are
// gated by a per-style probability and an agility-based cooldown; blocked
// targets can still be squeezed through at a risk.
package traffic

import (
	"math"
	"math/rand"

	"github.com/ovation22/TripleDerby-sub000/internal/domain/model"
	"github.com/ovation22/TripleDerby-sub000/internal/domain/types"
)

// Spatial constants, in distance units.
const (
	// ClearBehind and ClearAhead form the asymmetric clearance window a
	// target lane must be empty in for a change to be clean.
	ClearBehind = 0.1
	ClearAhead  = 0.2
	// BlockGap is how close a competitor ahead in the same lane must be to
	// slow the one behind.
	BlockGap = 0.2

	chargerLookahead = 0.5
	closerNear       = 0.2
	closerFar        = 1.0
)

// Decision thresholds and rolls.
const (
	overtakeBaseGap     = 0.25
	overtakeSpeedCoeff  = 0.002
	finalQuarter        = 0.75
	lateQuarterPhase    = 1.5
	cooldownBase        = 10.0
	cooldownAgility     = 0.1
	riskyAgilityDivisor = 200.0
	penaltyBaseTicks    = 5.0
	penaltyDurability   = 0.04
	topPositions        = 3
	topPositionCut      = 0.7
	bottomPositionBoost = 1.3
	ratingMidpoint      = 50
	defaultRandomSeed   = 42
)

// Blocked-traffic speed responses per style. Caps reference the clean
// speed of the competitor ahead; the front-runner takes a flat frustration
// cut instead, and only when boxed in with live overtake intent.
const (
	capDefault        = 0.99
	capRailRunner     = 0.98
	capCloser         = 0.999
	frustrationFactor = 0.97
)

// defaultGateProbability is the per-style base probability of actually
// attempting a decided lane change.
func defaultGateProbability() map[model.RunningStyle]float64 {
	return map[model.RunningStyle]float64{
		model.StyleCharger:     0.35,
		model.StyleFrontRunner: 0.15,
		model.StyleStalker:     0.30,
		model.StyleCloser:      0.40,
		model.StyleRailRunner:  0.25,
	}
}

// Decision is the outcome of one competitor's positioning pass for a tick.
// Intent fields are populated even when no attempt is made; the engine
// needs them for the front-runner frustration rule.
type Decision struct {
	WantsOvertake bool // a competitor ahead in lane is within overtaking range
	AdjacentClear bool // at least one adjacent lane passes the clearance check

	Attempted    bool // a change was attempted; the cooldown is spent either way
	Changed      bool
	Lane         int // lane after the decision
	Kind         types.EventKind
	PenaltyTicks int // squeeze penalty to activate on a risky success

	RiskyRolled  bool
	RiskySuccess bool
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithRand sets the rand source used for gating and squeeze rolls.
func WithRand(rng *rand.Rand) Option {
	return func(m *Manager) {
		if rng != nil {
			m.rng = rng
		}
	}
}

// WithGateProbability overrides the base attempt probability for a style.
func WithGateProbability(style model.RunningStyle, p float64) Option {
	return func(m *Manager) {
		if style.Valid() && p >= 0 && p <= 1 {
			m.gate[style] = p
		}
	}
}

// Manager runs the positioning decision for one competitor at a time.
type Manager struct {
	gate map[model.RunningStyle]float64
	rng  *rand.Rand
}

// New creates a traffic manager with the default gating table.
func New(opts ...Option) *Manager {
	m := &Manager{
		gate: defaultGateProbability(),
		rng:  rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // deterministic seed for reproducible simulation
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// CooldownThreshold returns the ticks that must elapse between lane-change
// attempts: 10 at minimum agility down to 0 at maximum.
func (m *Manager) CooldownThreshold(attrs model.Attributes) int {
	return int(math.Round(cooldownBase - attrs.Agility*cooldownAgility))
}

// OvertakeGap returns the dynamic trigger distance for overtaking: base
// 0.25, growing mildly with speed rating and widening in the final quarter.
func (m *Manager) OvertakeGap(attrs model.Attributes, progress float64) float64 {
	speedFactor := 1 + (attrs.Speed-ratingMidpoint)*overtakeSpeedCoeff
	phaseFactor := 1.0
	if progress >= finalQuarter {
		phaseFactor = lateQuarterPhase
	}
	return overtakeBaseGap * speedFactor * phaseFactor
}

// DesiredLane returns the lane the competitor's style prefers at the
// current progress, independent of any overtaking opportunity.
func (m *Manager) DesiredLane(f *model.Field, idx int, progress float64) int {
	st := f.State(idx)
	switch f.Competitor(idx).Style {
	case model.StyleRailRunner:
		return 1
	case model.StyleFrontRunner:
		return st.Lane
	case model.StyleCharger:
		return leastOccupiedNearby(f, idx, st.Distance, st.Distance+chargerLookahead)
	case model.StyleStalker:
		return towardCenterBand(st.Lane, f.Context().FieldSize)
	case model.StyleCloser:
		if progress < finalQuarter {
			return st.Lane
		}
		return mostOvertakable(f, idx, st.Distance+closerNear, st.Distance+closerFar)
	default:
		return st.Lane
	}
}

// leastOccupiedNearby picks the adjacent-or-current lane with the fewest
// occupants in the lookahead window, preferring the current lane on ties.
func leastOccupiedNearby(f *model.Field, idx int, from, to float64) int {
	st := f.State(idx)
	best := st.Lane
	bestCount := f.CountWindow(idx, st.Lane, from, to)
	for _, lane := range []int{st.Lane - 1, st.Lane + 1} {
		if lane < 1 || lane > f.Context().FieldSize {
			continue
		}
		if n := f.CountWindow(idx, lane, from, to); n < bestCount {
			best, bestCount = lane, n
		}
	}
	return best
}

// mostOvertakable picks the adjacent-or-current lane with the most
// catchable competitors ahead, preferring the current lane on ties.
func mostOvertakable(f *model.Field, idx int, from, to float64) int {
	st := f.State(idx)
	best := st.Lane
	bestCount := f.CountWindow(idx, st.Lane, from, to)
	for _, lane := range []int{st.Lane - 1, st.Lane + 1} {
		if lane < 1 || lane > f.Context().FieldSize {
			continue
		}
		if n := f.CountWindow(idx, lane, from, to); n > bestCount {
			best, bestCount = lane, n
		}
	}
	return best
}

// towardCenterBand drifts one lane toward the center band of the field,
// or stays put when already inside it.
func towardCenterBand(lane, fieldSize int) int {
	center := (fieldSize + 1) / 2
	switch {
	case lane < center-1:
		return lane + 1
	case lane > center+1:
		return lane - 1
	default:
		return lane
	}
}

// positionMultiplier scales the gate probability by live position:
// leaders sit tight, trailers press.
func positionMultiplier(rank, fieldSize int) float64 {
	if rank <= topPositions {
		return topPositionCut
	}
	if rank > fieldSize-topPositions {
		return bottomPositionBoost
	}
	return 1.0
}

// Intent reports whether competitor idx currently wants to overtake and
// whether any adjacent lane is clear. It is a pure read with no rolls, so
// the engine can consult it again after lane commits.
func (m *Manager) Intent(f *model.Field, idx, tick int) (wantsOvertake, adjacentClear bool) {
	st := f.State(idx)
	c := f.Competitor(idx)
	progress := f.Context().Progress(tick)

	if _, gap, ok := f.AheadInLane(idx, st.Lane); ok && gap <= m.OvertakeGap(c.Attrs, progress) {
		wantsOvertake = true
	}
	_, _, leftClear, rightClear := m.adjacency(f, idx)
	return wantsOvertake, leftClear || rightClear
}

// adjacency reports validity and clearance of the two adjacent lanes.
func (m *Manager) adjacency(f *model.Field, idx int) (leftValid, rightValid, leftClear, rightClear bool) {
	lane := f.State(idx).Lane
	leftValid = lane-1 >= 1
	rightValid = lane+1 <= f.Context().FieldSize
	leftClear = leftValid && f.LaneClear(idx, lane-1, ClearBehind, ClearAhead)
	rightClear = rightValid && f.LaneClear(idx, lane+1, ClearBehind, ClearAhead)
	return leftValid, rightValid, leftClear, rightClear
}

// Plan runs the full positioning decision for competitor idx at the given
// tick. It does not mutate field state; the engine commits the decision.
func (m *Manager) Plan(f *model.Field, idx, tick int) Decision {
	st := f.State(idx)
	c := f.Competitor(idx)
	progress := f.Context().Progress(tick)

	d := Decision{Lane: st.Lane}
	d.WantsOvertake, d.AdjacentClear = m.Intent(f, idx, tick)
	leftValid, rightValid, leftClear, rightClear := m.adjacency(f, idx)

	desired := m.DesiredLane(f, idx, progress)
	wantsPosition := desired != st.Lane

	if !d.WantsOvertake && !wantsPosition {
		return d
	}
	if !leftValid && !rightValid {
		return d
	}
	if st.Cooldown < m.CooldownThreshold(c.Attrs) {
		return d
	}

	// Gating roll. Failing it skips the attempt entirely, cooldown intact.
	p := m.gate[c.Style] * positionMultiplier(f.Rank(idx), f.Size())
	if m.rng.Float64() >= p {
		return d
	}

	target, targetClear := chooseTarget(st.Lane, desired, d.WantsOvertake, leftValid, rightValid, leftClear, rightClear)

	d.Attempted = true
	if targetClear {
		d.Changed = true
		d.Lane = target
		if d.WantsOvertake {
			d.Kind = types.EventCleanChange
		} else {
			d.Kind = types.EventDrift
		}
		return d
	}

	// Risky squeeze: agility decides the roll, durability the penalty.
	d.RiskyRolled = true
	if m.rng.Float64() < c.Attrs.Agility/riskyAgilityDivisor {
		d.RiskySuccess = true
		d.Changed = true
		d.Lane = target
		d.Kind = types.EventRiskySqueeze
		d.PenaltyTicks = penaltyDuration(c.Attrs)
	}
	return d
}

// chooseTarget picks the adjacent lane to attempt. A clear lane toward the
// desired lane wins. Overtakers take whichever side is open before forcing
// the issue; purely positional moves never change direction — a blocked
// toward-desired lane falls through to the risky squeeze.
func chooseTarget(current, desired int, wantsOvertake, leftValid, rightValid, leftClear, rightClear bool) (lane int, clear bool) {
	step := current
	switch {
	case desired < current:
		step = current - 1
	case desired > current:
		step = current + 1
	}

	if step != current {
		stepClear := (step < current && leftClear) || (step > current && rightClear)
		if stepClear {
			return step, true
		}
		if wantsOvertake {
			if leftClear {
				return current - 1, true
			}
			if rightClear {
				return current + 1, true
			}
		}
		return step, false
	}

	// Overtake-driven with no positional preference: inside first.
	if leftClear {
		return current - 1, true
	}
	if rightClear {
		return current + 1, true
	}
	if leftValid {
		return current - 1, false
	}
	return current + 1, false
}

// penaltyDuration returns the squeeze penalty length in ticks; higher
// durability shortens it, floored at one tick.
func penaltyDuration(attrs model.Attributes) int {
	ticks := int(math.Round(penaltyBaseTicks - attrs.Durability*penaltyDurability))
	if ticks < 1 {
		return 1
	}
	return ticks
}

// BlockedSpeed applies the per-style response to running up on traffic.
// speed is the mover's pipeline speed so far; leaderClean is the blocking
// competitor's clean speed. The returned flag reports whether the
// front-runner frustration penalty fired.
func BlockedSpeed(style model.RunningStyle, speed, leaderClean float64, wantsOvertake, adjacentClear bool) (float64, bool) {
	switch style {
	case model.StyleFrontRunner:
		if wantsOvertake && !adjacentClear {
			return speed * frustrationFactor, true
		}
		return speed, false
	case model.StyleRailRunner:
		return math.Min(speed, leaderClean*capRailRunner), false
	case model.StyleCloser:
		return math.Min(speed, leaderClean*capCloser), false
	default: // charger, stalker
		return math.Min(speed, leaderClean*capDefault), false
	}
}
