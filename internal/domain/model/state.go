package model

import (
	"fmt"
)

// RaceState is the mutable per-race state of one competitor. It is owned
// exclusively by the simulation engine and written only during that
// competitor's turn within a tick.
type RaceState struct {
	Distance        float64 // distance traveled so far, monotonically non-decreasing
	Lane            int     // current lane, always in [1, field size]
	Stamina         float64 // remaining stamina, in [0, StartingStamina]
	StartingStamina float64
	Cooldown        int // ticks elapsed since the last lane-change attempt
	PenaltyTicks    int // remaining ticks of an active risky-squeeze penalty
	Placement       int // final placement, 0 until the competitor finishes
	FinishTick      int // tick on which the competitor finished
	DNF             bool
}

// Fraction returns remaining stamina over starting stamina, clamped to [0,1].
func (s *RaceState) Fraction() float64 {
	if s.StartingStamina <= 0 {
		return 0
	}
	f := s.Stamina / s.StartingStamina
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Finished reports whether the competitor has been assigned a placement.
func (s *RaceState) Finished() bool { return s.Placement > 0 }

// Field is the shared collection of competitors and their race state for a
// single race. It is mutated in a fixed pass order per tick with no
// aliasing, so later competitors in a tick observe lane changes committed
// earlier in the same tick.
type Field struct {
	ctx    RaceContext
	comps  []Competitor
	states []*RaceState
}

// NewField validates the entrants and initial lane assignment and builds
// the starting race state: distance 0, full stamina, counters at 0.
func NewField(ctx RaceContext, comps []Competitor, lanes []int) (*Field, error) {
	if len(comps) < MinFieldSize {
		return nil, fmt.Errorf("%w: need at least %d competitors, got %d", ErrInvalidField, MinFieldSize, len(comps))
	}
	if len(comps) > ctx.FieldSize {
		return nil, fmt.Errorf("%w: %d competitors exceed field size %d", ErrInvalidField, len(comps), ctx.FieldSize)
	}
	if len(lanes) != len(comps) {
		return nil, fmt.Errorf("%w: %d lane assignments for %d competitors", ErrInvalidField, len(lanes), len(comps))
	}

	seenLanes := make(map[int]int, len(lanes))
	seenIDs := make(map[string]struct{}, len(comps))
	for i, lane := range lanes {
		if lane < 1 || lane > ctx.FieldSize {
			return nil, fmt.Errorf("%w: lane %d for %q outside [1,%d]", ErrInvalidField, lane, comps[i].ID, ctx.FieldSize)
		}
		if prev, dup := seenLanes[lane]; dup {
			return nil, fmt.Errorf("%w: lane %d assigned to both %q and %q", ErrInvalidField, lane, comps[prev].ID, comps[i].ID)
		}
		seenLanes[lane] = i
		if _, dup := seenIDs[comps[i].ID]; dup {
			return nil, fmt.Errorf("%w: duplicate competitor id %q", ErrInvalidField, comps[i].ID)
		}
		seenIDs[comps[i].ID] = struct{}{}
	}

	states := make([]*RaceState, len(comps))
	for i := range comps {
		states[i] = &RaceState{
			Lane:            lanes[i],
			Stamina:         comps[i].Attrs.Stamina,
			StartingStamina: comps[i].Attrs.Stamina,
		}
	}

	return &Field{ctx: ctx, comps: comps, states: states}, nil
}

// Size returns the number of entrants.
func (f *Field) Size() int { return len(f.comps) }

// Context returns the race context the field was built for.
func (f *Field) Context() RaceContext { return f.ctx }

// Competitor returns the i-th entrant.
func (f *Field) Competitor(i int) Competitor { return f.comps[i] }

// State returns the mutable race state of the i-th entrant.
func (f *Field) State(i int) *RaceState { return f.states[i] }

// AheadInLane returns the nearest occupant of lane at or beyond competitor
// i's distance, with the forward gap. ok is false when the lane is empty
// ahead of i.
func (f *Field) AheadInLane(i, lane int) (ahead int, gap float64, ok bool) {
	self := f.states[i].Distance
	best := -1
	bestGap := 0.0
	for j, st := range f.states {
		if j == i || st.Lane != lane || st.Distance < self {
			continue
		}
		g := st.Distance - self
		if best == -1 || g < bestGap {
			best, bestGap = j, g
		}
	}
	if best == -1 {
		return 0, 0, false
	}
	return best, bestGap, true
}

// LaneClear reports whether lane has no occupant within the asymmetric
// window [distance-behind, distance+ahead] around competitor i.
func (f *Field) LaneClear(i, lane int, behind, ahead float64) bool {
	self := f.states[i].Distance
	for j, st := range f.states {
		if j == i || st.Lane != lane {
			continue
		}
		if st.Distance >= self-behind && st.Distance <= self+ahead {
			return false
		}
	}
	return true
}

// CountWindow counts occupants of lane with distance in [from, to],
// excluding competitor exclude.
func (f *Field) CountWindow(exclude, lane int, from, to float64) int {
	n := 0
	for j, st := range f.states {
		if j == exclude || st.Lane != lane {
			continue
		}
		if st.Distance >= from && st.Distance <= to {
			n++
		}
	}
	return n
}

// Rank returns competitor i's live position (1 = leading), ordered by
// distance with ties broken by field order.
func (f *Field) Rank(i int) int {
	self := f.states[i].Distance
	rank := 1
	for j, st := range f.states {
		if j == i {
			continue
		}
		if st.Distance > self || (st.Distance == self && j < i) {
			rank++
		}
	}
	return rank
}
