package sim

import (
	"github.com/ovation22/TripleDerby-sub000/internal/domain/model"
	"github.com/ovation22/TripleDerby-sub000/internal/domain/types"
)

// Result is the complete output of one simulated race.
type Result struct {
	RaceID string
	Ticks  int
	// Placements holds one row per competitor in finishing order; DNF rows
	// sort after all finishers, ordered by distance covered.
	Placements []types.Placement
	// Events are human-readable traffic notes keyed by tick.
	Events []types.Event
	// Trace holds per-tick (lane, distance) snapshots when tracing was
	// requested; empty otherwise.
	Trace []types.TickSnapshot
}

// Winner returns the first-place row, or false for an all-DNF race.
func (r *Result) Winner() (types.Placement, bool) {
	if len(r.Placements) == 0 || r.Placements[0].DNF {
		return types.Placement{}, false
	}
	return r.Placements[0], true
}

// Placement returns the row for a competitor id.
func (r *Result) Placement(competitorID string) (types.Placement, bool) {
	for _, p := range r.Placements {
		if p.CompetitorID == competitorID {
			return p, true
		}
	}
	return types.Placement{}, false
}

// EventsFor returns the traffic events recorded for a competitor id, in
// tick order.
func (r *Result) EventsFor(competitorID string) []types.Event {
	var out []types.Event
	for _, ev := range r.Events {
		if ev.CompetitorID == competitorID {
			out = append(out, ev)
		}
	}
	return out
}

func (r *Result) appendEvent(tick int, competitorID string, kind types.EventKind, note string) {
	r.Events = append(r.Events, types.Event{
		Tick:         tick,
		CompetitorID: competitorID,
		Kind:         kind,
		Note:         note,
	})
}

func (r *Result) appendSnapshot(tick int, competitorID string, st *model.RaceState) {
	r.Trace = append(r.Trace, types.TickSnapshot{
		Tick:         tick,
		CompetitorID: competitorID,
		Lane:         st.Lane,
		Distance:     st.Distance,
	})
}
