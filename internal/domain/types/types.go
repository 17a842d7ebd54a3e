// Package types contains common result types used across the application.
package types

// Placement is one row of a finishing order.
type Placement struct {
	Position     int     `json:"position"` // 1 = winner; DNF rows sort last
	CompetitorID string  `json:"competitor_id"`
	Name         string  `json:"name"`
	Distance     float64 `json:"distance"`    // distance at race end
	FinishTick   int     `json:"finish_tick"` // tick the competitor finished on
	DNF          bool    `json:"dnf"`
}

// EventKind classifies a traffic event during a race.
type EventKind string

// Traffic event kinds.
const (
	EventCleanChange  EventKind = "clean_change"
	EventRiskySqueeze EventKind = "risky_squeeze"
	EventDrift        EventKind = "proactive_drift"
	EventFrustration  EventKind = "blocked_frustration"
)

// Event is a human-readable note about a traffic occurrence, keyed by tick.
type Event struct {
	Tick         int       `json:"tick"`
	CompetitorID string    `json:"competitor_id"`
	Kind         EventKind `json:"kind"`
	Note         string    `json:"note"`
}

// TickSnapshot is one per-tick trace row for replay.
type TickSnapshot struct {
	Tick         int     `json:"tick"`
	CompetitorID string  `json:"competitor_id"`
	Lane         int     `json:"lane"`
	Distance     float64 `json:"distance"`
}
