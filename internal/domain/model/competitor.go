// Package model contains domain models passed between layers.
package model

import "fmt"

// Rating bounds for competitor attributes.
const (
	MinRating = 0
	MaxRating = 100
)

// RunningStyle is the closed set of racing personalities. Every
// style-dependent formula (timing bonus, fatigue pacing, lane seeking)
// dispatches through per-style tables keyed by this type.
type RunningStyle int

// The five running styles.
const (
	// StyleCharger bursts early and fades.
	StyleCharger RunningStyle = iota
	// StyleFrontRunner sets the pace from the front.
	StyleFrontRunner
	// StyleStalker surges mid-race.
	StyleStalker
	// StyleCloser conserves early and closes late.
	StyleCloser
	// StyleRailRunner hunts the inside lane.
	StyleRailRunner

	styleCount
)

// String returns the human-readable style name.
func (s RunningStyle) String() string {
	switch s {
	case StyleCharger:
		return "charger"
	case StyleFrontRunner:
		return "front-runner"
	case StyleStalker:
		return "stalker"
	case StyleCloser:
		return "closer"
	case StyleRailRunner:
		return "rail-runner"
	default:
		return fmt.Sprintf("running-style(%d)", int(s))
	}
}

// Valid reports whether the style is one of the five known styles.
func (s RunningStyle) Valid() bool {
	return s >= StyleCharger && s < styleCount
}

// Styles returns all five running styles in declaration order.
func Styles() []RunningStyle {
	return []RunningStyle{StyleCharger, StyleFrontRunner, StyleStalker, StyleCloser, StyleRailRunner}
}

// Attributes are a competitor's innate ratings on a 0-100 scale.
// They never change during a race.
type Attributes struct {
	Speed      float64 // raw speed rating
	Stamina    float64 // stamina pool capacity
	Agility    float64 // lane-change aptitude
	Durability float64 // resistance to fatigue and squeeze penalties
}

// Competitor is an immutable race entrant: identity, ratings and style.
type Competitor struct {
	ID    string
	Name  string
	Attrs Attributes
	Style RunningStyle
}

// NewCompetitor validates ratings and style at construction. Out-of-range
// values are rejected rather than clamped so upstream bugs stay visible.
func NewCompetitor(id, name string, attrs Attributes, style RunningStyle) (Competitor, error) {
	if id == "" {
		return Competitor{}, fmt.Errorf("%w: empty competitor id", ErrInvalidCompetitor)
	}
	for _, r := range []struct {
		name  string
		value float64
	}{
		{"speed", attrs.Speed},
		{"stamina", attrs.Stamina},
		{"agility", attrs.Agility},
		{"durability", attrs.Durability},
	} {
		if r.value < MinRating || r.value > MaxRating {
			return Competitor{}, fmt.Errorf("%w: %s rating %.2f outside [%d,%d]",
				ErrAttributeOutOfRange, r.name, r.value, MinRating, MaxRating)
		}
	}
	if !style.Valid() {
		return Competitor{}, fmt.Errorf("%w: unknown running style %d", ErrInvalidCompetitor, int(style))
	}
	return Competitor{ID: id, Name: name, Attrs: attrs, Style: style}, nil
}
