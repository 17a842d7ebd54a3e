package model

import "math/rand"

// RaceRequest is the payload flowing from submission to the race runners:
// a finalized field with its initial lane assignment and race context.
type RaceRequest struct {
	RaceID      string // unique id assigned at submission
	Competitors []Competitor
	Lanes       []int // initial lane per competitor, unique within [1, field size]
	Context     RaceContext
	Trace       bool // record a per-tick (lane, distance) trace for replay
}

// ShuffleLanes draws an initial lane assignment for n entrants: a shuffled
// permutation of 1..n, guaranteeing no duplicate lanes.
func ShuffleLanes(n int, rng *rand.Rand) []int {
	lanes := make([]int, n)
	for i := range lanes {
		lanes[i] = i + 1
	}
	rng.Shuffle(n, func(i, j int) {
		lanes[i], lanes[j] = lanes[j], lanes[i]
	})
	return lanes
}
