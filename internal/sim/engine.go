// Package sim drives the per-tick race simulation: it validates the field,
// loops over all competitors each tick in a fixed order, orchestrates the
// pace pipeline, fatigue model and traffic manager, and records terminal
// placements. One race is processed as a strict sequence of ticks; there
// is no parallelism within a race because later competitors must observe
// lane commits made earlier in the same tick.
package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ovation22/TripleDerby-sub000/internal/domain/fatigue"
	"github.com/ovation22/TripleDerby-sub000/internal/domain/model"
	"github.com/ovation22/TripleDerby-sub000/internal/domain/pace"
	"github.com/ovation22/TripleDerby-sub000/internal/domain/traffic"
	"github.com/ovation22/TripleDerby-sub000/internal/domain/types"
	"github.com/ovation22/TripleDerby-sub000/pkg/logger"
	"github.com/ovation22/TripleDerby-sub000/pkg/metrics"
)

// Default engine configuration constants.
const (
	defaultRandomSeed = 42
	// defaultMaxTickFactor bounds a runaway race at a multiple of the
	// nominal tick count; unfinished competitors past it are marked DNF.
	defaultMaxTickFactor      = 4
	nanosecondsPerMillisecond = 1e6
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithSeed seeds the engine's rand source. The same seed and inputs
// reproduce the same race.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.seed = seed
	}
}

// WithMaxTickFactor sets the runaway safety bound as a multiple of the
// race's nominal tick count.
func WithMaxTickFactor(factor int) Option {
	return func(e *Engine) {
		if factor > 0 {
			e.maxTickFactor = factor
		}
	}
}

// WithTrace enables per-tick trace recording for every race, regardless of
// the per-request flag.
func WithTrace(trace bool) Option {
	return func(e *Engine) {
		e.trace = trace
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithPipeline overrides the speed modifier pipeline.
func WithPipeline(p *pace.Pipeline) Option {
	return func(e *Engine) {
		if p != nil {
			e.pipeline = p
		}
	}
}

// WithFatigue overrides the fatigue model.
func WithFatigue(m *fatigue.Model) Option {
	return func(e *Engine) {
		if m != nil {
			e.fatigue = m
		}
	}
}

// WithTraffic overrides the traffic manager.
func WithTraffic(m *traffic.Manager) Option {
	return func(e *Engine) {
		if m != nil {
			e.traffic = m
		}
	}
}

// Engine simulates races. It is safe for sequential reuse; concurrent
// races need one engine each because the rand source is not synchronized.
type Engine struct {
	pipeline *pace.Pipeline
	fatigue  *fatigue.Model
	traffic  *traffic.Manager

	seed          int64
	maxTickFactor int
	trace         bool

	log logger.Logger
}

// New constructs an engine. Components not supplied via options share one
// seeded rand source, so a fixed seed reproduces whole races.
func New(opts ...Option) *Engine {
	e := &Engine{
		seed:          defaultRandomSeed,
		maxTickFactor: defaultMaxTickFactor,
	}

	// Apply all options
	for _, opt := range opts {
		opt(e)
	}

	rng := rand.New(rand.NewSource(e.seed)) //nolint:gosec // deterministic seed for reproducible simulation
	if e.pipeline == nil {
		e.pipeline = pace.New(pace.WithRand(rng))
	}
	if e.fatigue == nil {
		e.fatigue = fatigue.New()
	}
	if e.traffic == nil {
		e.traffic = traffic.New(traffic.WithRand(rng))
	}

	return e
}

// Run simulates one complete race and returns its result set. The context
// cancels at race granularity: a canceled race is abandoned whole, never
// resumed mid-tick.
func (e *Engine) Run(ctx context.Context, req model.RaceRequest) (*Result, error) {
	if e.log == nil {
		e.log = logger.Get().Named("sim")
	}

	// Re-derive the context so hand-built requests get the same validation
	// and tick count as NewRaceContext.
	rc, err := model.NewRaceContext(req.Context.Distance, req.Context.Surface, req.Context.Condition, req.Context.FieldSize)
	if err != nil {
		return nil, err
	}

	field, err := model.NewField(rc, req.Competitors, req.Lanes)
	if err != nil {
		return nil, err
	}

	raceID := req.RaceID
	if raceID == "" {
		raceID = uuid.NewString()
	}

	res := &Result{RaceID: raceID}
	tracing := e.trace || req.Trace
	maxTicks := rc.TotalTicks * e.maxTickFactor

	e.log.Debug(ctx, "race starting",
		logger.String("raceID", raceID),
		logger.Int("field", field.Size()),
		logger.Float64("distance", rc.Distance),
		logger.Int("totalTicks", rc.TotalTicks),
	)

	start := time.Now()
	placed := 0
	nextPlace := 1
	tick := 0

	for placed < field.Size() {
		select {
		case <-ctx.Done():
			metrics.RecordRaceAbandoned()
			return nil, fmt.Errorf("race %s abandoned: %w", raceID, ctx.Err())
		default:
		}

		tick++
		if tick > maxTicks {
			// Runaway guard: a modifier misconfiguration must not loop
			// forever. Everyone still on track is a DNF.
			e.log.Warn(ctx, "race exceeded safety bound, marking DNF",
				logger.String("raceID", raceID),
				logger.Int("maxTicks", maxTicks),
			)
			tick = maxTicks
			break
		}

		progress := rc.Progress(tick)
		var finishers []int

		for i := 0; i < field.Size(); i++ {
			st := field.State(i)
			if st.Finished() {
				if tracing {
					res.appendSnapshot(tick, field.Competitor(i).ID, st)
				}
				continue
			}

			st.Cooldown++
			e.stepTraffic(res, field, i, tick)

			spd := e.stepSpeed(field, i, tick, progress, res)
			st.Distance += spd

			drain := e.fatigue.Drain(field.Competitor(i), rc, spd, progress)
			st.Stamina = math.Max(0, st.Stamina-drain)

			if st.PenaltyTicks > 0 {
				st.PenaltyTicks--
			}

			if st.Distance >= rc.Distance {
				finishers = append(finishers, i)
			}

			if tracing {
				res.appendSnapshot(tick, field.Competitor(i).ID, st)
			}
		}

		// Same-tick finishers tie-break by distance, then arrival (field)
		// order. Placement is assigned exactly once.
		sort.SliceStable(finishers, func(a, b int) bool {
			return field.State(finishers[a]).Distance > field.State(finishers[b]).Distance
		})
		for _, i := range finishers {
			st := field.State(i)
			st.Placement = nextPlace
			st.FinishTick = tick
			nextPlace++
			placed++
		}
	}

	res.Ticks = tick
	e.collectPlacements(res, field, &nextPlace)

	metrics.RecordRaceSimulated()
	metrics.RecordRaceTicks(tick)
	metrics.RecordRaceDuration(float64(time.Since(start).Nanoseconds()) / nanosecondsPerMillisecond)

	e.log.Info(ctx, "race finished",
		logger.String("raceID", raceID),
		logger.Int("ticks", tick),
		logger.Int("finished", placed),
		logger.Int("dnf", field.Size()-placed),
	)

	return res, nil
}

// stepTraffic plans and commits one competitor's positioning for the tick.
// Lane commits are first-come-first-served: later competitors in the same
// tick observe them immediately.
func (e *Engine) stepTraffic(res *Result, field *model.Field, i, tick int) {
	st := field.State(i)
	d := e.traffic.Plan(field, i, tick)

	if !d.Attempted {
		return
	}
	// Every attempt spends the cooldown, success or failure.
	st.Cooldown = 0

	if d.RiskyRolled {
		metrics.RecordRiskyAttempt()
		if !d.RiskySuccess {
			metrics.RecordRiskyFailure()
		}
	}
	if !d.Changed {
		return
	}

	from := st.Lane
	st.Lane = d.Lane
	if d.PenaltyTicks > 0 {
		st.PenaltyTicks = d.PenaltyTicks
	}

	c := field.Competitor(i)
	var note string
	switch d.Kind {
	case types.EventRiskySqueeze:
		note = fmt.Sprintf("%s squeezed through from lane %d to lane %d", c.Name, from, d.Lane)
	case types.EventDrift:
		note = fmt.Sprintf("%s drifted from lane %d to lane %d", c.Name, from, d.Lane)
	default:
		note = fmt.Sprintf("%s switched cleanly from lane %d to lane %d", c.Name, from, d.Lane)
	}
	res.appendEvent(tick, c.ID, d.Kind, note)
	metrics.RecordLaneChange(string(d.Kind))
}

// stepSpeed runs the full modifier pipeline for one competitor: clean
// speed, squeeze penalty, blocked-traffic response, jitter.
func (e *Engine) stepSpeed(field *model.Field, i, tick int, progress float64, res *Result) float64 {
	st := field.State(i)
	c := field.Competitor(i)

	fatigueFactor := e.fatigue.SpeedFactor(st.Fraction())
	spd := e.pipeline.Clean(field, i, fatigueFactor, progress)
	spd *= e.pipeline.PenaltyFactor(st.PenaltyTicks)

	if ahead, gap, ok := field.AheadInLane(i, st.Lane); ok && gap <= traffic.BlockGap {
		// The reference is the blocker's clean speed: traffic effects and
		// randomness are excluded to avoid a circular dependency.
		leaderFactor := e.fatigue.SpeedFactor(field.State(ahead).Fraction())
		leaderClean := e.pipeline.Clean(field, ahead, leaderFactor, progress)

		wantsOvertake, adjacentClear := e.traffic.Intent(field, i, tick)
		capped, frustrated := traffic.BlockedSpeed(c.Style, spd, leaderClean, wantsOvertake, adjacentClear)
		spd = capped
		if frustrated {
			res.appendEvent(tick, c.ID, types.EventFrustration,
				fmt.Sprintf("%s boxed in behind traffic in lane %d", c.Name, st.Lane))
		}
	}

	return spd * e.pipeline.Jitter()
}

// collectPlacements builds the final placement rows: finishers by
// placement, then DNFs ordered by distance.
func (e *Engine) collectPlacements(res *Result, field *model.Field, nextPlace *int) {
	res.Placements = make([]types.Placement, 0, field.Size())
	for i := 0; i < field.Size(); i++ {
		st := field.State(i)
		if !st.Finished() {
			continue
		}
		res.Placements = append(res.Placements, types.Placement{
			Position:     st.Placement,
			CompetitorID: field.Competitor(i).ID,
			Name:         field.Competitor(i).Name,
			Distance:     st.Distance,
			FinishTick:   st.FinishTick,
		})
	}
	sort.Slice(res.Placements, func(a, b int) bool {
		return res.Placements[a].Position < res.Placements[b].Position
	})

	var dnf []int
	for i := 0; i < field.Size(); i++ {
		if !field.State(i).Finished() {
			dnf = append(dnf, i)
		}
	}
	sort.SliceStable(dnf, func(a, b int) bool {
		return field.State(dnf[a]).Distance > field.State(dnf[b]).Distance
	})
	for _, i := range dnf {
		st := field.State(i)
		st.DNF = true
		res.Placements = append(res.Placements, types.Placement{
			Position:     *nextPlace,
			CompetitorID: field.Competitor(i).ID,
			Name:         field.Competitor(i).Name,
			Distance:     st.Distance,
			DNF:          true,
		})
		*nextPlace++
		metrics.RecordCompetitorDNF()
	}
}
