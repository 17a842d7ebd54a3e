// Package app provides the core service that accepts race requests, runs
// them on a pool of race runners, and exposes finished results.
package app

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/google/uuid"

	racequeue "github.com/ovation22/TripleDerby-sub000/internal/adapters/mq/queue"
	runnerpool "github.com/ovation22/TripleDerby-sub000/internal/adapters/mq/worker"
	"github.com/ovation22/TripleDerby-sub000/internal/adapters/repository"
	"github.com/ovation22/TripleDerby-sub000/internal/domain/model"
	"github.com/ovation22/TripleDerby-sub000/internal/sim"
	"github.com/ovation22/TripleDerby-sub000/pkg/logger"
)

// Default service configuration constants.
const (
	defaultQueueSize     = 1024
	defaultSeed          = 42
	defaultMaxTickFactor = 4
)

// Service wires the race request queue, the runner pool and the result
// store. Each runner owns a deterministically seeded engine, so a fixed
// base seed reproduces per-runner race streams.
type Service struct {
	mu sync.RWMutex

	// Core components
	results repository.Store
	queue   racequeue.Queue
	pool    *runnerpool.Pool

	// Configuration
	workerCount   int
	queueSize     int
	seed          int64
	trace         bool
	maxTickFactor int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of race runner goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the race request queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithSeed sets the base seed for the runner engines.
func WithSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithTrace enables per-tick trace recording for every race.
func WithTrace(trace bool) Option {
	return func(s *Service) {
		s.trace = trace
	}
}

// WithMaxTickFactor sets the runaway safety bound for the engines.
func WithMaxTickFactor(factor int) Option {
	return func(s *Service) {
		if factor > 0 {
			s.maxTickFactor = factor
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU(),
		queueSize:     defaultQueueSize,
		seed:          defaultSeed,
		maxTickFactor: defaultMaxTickFactor,
		logger:        nil, // Will be replaced when the service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting race simulation service...")

	s.results = repository.NewMemoryStore(ctx)
	s.queue = racequeue.NewInMemoryQueue(
		racequeue.WithCapacity(s.queueSize),
	)

	// One engine per runner; offsetting the seed keeps runner streams
	// independent but reproducible.
	factory := func(runner int) runnerpool.Simulator {
		return sim.New(
			sim.WithSeed(s.seed+int64(runner)),
			sim.WithTrace(s.trace),
			sim.WithMaxTickFactor(s.maxTickFactor),
			sim.WithLogger(s.logger.Named("sim")),
		)
	}
	s.pool = runnerpool.NewPool(s.workerCount, s.queue, factory, s.results)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "race simulation service started",
		logger.Int("runners", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
	)

	return nil
}

// Stop gracefully shuts down the service. Stored results stay readable.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping race simulation service...")

	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}

	s.started = false
	s.logger.Info(ctx, "race simulation service stopped")
}

// SubmitRace validates a field and enqueues it for simulation, returning
// the assigned race ID. Invalid fields are rejected before any simulation
// starts.
func (s *Service) SubmitRace(ctx context.Context, comps []model.Competitor, lanes []int, rc model.RaceContext, trace bool) (string, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return "", fmt.Errorf("service not started")
	}

	// Reject bad input eagerly; the engine would refuse it anyway, but a
	// queued race should never fail validation.
	if _, err := model.NewField(rc, comps, lanes); err != nil {
		return "", err
	}

	raceID := uuid.NewString()
	req := model.RaceRequest{
		RaceID:      raceID,
		Competitors: comps,
		Lanes:       lanes,
		Context:     rc,
		Trace:       trace,
	}

	if !s.queue.Enqueue(ctx, req) {
		return "", fmt.Errorf("race queue rejected request %s", raceID)
	}

	s.logger.Debug(ctx, "race submitted",
		logger.String("raceID", raceID),
		logger.Int("field", len(comps)),
	)
	return raceID, nil
}

// Result returns the finished result for a race ID, or
// repository.ErrNotFound while the race is unknown or still running.
func (s *Service) Result(ctx context.Context, raceID string) (*sim.Result, error) {
	s.mu.RLock()
	results := s.results
	s.mu.RUnlock()
	if results == nil {
		return nil, fmt.Errorf("service not started")
	}
	return results.Get(ctx, raceID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
	}

	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["resultsStored"] = s.results.Count(ctx)
	}

	return stats
}
