// Package worker defines race runner contracts for asynchronous
// simulation. Each runner owns its own engine, so independent races run
// concurrently while every single race stays strictly sequential inside
// its engine.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/ovation22/TripleDerby-sub000/internal/domain/model"
	"github.com/ovation22/TripleDerby-sub000/internal/sim"
	"github.com/ovation22/TripleDerby-sub000/pkg/logger"
	"github.com/ovation22/TripleDerby-sub000/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	runnerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Request abstracts what runners read off the queue.
type Request = model.RaceRequest

// Simulator runs one complete race.
type Simulator interface {
	Run(ctx context.Context, req model.RaceRequest) (*sim.Result, error)
}

// SimulatorFactory builds the engine for one runner. Runners must not
// share a Simulator because engine rand sources are not synchronized.
type SimulatorFactory func(runner int) Simulator

// Store receives finished race results.
type Store interface {
	Put(ctx context.Context, res *sim.Result) error
}

// Queue defines how runners receive race requests.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Request
}

// Runner consumes race requests and writes results using the provided
// interfaces.
type Runner struct {
	queue     Queue
	simulator Simulator
	store     Store
	name      string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewRunner creates a new runner with configuration options.
func NewRunner(queue Queue, simulator Simulator, store Store, opts ...Option) *Runner {
	r := &Runner{
		queue:     queue,
		simulator: simulator,
		store:     store,
		name:      "runner", // default name
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("runner"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(r)
	}

	if r.name != "runner" {
		r.logger = r.logger.Named(r.name)
	}

	return r
}

// Run starts the runner loop until ctx is canceled.
func (r *Runner) Run(ctx context.Context) {
	defer close(r.done)

	requests := r.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.shutdown:
			return
		case req, ok := <-requests:
			if !ok {
				// Channel closed, runner should stop
				return
			}
			if err := r.processRequest(ctx, req); err != nil {
				r.logger.Error(ctx, "error processing race request", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the runner.
func (r *Runner) Shutdown(ctx context.Context) error {
	close(r.shutdown)

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		r.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processRequest simulates a single race and stores its result.
func (r *Runner) processRequest(ctx context.Context, req Request) error {
	res, err := r.simulator.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to simulate race %s: %w", req.RaceID, err)
	}

	if err := r.store.Put(ctx, res); err != nil {
		return fmt.Errorf("failed to store result for race %s: %w", req.RaceID, err)
	}

	r.logger.Debug(ctx, "race result stored",
		logger.String("raceID", res.RaceID),
		logger.Int("ticks", res.Ticks),
	)
	return nil
}

// Pool manages multiple runners.
type Pool struct {
	runners []*Runner
	queue   Queue
	store   Store

	// Logging
	logger logger.Logger
}

// NewPool creates a new runner pool. Each runner gets its own engine from
// the factory.
func NewPool(runnerCount int, queue Queue, factory SimulatorFactory, store Store) *Pool {
	if runnerCount < 1 {
		runnerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		runners: make([]*Runner, runnerCount),
		queue:   queue,
		store:   store,
		logger:  logger.Get().Named("runner-pool"),
	}

	for i := 0; i < runnerCount; i++ {
		pool.runners[i] = NewRunner(
			queue,
			factory(i),
			store,
			WithName("runner-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(runnerCount)

	return pool
}

// Start starts all runners in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, runner := range p.runners {
		go runner.Run(ctx)
	}
}

// Size returns the number of runners in the pool.
func (p *Pool) Size() int {
	return len(p.runners)
}

// Stop stops all runners without draining the queue.
func (p *Pool) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), runnerShutdownTimeout)
	defer cancel()

	for _, runner := range p.runners {
		if err := runner.Shutdown(ctx); err != nil {
			p.logger.Warn(ctx, "runner stop timed out", logger.Error(err))
		}
	}
}

// Shutdown gracefully shuts down the entire pool, draining the queue
// first.
func (p *Pool) Shutdown(ctx context.Context) error {
	// Close the queue to stop new requests; runners drain what remains.
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, runner := range p.runners {
		select {
		case <-runner.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "runner shutdown timed out", logger.Int("runner_id", i))
		}
	}

	return nil
}
