package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ovation22/TripleDerby-sub000/internal/adapters/repository"
	"github.com/ovation22/TripleDerby-sub000/internal/app"
	"github.com/ovation22/TripleDerby-sub000/internal/config"
	"github.com/ovation22/TripleDerby-sub000/internal/domain/model"
	"github.com/ovation22/TripleDerby-sub000/internal/sim"
	"github.com/ovation22/TripleDerby-sub000/pkg/logger"
	"github.com/ovation22/TripleDerby-sub000/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
	resultPollPeriod  = 50 * time.Millisecond
	resultWaitTimeout = 30 * time.Second
)

// Demo attribute generation bounds.
const (
	minDemoRating  = 30
	demoRatingSpan = 66
)

var demoNames = []string{
	"Thunderbolt", "Midnight Sky", "Copper Penny", "Iron Duke",
	"Sea Whisper", "Red Clover", "Night Parade", "Golden Furlong",
	"Prairie Ghost", "Bold Venture", "Silver Reign", "Dust Devil",
	"Winter Lark", "Royal Ledger", "Cannon Shot", "Blue Meridian",
	"Stone Bridge", "Harbor Light", "Wild Bellflower", "Last Furlong",
}

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Create and start the service with configuration options
	svc := app.New(
		app.WithLogger(log),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithSeed(cfg.Seed),
		app.WithTrace(cfg.Trace),
		app.WithMaxTickFactor(cfg.MaxTickFactor),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	// Expose Prometheus metrics.
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting metrics server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			os.Stderr.WriteString("metrics server failed: " + err.Error() + "\n")
		}
	}()

	// Run the configured demo races.
	runDemoRaces(ctx, svc, cfg, log)

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "metrics server shutdown failed", logger.Error(err))
	}
}

// runDemoRaces submits the configured number of sample races and logs
// their finishing orders.
func runDemoRaces(ctx context.Context, svc *app.Service, cfg *config.Config, log logger.Logger) {
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // deterministic seed for reproducible demo fields

	surfaces := []model.Surface{model.SurfaceDirt, model.SurfaceTurf, model.SurfaceSynthetic}
	conditions := []model.Condition{model.ConditionFast, model.ConditionGood, model.ConditionMuddy, model.ConditionSloppy}

	for race := 0; race < cfg.DemoRaces; race++ {
		rc, err := model.NewRaceContext(
			cfg.DemoDistance,
			surfaces[race%len(surfaces)],
			conditions[rng.Intn(len(conditions))],
			cfg.DemoFieldSize,
		)
		if err != nil {
			log.Error(ctx, "bad demo race context", logger.Error(err))
			return
		}

		comps, err := demoField(rng, cfg.DemoFieldSize, race)
		if err != nil {
			log.Error(ctx, "bad demo field", logger.Error(err))
			return
		}
		lanes := model.ShuffleLanes(len(comps), rng)

		raceID, err := svc.SubmitRace(ctx, comps, lanes, rc, cfg.Trace)
		if err != nil {
			log.Error(ctx, "race submission failed", logger.Error(err))
			return
		}

		res, err := waitForResult(ctx, svc, raceID)
		if err != nil {
			log.Error(ctx, "race did not finish", logger.String("raceID", raceID), logger.Error(err))
			return
		}

		if winner, ok := res.Winner(); ok {
			log.Info(ctx, "race complete",
				logger.String("raceID", raceID),
				logger.String("surface", rc.Surface.String()),
				logger.String("condition", rc.Condition.String()),
				logger.String("winner", winner.Name),
				logger.Int("ticks", res.Ticks),
				logger.Int("events", len(res.Events)),
			)
		}
		for _, p := range res.Placements {
			log.Info(ctx, "placement",
				logger.Int("position", p.Position),
				logger.String("name", p.Name),
				logger.Float64("distance", p.Distance),
				logger.Any("dnf", p.DNF),
			)
		}
	}
}

// demoField builds a field of random entrants cycling through the five
// running styles.
func demoField(rng *rand.Rand, size, race int) ([]model.Competitor, error) {
	styles := model.Styles()
	comps := make([]model.Competitor, 0, size)
	for i := 0; i < size; i++ {
		attrs := model.Attributes{
			Speed:      float64(minDemoRating + rng.Intn(demoRatingSpan)),
			Stamina:    float64(minDemoRating + rng.Intn(demoRatingSpan)),
			Agility:    float64(minDemoRating + rng.Intn(demoRatingSpan)),
			Durability: float64(minDemoRating + rng.Intn(demoRatingSpan)),
		}
		name := demoNames[(race*size+i)%len(demoNames)]
		c, err := model.NewCompetitor(fmt.Sprintf("r%d-c%d", race, i), name, attrs, styles[i%len(styles)])
		if err != nil {
			return nil, err
		}
		comps = append(comps, c)
	}
	return comps, nil
}

// waitForResult polls the result store until the race finishes or the
// wait times out.
func waitForResult(ctx context.Context, svc *app.Service, raceID string) (res *sim.Result, err error) {
	deadline := time.Now().Add(resultWaitTimeout)
	ticker := time.NewTicker(resultPollPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			r, err := svc.Result(ctx, raceID)
			if err == nil {
				return r, nil
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
			if time.Now().After(deadline) {
				return nil, fmt.Errorf("timed out waiting for race %s", raceID)
			}
		}
	}
}
