// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - Load layers defaults, an optional YAML file and environment variables.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the metrics HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// WorkerCount sets the number of race runner goroutines.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory race request queue.
	QueueSize int `koanf:"queue_size"`

	// Seed is the base seed for the runner engines; a fixed seed
	// reproduces race outcomes.
	Seed int64 `koanf:"seed"`

	// Trace enables per-tick trace recording for every race.
	Trace bool `koanf:"trace"`

	// MaxTickFactor bounds runaway races as a multiple of the nominal
	// tick count.
	MaxTickFactor int `koanf:"max_tick_factor"`

	// Demo race parameters for the bundled runner binary.
	DemoRaces     int     `koanf:"demo_races"`
	DemoFieldSize int     `koanf:"demo_field_size"`
	DemoDistance  float64 `koanf:"demo_distance"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		Addr:          ":9080",
		WorkerCount:   runtime.NumCPU(),
		QueueSize:     1024,
		Seed:          42,
		Trace:         false,
		MaxTickFactor: 4,
		DemoRaces:     3,
		DemoFieldSize: 10,
		DemoDistance:  10,
	}
}
