// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers a YAML file and LOANGUARD_* env vars over the defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/okian/loanguard/internal/domain/risk"
	"github.com/okian/loanguard/internal/simulation"
)

// Fixture store backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ModelPath points at a YAML classifier artifact. Empty uses the built-in model.
	ModelPath string `koanf:"model_path"`

	// SeverityLow, SeverityMedium and SeverityHigh are the per-class default
	// rates (percent) blended into the default probability.
	SeverityLow    float64 `koanf:"severity_low"`
	SeverityMedium float64 `koanf:"severity_medium"`
	SeverityHigh   float64 `koanf:"severity_high"`

	// ReducedFraction is the share of the requested amount approved for Medium risk.
	ReducedFraction float64 `koanf:"reduced_fraction"`

	// SimplexTolerance bounds |sum(probabilities) - 1|.
	SimplexTolerance float64 `koanf:"simplex_tolerance"`

	// CORSOrigins lists allowed origins. "*" allows any.
	CORSOrigins []string `koanf:"cors_origins"`

	// SimulationMonths and SimulationSeed drive the synthetic borrower generator.
	SimulationMonths int   `koanf:"simulation_months"`
	SimulationSeed   int64 `koanf:"simulation_seed"`

	// EvalWorkers sets the number of evaluation workers.
	EvalWorkers int `koanf:"eval_workers"`

	// EvalQueueSize bounds the in-memory evaluation queue.
	EvalQueueSize int `koanf:"eval_queue_size"`

	// FixtureBackend selects where simulated borrowers are kept: file or redis.
	FixtureBackend string `koanf:"fixture_backend"`

	// FixturePath is the JSON file used by the file backend.
	FixturePath string `koanf:"fixture_path"`

	// RedisAddr and RedisPrefix configure the redis backend.
	RedisAddr   string `koanf:"redis_addr"`
	RedisPrefix string `koanf:"redis_prefix"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		SeverityLow:      risk.DefaultSeverityLow,
		SeverityMedium:   risk.DefaultSeverityMedium,
		SeverityHigh:     risk.DefaultSeverityHigh,
		ReducedFraction:  risk.DefaultReducedFraction,
		SimplexTolerance: risk.DefaultSimplexTolerance,
		CORSOrigins:      []string{"*"},
		SimulationMonths: 6,
		SimulationSeed:   42,
		EvalWorkers:      runtime.NumCPU(),
		EvalQueueSize:    1024,
		FixtureBackend:   BackendFile,
		FixturePath:      "simulated_data.json",
		RedisAddr:        "localhost:6379",
		RedisPrefix:      "loanguard:fixture:",
	}
}

// RiskOptions converts the policy fields into engine options.
func (c *Config) RiskOptions() []risk.Option {
	return []risk.Option{
		risk.WithSeverityWeights(c.SeverityLow, c.SeverityMedium, c.SeverityHigh),
		risk.WithReducedFraction(c.ReducedFraction),
		risk.WithSimplexTolerance(c.SimplexTolerance),
	}
}

// Validate checks the fields that the engine and adapters cannot repair.
// Policy bounds are checked again by risk.NewEngine.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	if _, err := risk.NewEngine(c.RiskOptions()...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.SimulationMonths <= 0 || c.SimulationMonths > simulation.MaxMonths {
		return fmt.Errorf("%w: simulation_months must be in [1, %d]", ErrInvalidConfig, simulation.MaxMonths)
	}
	if c.EvalWorkers <= 0 {
		return fmt.Errorf("%w: eval_workers must be positive", ErrInvalidConfig)
	}
	if c.EvalQueueSize <= 0 {
		return fmt.Errorf("%w: eval_queue_size must be positive", ErrInvalidConfig)
	}
	switch c.FixtureBackend {
	case BackendFile:
		if c.FixturePath == "" {
			return fmt.Errorf("%w: fixture_path must not be empty", ErrInvalidConfig)
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis_addr must not be empty", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: fixture_backend must be file or redis, got %q", ErrInvalidConfig, c.FixtureBackend)
	}
	return nil
}

// normalizeOrigins splits comma separated entries, as delivered by env vars.
func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, entry := range in {
		for _, o := range strings.Split(entry, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
	}
	return out
}
