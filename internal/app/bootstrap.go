package service

import (
	"context"
	"fmt"

	"github.com/okian/loanguard/internal/adapters/repository"
	"github.com/okian/loanguard/internal/config"
	"github.com/okian/loanguard/internal/simulation"
)

// OpenStore builds the fixture store selected by cfg.FixtureBackend.
func OpenStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.FixtureBackend {
	case config.BackendRedis:
		st, err := repository.NewRedisStore(ctx, cfg.RedisAddr, repository.WithPrefix(cfg.RedisPrefix))
		if err != nil {
			return nil, fmt.Errorf("open redis fixture store: %w", err)
		}
		return st, nil
	case config.BackendFile, "":
		return repository.NewFileStore(cfg.FixturePath), nil
	default:
		return nil, fmt.Errorf("%w: unknown fixture backend %q", config.ErrInvalidConfig, cfg.FixtureBackend)
	}
}

// OptionsFromConfig maps cfg onto service options. The store is opened
// separately so callers control its lifetime.
func OptionsFromConfig(cfg *config.Config) []Option {
	return []Option{
		WithModelPath(cfg.ModelPath),
		WithRiskOptions(cfg.RiskOptions()...),
		WithGenerator(simulation.NewGenerator(
			simulation.WithSeed(cfg.SimulationSeed),
			simulation.WithMonths(cfg.SimulationMonths),
		)),
		WithEvalWorkers(cfg.EvalWorkers),
		WithEvalQueueSize(cfg.EvalQueueSize),
	}
}
