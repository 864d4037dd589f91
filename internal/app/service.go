// Package service sequences the scoring pipeline (features, classifier,
// decision engine) and exposes it to the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/loanguard/internal/adapters/repository"
	"github.com/okian/loanguard/internal/domain/classifier"
	"github.com/okian/loanguard/internal/domain/features"
	"github.com/okian/loanguard/internal/domain/model"
	"github.com/okian/loanguard/internal/domain/risk"
	"github.com/okian/loanguard/internal/evaluation"
	"github.com/okian/loanguard/internal/simulation"
	"github.com/okian/loanguard/pkg/logger"
	"github.com/okian/loanguard/pkg/metrics"
)

// Service implements the API dependencies for the risk scoring system.
type Service struct {
	mu sync.RWMutex

	// Core components
	classifier classifier.Classifier
	engine     *risk.Engine
	generator  *simulation.Generator
	store      repository.Store

	// Configuration
	modelPath     string
	riskOpts      []risk.Option
	evalWorkers   int
	evalQueueSize int

	// State
	started        bool
	scored         atomic.Int64
	failed         atomic.Int64
	lastEvaluation *evaluation.Report

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClassifier injects a loaded classifier. Without it Start loads one
// from the model path.
func WithClassifier(c classifier.Classifier) Option {
	return func(s *Service) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithModelPath sets the YAML model artifact loaded by Start. Empty selects
// the built-in model.
func WithModelPath(path string) Option {
	return func(s *Service) {
		s.modelPath = path
	}
}

// WithRiskOptions configures the decision policy.
func WithRiskOptions(opts ...risk.Option) Option {
	return func(s *Service) {
		s.riskOpts = append(s.riskOpts, opts...)
	}
}

// WithGenerator sets the synthetic borrower generator.
func WithGenerator(g *simulation.Generator) Option {
	return func(s *Service) {
		if g != nil {
			s.generator = g
		}
	}
}

// WithStore sets the fixture store used by ScoreFixture and SaveFixture.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		s.store = st
	}
}

// WithEvalWorkers sets the number of workers used by Evaluate.
func WithEvalWorkers(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.evalWorkers = count
		}
	}
}

// WithEvalQueueSize bounds the queue used by Evaluate.
func WithEvalQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.evalQueueSize = size
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		evalWorkers:   runtime.NumCPU(),
		evalQueueSize: 1024,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the classifier (once) and builds the decision engine.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting risk scoring service...")

	engine, err := risk.NewEngine(s.riskOpts...)
	if err != nil {
		return fmt.Errorf("build decision engine: %w", err)
	}
	s.engine = engine

	if s.classifier == nil {
		m, err := classifier.Load(s.modelPath)
		if err != nil {
			return fmt.Errorf("load classifier: %w", err)
		}
		s.classifier = m
	}

	if s.generator == nil {
		s.generator = simulation.NewGenerator()
	}

	s.started = true
	w := engine.SeverityWeights()
	s.logger.Info(ctx, "risk scoring service started",
		logger.String("model_version", s.modelVersion()),
		logger.Any("severity_weights", w[:]),
		logger.Int("eval_workers", s.evalWorkers),
		logger.Bool("fixture_store", s.store != nil),
	)

	return nil
}

// Stop releases the fixture store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping risk scoring service...")

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "error closing fixture store", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(context.Background(), "risk scoring service stopped")
}

func (s *Service) handles() (classifier.Classifier, *risk.Engine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.classifier, s.engine, nil
}

// Score runs one borrower record through feature extraction, the classifier
// and the decision engine.
func (s *Service) Score(ctx context.Context, rec model.BorrowerRecord) (risk.Result, error) {
	start := time.Now()
	res, err := s.score(ctx, rec)
	metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)

	if err != nil {
		s.failed.Add(1)
		kind := ErrorKind(err)
		metrics.RecordScoringError(kind)
		metrics.RecordErrorByComponent("service", kind)
		return risk.Result{}, err
	}

	s.scored.Add(1)
	metrics.RecordDecision(res.RiskClass.String(), res.DefaultProbability)
	return res, nil
}

func (s *Service) score(ctx context.Context, rec model.BorrowerRecord) (risk.Result, error) {
	clf, engine, err := s.handles()
	if err != nil {
		return risk.Result{}, err
	}

	vec, err := features.Extract(rec)
	if err != nil {
		return risk.Result{}, err
	}
	x := vec.Values()

	class, err := clf.Predict(ctx, x)
	if err != nil {
		return risk.Result{}, classifierError("predict", err)
	}
	probs, err := clf.PredictProba(ctx, x)
	if err != nil {
		return risk.Result{}, classifierError("predict_proba", err)
	}

	res, err := engine.Decide(vec, class, probs)
	if err != nil {
		return risk.Result{}, err
	}

	s.logger.Debug(ctx, "scored borrower",
		logger.String("risk_class", res.RiskClass.String()),
		logger.Float64("default_probability", res.DefaultProbability),
		logger.Int("transactions", len(rec.Transactions)),
		logger.Int("repayments", len(rec.Repayments)),
	)
	return res, nil
}

// classifierError maps a classifier failure to ErrClassifierContract unless
// the caller's context ended.
func classifierError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("classifier %s: %w", op, err)
	}
	return fmt.Errorf("%w: classifier %s: %w", risk.ErrClassifierContract, op, err)
}

// ErrorKind names the error class used in metrics and API error codes.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, model.ErrMalformedInput):
		return "malformed_input"
	case errors.Is(err, risk.ErrClassifierContract):
		return "classifier_contract"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(err, simulation.ErrUnknownProfile):
		return "unknown_profile"
	case errors.Is(err, simulation.ErrInvalidMonths):
		return "invalid_months"
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNotStarted):
		return "not_started"
	default:
		return "internal"
	}
}

// Simulate generates a synthetic borrower for profile. A non-positive months
// uses the generator default.
func (s *Service) Simulate(profile string, months int) (model.BorrowerRecord, error) {
	s.mu.RLock()
	gen := s.generator
	s.mu.RUnlock()
	if gen == nil {
		return model.BorrowerRecord{}, ErrNotStarted
	}
	return gen.Generate(profile, months)
}

// ScoreProfile simulates a borrower for profile and scores it.
func (s *Service) ScoreProfile(ctx context.Context, profile string, months int) (risk.Result, error) {
	rec, err := s.Simulate(profile, months)
	if err != nil {
		return risk.Result{}, err
	}
	return s.Score(ctx, rec)
}

// SaveFixture stores rec under name in the fixture store.
func (s *Service) SaveFixture(ctx context.Context, name string, rec model.BorrowerRecord) error {
	if s.store == nil {
		return ErrNoStore
	}
	return s.store.Save(ctx, name, rec)
}

// Fixtures lists stored fixture names.
func (s *Service) Fixtures(ctx context.Context) ([]string, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.List(ctx)
}

// ScoreFixture loads a stored record and scores it.
func (s *Service) ScoreFixture(ctx context.Context, name string) (risk.Result, error) {
	if s.store == nil {
		return risk.Result{}, ErrNoStore
	}
	rec, err := s.store.Load(ctx, name)
	if err != nil {
		return risk.Result{}, err
	}
	return s.Score(ctx, rec)
}

// Evaluate scores samplesPerProfile synthetic borrowers per profile through
// the worker pool and reports accuracy against the profile tiers.
func (s *Service) Evaluate(ctx context.Context, samplesPerProfile, months int) (evaluation.Report, error) {
	if _, _, err := s.handles(); err != nil {
		return evaluation.Report{}, err
	}

	runner := evaluation.NewRunner(s, s.generator,
		evaluation.WithWorkers(s.evalWorkers),
		evaluation.WithQueueSize(s.evalQueueSize),
		evaluation.WithLogger(s.logger.Named("evaluation")),
	)
	report, err := runner.Run(ctx, samplesPerProfile, months)
	if err != nil {
		return evaluation.Report{}, err
	}

	s.mu.Lock()
	s.lastEvaluation = &report
	s.mu.Unlock()
	return report, nil
}

func (s *Service) modelVersion() string {
	if v, ok := s.classifier.(interface{ Version() string }); ok {
		return v.Version()
	}
	return "external"
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       s.started,
		"evalWorkers":   s.evalWorkers,
		"evalQueueSize": s.evalQueueSize,
		"scored":        s.scored.Load(),
		"failed":        s.failed.Load(),
		"fixtureStore":  s.store != nil,
	}

	if s.started {
		w := s.engine.SeverityWeights()
		stats["modelVersion"] = s.modelVersion()
		stats["severityWeights"] = w[:]
	}
	if s.lastEvaluation != nil {
		stats["lastEvaluation"] = map[string]interface{}{
			"samples":     s.lastEvaluation.Samples,
			"accuracy":    s.lastEvaluation.Accuracy,
			"roc_auc_ovr": s.lastEvaluation.ROCAUC,
			"took":        s.lastEvaluation.Took,
		}
	}

	return stats
}
