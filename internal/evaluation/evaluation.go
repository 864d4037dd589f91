// Package evaluation scores labeled synthetic borrowers through the worker
// pool and reports how often the predicted tier matches the profile's tier.
package evaluation

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/loanguard/internal/adapters/mq/queue"
	"github.com/okian/loanguard/internal/adapters/mq/worker"
	"github.com/okian/loanguard/internal/simulation"
	"github.com/okian/loanguard/pkg/logger"
	"github.com/okian/loanguard/pkg/metrics"
)

// MaxSamplesPerProfile bounds a single run.
const MaxSamplesPerProfile = 10_000

const (
	defaultQueueSize  = 256
	defaultJobTimeout = 5 * time.Second
	enqueueBackoff    = time.Millisecond
)

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers sets the number of scoring workers.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithQueueSize bounds the job queue between the dataset producer and the workers.
func WithQueueSize(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.queueSize = n
		}
	}
}

// WithJobTimeout bounds scoring of a single sample; slower samples are counted
// as failed.
func WithJobTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.jobTimeout = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// Runner builds labeled datasets from a generator and scores them.
type Runner struct {
	scorer     worker.Scorer
	gen        *simulation.Generator
	workers    int
	queueSize  int
	jobTimeout time.Duration
	logger     logger.Logger
}

// NewRunner creates a Runner.
func NewRunner(scorer worker.Scorer, gen *simulation.Generator, opts ...Option) *Runner {
	r := &Runner{
		scorer:     scorer,
		gen:        gen,
		workers:    runtime.NumCPU(),
		queueSize:  defaultQueueSize,
		jobTimeout: defaultJobTimeout,
		logger:     logger.Get().Named("evaluation"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run generates samplesPerProfile borrowers for every known profile, scores
// them concurrently and aggregates the outcomes. A non-positive months uses
// the generator default.
func (r *Runner) Run(ctx context.Context, samplesPerProfile, months int) (Report, error) {
	if samplesPerProfile <= 0 || samplesPerProfile > MaxSamplesPerProfile {
		return Report{}, fmt.Errorf("%w: samples_per_profile must be in [1, %d], got %d",
			ErrInvalidRequest, MaxSamplesPerProfile, samplesPerProfile)
	}
	if months > simulation.MaxMonths {
		return Report{}, fmt.Errorf("%w: months must be at most %d, got %d",
			ErrInvalidRequest, simulation.MaxMonths, months)
	}
	if months <= 0 {
		months = r.gen.Months()
	}

	start := time.Now()
	report := newReport(months)
	var mu sync.Mutex
	sink := worker.SinkFunc(func(_ context.Context, o worker.Outcome) error {
		mu.Lock()
		defer mu.Unlock()
		report.add(o.Job.Profile, o.Job.Label, o.Result, o.Err)
		return nil
	})

	q := queue.NewInMemoryQueue(queue.WithCapacity(r.queueSize))
	pool := worker.NewPool(r.workers, q, r.scorer, sink,
		worker.WithLogger(r.logger),
		worker.WithJobTimeout(r.jobTimeout),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer func() { _ = q.Close() }()
		return r.produce(gctx, q, samplesPerProfile, months)
	})
	g.Go(func() error {
		return pool.Run(gctx)
	})
	if err := g.Wait(); err != nil {
		return Report{}, fmt.Errorf("evaluation run: %w", err)
	}

	report.finish(time.Since(start))
	metrics.RecordEvaluation(report.Samples, report.Accuracy)
	r.logger.Info(ctx, "evaluation finished",
		logger.Int("samples", report.Samples),
		logger.Int("failed", report.Failed),
		logger.Float64("accuracy", report.Accuracy),
		logger.Duration("took", report.Duration),
	)
	return *report, nil
}

func (r *Runner) produce(ctx context.Context, q *queue.InMemoryQueue, samples, months int) error {
	for _, name := range simulation.Profiles() {
		p, err := simulation.Lookup(name)
		if err != nil {
			return err
		}
		for i := 0; i < samples; i++ {
			rec, err := r.gen.Generate(name, months)
			if err != nil {
				return err
			}
			job := queue.Job{
				ID:      uuid.NewString(),
				Profile: name,
				Label:   int(p.Label),
				Record:  rec,
			}
			if err := enqueue(ctx, q, job); err != nil {
				return err
			}
		}
	}
	return nil
}

// enqueue retries while the queue is full. The queue itself never blocks.
func enqueue(ctx context.Context, q *queue.InMemoryQueue, job queue.Job) error { //nolint:gocritic // hugeParam: Job is passed by value into the channel
	for !q.Enqueue(ctx, job) {
		if q.IsClosed() {
			return queue.ErrRejected
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(enqueueBackoff):
		}
	}
	return nil
}
