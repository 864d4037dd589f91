package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/loanguard/internal/domain/model"
	"github.com/okian/loanguard/internal/domain/risk"
	"github.com/okian/loanguard/pkg/logger"
	"github.com/okian/loanguard/pkg/metrics"
)

// Job abstracts what workers read off the queue.
type Job = model.ScoreJob

// Scorer turns a borrower record into a risk decision.
type Scorer interface {
	Score(ctx context.Context, rec model.BorrowerRecord) (risk.Result, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Outcome is the result of scoring one job. Err is set when scoring failed;
// failed jobs are still delivered so that callers can account for them.
type Outcome struct {
	Job    Job
	Result risk.Result
	Err    error
}

// Sink receives outcomes. A sink error stops the whole pool.
type Sink interface {
	Deliver(ctx context.Context, o Outcome) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, o Outcome) error

// Deliver calls f.
func (f SinkFunc) Deliver(ctx context.Context, o Outcome) error { return f(ctx, o) }

// InMemoryWorker pulls jobs from a queue, scores them and delivers outcomes.
type InMemoryWorker struct {
	queue  Queue
	scorer Scorer
	sink   Sink
	name   string

	jobTimeout time.Duration
	logger     logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, scorer Scorer, sink Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:  queue,
		scorer: scorer,
		sink:   sink,
		name:   "worker",
		logger: logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run processes jobs until the queue channel closes (nil) or ctx is done
// (ctx.Err()). A sink error is returned as is.
func (w *InMemoryWorker) Run(ctx context.Context) error {
	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job, ok := <-jobs:
			if !ok {
				return nil
			}
			if err := w.process(ctx, job); err != nil {
				return err
			}
		}
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job Job) error { //nolint:gocritic // hugeParam: Job must be passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	scoreCtx := ctx
	if w.jobTimeout > 0 {
		var cancel context.CancelFunc
		scoreCtx, cancel = context.WithTimeout(ctx, w.jobTimeout)
		defer cancel()
	}

	res, err := w.scorer.Score(scoreCtx, job.Record)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "scoring_error")
		w.logger.Warn(ctx, "scoring failed for job",
			logger.String("job_id", job.ID),
			logger.String("profile", job.Profile),
			logger.Error(err),
		)
	}

	if err := w.sink.Deliver(ctx, Outcome{Job: job, Result: res, Err: err}); err != nil {
		metrics.RecordErrorByComponent("worker", "sink_error")
		return fmt.Errorf("deliver job %s: %w", job.ID, err)
	}
	return nil
}

// Pool runs a fixed number of workers against one queue.
type Pool struct {
	workers []*InMemoryWorker
	logger  logger.Logger
}

// NewPool creates a new worker pool. A non-positive workerCount uses one
// worker per CPU.
func NewPool(workerCount int, queue Queue, scorer Scorer, sink Sink, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		wopts := append(append([]Option{}, opts...), WithName("worker-"+strconv.Itoa(i)))
		pool.workers[i] = NewInMemoryWorker(queue, scorer, sink, wopts...)
	}

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Run blocks until every worker has drained the queue or the first worker
// fails. The caller closes the queue to end the run.
func (p *Pool) Run(ctx context.Context) error {
	metrics.UpdateWorkerCount(len(p.workers))
	defer metrics.UpdateWorkerCount(0)

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range p.workers {
		w := w
		g.Go(func() error {
			return w.Run(gctx)
		})
	}

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Error(ctx, "worker pool stopped", logger.Error(err))
	}
	return err
}
