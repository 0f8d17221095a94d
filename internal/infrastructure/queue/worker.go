package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dhruvretails/backend/internal/infrastructure/config"
)

// popWait bounds one blocking poll so shutdown is never stuck on the broker
const popWait = 5 * time.Second

// settleTimeout bounds one settle call against the broker
const settleTimeout = 10 * time.Second

// Handler executes one job. A nil return settles the job as succeeded; an
// error counts the attempt against the job's retry budget.
type Handler interface {
	Handle(ctx context.Context, job *Job) error
}

// HandlerFunc adapts a function to the Handler interface
type HandlerFunc func(ctx context.Context, job *Job) error

// Handle calls the function
func (f HandlerFunc) Handle(ctx context.Context, job *Job) error { return f(ctx, job) }

// Worker drains one queue with a fixed pool of goroutines. Failed jobs are
// retried with doubling backoff until their attempt budget runs out, then
// discarded to the dead list.
type Worker struct {
	queue       string
	concurrency int
	broker      Broker
	handler     Handler
	cfg         config.QueueConfig
	logger      *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewWorker creates a worker pool for a queue
func NewWorker(queue string, concurrency int, broker Broker, handler Handler, cfg config.QueueConfig, logger *zap.Logger) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{
		queue:       queue,
		concurrency: concurrency,
		broker:      broker,
		handler:     handler,
		cfg:         cfg,
		logger:      logger,
	}
}

// Start launches the worker goroutines
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = true
	w.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.run(ctx, i)
	}

	w.logger.Info("queue worker started",
		zap.String("queue", w.queue),
		zap.Int("concurrency", w.concurrency))
	return nil
}

// Stop cancels the workers and waits for in-flight jobs to settle
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("queue worker stopped", zap.String("queue", w.queue))
		return nil
	case <-ctx.Done():
		w.logger.Warn("queue worker stop timed out", zap.String("queue", w.queue))
		return ctx.Err()
	}
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := w.broker.Pop(ctx, w.queue, popWait)
		if err != nil {
			if errors.Is(err, ErrNoJob) || errors.Is(err, context.Canceled) {
				continue
			}
			w.logger.Error("failed to pop job",
				zap.String("queue", w.queue),
				zap.Error(err))
			continue
		}

		w.process(ctx, job, workerID)
	}
}

func (w *Worker) process(ctx context.Context, job *Job, workerID int) {
	// Settling must survive Stop's cancellation: a job whose handler
	// finished during shutdown still has to leave the in-flight state.
	settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
	defer cancel()

	job.Start()
	w.logger.Info("processing job",
		zap.String("queue", w.queue),
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", job.Type),
		zap.Int("attempt", job.Attempts))

	err := w.handler.Handle(ctx, job)
	if err == nil {
		job.Complete()
		if err := w.broker.Complete(settleCtx, job); err != nil {
			w.logger.Error("failed to settle job",
				zap.String("job_id", job.ID.String()),
				zap.Error(err))
		}
		return
	}

	job.Fail(err.Error())
	w.logger.Error("job failed",
		zap.String("queue", w.queue),
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", job.Type),
		zap.Int("attempt", job.Attempts),
		zap.Error(err))

	if job.ShouldRetry() {
		delay := RetryDelay(job.Attempts, w.cfg.RetryBackoff, w.cfg.RetryBackoffCap)
		job.ScheduleRetry(delay)
		if err := w.broker.Retry(settleCtx, job, time.Now().Add(delay)); err != nil {
			w.logger.Error("failed to re-queue job",
				zap.String("job_id", job.ID.String()),
				zap.Error(err))
		}
		w.logger.Info("job scheduled for retry",
			zap.String("job_id", job.ID.String()),
			zap.Int("attempts", job.Attempts),
			zap.Int("max_attempts", job.MaxAttempts),
			zap.Duration("delay", delay))
		return
	}

	if err := w.broker.Discard(settleCtx, job); err != nil {
		w.logger.Error("failed to discard job",
			zap.String("job_id", job.ID.String()),
			zap.Error(err))
	}
	w.logger.Warn("job discarded after exhausting retries",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", job.Type),
		zap.Int("attempts", job.Attempts))
}
