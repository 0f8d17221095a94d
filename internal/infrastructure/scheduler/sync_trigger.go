package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dhruvretails/backend/internal/infrastructure/queue"
)

// Enqueuer is the slice of the queue the trigger needs
type Enqueuer interface {
	Enqueue(ctx context.Context, jobType string, payload interface{}) (*queue.Job, error)
}

// SyncTrigger enqueues a full-sync job on a fixed interval. It only ever
// enqueues; the sync queue's single worker does the sweeping, so a slow
// sweep and the next tick cannot run concurrently.
type SyncTrigger struct {
	interval time.Duration
	queue    Enqueuer
	logger   *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSyncTrigger creates a trigger with the given interval
func NewSyncTrigger(interval time.Duration, enqueuer Enqueuer, logger *zap.Logger) *SyncTrigger {
	return &SyncTrigger{
		interval: interval,
		queue:    enqueuer,
		logger:   logger,
	}
}

// Start starts the interval loop
func (s *SyncTrigger) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("sync trigger started", zap.Duration("interval", s.interval))
	return nil
}

// Stop stops the interval loop
func (s *SyncTrigger) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("sync trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SyncTrigger) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.trigger(ctx)
		}
	}
}

// trigger enqueues one full-sync job. An enqueue failure is logged and
// dropped; the next tick tries again.
func (s *SyncTrigger) trigger(ctx context.Context) {
	job, err := s.queue.Enqueue(ctx, queue.JobTypeSyncAllTenants, nil)
	if err != nil {
		s.logger.Error("failed to enqueue scheduled sync", zap.Error(err))
		return
	}
	s.logger.Info("scheduled sync enqueued", zap.String("job_id", job.ID.String()))
}
