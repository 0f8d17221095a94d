package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dhruvretails/backend/internal/infrastructure/config"
)

func testQueueConfig() config.QueueConfig {
	return config.QueueConfig{
		MaxAttempts:     3,
		RetryBackoff:    10 * time.Millisecond,
		RetryBackoffCap: 50 * time.Millisecond,
		WebhookWorkers:  2,
	}
}

// countingHandler fails the first failures calls, then succeeds
type countingHandler struct {
	mu       sync.Mutex
	calls    int
	failures int
	done     chan struct{}
}

func (h *countingHandler) Handle(ctx context.Context, job *Job) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	if h.calls <= h.failures {
		return errors.New("transient failure")
	}
	if h.done != nil {
		close(h.done)
		h.done = nil
	}
	return nil
}

func (h *countingHandler) callCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

func TestWorker_ProcessesJob(t *testing.T) {
	broker := NewMemoryBroker()
	cfg := testQueueConfig()
	queue := NewQueue(QueueSync, broker, cfg, zap.NewNop())

	handler := &countingHandler{done: make(chan struct{})}
	worker := NewWorker(QueueSync, 1, broker, handler, cfg, zap.NewNop())
	require.NoError(t, worker.Start(context.Background()))
	defer worker.Stop(context.Background())

	job, err := queue.Enqueue(context.Background(), JobTypeSyncTenant, map[string]string{"tenant_id": "t1"})
	require.NoError(t, err)

	select {
	case <-handler.done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}

	assert.Eventually(t, func() bool {
		state, err := queue.Find(context.Background(), job.ID.String())
		return err == nil && state.Status == JobStatusSuccess
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWorker_RetriesWithBackoff(t *testing.T) {
	broker := NewMemoryBroker()
	cfg := testQueueConfig()
	queue := NewQueue(QueueSync, broker, cfg, zap.NewNop())

	handler := &countingHandler{failures: 2, done: make(chan struct{})}
	worker := NewWorker(QueueSync, 1, broker, handler, cfg, zap.NewNop())
	require.NoError(t, worker.Start(context.Background()))
	defer worker.Stop(context.Background())

	job, err := queue.Enqueue(context.Background(), JobTypeSyncTenant, nil)
	require.NoError(t, err)

	select {
	case <-handler.done:
	case <-time.After(5 * time.Second):
		t.Fatal("job never succeeded after retries")
	}

	assert.Equal(t, 3, handler.callCount())
	assert.Eventually(t, func() bool {
		state, err := queue.Find(context.Background(), job.ID.String())
		return err == nil && state.Status == JobStatusSuccess && state.Attempts == 3
	}, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, broker.DeadJobs(QueueSync))
}

func TestWorker_DiscardsAfterExhaustedRetries(t *testing.T) {
	broker := NewMemoryBroker()
	cfg := testQueueConfig()
	queue := NewQueue(QueueWebhook, broker, cfg, zap.NewNop())

	handler := &countingHandler{failures: 100}
	worker := NewWorker(QueueWebhook, 1, broker, handler, cfg, zap.NewNop())
	require.NoError(t, worker.Start(context.Background()))
	defer worker.Stop(context.Background())

	job, err := queue.Enqueue(context.Background(), JobTypeWebhookDelivery, nil)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		state, err := queue.Find(context.Background(), job.ID.String())
		return err == nil && state.Status == JobStatusFailed && state.Attempts == cfg.MaxAttempts
	}, 5*time.Second, 10*time.Millisecond)

	dead := broker.DeadJobs(QueueWebhook)
	require.Len(t, dead, 1)
	assert.Equal(t, job.ID, dead[0].ID)
	assert.Equal(t, 3, handler.callCount())
}

func TestWorker_LanesDoNotInterfere(t *testing.T) {
	broker := NewMemoryBroker()
	cfg := testQueueConfig()
	syncQueue := NewQueue(QueueSync, broker, cfg, zap.NewNop())
	webhookQueue := NewQueue(QueueWebhook, broker, cfg, zap.NewNop())

	syncHandler := &countingHandler{done: make(chan struct{})}
	worker := NewWorker(QueueSync, 1, broker, syncHandler, cfg, zap.NewNop())
	require.NoError(t, worker.Start(context.Background()))
	defer worker.Stop(context.Background())

	// Webhook jobs pile up with no worker on their lane.
	for i := 0; i < 5; i++ {
		_, err := webhookQueue.Enqueue(context.Background(), JobTypeWebhookDelivery, nil)
		require.NoError(t, err)
	}

	_, err := syncQueue.Enqueue(context.Background(), JobTypeSyncTenant, nil)
	require.NoError(t, err)

	select {
	case <-syncHandler.done:
	case <-time.After(2 * time.Second):
		t.Fatal("sync job starved by webhook backlog")
	}

	depth, err := webhookQueue.Depth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), depth)
}

// settleRecordingBroker captures the context error seen by Complete so tests
// can assert settling is not cut short by shutdown.
type settleRecordingBroker struct {
	*MemoryBroker
	mu         sync.Mutex
	settleErrs []error
}

func (b *settleRecordingBroker) Complete(ctx context.Context, job *Job) error {
	b.mu.Lock()
	b.settleErrs = append(b.settleErrs, ctx.Err())
	b.mu.Unlock()
	return b.MemoryBroker.Complete(ctx, job)
}

// blockingHandler parks until released so a test can stop the worker while
// the job is still in flight.
type blockingHandler struct {
	started chan struct{}
	release chan struct{}
}

func (h *blockingHandler) Handle(ctx context.Context, job *Job) error {
	close(h.started)
	<-h.release
	return nil
}

func TestWorker_SettlesJobFinishingDuringStop(t *testing.T) {
	broker := &settleRecordingBroker{MemoryBroker: NewMemoryBroker()}
	cfg := testQueueConfig()
	queue := NewQueue(QueueSync, broker, cfg, zap.NewNop())

	handler := &blockingHandler{started: make(chan struct{}), release: make(chan struct{})}
	worker := NewWorker(QueueSync, 1, broker, handler, cfg, zap.NewNop())
	require.NoError(t, worker.Start(context.Background()))

	job, err := queue.Enqueue(context.Background(), JobTypeSyncTenant, nil)
	require.NoError(t, err)

	select {
	case <-handler.started:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never started")
	}

	stopped := make(chan struct{})
	go func() {
		worker.Stop(context.Background())
		close(stopped)
	}()

	// Give Stop time to cancel the run context before the handler returns.
	time.Sleep(20 * time.Millisecond)
	close(handler.release)

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}

	broker.mu.Lock()
	settleErrs := append([]error(nil), broker.settleErrs...)
	broker.mu.Unlock()
	require.Len(t, settleErrs, 1)
	assert.NoError(t, settleErrs[0])

	state, err := queue.Find(context.Background(), job.ID.String())
	require.NoError(t, err)
	assert.Equal(t, JobStatusSuccess, state.Status)
}

func TestMemoryBroker_ReclaimsExpiredLease(t *testing.T) {
	broker := NewMemoryBroker()
	broker.lease = 100 * time.Millisecond
	job := NewJob(QueueSync, JobTypeSyncTenant, nil, 3)

	require.NoError(t, broker.Push(context.Background(), job))

	popped, err := broker.Pop(context.Background(), QueueSync, 10*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, job.ID, popped.ID)

	// Still leased, so nothing to hand out.
	_, err = broker.Pop(context.Background(), QueueSync, 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrNoJob)

	// An unsettled job comes back once the lease runs out.
	reclaimed, err := broker.Pop(context.Background(), QueueSync, time.Second)
	require.NoError(t, err)
	assert.Equal(t, job.ID, reclaimed.ID)

	require.NoError(t, broker.Complete(context.Background(), reclaimed))

	// Settled jobs are gone for good, even past the lease window.
	time.Sleep(120 * time.Millisecond)
	_, err = broker.Pop(context.Background(), QueueSync, 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrNoJob)
}

func TestMemoryBroker_DueDelayedJobDeliveredOnce(t *testing.T) {
	broker := NewMemoryBroker()
	job := NewJob(QueueSync, JobTypeSyncTenant, nil, 3)

	require.NoError(t, broker.PushDelayed(context.Background(), job, time.Now()))

	var (
		wg        sync.WaitGroup
		delivered int64
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := broker.Pop(context.Background(), QueueSync, 100*time.Millisecond); err == nil {
				atomic.AddInt64(&delivered, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), delivered)
}

func TestMemoryBroker_DelayedPromotion(t *testing.T) {
	broker := NewMemoryBroker()
	job := NewJob(QueueSync, JobTypeSyncTenant, nil, 3)

	require.NoError(t, broker.PushDelayed(context.Background(), job, time.Now().Add(50*time.Millisecond)))

	_, err := broker.Pop(context.Background(), QueueSync, 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrNoJob)

	popped, err := broker.Pop(context.Background(), QueueSync, time.Second)
	require.NoError(t, err)
	assert.Equal(t, job.ID, popped.ID)
}
