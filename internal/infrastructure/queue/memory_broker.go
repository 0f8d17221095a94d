package queue

import (
	"context"
	"sync"
	"time"

	"github.com/dhruvretails/backend/internal/domain/shared"
)

// MemoryBroker implements Broker with in-process state. It is suitable for
// tests and single-instance setups where queued work need not survive a
// restart. In-flight jobs hold a lease like the Redis broker's; an
// unsettled job is handed out again once its lease expires.
type MemoryBroker struct {
	mu      sync.Mutex
	cond    *sync.Cond
	lease   time.Duration
	pending map[string][]*Job
	delayed map[string][]delayedJob
	active  map[string][]leasedJob
	dead    map[string][]*Job
	states  map[string]*Job
}

type delayedJob struct {
	job     *Job
	readyAt time.Time
}

type leasedJob struct {
	job       *Job
	expiresAt time.Time
}

// NewMemoryBroker creates an empty in-memory broker
func NewMemoryBroker() *MemoryBroker {
	b := &MemoryBroker{
		lease:   defaultLeaseTimeout,
		pending: make(map[string][]*Job),
		delayed: make(map[string][]delayedJob),
		active:  make(map[string][]leasedJob),
		dead:    make(map[string][]*Job),
		states:  make(map[string]*Job),
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *MemoryBroker) stateKey(queue, jobID string) string { return queue + ":" + jobID }

func (b *MemoryBroker) saveStateLocked(job *Job) {
	copied := *job
	b.states[b.stateKey(job.Queue, job.ID.String())] = &copied
}

// Push makes the job immediately available on its queue
func (b *MemoryBroker) Push(ctx context.Context, job *Job) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[job.Queue] = append(b.pending[job.Queue], job)
	b.saveStateLocked(job)
	b.cond.Broadcast()
	return nil
}

// PushDelayed holds the job back until readyAt
func (b *MemoryBroker) PushDelayed(ctx context.Context, job *Job, readyAt time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delayed[job.Queue] = append(b.delayed[job.Queue], delayedJob{job: job, readyAt: readyAt})
	b.saveStateLocked(job)
	b.cond.Broadcast()
	return nil
}

// Pop returns the next available job, promoting due delayed jobs first.
// It polls rather than waiting on the condition so context cancellation and
// the wait deadline are honored.
func (b *MemoryBroker) Pop(ctx context.Context, queue string, wait time.Duration) (*Job, error) {
	deadline := time.Now().Add(wait)
	for {
		if job := b.tryPop(queue); job != nil {
			return job, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrNoJob
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func (b *MemoryBroker) tryPop(queue string) *Job {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	remaining := b.delayed[queue][:0]
	for _, entry := range b.delayed[queue] {
		if !entry.readyAt.After(now) {
			b.pending[queue] = append(b.pending[queue], entry.job)
		} else {
			remaining = append(remaining, entry)
		}
	}
	b.delayed[queue] = remaining

	leased := b.active[queue][:0]
	for _, entry := range b.active[queue] {
		if !entry.expiresAt.After(now) {
			b.pending[queue] = append(b.pending[queue], entry.job)
		} else {
			leased = append(leased, entry)
		}
	}
	b.active[queue] = leased

	jobs := b.pending[queue]
	if len(jobs) == 0 {
		return nil
	}
	job := jobs[0]
	b.pending[queue] = jobs[1:]
	b.active[queue] = append(b.active[queue], leasedJob{job: job, expiresAt: now.Add(b.lease)})
	return job
}

func (b *MemoryBroker) releaseLocked(job *Job) {
	leased := b.active[job.Queue][:0]
	for _, entry := range b.active[job.Queue] {
		if entry.job.ID != job.ID {
			leased = append(leased, entry)
		}
	}
	b.active[job.Queue] = leased
}

// Complete settles the job as succeeded
func (b *MemoryBroker) Complete(ctx context.Context, job *Job) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.releaseLocked(job)
	b.saveStateLocked(job)
	return nil
}

// Retry re-queues the job for readyAt
func (b *MemoryBroker) Retry(ctx context.Context, job *Job, readyAt time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.releaseLocked(job)
	b.delayed[job.Queue] = append(b.delayed[job.Queue], delayedJob{job: job, readyAt: readyAt})
	b.saveStateLocked(job)
	return nil
}

// Discard settles the job as terminally failed
func (b *MemoryBroker) Discard(ctx context.Context, job *Job) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.releaseLocked(job)
	b.dead[job.Queue] = append(b.dead[job.Queue], job)
	b.saveStateLocked(job)
	return nil
}

// Find returns the last known state of a job
func (b *MemoryBroker) Find(ctx context.Context, queue string, jobID string) (*Job, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	job, ok := b.states[b.stateKey(queue, jobID)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

// Depth returns the number of immediately available jobs on the queue
func (b *MemoryBroker) Depth(ctx context.Context, queue string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return int64(len(b.pending[queue])), nil
}

// DeadJobs returns the terminally failed jobs for a queue
func (b *MemoryBroker) DeadJobs(queue string) []*Job {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Job(nil), b.dead[queue]...)
}

var _ Broker = (*MemoryBroker)(nil)
