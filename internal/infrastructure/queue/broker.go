package queue

import (
	"context"
	"errors"
	"time"
)

// ErrNoJob is returned by Pop when the wait elapses with nothing to do
var ErrNoJob = errors.New("queue: no job available")

// Broker moves jobs between the pending, delayed and terminal states of a
// named queue. The Redis implementation backs production; the in-memory one
// backs tests and single-process setups.
//
// Pop hands a job to exactly one caller. The job stays tracked as in-flight
// until Complete, Retry or Discard settles it.
type Broker interface {
	// Push makes the job immediately available on its queue
	Push(ctx context.Context, job *Job) error

	// PushDelayed holds the job back until readyAt, then makes it available
	PushDelayed(ctx context.Context, job *Job, readyAt time.Time) error

	// Pop blocks up to wait for the next job on the queue. It returns
	// ErrNoJob on timeout.
	Pop(ctx context.Context, queue string, wait time.Duration) (*Job, error)

	// Complete settles an in-flight job as succeeded
	Complete(ctx context.Context, job *Job) error

	// Retry settles an in-flight job and re-queues it for a later attempt
	Retry(ctx context.Context, job *Job, readyAt time.Time) error

	// Discard settles an in-flight job as terminally failed
	Discard(ctx context.Context, job *Job) error

	// Find returns the last known state of a job, or shared.ErrNotFound
	Find(ctx context.Context, queue string, jobID string) (*Job, error)

	// Depth returns the number of immediately available jobs on the queue
	Depth(ctx context.Context, queue string) (int64, error)
}
