package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/dhruvretails/backend/internal/infrastructure/config"
)

// Queue is the enqueue-side handle for one named queue
type Queue struct {
	name   string
	broker Broker
	cfg    config.QueueConfig
	logger *zap.Logger
}

// NewQueue creates a queue handle over a broker
func NewQueue(name string, broker Broker, cfg config.QueueConfig, logger *zap.Logger) *Queue {
	return &Queue{name: name, broker: broker, cfg: cfg, logger: logger}
}

// Name returns the queue name
func (q *Queue) Name() string { return q.name }

// Enqueue marshals the payload and pushes a pending job. The returned job
// carries the ID callers use to poll status.
func (q *Queue) Enqueue(ctx context.Context, jobType string, payload interface{}) (*Job, error) {
	var raw json.RawMessage
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode job payload: %w", err)
		}
		raw = encoded
	}

	job := NewJob(q.name, jobType, raw, q.cfg.MaxAttempts)
	if err := q.broker.Push(ctx, job); err != nil {
		return nil, err
	}

	q.logger.Debug("job enqueued",
		zap.String("queue", q.name),
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", jobType))
	return job, nil
}

// Find returns the last known state of a job on this queue
func (q *Queue) Find(ctx context.Context, jobID string) (*Job, error) {
	return q.broker.Find(ctx, q.name, jobID)
}

// Depth returns the number of immediately available jobs
func (q *Queue) Depth(ctx context.Context) (int64, error) {
	return q.broker.Depth(ctx, q.name)
}
