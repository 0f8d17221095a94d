package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the status of a queued job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Queue names. Sync sweeps and webhook deliveries never share a lane, so a
// burst of webhooks cannot starve the scheduled sync and vice versa.
const (
	QueueSync    = "sync"
	QueueWebhook = "webhook"
)

// Job types routed over the queues
const (
	JobTypeSyncTenant      = "sync:tenant"
	JobTypeSyncAllTenants  = "sync:all"
	JobTypeWebhookDelivery = "webhook:delivery"
)

// Job is one unit of queued work. Jobs serialize to JSON on the broker, so
// every field a worker needs to resume after a process restart lives here.
type Job struct {
	ID          uuid.UUID       `json:"id"`
	Queue       string          `json:"queue"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Status      JobStatus       `json:"status"`
	Error       string          `json:"error,omitempty"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	EnqueuedAt  time.Time       `json:"enqueued_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	NextRetryAt *time.Time      `json:"next_retry_at,omitempty"`

	// raw is the exact broker representation the job was popped with,
	// needed to remove it from the in-flight tracking on settle
	raw []byte
}

// NewJob creates a pending job for a queue
func NewJob(queue, jobType string, payload json.RawMessage, maxAttempts int) *Job {
	return &Job{
		ID:          uuid.New(),
		Queue:       queue,
		Type:        jobType,
		Payload:     payload,
		Status:      JobStatusPending,
		MaxAttempts: maxAttempts,
		EnqueuedAt:  time.Now(),
	}
}

// Start marks the job as running and counts the attempt
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Attempts++
	j.Error = ""
}

// Complete marks the job as successful
func (j *Job) Complete() {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job has attempts left
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.Attempts < j.MaxAttempts
}

// ScheduleRetry re-marks the job pending for a later attempt
func (j *Job) ScheduleRetry(delay time.Duration) {
	j.Status = JobStatusPending
	nextRetry := time.Now().Add(delay)
	j.NextRetryAt = &nextRetry
	j.CompletedAt = nil
}

// RetryDelay computes the backoff before the next attempt: the base delay
// doubles per completed attempt and is clamped to the cap.
func RetryDelay(attempts int, base, cap time.Duration) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	delay := base
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= cap {
			return cap
		}
	}
	if delay > cap {
		return cap
	}
	return delay
}
