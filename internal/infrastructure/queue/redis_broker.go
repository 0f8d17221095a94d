package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dhruvretails/backend/internal/domain/shared"
)

// promoteBatch bounds how many due delayed jobs a single Pop promotes
const promoteBatch = 100

// jobStateTTL is how long a settled job's state stays readable
const jobStateTTL = 24 * time.Hour

// defaultLeaseTimeout is how long a popped job may stay unsettled before a
// reclaim hands it out again
const defaultLeaseTimeout = 15 * time.Minute

// promoteScript moves one delayed member to the wait list only if this
// caller is the one that removed it, so concurrent Pops cannot promote the
// same job twice.
var promoteScript = redis.NewScript(`
if redis.call('ZREM', KEYS[1], ARGV[1]) == 1 then
	redis.call('LPUSH', KEYS[2], ARGV[1])
	return 1
end
return 0
`)

// reclaimScript re-queues one expired in-flight job, guarded the same way
var reclaimScript = redis.NewScript(`
if redis.call('ZREM', KEYS[1], ARGV[1]) == 1 then
	redis.call('LREM', KEYS[2], 1, ARGV[1])
	redis.call('LPUSH', KEYS[3], ARGV[1])
	return 1
end
return 0
`)

// RedisBroker implements Broker on Redis. Pending jobs live on a list per
// queue, delayed jobs on a sorted set scored by ready time, and in-flight
// jobs on an active list with a lease scored by expiry, so a popped job is
// never invisible and a crashed worker's jobs are re-delivered once the
// lease runs out. Job state is mirrored to a keyed entry so callers can
// poll a job by ID.
type RedisBroker struct {
	client    *redis.Client
	keyPrefix string
	lease     time.Duration
}

// NewRedisBroker creates a broker on an existing Redis client
func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client, keyPrefix: "queue:", lease: defaultLeaseTimeout}
}

func (b *RedisBroker) waitKey(queue string) string    { return b.keyPrefix + queue + ":wait" }
func (b *RedisBroker) activeKey(queue string) string  { return b.keyPrefix + queue + ":active" }
func (b *RedisBroker) delayedKey(queue string) string { return b.keyPrefix + queue + ":delayed" }
func (b *RedisBroker) deadKey(queue string) string    { return b.keyPrefix + queue + ":dead" }
func (b *RedisBroker) leaseKey(queue string) string   { return b.keyPrefix + queue + ":leases" }
func (b *RedisBroker) jobKey(queue, jobID string) string {
	return b.keyPrefix + queue + ":job:" + jobID
}

// Push makes the job immediately available on its queue
func (b *RedisBroker) Push(ctx context.Context, job *Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	pipe := b.client.TxPipeline()
	pipe.LPush(ctx, b.waitKey(job.Queue), payload)
	pipe.Set(ctx, b.jobKey(job.Queue, job.ID.String()), payload, jobStateTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push job: %w", err)
	}
	return nil
}

// PushDelayed holds the job back until readyAt
func (b *RedisBroker) PushDelayed(ctx context.Context, job *Job, readyAt time.Time) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	pipe := b.client.TxPipeline()
	pipe.ZAdd(ctx, b.delayedKey(job.Queue), redis.Z{
		Score:  float64(readyAt.UnixMilli()),
		Member: payload,
	})
	pipe.Set(ctx, b.jobKey(job.Queue, job.ID.String()), payload, jobStateTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push delayed job: %w", err)
	}
	return nil
}

// Pop promotes due delayed jobs and reclaims expired leases, then blocks up
// to wait for the next pending job. The popped job is parked on the active
// list under a lease until settled.
func (b *RedisBroker) Pop(ctx context.Context, queue string, wait time.Duration) (*Job, error) {
	if err := b.promoteDue(ctx, queue); err != nil {
		return nil, err
	}
	if err := b.reclaimExpired(ctx, queue); err != nil {
		return nil, err
	}

	raw, err := b.client.BLMove(ctx, b.waitKey(queue), b.activeKey(queue), "RIGHT", "LEFT", wait).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoJob
		}
		return nil, fmt.Errorf("failed to pop job: %w", err)
	}

	expiry := float64(time.Now().Add(b.lease).UnixMilli())
	if err := b.client.ZAdd(ctx, b.leaseKey(queue), redis.Z{Score: expiry, Member: raw}).Err(); err != nil {
		return nil, fmt.Errorf("failed to lease job: %w", err)
	}

	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		// A job that cannot be decoded can never be settled; drop it from
		// the in-flight state so it does not pin the queue.
		pipe := b.client.TxPipeline()
		pipe.LRem(ctx, b.activeKey(queue), 1, raw)
		pipe.ZRem(ctx, b.leaseKey(queue), raw)
		pipe.Exec(ctx)
		return nil, fmt.Errorf("failed to decode job: %w", err)
	}
	job.raw = []byte(raw)
	return &job, nil
}

// promoteDue moves delayed jobs whose ready time has passed onto the wait list
func (b *RedisBroker) promoteDue(ctx context.Context, queue string) error {
	now := float64(time.Now().UnixMilli())
	due, err := b.client.ZRangeByScore(ctx, b.delayedKey(queue), &redis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("%f", now),
		Count: promoteBatch,
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to read delayed jobs: %w", err)
	}

	for _, raw := range due {
		keys := []string{b.delayedKey(queue), b.waitKey(queue)}
		if err := promoteScript.Run(ctx, b.client, keys, raw).Err(); err != nil {
			return fmt.Errorf("failed to promote delayed job: %w", err)
		}
	}
	return nil
}

// reclaimExpired re-queues in-flight jobs whose lease ran out, typically
// because the worker holding them crashed before settling
func (b *RedisBroker) reclaimExpired(ctx context.Context, queue string) error {
	now := float64(time.Now().UnixMilli())
	expired, err := b.client.ZRangeByScore(ctx, b.leaseKey(queue), &redis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("%f", now),
		Count: promoteBatch,
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to read expired leases: %w", err)
	}

	for _, raw := range expired {
		keys := []string{b.leaseKey(queue), b.activeKey(queue), b.waitKey(queue)}
		if err := reclaimScript.Run(ctx, b.client, keys, raw).Err(); err != nil {
			return fmt.Errorf("failed to reclaim job: %w", err)
		}
	}
	return nil
}

// Complete settles an in-flight job as succeeded
func (b *RedisBroker) Complete(ctx context.Context, job *Job) error {
	return b.settle(ctx, job, nil, nil)
}

// Retry settles an in-flight job and re-queues it for readyAt
func (b *RedisBroker) Retry(ctx context.Context, job *Job, readyAt time.Time) error {
	return b.settle(ctx, job, &readyAt, nil)
}

// Discard settles an in-flight job as terminally failed and parks it on the
// dead list for inspection
func (b *RedisBroker) Discard(ctx context.Context, job *Job) error {
	dead := b.deadKey(job.Queue)
	return b.settle(ctx, job, nil, &dead)
}

func (b *RedisBroker) settle(ctx context.Context, job *Job, retryAt *time.Time, deadKey *string) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	pipe := b.client.TxPipeline()
	if len(job.raw) > 0 {
		pipe.LRem(ctx, b.activeKey(job.Queue), 1, string(job.raw))
		pipe.ZRem(ctx, b.leaseKey(job.Queue), string(job.raw))
	}
	if retryAt != nil {
		pipe.ZAdd(ctx, b.delayedKey(job.Queue), redis.Z{
			Score:  float64(retryAt.UnixMilli()),
			Member: payload,
		})
	}
	if deadKey != nil {
		pipe.LPush(ctx, *deadKey, payload)
	}
	pipe.Set(ctx, b.jobKey(job.Queue, job.ID.String()), payload, jobStateTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to settle job: %w", err)
	}

	job.raw = payload
	return nil
}

// Find returns the last known state of a job
func (b *RedisBroker) Find(ctx context.Context, queue string, jobID string) (*Job, error) {
	raw, err := b.client.Get(ctx, b.jobKey(queue, jobID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read job state: %w", err)
	}

	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, fmt.Errorf("failed to decode job state: %w", err)
	}
	return &job, nil
}

// Depth returns the number of immediately available jobs on the queue
func (b *RedisBroker) Depth(ctx context.Context, queue string) (int64, error) {
	return b.client.LLen(ctx, b.waitKey(queue)).Result()
}

var _ Broker = (*RedisBroker)(nil)
