package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "hotelpriceworker/pkg/errors"
)

// RedisQueue implements Queue on a Redis list. Enqueue pushes to the tail,
// Dequeue blocks on the head, so jobs run in arrival order.
type RedisQueue struct {
	client *redis.Client
	ctx    context.Context
	key    string
}

// NewRedisQueue creates a new Redis-backed job queue
func NewRedisQueue(ctx context.Context, addr string, db int, key string) *RedisQueue {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisQueue{
		client: client,
		ctx:    ctx,
		key:    key,
	}
}

// Enqueue appends a job and returns its generated id
func (q *RedisQueue) Enqueue(task string, payload []byte) (string, error) {
	job := Job{
		ID:         uuid.NewString(),
		Task:       task,
		Payload:    payload,
		EnqueuedAt: time.Now().Unix(),
	}

	encoded, err := json.Marshal(job)
	if err != nil {
		return "", apperrors.NewValidation("jobs", "failed to encode job")
	}
	if err := q.client.RPush(q.ctx, q.key, encoded).Err(); err != nil {
		return "", apperrors.NewCache("jobs", "failed to enqueue job", err)
	}
	return job.ID, nil
}

// Dequeue pops the oldest job, blocking up to timeout
func (q *RedisQueue) Dequeue(timeout time.Duration) (*Job, error) {
	result, err := q.client.BLPop(q.ctx, timeout, q.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewCache("jobs", "failed to dequeue job", err)
	}

	// BLPop returns [key, value].
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, apperrors.NewParsing("jobs", "failed to decode job", err)
	}
	return &job, nil
}

// Len returns the number of queued jobs
func (q *RedisQueue) Len() (int64, error) {
	length, err := q.client.LLen(q.ctx, q.key).Result()
	if err != nil {
		return 0, apperrors.NewCache("jobs", "failed to read queue length", err)
	}
	return length, nil
}

// Close closes the Redis connection
func (q *RedisQueue) Close() error {
	return q.client.Close()
}
