package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// This test requires a running Redis instance on localhost:6379.
// If Redis is not available, the test will be skipped.
func TestRedisQueue(t *testing.T) {
	ctx := context.Background()
	queue := NewRedisQueue(ctx, "localhost:6379", 0, "test_job_queue")
	defer queue.Close()

	if _, err := queue.client.Ping(ctx).Result(); err != nil {
		t.Skip("Redis is not available, skipping test")
	}
	defer queue.client.Del(ctx, queue.key)

	id, err := queue.Enqueue(TaskScrapeRange, []byte(`{"group_name":"spb"}`))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	length, err := queue.Len()
	require.NoError(t, err)
	assert.Equal(t, int64(1), length)

	job, err := queue.Dequeue(1 * time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, id, job.ID)
	assert.Equal(t, TaskScrapeRange, job.Task)
	assert.JSONEq(t, `{"group_name":"spb"}`, string(job.Payload))
	assert.NotZero(t, job.EnqueuedAt)

	// Queue is drained; a short blocking pop returns nothing.
	job, err = queue.Dequeue(100 * time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestRedisQueueOrdering(t *testing.T) {
	ctx := context.Background()
	queue := NewRedisQueue(ctx, "localhost:6379", 0, "test_job_queue_order")
	defer queue.Close()

	if _, err := queue.client.Ping(ctx).Result(); err != nil {
		t.Skip("Redis is not available, skipping test")
	}
	defer queue.client.Del(ctx, queue.key)

	first, err := queue.Enqueue(TaskScrapeURL, []byte("a"))
	require.NoError(t, err)
	second, err := queue.Enqueue(TaskScrapeURL, []byte("b"))
	require.NoError(t, err)

	job, err := queue.Dequeue(1 * time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, first, job.ID)

	job, err = queue.Dequeue(1 * time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, second, job.ID)
}
