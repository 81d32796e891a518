package jobs

import (
	"time"
)

// Task names understood by the worker.
const (
	TaskScrapeRange = "scrape_range"
	TaskScrapeURL   = "scrape_url"
)

// Job is one unit of scraping work.
type Job struct {
	ID         string `json:"id"`
	Task       string `json:"task"`
	Payload    []byte `json:"payload"`
	EnqueuedAt int64  `json:"enqueued_at"`
}

// Queue is a FIFO job queue shared between the scheduler and the workers.
type Queue interface {
	// Enqueue appends a job and returns its generated id
	Enqueue(task string, payload []byte) (string, error)

	// Dequeue pops the oldest job, blocking up to timeout. It returns nil
	// without error when the queue stays empty.
	Dequeue(timeout time.Duration) (*Job, error)

	// Len returns the number of queued jobs
	Len() (int64, error)

	// Close closes the queue connection
	Close() error
}
