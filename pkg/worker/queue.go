// Background job queue used to keep Redis round-trips off the realtime paths.

package worker

import (
	"Codepad/pkg/log"
	"context"
	"sync"
	"time"
)

// Job is one unit of background work.
type Job func(ctx context.Context) error

// Queue runs submitted jobs on a fixed set of goroutines.
// Submit never blocks: a full queue drops the job.
type Queue struct {
	name    string
	jobs    chan Job
	logger  log.Logger
	timeout time.Duration
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	stopped bool
}

// NewQueue starts workers goroutines draining a buffer of size capacity.
// Each job gets its own context bounded by timeout.
func NewQueue(name string, workers, capacity int, timeout time.Duration, logger log.Logger) *Queue {
	if workers <= 0 {
		workers = 1
	}
	q := &Queue{
		name:    name,
		jobs:    make(chan Job, capacity),
		logger:  logger.With("queue", name),
		timeout: timeout,
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	return q
}

func (q *Queue) work() {
	defer q.wg.Done()
	for job := range q.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		if err := job(ctx); err != nil {
			q.logger.Error().Err(err).Msg("Background job failed")
		}
		cancel()
	}
}

// Submit queues job, reporting false when it was dropped.
func (q *Queue) Submit(job Job) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.stopped {
		return false
	}
	select {
	case q.jobs <- job:
		return true
	default:
		q.logger.Warn().Msg("Job queue full, job dropped")
		return false
	}
}

// Stop drains the queued jobs and waits for the workers, or gives up when ctx ends.
func (q *Queue) Stop(ctx context.Context) error {
	q.once.Do(func() {
		q.mu.Lock()
		q.stopped = true
		close(q.jobs)
		q.mu.Unlock()
	})
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
