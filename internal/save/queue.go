package save

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// ErrQueueClosed is passed to the Done callback of jobs submitted after
// Shutdown.
var ErrQueueClosed = errors.New("save queue closed")

// Job is a deferred save executed by the queue; Done receives the outcome
// once the job finishes.
type Job struct {
	ID      string
	Request Request
	Done    func(link string, err error)
}

// Queue runs save requests on a bounded worker pool so webhook handlers can
// acknowledge immediately instead of blocking on downloads and uploads.
type Queue struct {
	service *Service
	jobs    chan Job
	pending atomic.Int64
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
	log     *slog.Logger
}

// NewQueue starts workers goroutines consuming enqueued jobs. They run until
// Shutdown drains the queue.
func NewQueue(service *Service, workers int, log *slog.Logger) *Queue {
	if workers <= 0 {
		workers = 1
	}
	q := &Queue{
		service: service,
		jobs:    make(chan Job, workers*4),
		log:     log.With(slog.String("service", "save_queue")),
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

// Enqueue schedules a request and returns the job id plus the queue depth
// including the new job. It blocks only when the buffer is full. After
// Shutdown it rejects the job by invoking done with ErrQueueClosed.
func (q *Queue) Enqueue(req Request, done func(link string, err error)) (string, int) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		if done != nil {
			done("", ErrQueueClosed)
		}
		return "", 0
	}
	job := Job{ID: uuid.NewString(), Request: req, Done: done}
	depth := int(q.pending.Add(1))
	q.jobs <- job
	q.mu.Unlock()

	q.log.Info("job enqueued",
		slog.String("job_id", job.ID),
		slog.Int("pending", depth))
	return job.ID, depth
}

// Pending returns the number of jobs enqueued but not yet finished.
func (q *Queue) Pending() int {
	return int(q.pending.Load())
}

// Shutdown stops accepting new jobs and blocks until every accepted job has
// been processed and its Done callback invoked. Users who were told their
// save was queued still get an outcome.
func (q *Queue) Shutdown() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()
	q.wg.Wait()
}

// Each job runs against its own context: a shutdown in progress must not
// abort work the user was already promised.
func (q *Queue) worker() {
	defer q.wg.Done()
	for job := range q.jobs {
		link, err := q.service.Process(context.Background(), job.Request)
		q.pending.Add(-1)
		if err != nil {
			q.log.Error("job failed",
				slog.String("job_id", job.ID),
				slog.Any("error", err))
		}
		if job.Done != nil {
			job.Done(link, err)
		}
	}
}
