package async

import (
	"context"
	"errors"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipts-parser/internal/common"
	"github.com/joseph-ayodele/receipts-parser/internal/entity"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

// Parser is the part of core.Processor the queue needs.
type Parser interface {
	Parse(ctx context.Context, doc entity.Document) entity.ParseOutcome
}

// ProcessorQueue parses documents on a fixed pool of workers. Outcomes are
// delivered on Results, which is closed once Shutdown has drained the queue.
type ProcessorQueue struct {
	proc    Parser
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch      chan Job
	results chan Result
	wg      sync.WaitGroup
	once    sync.Once

	// stopping is closed first by Shutdown so producers blocked on a full
	// queue release the read lock.
	stopping chan struct{}
	stopOnce sync.Once

	mu     sync.RWMutex
	closed bool
}

var _ Queue = (*ProcessorQueue)(nil)

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithResultBuffer sizes the results channel. Workers block when it is full,
// so callers must keep reading Results.
func WithResultBuffer(n int) Option {
	return func(q *ProcessorQueue) {
		if n >= 0 {
			q.results = make(chan Result, n)
		}
	}
}

func NewProcessorQueue(proc Parser, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:     proc,
		logger:   logger,
		workers:  4,
		timeout:  3 * time.Minute,
		ch:       make(chan Job, 256),
		results:  make(chan Result, 256),
		stopping: make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

// Results streams finished jobs.
func (q *ProcessorQueue) Results() <-chan Result { return q.results }

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)

				for job := range q.ch {
					start := time.Now()
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					ctx = common.WithRequestID(ctx, job.TraceID)
					out := q.proc.Parse(ctx, job.Doc)
					cancel()

					q.logger.Info("processed document",
						"worker_id", workerID,
						"name", job.Doc.Name,
						"trace_id", job.TraceID,
						"status", out.Status,
					)
					q.results <- Result{Job: job, Outcome: out, Elapsed: time.Since(start)}
				}

				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Enqueue blocks while the queue is full, which is how backpressure reaches
// the producer. It gives up when ctx is done or Shutdown starts.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "name", job.Doc.Name)
		return ErrQueueClosed
	}
	if job.TraceID == "" {
		job.TraceID = uuid.NewString()
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		q.logger.Debug("queued document for processing", "name", job.Doc.Name, "trace_id", job.TraceID)
		return nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "name", job.Doc.Name)
	select {
	case q.ch <- job:
		return nil
	case <-q.stopping:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops intake, waits for queued jobs to finish and closes Results.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.stopOnce.Do(func() { close(q.stopping) })
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		q.wg.Wait()
		close(q.results)
	}()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
