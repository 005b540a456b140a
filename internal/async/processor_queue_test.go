package async

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/receipts-parser/constants"
	"github.com/joseph-ayodele/receipts-parser/internal/common"
	"github.com/joseph-ayodele/receipts-parser/internal/entity"
)

type fakeParser struct {
	calls   atomic.Int32
	traceOK atomic.Int32
	delay   time.Duration
}

func (f *fakeParser) Parse(ctx context.Context, doc entity.Document) entity.ParseOutcome {
	f.calls.Add(1)
	if common.RequestIDFromContext(ctx) != "" {
		f.traceOK.Add(1)
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return entity.ParseOutcome{Status: constants.ParseStatusSuccess, Message: doc.Name}
}

func TestProcessorQueue_ProcessesAll(t *testing.T) {
	p := &fakeParser{}
	q := NewProcessorQueue(p, nil, WithWorkers(3), WithQueueSize(2), WithResultBuffer(0))

	const n = 10
	got := make(chan Result, n)
	go func() {
		for r := range q.Results() {
			got <- r
		}
		close(got)
	}()

	for i := 0; i < n; i++ {
		require.NoError(t, q.Enqueue(context.Background(), Job{Doc: entity.NewDocument("r.txt", []byte{byte(i)})}))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	count := 0
	for r := range got {
		count++
		assert.Equal(t, constants.ParseStatusSuccess, r.Outcome.Status)
		assert.NotEmpty(t, r.Job.TraceID)
		assert.False(t, r.Job.SubmittedAt.IsZero())
	}
	assert.Equal(t, n, count)
	assert.Equal(t, int32(n), p.calls.Load())
	assert.Equal(t, int32(n), p.traceOK.Load())
}

func TestProcessorQueue_EnqueueAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(&fakeParser{}, nil)
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())

	err := q.Enqueue(context.Background(), Job{Doc: entity.NewDocument("r.txt", nil)})
	assert.ErrorIs(t, err, ErrQueueClosed)

	_, open := <-q.Results()
	assert.False(t, open)
}

func TestProcessorQueue_EnqueueHonoursContext(t *testing.T) {
	p := &fakeParser{delay: 200 * time.Millisecond}
	q := NewProcessorQueue(p, nil, WithWorkers(1), WithQueueSize(1))
	defer q.Shutdown(context.Background())

	// one job in the worker, one in the buffer, the third must wait
	require.NoError(t, q.Enqueue(context.Background(), Job{Doc: entity.NewDocument("a.txt", nil)}))
	require.NoError(t, q.Enqueue(context.Background(), Job{Doc: entity.NewDocument("b.txt", nil)}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Enqueue(ctx, Job{Doc: entity.NewDocument("c.txt", nil)})
	if err != nil {
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	}
}

func TestProcessorQueue_ShutdownReleasesBlockedProducer(t *testing.T) {
	// nobody reads Results, so the only worker stalls after its first job
	q := NewProcessorQueue(&fakeParser{}, nil, WithWorkers(1), WithQueueSize(1), WithResultBuffer(0))

	require.NoError(t, q.Enqueue(context.Background(), Job{Doc: entity.NewDocument("a.txt", nil)}))
	require.NoError(t, q.Enqueue(context.Background(), Job{Doc: entity.NewDocument("b.txt", nil)}))

	blocked := make(chan error, 1)
	go func() {
		blocked <- q.Enqueue(context.Background(), Job{Doc: entity.NewDocument("c.txt", nil)})
	}()
	time.Sleep(50 * time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		q.Shutdown(ctx)
		close(stopped)
	}()

	select {
	case err := <-blocked:
		assert.ErrorIs(t, err, ErrQueueClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("blocked Enqueue was not released by Shutdown")
	}
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return")
	}
}
