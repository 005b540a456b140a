package async

import (
	"context"
	"time"

	"github.com/joseph-ayodele/receipts-parser/internal/entity"
)

// Job is one document waiting to be parsed.
type Job struct {
	Doc         entity.Document
	SubmittedAt time.Time
	TraceID     string
}

// Result pairs a job with its outcome.
type Result struct {
	Job     Job
	Outcome entity.ParseOutcome
	Elapsed time.Duration
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
