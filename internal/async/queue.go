package async

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job is the smallest useful unit of background work: one pipeline run
// over one case. Extend as needed later (claim tokens, retry counts).
type Job struct {
	CaseID      uuid.UUID
	SubmittedAt time.Time
	TraceID     string
}

// Queue is the task-queue seam between the trigger endpoint and the
// pipeline. The default implementation is in-process; a durable broker
// can replace it behind the same interface.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
