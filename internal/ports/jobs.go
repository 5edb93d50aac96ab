package ports

import (
	"context"

	"intellectdca/internal/domain"
)

// ReallocationQueue supports enqueuing, claiming and settling reallocation jobs.
type ReallocationQueue interface {
	// Enqueue adds a job for the case unless one is already queued or running,
	// in which case it returns ErrJobExists.
	Enqueue(ctx context.Context, job domain.ReallocationJob) (jobID string, err error)
	ClaimNext(ctx context.Context) (job domain.ReallocationJob, found bool, err error)
	MarkCompleted(ctx context.Context, jobID string) error
	MarkFailed(ctx context.Context, jobID string, reason string) error
	Get(ctx context.Context, jobID string) (domain.ReallocationJob, error)
}
