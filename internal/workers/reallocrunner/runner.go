package reallocrunner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"intellectdca/internal/domain"
	"intellectdca/internal/metrics"
	"intellectdca/internal/ports"
)

// JobProcessor performs the reallocation for a claimed job.
type JobProcessor interface {
	Process(ctx context.Context, job domain.ReallocationJob) error
}

var ErrNoAgency = errors.New("no other agency available")

// DefaultPollInterval is used when Run is given a non-positive interval.
const DefaultPollInterval = 500 * time.Millisecond

// RosterProcessor hands the case to the next agency in the roster after its
// current owner, restarts its SLA window and signs a REALLOCATED record.
type RosterProcessor struct {
	Roster   []string
	Cases    ports.CaseRepository
	Trail    ports.AuditTrail
	Recorder ports.AuditRecorder
	Clock    clockwork.Clock
	Metrics  *metrics.Metrics
}

func (p RosterProcessor) Process(ctx context.Context, job domain.ReallocationJob) error {
	c, err := p.Cases.Get(ctx, job.CaseID)
	if err != nil {
		return fmt.Errorf("load case %s: %w", job.CaseID, err)
	}
	next, ok := NextAgency(p.Roster, c.Owner)
	if !ok {
		return ErrNoAgency
	}
	if _, err := p.Cases.Reassign(ctx, c.ID, next, p.Clock.Now()); err != nil {
		return fmt.Errorf("reassign case %s: %w", c.ID, err)
	}
	rec := p.Recorder.CreateRecord(c.ID, next, domain.AuditReallocated)
	if err := p.Trail.Append(ctx, rec); err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	p.Metrics.IncrementAudit(domain.AuditReallocated)
	return nil
}

// NextAgency returns the roster entry after current, wrapping around. An owner
// missing from the roster gets the first entry. It reports false when the
// roster holds no agency other than current.
func NextAgency(roster []string, current string) (string, bool) {
	if len(roster) == 0 {
		return "", false
	}
	start := 0
	for i, a := range roster {
		if a == current {
			start = i + 1
			break
		}
	}
	for i := 0; i < len(roster); i++ {
		cand := roster[(start+i)%len(roster)]
		if cand != current {
			return cand, true
		}
	}
	return "", false
}

// Run starts worker goroutines that claim jobs and process them. It returns
// immediately; workers stop when ctx is done.
func Run(ctx context.Context, queue ports.ReallocationQueue, processor JobProcessor, concurrency int, pollInterval time.Duration, log *slog.Logger, m *metrics.Metrics) {
	if concurrency < 1 {
		return
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	jobsCh := make(chan domain.ReallocationJob, concurrency)

	// dispatcher loop
	go func() {
		defer close(jobsCh)
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for {
					job, found, err := queue.ClaimNext(ctx)
					if err != nil {
						if ctx.Err() == nil {
							log.ErrorContext(ctx, "job claim error", "error", err)
						}
						break
					}
					if !found {
						break
					}
					select {
					case jobsCh <- job:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	// workers
	for i := 0; i < concurrency; i++ {
		go func(idx int) {
			for job := range jobsCh {
				Settle(ctx, queue, processor, job, log.With("worker", idx), m)
			}
		}(i)
	}
}

// Settle processes one claimed job and marks it completed or failed.
func Settle(ctx context.Context, queue ports.ReallocationQueue, processor JobProcessor, job domain.ReallocationJob, log *slog.Logger, m *metrics.Metrics) {
	if err := processor.Process(ctx, job); err != nil {
		if mErr := queue.MarkFailed(ctx, job.ID, err.Error()); mErr != nil {
			log.ErrorContext(ctx, "mark failed error", "job_id", job.ID, "error", mErr)
		}
		m.IncrementJob("failed")
		log.WarnContext(ctx, "reallocation failed", "job_id", job.ID, "case_id", job.CaseID, "error", err)
		return
	}
	if err := queue.MarkCompleted(ctx, job.ID); err != nil {
		log.ErrorContext(ctx, "complete error", "job_id", job.ID, "error", err)
		return
	}
	m.IncrementJob("completed")
	log.InfoContext(ctx, "case reallocated", "job_id", job.ID, "case_id", job.CaseID, "from", job.FromOwner)
}

// ProcessNext claims and settles a single job inline. It reports whether a job
// was found.
func ProcessNext(ctx context.Context, queue ports.ReallocationQueue, processor JobProcessor, log *slog.Logger, m *metrics.Metrics) (bool, error) {
	job, found, err := queue.ClaimNext(ctx)
	if err != nil || !found {
		return false, err
	}
	Settle(ctx, queue, processor, job, log, m)
	return true, nil
}
