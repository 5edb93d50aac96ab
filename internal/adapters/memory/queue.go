package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"intellectdca/internal/domain"
	"intellectdca/internal/ports"
)

// DefaultRetention is how many settled jobs a JobQueue keeps for Get.
const DefaultRetention = 1024

// JobQueue is the in-process ports.ReallocationQueue used when no database is
// configured. Jobs are claimed in FIFO order. Settled jobs stay readable
// through Get until more than the retention limit have settled after them.
type JobQueue struct {
	mu        sync.Mutex
	order     []string // queued ids, oldest first
	settled   []string // settled ids, oldest first
	pending   map[string]string
	jobs      map[string]*domain.ReallocationJob
	retention int
	now       func() time.Time
}

type QueueOption func(*JobQueue)

// WithRetention caps the settled jobs kept for Get. Negative values keep the
// default; zero forgets a job as soon as it settles.
func WithRetention(n int) QueueOption {
	return func(q *JobQueue) {
		if n >= 0 {
			q.retention = n
		}
	}
}

func NewJobQueue(opts ...QueueOption) *JobQueue {
	q := &JobQueue{
		pending:   make(map[string]string),
		jobs:      make(map[string]*domain.ReallocationJob),
		retention: DefaultRetention,
		now:       time.Now,
	}
	for _, o := range opts {
		o(q)
	}
	return q
}

// Enqueue rejects a case that already has a queued or running job.
func (q *JobQueue) Enqueue(_ context.Context, job domain.ReallocationJob) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.pending[job.CaseID]; ok {
		return "", ports.ErrJobExists
	}
	job.ID = uuid.NewString()
	job.Status = domain.JobQueued
	job.Attempts = 0
	job.QueuedAt = q.now()
	q.jobs[job.ID] = &job
	q.pending[job.CaseID] = job.ID
	q.order = append(q.order, job.ID)
	return job.ID, nil
}

func (q *JobQueue) ClaimNext(_ context.Context) (domain.ReallocationJob, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.order) == 0 {
		return domain.ReallocationJob{}, false, nil
	}
	j := q.jobs[q.order[0]]
	q.order = q.order[1:]
	j.Status = domain.JobRunning
	j.Attempts++
	return *j, true, nil
}

// Len reports how many jobs the queue holds, settled ones included.
func (q *JobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

func (q *JobQueue) MarkCompleted(_ context.Context, jobID string) error {
	return q.settle(jobID, domain.JobCompleted, "")
}

func (q *JobQueue) MarkFailed(_ context.Context, jobID string, reason string) error {
	return q.settle(jobID, domain.JobFailed, reason)
}

func (q *JobQueue) Get(_ context.Context, jobID string) (domain.ReallocationJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	j, ok := q.jobs[jobID]
	if !ok {
		return domain.ReallocationJob{}, ports.ErrNotFound
	}
	return *j, nil
}

func (q *JobQueue) settle(jobID string, status domain.JobStatus, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	j, ok := q.jobs[jobID]
	if !ok {
		return ports.ErrNotFound
	}
	wasSettled := j.Status == domain.JobCompleted || j.Status == domain.JobFailed
	if j.Status == domain.JobQueued {
		q.order = slices.DeleteFunc(q.order, func(id string) bool { return id == jobID })
	}
	j.Status = status
	j.LastError = reason
	if q.pending[j.CaseID] == jobID {
		delete(q.pending, j.CaseID)
	}
	if wasSettled {
		return nil
	}
	q.settled = append(q.settled, jobID)
	for len(q.settled) > q.retention {
		delete(q.jobs, q.settled[0])
		q.settled = q.settled[1:]
	}
	return nil
}
