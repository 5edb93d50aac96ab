package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"intellectdca/internal/domain"
	"intellectdca/internal/ports"
)

const jobColumns = `id, case_id, from_owner, delay_hours, status, attempts, last_error, queued_at`

func scanJob(row pgx.Row) (domain.ReallocationJob, error) {
	var (
		job    domain.ReallocationJob
		status string
	)
	err := row.Scan(&job.ID, &job.CaseID, &job.FromOwner, &job.DelayHours, &status, &job.Attempts, &job.LastError, &job.QueuedAt)
	job.Status = domain.JobStatus(status)
	return job, err
}

// Enqueue inserts a queued job. The partial unique index on pending jobs keeps
// one queued or running job per case.
func (db *DB) Enqueue(ctx context.Context, job domain.ReallocationJob) (string, error) {
	var id string
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO reallocation_jobs (id, case_id, from_owner, delay_hours)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (case_id) WHERE status IN ('queued', 'running') DO NOTHING
		RETURNING id
	`, uuid.NewString(), job.CaseID, job.FromOwner, job.DelayHours).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ports.ErrJobExists
	}
	return id, err
}

// ClaimNext selects the oldest queued job using SKIP LOCKED and marks it running.
func (db *DB) ClaimNext(ctx context.Context) (job domain.ReallocationJob, found bool, err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return job, false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	job, err = scanJob(tx.QueryRow(ctx, `
		SELECT `+jobColumns+` FROM reallocation_jobs
		WHERE status = 'queued'
		ORDER BY queued_at
		FOR UPDATE SKIP LOCKED
		LIMIT 1
	`))
	if errors.Is(err, pgx.ErrNoRows) {
		return job, false, nil
	}
	if err != nil {
		return job, false, err
	}

	if _, err = tx.Exec(ctx, `
		UPDATE reallocation_jobs SET status='running', started_at=now(), attempts=attempts+1 WHERE id=$1
	`, job.ID); err != nil {
		return job, false, err
	}
	job.Status = domain.JobRunning
	job.Attempts++
	return job, true, nil
}

func (db *DB) MarkCompleted(ctx context.Context, jobID string) error {
	return db.settle(ctx, jobID, domain.JobCompleted, "")
}

func (db *DB) MarkFailed(ctx context.Context, jobID string, reason string) error {
	return db.settle(ctx, jobID, domain.JobFailed, reason)
}

func (db *DB) Get(ctx context.Context, jobID string) (domain.ReallocationJob, error) {
	job, err := scanJob(db.Pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM reallocation_jobs WHERE id=$1`, jobID))
	if errors.Is(err, pgx.ErrNoRows) {
		return job, ports.ErrNotFound
	}
	return job, err
}

func (db *DB) settle(ctx context.Context, jobID string, status domain.JobStatus, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	tag, err := db.Pool.Exec(ctx, `
		UPDATE reallocation_jobs SET status=$2, last_error=$3, finished_at=now() WHERE id=$1
	`, jobID, string(status), reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}
