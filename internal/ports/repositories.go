package ports

import (
	"context"
	"errors"
	"time"

	"intellectdca/internal/domain"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrBadInput  = errors.New("bad input")
	ErrJobExists = errors.New("reallocation already pending")
)

// CaseRepository holds the working set of open cases. It lives in process
// memory only.
type CaseRepository interface {
	Get(ctx context.Context, caseID string) (domain.Case, error)
	List(ctx context.Context) ([]domain.Case, error)
	Upsert(ctx context.Context, c domain.Case) error
	// Reassign moves the case to owner and stamps lastUpdate.
	Reassign(ctx context.Context, caseID, owner string, lastUpdate time.Time) (domain.Case, error)
}

// AuditTrail keeps the audit records produced during this process's lifetime.
type AuditTrail interface {
	Append(ctx context.Context, rec domain.AuditRecord) error
	List(ctx context.Context, caseID string) ([]domain.AuditRecord, error)
}
