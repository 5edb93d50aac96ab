package ports

import (
	"context"
	"time"

	"intellectdca/internal/domain"
)

// PriorityScorer converts case metadata into a bounded priority score.
type PriorityScorer interface {
	Score(md domain.CaseMetadata) domain.PriorityScore
}

// SLAEvaluator classifies a last-update time against the response window.
type SLAEvaluator interface {
	Evaluate(lastUpdate time.Time) domain.SLAVerdict
}

// AuditRecorder signs a single allocation or scan event.
type AuditRecorder interface {
	CreateRecord(caseID, owner, action string) domain.AuditRecord
}

// Allocator scores and allocates a case to an agency.
type Allocator interface {
	Allocate(ctx context.Context, req AllocateRequest) (Allocation, error)
}

type AllocateRequest struct {
	CaseID         string
	Amount         float64
	AgeDays        int
	DCAName        string
	DCASuccessRate *float64
}

// Allocation mirrors the process_debt response.
type Allocation struct {
	CaseID        string               `json:"case_id"`
	PriorityScore domain.PriorityScore `json:"priority_score"`
	AuditTrail    domain.AuditRecord   `json:"audit_trail"`
}

// Sweeper runs SLA checks over open cases.
type Sweeper interface {
	Sweep(ctx context.Context) (SweepReport, error)
	CheckCase(ctx context.Context, caseID string) (domain.SLAVerdict, error)
}

type SweepReport struct {
	Scanned  int `json:"scanned"`
	Breached int `json:"breached"`
	Enqueued int `json:"enqueued"`
}
