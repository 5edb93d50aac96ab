package domain

import "time"

// Core domain models shared by the scoring, SLA and audit components and the
// services that compose them. JSON tags match the dashboard payloads.

// CaseMetadata is the scoring input for a single case. It is built per request
// and never retained.
type CaseMetadata struct {
	Amount         float64  `json:"amount"`
	AgeDays        int      `json:"age_days"`
	DCASuccessRate *float64 `json:"dca_success_rate,omitempty"`
}

// PriorityScore is bounded to at most 100 and carries two decimal places.
type PriorityScore float64

type SLAStatus string

const (
	StatusCompliant    SLAStatus = "COMPLIANT"
	StatusNonCompliant SLAStatus = "NON_COMPLIANT"
)

type SLAAction string

const (
	ActionNone           SLAAction = "NONE"
	ActionAutoReallocate SLAAction = "AUTO_REALLOCATE"
)

// SLAVerdict is recomputed on every evaluation. DelayHours is set only for
// NON_COMPLIANT verdicts.
type SLAVerdict struct {
	Status     SLAStatus `json:"status"`
	Action     SLAAction `json:"action"`
	DelayHours *float64  `json:"delay_hours,omitempty"`
}

// Breached reports whether the verdict asks for reallocation.
func (v SLAVerdict) Breached() bool { return v.Status == StatusNonCompliant }

// Audit action labels recorded by the services.
const (
	AuditAllocated   = "ALLOCATED"
	AuditScanned     = "SCANNED"
	AuditReallocated = "REALLOCATED"
)

// AuditRecord is a signed, immutable audit entry. Timestamp is seconds since
// the Unix epoch with sub-second precision.
type AuditRecord struct {
	CaseID    string  `json:"case_id"`
	Owner     string  `json:"owner"`
	Status    string  `json:"status"`
	AuditHash string  `json:"audit_hash"`
	Timestamp float64 `json:"timestamp"`
}

// Case is the case book entry the services operate on.
type Case struct {
	ID             string        `json:"case_id"`
	Amount         float64       `json:"amount"`
	AgeDays        int           `json:"age_days"`
	DCASuccessRate *float64      `json:"dca_success_rate,omitempty"`
	Owner          string        `json:"owner"`
	LastUpdate     time.Time     `json:"last_update"`
	PriorityScore  PriorityScore `json:"priority_score"`
}

// Metadata returns the scoring input for the case.
func (c Case) Metadata() CaseMetadata {
	return CaseMetadata{Amount: c.Amount, AgeDays: c.AgeDays, DCASuccessRate: c.DCASuccessRate}
}

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// ReallocationJob is queued for every SLA breach found by a sweep.
type ReallocationJob struct {
	ID         string    `json:"id"`
	CaseID     string    `json:"case_id"`
	FromOwner  string    `json:"from_owner"`
	DelayHours float64   `json:"delay_hours"`
	Status     JobStatus `json:"status"`
	Attempts   int       `json:"attempts"`
	LastError  string    `json:"last_error,omitempty"`
	QueuedAt   time.Time `json:"queued_at"`
}
