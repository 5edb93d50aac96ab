package memory

import (
	"context"
	"sync"

	"intellectdca/internal/domain"
)

// AuditTrail is an append-only, in-process ports.AuditTrail. Records are kept
// in append order and lost on restart.
type AuditTrail struct {
	mu      sync.RWMutex
	records []domain.AuditRecord
}

func NewAuditTrail() *AuditTrail { return &AuditTrail{} }

func (t *AuditTrail) Append(_ context.Context, rec domain.AuditRecord) error {
	t.mu.Lock()
	t.records = append(t.records, rec)
	t.mu.Unlock()
	return nil
}

// List returns records for caseID, or every record when caseID is empty.
func (t *AuditTrail) List(_ context.Context, caseID string) ([]domain.AuditRecord, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.AuditRecord, 0)
	for _, r := range t.records {
		if caseID == "" || r.CaseID == caseID {
			out = append(out, r)
		}
	}
	return out, nil
}
