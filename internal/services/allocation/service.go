package allocation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/jonboulle/clockwork"

	"intellectdca/internal/domain"
	"intellectdca/internal/metrics"
	"intellectdca/internal/ports"
)

// Service scores a case and records its allocation to an agency.
type Service struct {
	scorer   ports.PriorityScorer
	recorder ports.AuditRecorder
	cases    ports.CaseRepository
	trail    ports.AuditTrail
	clock    clockwork.Clock
	log      *slog.Logger
	metrics  *metrics.Metrics
}

func New(scorer ports.PriorityScorer, recorder ports.AuditRecorder, cases ports.CaseRepository, trail ports.AuditTrail,
	clock clockwork.Clock, log *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{scorer: scorer, recorder: recorder, cases: cases, trail: trail, clock: clock, log: log, metrics: m}
}

// Allocate validates the request, scores the case, signs an ALLOCATED record
// and stores both. The case's SLA window restarts at allocation time.
func (s *Service) Allocate(ctx context.Context, req ports.AllocateRequest) (ports.Allocation, error) {
	if err := validate(req); err != nil {
		return ports.Allocation{}, err
	}

	md := domain.CaseMetadata{Amount: req.Amount, AgeDays: req.AgeDays, DCASuccessRate: req.DCASuccessRate}
	score := s.scorer.Score(md)
	rec := s.recorder.CreateRecord(req.CaseID, req.DCAName, domain.AuditAllocated)

	err := s.cases.Upsert(ctx, domain.Case{
		ID:             req.CaseID,
		Amount:         req.Amount,
		AgeDays:        req.AgeDays,
		DCASuccessRate: req.DCASuccessRate,
		Owner:          req.DCAName,
		LastUpdate:     s.clock.Now(),
		PriorityScore:  score,
	})
	if err != nil {
		return ports.Allocation{}, fmt.Errorf("store case: %w", err)
	}
	if err := s.trail.Append(ctx, rec); err != nil {
		return ports.Allocation{}, fmt.Errorf("append audit: %w", err)
	}

	s.metrics.ObserveAllocation(float64(score))
	s.metrics.IncrementAudit(domain.AuditAllocated)
	s.log.InfoContext(ctx, "case allocated",
		"case_id", req.CaseID,
		"owner", req.DCAName,
		"priority_score", float64(score),
		"audit_hash", rec.AuditHash,
	)
	return ports.Allocation{CaseID: req.CaseID, PriorityScore: score, AuditTrail: rec}, nil
}

func validate(req ports.AllocateRequest) error {
	switch {
	case strings.TrimSpace(req.CaseID) == "":
		return fmt.Errorf("%w: case_id is required", ports.ErrBadInput)
	case strings.TrimSpace(req.DCAName) == "":
		return fmt.Errorf("%w: dca_name is required", ports.ErrBadInput)
	case math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) || req.Amount < 0:
		return fmt.Errorf("%w: amount must be a non-negative number", ports.ErrBadInput)
	case req.AgeDays < 0:
		return fmt.Errorf("%w: age must be non-negative", ports.ErrBadInput)
	case req.DCASuccessRate != nil && (*req.DCASuccessRate < 0 || *req.DCASuccessRate > 1):
		return fmt.Errorf("%w: dca_success_rate must be within [0,1]", ports.ErrBadInput)
	}
	return nil
}
