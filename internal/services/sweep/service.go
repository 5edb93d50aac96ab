package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"intellectdca/internal/domain"
	"intellectdca/internal/metrics"
	"intellectdca/internal/ports"
)

// Service evaluates open cases against the SLA window, signs a SCANNED record
// for each and queues a reallocation for every breach.
type Service struct {
	evaluator   ports.SLAEvaluator
	recorder    ports.AuditRecorder
	cases       ports.CaseRepository
	trail       ports.AuditTrail
	queue       ports.ReallocationQueue
	concurrency int
	log         *slog.Logger
	metrics     *metrics.Metrics
}

func New(evaluator ports.SLAEvaluator, recorder ports.AuditRecorder, cases ports.CaseRepository, trail ports.AuditTrail,
	queue ports.ReallocationQueue, concurrency int, log *slog.Logger, m *metrics.Metrics) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		evaluator:   evaluator,
		recorder:    recorder,
		cases:       cases,
		trail:       trail,
		queue:       queue,
		concurrency: concurrency,
		log:         log,
		metrics:     m,
	}
}

// Sweep scans every case once. The first storage error cancels the rest.
func (s *Service) Sweep(ctx context.Context) (ports.SweepReport, error) {
	start := time.Now()
	cases, err := s.cases.List(ctx)
	if err != nil {
		return ports.SweepReport{}, fmt.Errorf("list cases: %w", err)
	}

	var breached, enqueued atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, c := range cases {
		g.Go(func() error {
			verdict, queued, err := s.scan(gctx, c)
			if err != nil {
				return err
			}
			if verdict.Breached() {
				breached.Add(1)
			}
			if queued {
				enqueued.Add(1)
			}
			return nil
		})
	}
	err = g.Wait()

	report := ports.SweepReport{Scanned: len(cases), Breached: int(breached.Load()), Enqueued: int(enqueued.Load())}
	s.metrics.ObserveSweep(time.Since(start).Seconds())
	if err != nil {
		return report, err
	}
	s.log.InfoContext(ctx, "sla sweep finished",
		"scanned", report.Scanned,
		"breached", report.Breached,
		"enqueued", report.Enqueued,
		"duration", time.Since(start),
	)
	return report, nil
}

// CheckCase scans a single case on demand.
func (s *Service) CheckCase(ctx context.Context, caseID string) (domain.SLAVerdict, error) {
	c, err := s.cases.Get(ctx, caseID)
	if err != nil {
		return domain.SLAVerdict{}, err
	}
	verdict, _, err := s.scan(ctx, c)
	return verdict, err
}

// Run sweeps on every tick until ctx is done.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.log.ErrorContext(ctx, "sla sweep failed", "error", err)
			}
		}
	}
}

func (s *Service) scan(ctx context.Context, c domain.Case) (domain.SLAVerdict, bool, error) {
	verdict := s.evaluator.Evaluate(c.LastUpdate)
	s.metrics.IncrementVerdict(string(verdict.Status))

	rec := s.recorder.CreateRecord(c.ID, c.Owner, domain.AuditScanned)
	if err := s.trail.Append(ctx, rec); err != nil {
		return verdict, false, fmt.Errorf("append audit for %s: %w", c.ID, err)
	}
	s.metrics.IncrementAudit(domain.AuditScanned)

	if !verdict.Breached() {
		return verdict, false, nil
	}
	jobID, err := s.queue.Enqueue(ctx, domain.ReallocationJob{
		CaseID:     c.ID,
		FromOwner:  c.Owner,
		DelayHours: *verdict.DelayHours,
	})
	if errors.Is(err, ports.ErrJobExists) {
		s.metrics.IncrementJob("duplicate")
		return verdict, false, nil
	}
	if err != nil {
		return verdict, false, fmt.Errorf("enqueue reallocation for %s: %w", c.ID, err)
	}
	s.metrics.IncrementJob("enqueued")
	s.log.WarnContext(ctx, "sla breached",
		"case_id", c.ID,
		"owner", c.Owner,
		"delay_hours", *verdict.DelayHours,
		"job_id", jobID,
	)
	return verdict, true, nil
}
