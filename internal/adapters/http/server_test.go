package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"intellectdca/internal/adapters/memory"
	"intellectdca/internal/audit"
	"intellectdca/internal/domain"
	"intellectdca/internal/metrics"
	"intellectdca/internal/ports"
	"intellectdca/internal/scoring"
	"intellectdca/internal/services/allocation"
	"intellectdca/internal/services/sweep"
	"intellectdca/internal/sla"
)

var frozen = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// ServerSuite runs the router against real in-memory collaborators.
type ServerSuite struct {
	suite.Suite
	clock    *clockwork.FakeClock
	cases    *memory.CaseBook
	trail    *memory.AuditTrail
	queue    *memory.JobQueue
	recorder *audit.Recorder
	metrics  *metrics.Metrics
	router   http.Handler
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	s.clock = clockwork.NewFakeClockAt(frozen)
	s.cases = memory.NewCaseBook()
	s.trail = memory.NewAuditTrail()
	s.queue = memory.NewJobQueue()
	s.recorder = audit.NewRecorder(s.clock)

	reg := prometheus.NewRegistry()
	s.metrics = metrics.New(reg)
	m := s.metrics
	log := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	scorer := scoring.NewDefault()
	evaluator := sla.New(sla.WithClock(s.clock))

	s.router = New(Deps{
		Scorer:         scorer,
		Evaluator:      evaluator,
		Recorder:       s.recorder,
		Trail:          s.trail,
		Cases:          s.cases,
		Jobs:           s.queue,
		Allocator:      allocation.New(scorer, s.recorder, s.cases, s.trail, s.clock, log, m),
		Sweeper:        sweep.New(evaluator, s.recorder, s.cases, s.trail, s.queue, 2, log, m),
		Metrics:        m,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSOrigins:    []string{"http://localhost:3000"},
		Log:            log,
	}).Routes()
}

func (s *ServerSuite) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *ServerSuite) decode(rec *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func (s *ServerSuite) TestHealth() {
	for _, path := range []string{"/", "/healthz"} {
		rec := s.do(http.MethodGet, path, "")
		s.Equal(http.StatusOK, rec.Code)
		var body map[string]string
		s.decode(rec, &body)
		s.Equal("active", body["status"])
	}
}

func (s *ServerSuite) TestProcessDebt() {
	rec := s.do(http.MethodPost, "/process_debt?case_id=FEDEX-1001&amount=5000&age=45&dca_name=Apex", "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var got ports.Allocation
	s.decode(rec, &got)
	s.Equal("FEDEX-1001", got.CaseID)
	s.Equal(domain.PriorityScore(100), got.PriorityScore)
	s.Equal("Apex", got.AuditTrail.Owner)
	s.Equal(domain.AuditAllocated, got.AuditTrail.Status)
	s.True(s.recorder.Verify(got.AuditTrail))

	_, err := s.cases.Get(context.Background(), "FEDEX-1001")
	s.NoError(err)
}

func (s *ServerSuite) TestProcessDebt_BadInput() {
	for _, target := range []string{
		"/process_debt?amount=5000&age=45&dca_name=Apex",
		"/process_debt?case_id=C&amount=abc&age=45&dca_name=Apex",
		"/process_debt?case_id=C&amount=-5&age=45&dca_name=Apex",
		"/process_debt?case_id=C&amount=5&age=45&dca_name=Apex&dca_success_rate=3",
	} {
		rec := s.do(http.MethodPost, target, "")
		s.Equal(http.StatusBadRequest, rec.Code, target)
	}
}

func (s *ServerSuite) TestScore() {
	rec := s.do(http.MethodPost, "/score", `{"amount":100,"age_days":10}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var got scoreResponse
	s.decode(rec, &got)
	s.Equal(domain.PriorityScore(35), got.PriorityScore)
	s.Equal(30.0, got.Breakdown.AmountContribution)

	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/score", `{"amount":-1,"age_days":10}`).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/score", `{"amount":"x"}`).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/score", `{"amount":1,"extra":true}`).Code)
}

func (s *ServerSuite) TestEvaluateSLA() {
	last := frozen.Add(-50 * time.Hour).Format(time.RFC3339)
	rec := s.do(http.MethodPost, "/sla/evaluate", `{"last_update_time":"`+last+`"}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.JSONEq(`{"status":"NON_COMPLIANT","action":"AUTO_REALLOCATE","delay_hours":2}`, rec.Body.String())

	last = frozen.Add(-10 * time.Hour).Format(time.RFC3339)
	rec = s.do(http.MethodPost, "/sla/evaluate", `{"last_update_time":"`+last+`"}`)
	s.JSONEq(`{"status":"COMPLIANT","action":"NONE"}`, rec.Body.String())

	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/sla/evaluate", `{}`).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/sla/evaluate", `{"last_update_time":"yesterday"}`).Code)
}

func (s *ServerSuite) TestAudit() {
	rec := s.do(http.MethodPost, "/audit", `{"case_id":"C-1","owner":"Apex","action":"ALLOCATED"}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var created domain.AuditRecord
	s.decode(rec, &created)
	s.Len(created.AuditHash, audit.HashLength)
	s.Equal(float64(frozen.Unix()), created.Timestamp)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.AuditRecords.WithLabelValues(domain.AuditAllocated)))

	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/audit", `{"case_id":"","owner":"Apex","action":"X"}`).Code)

	rec = s.do(http.MethodGet, "/audit?case_id=C-1", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var list []domain.AuditRecord
	s.decode(rec, &list)
	s.Equal([]domain.AuditRecord{created}, list)
}

func (s *ServerSuite) TestSweepAndCaseSLA() {
	ctx := context.Background()
	s.Require().NoError(s.cases.Upsert(ctx, domain.Case{ID: "C-1", Owner: "Apex", LastUpdate: frozen.Add(-50 * time.Hour)}))
	s.Require().NoError(s.cases.Upsert(ctx, domain.Case{ID: "C-2", Owner: "Apex", LastUpdate: frozen.Add(-1 * time.Hour)}))

	rec := s.do(http.MethodPost, "/sla/sweep", "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.JSONEq(`{"scanned":2,"breached":1,"enqueued":1}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/cases/C-2/sla", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"status":"COMPLIANT","action":"NONE"}`, rec.Body.String())

	s.Equal(http.StatusNotFound, s.do(http.MethodPost, "/cases/nope/sla", "").Code)
	s.Equal(http.StatusMethodNotAllowed, s.do(http.MethodGet, "/cases/C-2/sla", "").Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/cases/nope", "").Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/jobs/nope", "").Code)

	job, found, err := s.queue.ClaimNext(ctx)
	s.Require().NoError(err)
	s.Require().True(found)
	rec = s.do(http.MethodGet, "/jobs/"+job.ID, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var got domain.ReallocationJob
	s.decode(rec, &got)
	s.Equal("C-1", got.CaseID)

	rec = s.do(http.MethodGet, "/cases", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var cases []domain.Case
	s.decode(rec, &cases)
	s.Len(cases, 2)
}

func (s *ServerSuite) TestMetricsAndCORS() {
	s.do(http.MethodPost, "/process_debt?case_id=C-1&amount=10&age=1&dca_name=Apex", "")
	rec := s.do(http.MethodGet, "/metrics", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "dca_allocations_total 1")

	req := httptest.NewRequest(http.MethodOptions, "/score", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	out := httptest.NewRecorder()
	s.router.ServeHTTP(out, req)
	s.Equal("http://localhost:3000", out.Header().Get("Access-Control-Allow-Origin"))
}
