package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/oapi-codegen/runtime"

	"intellectdca/internal/domain"
	"intellectdca/internal/metrics"
	"intellectdca/internal/ports"
	"intellectdca/internal/scoring"
)

const systemName = "Intellect-DCA"

// Explainer scores case metadata and reports the per-factor breakdown.
type Explainer interface {
	Explain(md domain.CaseMetadata) scoring.Breakdown
}

// Deps are the collaborators the HTTP layer routes to.
type Deps struct {
	Scorer         Explainer
	Evaluator      ports.SLAEvaluator
	Recorder       ports.AuditRecorder
	Trail          ports.AuditTrail
	Cases          ports.CaseRepository
	Jobs           ports.ReallocationQueue
	Allocator      ports.Allocator
	Sweeper        ports.Sweeper
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	CORSOrigins    []string
	Log            *slog.Logger
}

type Server struct {
	d Deps
}

func New(d Deps) *Server { return &Server{d: d} }

// Routes returns a chi.Router with every endpoint mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.d.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(s.requestLogger)

	r.Get("/", s.health)
	r.Get("/healthz", s.health)
	r.Post("/process_debt", s.processDebt)
	r.Post("/score", s.score)
	r.Post("/sla/evaluate", s.evaluateSLA)
	r.Post("/sla/sweep", s.sweep)
	r.Post("/audit", s.recordAudit)
	r.Get("/audit", s.listAudit)
	r.Get("/cases", s.listCases)
	r.Get("/cases/{id}", s.getCase)
	// a case check is a scan: it signs a SCANNED record and may queue a
	// reallocation, so it is not a GET
	r.Post("/cases/{id}/sla", s.caseSLA)
	r.Get("/jobs/{id}", s.getJob)
	if s.d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", s.d.MetricsHandler)
	}
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "active", "system": systemName})
}

// processDebt keeps the dashboard's query-string contract:
// POST /process_debt?case_id=..&amount=..&age=..&dca_name=..
func (s *Server) processDebt(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var req ports.AllocateRequest
	binds := []struct {
		name     string
		required bool
		dest     any
	}{
		{"case_id", true, &req.CaseID},
		{"amount", true, &req.Amount},
		{"age", true, &req.AgeDays},
		{"dca_name", true, &req.DCAName},
		{"dca_success_rate", false, &req.DCASuccessRate},
	}
	for _, b := range binds {
		if err := runtime.BindQueryParameter("form", true, b.required, b.name, q, b.dest); err != nil {
			s.writeError(w, r, badInput(err.Error()))
			return
		}
	}

	alloc, err := s.d.Allocator.Allocate(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, alloc)
}

type scoreResponse struct {
	PriorityScore domain.PriorityScore `json:"priority_score"`
	Breakdown     scoring.Breakdown    `json:"breakdown"`
}

func (s *Server) score(w http.ResponseWriter, r *http.Request) {
	var md domain.CaseMetadata
	if !s.decode(w, r, &md) {
		return
	}
	if md.Amount < 0 || md.AgeDays < 0 {
		s.writeError(w, r, badInput("amount and age_days must be non-negative"))
		return
	}
	if md.DCASuccessRate != nil && (*md.DCASuccessRate < 0 || *md.DCASuccessRate > 1) {
		s.writeError(w, r, badInput("dca_success_rate must be within [0,1]"))
		return
	}
	b := s.d.Scorer.Explain(md)
	writeJSON(w, http.StatusOK, scoreResponse{PriorityScore: b.Score, Breakdown: b})
}

type evaluateRequest struct {
	LastUpdateTime *time.Time `json:"last_update_time"`
}

func (s *Server) evaluateSLA(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.LastUpdateTime == nil {
		s.writeError(w, r, badInput("last_update_time is required"))
		return
	}
	writeJSON(w, http.StatusOK, s.d.Evaluator.Evaluate(*req.LastUpdateTime))
}

func (s *Server) sweep(w http.ResponseWriter, r *http.Request) {
	report, err := s.d.Sweeper.Sweep(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type auditRequest struct {
	CaseID string `json:"case_id"`
	Owner  string `json:"owner"`
	Action string `json:"action"`
}

func (s *Server) recordAudit(w http.ResponseWriter, r *http.Request) {
	var req auditRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.CaseID) == "" || strings.TrimSpace(req.Owner) == "" || strings.TrimSpace(req.Action) == "" {
		s.writeError(w, r, badInput("case_id, owner and action are required"))
		return
	}
	rec := s.d.Recorder.CreateRecord(req.CaseID, req.Owner, req.Action)
	if err := s.d.Trail.Append(r.Context(), rec); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.d.Metrics.IncrementAudit(rec.Status)
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) listAudit(w http.ResponseWriter, r *http.Request) {
	recs, err := s.d.Trail.List(r.Context(), r.URL.Query().Get("case_id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) listCases(w http.ResponseWriter, r *http.Request) {
	cases, err := s.d.Cases.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cases)
}

func (s *Server) getCase(w http.ResponseWriter, r *http.Request) {
	c, err := s.d.Cases.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) caseSLA(w http.ResponseWriter, r *http.Request) {
	v, err := s.d.Sweeper.CheckCase(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.d.Jobs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, r, badInput("invalid JSON body: "+err.Error()))
		return false
	}
	return true
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.d.Log.DebugContext(r.Context(), "http request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, ports.ErrBadInput):
		code = http.StatusBadRequest
	case errors.Is(err, ports.ErrNotFound):
		code = http.StatusNotFound
	default:
		s.d.Log.ErrorContext(r.Context(), "request failed",
			"request_id", middleware.GetReqID(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func badInput(msg string) error { return &inputError{msg: msg} }

type inputError struct{ msg string }

func (e *inputError) Error() string { return e.msg }
func (e *inputError) Unwrap() error { return ports.ErrBadInput }

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
