package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/netutil"

	"intellectdca/internal/adapters/csvcases"
	httpadapter "intellectdca/internal/adapters/http"
	"intellectdca/internal/adapters/memory"
	pg "intellectdca/internal/adapters/postgres"
	"intellectdca/internal/audit"
	"intellectdca/internal/config"
	"intellectdca/internal/metrics"
	"intellectdca/internal/platform/logger"
	"intellectdca/internal/ports"
	"intellectdca/internal/scoring"
	"intellectdca/internal/services/allocation"
	"intellectdca/internal/services/sweep"
	"intellectdca/internal/sla"
	"intellectdca/internal/workers/reallocrunner"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := clockwork.NewRealClock()
	m := metrics.New(prometheus.DefaultRegisterer)

	scorer := scoring.NewDefault()
	evaluator := sla.New(sla.WithClock(clock), sla.WithThresholdHours(cfg.SLAThresholdHours))
	recorder := audit.NewRecorder(clock)

	cases := memory.NewCaseBook()
	trail := memory.NewAuditTrail()
	if cfg.CasesCSV != "" {
		n, err := seedCases(ctx, cfg.CasesCSV, cfg.DCARoster, scorer, cases, clock.Now())
		if err != nil {
			return fmt.Errorf("seed cases: %w", err)
		}
		log.Info("case book seeded", "path", cfg.CasesCSV, "cases", n)
	}

	// Reallocation jobs survive restarts only when a database is configured.
	var queue ports.ReallocationQueue = memory.NewJobQueue()
	if cfg.DatabaseURL != "" {
		db, err := pg.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		queue = db
		log.Info("using postgres reallocation queue")
	} else {
		log.Warn("DATABASE_URL not set, reallocation queue is in-memory")
	}

	allocator := allocation.New(scorer, recorder, cases, trail, clock, log, m)
	sweeper := sweep.New(evaluator, recorder, cases, trail, queue, cfg.SweepConcurrency, log, m)
	processor := reallocrunner.RosterProcessor{
		Roster:   cfg.DCARoster,
		Cases:    cases,
		Trail:    trail,
		Recorder: recorder,
		Clock:    clock,
		Metrics:  m,
	}

	srv := httpadapter.New(httpadapter.Deps{
		Scorer:         scorer,
		Evaluator:      evaluator,
		Recorder:       recorder,
		Trail:          trail,
		Cases:          cases,
		Jobs:           queue,
		Allocator:      allocator,
		Sweeper:        sweeper,
		Metrics:        m,
		MetricsHandler: promhttp.Handler(),
		CORSOrigins:    cfg.CORSOrigins,
		Log:            log,
	})
	r := chi.NewRouter()
	r.Mount("/", srv.Routes())

	// background sweeps and reallocation workers
	go sweeper.Run(ctx, cfg.SweepInterval)
	reallocrunner.Run(ctx, queue, processor, cfg.ReallocWorkers, cfg.ReallocPollInterval, log, m)
	log.Info("workers started", "sweep_interval", cfg.SweepInterval, "realloc_workers", cfg.ReallocWorkers)

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return err
	}
	if cfg.MaxConns > 0 {
		ln = netutil.LimitListener(ln, cfg.MaxConns)
	}
	httpSrv := &http.Server{Handler: r, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.Serve(ln) }()
	log.Info("listening", "addr", cfg.ListenAddr, "env", cfg.Env)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// seedCases loads the synthetic dataset into the case book, assigning owners
// round-robin from the roster.
func seedCases(ctx context.Context, path string, roster []string, scorer *scoring.Scorer, cases ports.CaseRepository, now time.Time) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	rows, err := csvcases.Read(f)
	if err != nil {
		return 0, err
	}
	for i, row := range rows {
		c := row.Case(now, roster[i%len(roster)])
		c.PriorityScore = scorer.Score(c.Metadata())
		if err := cases.Upsert(ctx, c); err != nil {
			return i, err
		}
	}
	return len(rows), nil
}
