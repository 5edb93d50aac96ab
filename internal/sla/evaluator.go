package sla

import (
	"time"

	"github.com/jonboulle/clockwork"
	"intellectdca/internal/domain"
	"intellectdca/internal/platform/rounding"
)

// DefaultThresholdHours is the standard agency response window.
const DefaultThresholdHours = 48.0

// Evaluator classifies a case's last update against the response window. It
// keeps no history: every call is an independent classification.
type Evaluator struct {
	clock     clockwork.Clock
	threshold float64
}

type Option func(*Evaluator)

// WithClock overrides the wall clock, mostly for tests.
func WithClock(c clockwork.Clock) Option {
	return func(e *Evaluator) { e.clock = c }
}

// WithThresholdHours sets the response window. Non-positive values keep the
// default.
func WithThresholdHours(h float64) Option {
	return func(e *Evaluator) {
		if h > 0 {
			e.threshold = h
		}
	}
}

func New(opts ...Option) *Evaluator {
	e := &Evaluator{clock: clockwork.NewRealClock(), threshold: DefaultThresholdHours}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Evaluator) ThresholdHours() float64 { return e.threshold }

// Evaluate compares lastUpdate against now. A breach carries the overrun in
// hours rounded half-even to one decimal; a last update in the future is compliant.
func (e *Evaluator) Evaluate(lastUpdate time.Time) domain.SLAVerdict {
	hours := e.clock.Since(lastUpdate).Hours()
	if hours <= e.threshold {
		return domain.SLAVerdict{Status: domain.StatusCompliant, Action: domain.ActionNone}
	}
	delay := rounding.HalfEven(hours-e.threshold, 1)
	return domain.SLAVerdict{
		Status:     domain.StatusNonCompliant,
		Action:     domain.ActionAutoReallocate,
		DelayHours: &delay,
	}
}
