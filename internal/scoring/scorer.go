package scoring

import (
	"math"

	"intellectdca/internal/domain"
	"intellectdca/internal/platform/rounding"
)

// MaxScore is the upper bound of every priority score.
const MaxScore = 100

// Weights is the weighted linear model behind a priority score. History is
// declared for the three-factor model but is not combined into the score.
type Weights struct {
	DebtAge           float64
	AmountValue       float64
	DCASuccessHistory float64
}

// DefaultWeights returns the enterprise weighting: age 0.5, amount 0.3,
// success history 0.2.
func DefaultWeights() Weights {
	return Weights{DebtAge: 0.5, AmountValue: 0.3, DCASuccessHistory: 0.2}
}

// Breakdown lists the per-factor contributions of a score.
type Breakdown struct {
	AgeContribution    float64              `json:"age_contribution"`
	AmountContribution float64              `json:"amount_contribution"`
	HistoryWeight      float64              `json:"history_weight"`
	Raw                float64              `json:"raw"`
	Score              domain.PriorityScore `json:"score"`
}

// Scorer converts case metadata into a priority score. The zero value is not
// usable; build one with New. Safe for concurrent use.
type Scorer struct {
	w Weights
}

func New(w Weights) *Scorer { return &Scorer{w: w} }

// NewDefault returns a scorer using DefaultWeights.
func NewDefault() *Scorer { return New(DefaultWeights()) }

func (s *Scorer) Weights() Weights { return s.w }

// Score computes age*W_age + amount*W_amount in float64, caps it at MaxScore
// and rounds half-even to two decimals, in that order. There is no lower bound:
// negative inputs simply lower the score.
func (s *Scorer) Score(md domain.CaseMetadata) domain.PriorityScore {
	return s.Explain(md).Score
}

// Explain returns the score together with the contribution of each factor.
func (s *Scorer) Explain(md domain.CaseMetadata) Breakdown {
	age := float64(md.AgeDays) * s.w.DebtAge
	amt := md.Amount * s.w.AmountValue
	raw := age + amt
	return Breakdown{
		AgeContribution:    age,
		AmountContribution: amt,
		HistoryWeight:      s.w.DCASuccessHistory,
		Raw:                raw,
		Score:              domain.PriorityScore(rounding.HalfEven(math.Min(raw, MaxScore), 2)),
	}
}
