// Package risk turns classifier output into a lending decision: a risk tier,
// a blended default probability and a recommendation.
package risk

import (
	"fmt"
	"math"
	"strconv"

	"github.com/okian/loanguard/internal/domain/features"
)

// Default decision policy.
const (
	DefaultSeverityLow      = 5.0
	DefaultSeverityMedium   = 25.0
	DefaultSeverityHigh     = 80.0
	DefaultReducedFraction  = 0.5
	DefaultSimplexTolerance = 1e-6

	maxSeverity = 100.0
)

// Fixed recommendation texts.
const (
	RecommendApprove = "Approve loan at requested amount"
	RecommendReject  = "Reject loan application"
)

// Result is the outcome of one scoring call. It is built fresh per call.
type Result struct {
	RiskClass          Class               `json:"risk_class"`
	DefaultProbability float64             `json:"default_probability"`
	Indicator          string              `json:"indicator,omitempty"`
	Recommendation     string              `json:"recommendation"`
	ApprovedFraction   float64             `json:"approved_fraction"`
	Probabilities      [NumClasses]float64 `json:"class_probabilities"`
	Features           features.Vector     `json:"features"`
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithSeverityWeights sets the per-tier default probability, in percentage
// points, that the class probabilities are blended with.
func WithSeverityWeights(low, medium, high float64) Option {
	return func(e *Engine) {
		e.severity = [NumClasses]float64{low, medium, high}
	}
}

// WithReducedFraction sets the share of the requested amount approved for
// Medium Risk borrowers.
func WithReducedFraction(f float64) Option {
	return func(e *Engine) {
		e.reducedFraction = f
	}
}

// WithSimplexTolerance sets how far the probability sum may drift from 1.
func WithSimplexTolerance(tol float64) Option {
	return func(e *Engine) {
		e.tolerance = tol
	}
}

// Engine is a stateless decision function; it is safe for concurrent use.
type Engine struct {
	severity        [NumClasses]float64
	reducedFraction float64
	tolerance       float64
}

// NewEngine creates an engine and validates its policy. Severity weights must
// lie in [0, 100] and not decrease with the tier, which keeps the blended
// probability bounded and monotone in the high-risk mass.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		severity:        [NumClasses]float64{DefaultSeverityLow, DefaultSeverityMedium, DefaultSeverityHigh},
		reducedFraction: DefaultReducedFraction,
		tolerance:       DefaultSimplexTolerance,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.validate(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) validate() error {
	for i, w := range e.severity {
		if math.IsNaN(w) || w < 0 || w > maxSeverity {
			return fmt.Errorf("%w: severity weight for %s must be in [0,100], got %v", ErrInvalidPolicy, Class(i), w)
		}
		if i > 0 && w < e.severity[i-1] {
			return fmt.Errorf("%w: severity weights must not decrease with tier", ErrInvalidPolicy)
		}
	}
	if math.IsNaN(e.reducedFraction) || e.reducedFraction <= 0 || e.reducedFraction >= 1 {
		return fmt.Errorf("%w: reduced fraction must be in (0,1), got %v", ErrInvalidPolicy, e.reducedFraction)
	}
	if math.IsNaN(e.tolerance) || e.tolerance <= 0 || e.tolerance >= 1 {
		return fmt.Errorf("%w: simplex tolerance must be in (0,1), got %v", ErrInvalidPolicy, e.tolerance)
	}
	return nil
}

// SeverityWeights returns the configured per-tier weights.
func (e *Engine) SeverityWeights() [NumClasses]float64 { return e.severity }

// Decide maps a predicted class and its probability simplex to a Result.
func (e *Engine) Decide(vec features.Vector, classID int, probs []float64) (Result, error) {
	class, err := ClassFromID(classID)
	if err != nil {
		return Result{}, err
	}
	if err := e.checkSimplex(probs); err != nil {
		return Result{}, err
	}

	fraction, recommendation := e.recommend(class)
	res := Result{
		RiskClass:          class,
		DefaultProbability: e.DefaultProbability(probs),
		Indicator:          class.Indicator(),
		Recommendation:     recommendation,
		ApprovedFraction:   fraction,
		Features:           vec,
	}
	copy(res.Probabilities[:], probs)
	return res, nil
}

// DefaultProbability blends a valid simplex with the severity weights and
// rounds to one decimal place. Callers must validate probs first.
func (e *Engine) DefaultProbability(probs []float64) float64 {
	var pd float64
	for i, p := range probs {
		pd += p * e.severity[i]
	}
	return math.Round(pd*10) / 10
}

func (e *Engine) checkSimplex(probs []float64) error {
	if len(probs) != NumClasses {
		return fmt.Errorf("%w: expected %d class probabilities, got %d", ErrClassifierContract, NumClasses, len(probs))
	}
	var sum float64
	for i, p := range probs {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("%w: probability %d is not finite", ErrClassifierContract, i)
		}
		if p < 0 {
			return fmt.Errorf("%w: probability %d is negative (%v)", ErrClassifierContract, i, p)
		}
		sum += p
	}
	if math.Abs(sum-1) > e.tolerance {
		return fmt.Errorf("%w: probabilities sum to %v, not 1", ErrClassifierContract, sum)
	}
	return nil
}

func (e *Engine) recommend(c Class) (float64, string) {
	switch c {
	case Low:
		return 1, RecommendApprove
	case Medium:
		pct := strconv.FormatFloat(e.reducedFraction*100, 'f', -1, 64)
		return e.reducedFraction, "Approve reduced loan amount (e.g., " + pct + "% of request)"
	default:
		return 0, RecommendReject
	}
}
