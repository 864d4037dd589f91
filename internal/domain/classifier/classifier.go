// Package classifier defines the capability the risk pipeline uses to turn a
// feature vector into class predictions, plus a multinomial logistic model
// that implements it.
package classifier

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/loanguard/internal/domain/risk"
)

// Classifier predicts a risk class id in {0,1,2} and the class probability
// simplex for a feature vector. Implementations must be safe for concurrent
// use once constructed.
type Classifier interface {
	// Predict returns the most likely class id.
	Predict(ctx context.Context, x []float64) (int, error)
	// PredictProba returns one probability per class.
	PredictProba(ctx context.Context, x []float64) ([]float64, error)
}

// Params are the learned parameters of a SoftmaxModel. Features are
// standardized as (x-mean)/scale before the linear layer.
type Params struct {
	Version    string      `koanf:"version"`
	Features   []string    `koanf:"features"`
	Mean       []float64   `koanf:"mean"`
	Scale      []float64   `koanf:"scale"`
	Intercepts []float64   `koanf:"intercepts"`
	Weights    [][]float64 `koanf:"weights"` // [class][feature]
}

// Validate checks the parameter shapes against the expected feature order and
// the risk tiers, and rejects non-finite values.
func (p Params) Validate(featureNames []string) error {
	n := len(featureNames)
	if len(p.Features) != n {
		return fmt.Errorf("%w: expected %d features, got %d", ErrInvalidModel, n, len(p.Features))
	}
	for i, name := range featureNames {
		if p.Features[i] != name {
			return fmt.Errorf("%w: feature %d is %q, want %q", ErrInvalidModel, i, p.Features[i], name)
		}
	}
	if len(p.Mean) != n || len(p.Scale) != n {
		return fmt.Errorf("%w: mean/scale must have %d entries", ErrInvalidModel, n)
	}
	for i, s := range p.Scale {
		if !(s > 0) || math.IsInf(s, 0) {
			return fmt.Errorf("%w: scale for %s must be positive", ErrInvalidModel, featureNames[i])
		}
	}
	for i, m := range p.Mean {
		if !finite(m) {
			return fmt.Errorf("%w: mean for %s is not finite", ErrInvalidModel, featureNames[i])
		}
	}
	if len(p.Intercepts) != risk.NumClasses || len(p.Weights) != risk.NumClasses {
		return fmt.Errorf("%w: need %d intercepts and weight rows, got %d and %d",
			ErrInvalidModel, risk.NumClasses, len(p.Intercepts), len(p.Weights))
	}
	for k, b := range p.Intercepts {
		if !finite(b) {
			return fmt.Errorf("%w: intercept %d is not finite", ErrInvalidModel, k)
		}
	}
	for k, row := range p.Weights {
		if len(row) != n {
			return fmt.Errorf("%w: weight row %d has %d entries, want %d", ErrInvalidModel, k, len(row), n)
		}
		for j, w := range row {
			if !finite(w) {
				return fmt.Errorf("%w: weight [%d][%s] is not finite", ErrInvalidModel, k, featureNames[j])
			}
		}
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// SoftmaxModel is a multinomial logistic regression. It is read-only after
// construction.
type SoftmaxModel struct {
	params Params
}

// NewSoftmaxModel validates params against featureNames and builds a model.
func NewSoftmaxModel(params Params, featureNames []string) (*SoftmaxModel, error) {
	if err := params.Validate(featureNames); err != nil {
		return nil, err
	}
	return &SoftmaxModel{params: params}, nil
}

// Version returns the artifact version label.
func (m *SoftmaxModel) Version() string { return m.params.Version }

// Classes returns the number of classes the model predicts.
func (m *SoftmaxModel) Classes() int { return len(m.params.Intercepts) }

// Predict returns the argmax class; ties resolve to the lower id.
func (m *SoftmaxModel) Predict(ctx context.Context, x []float64) (int, error) {
	probs, err := m.PredictProba(ctx, x)
	if err != nil {
		return 0, err
	}
	best := 0
	for k := 1; k < len(probs); k++ {
		if probs[k] > probs[best] {
			best = k
		}
	}
	return best, nil
}

// PredictProba returns softmax class probabilities.
func (m *SoftmaxModel) PredictProba(ctx context.Context, x []float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}
	if len(x) != len(m.params.Features) {
		return nil, fmt.Errorf("%w: expected %d features, got %d", ErrInvalidInput, len(m.params.Features), len(x))
	}

	z := make([]float64, len(x))
	for j, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: feature %s is not finite", ErrInvalidInput, m.params.Features[j])
		}
		z[j] = (v - m.params.Mean[j]) / m.params.Scale[j]
	}

	logits := make([]float64, len(m.params.Intercepts))
	maxLogit := math.Inf(-1)
	for k, b := range m.params.Intercepts {
		l := b
		for j, w := range m.params.Weights[k] {
			l += w * z[j]
		}
		logits[k] = l
		if l > maxLogit {
			maxLogit = l
		}
	}

	var sum float64
	for k, l := range logits {
		logits[k] = math.Exp(l - maxLogit)
		sum += logits[k]
	}
	for k := range logits {
		logits[k] /= sum
	}
	return logits, nil
}
