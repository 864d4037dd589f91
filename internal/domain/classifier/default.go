package classifier

import "github.com/okian/loanguard/internal/domain/features"

// DefaultParams returns the parameters of the built-in model, tuned by hand
// against the simulated borrower profiles. Class order is Low, Medium, High.
// The missed_repayments and repayment_rate rows are ordered by tier so that
// more missed payments never lower the blended default probability.
func DefaultParams() Params {
	return Params{
		Version:    "builtin-2025.06",
		Features:   features.Names(),
		Mean:       []float64{12000, 11000, 500, 0.10, 0.10, 200, 0.80, 2, 24},
		Scale:      []float64{6000, 6000, 2000, 0.20, 0.10, 250, 0.15, 2, 12},
		Intercepts: []float64{0.5, 0.0, -0.5},
		Weights: [][]float64{
			{0.30, 0, 0.40, -1.50, 1.00, -0.50, 1.00, -0.80, 0},
			{0.00, 0, 0.00, 0.00, 0.00, 1.20, 0.00, 0.20, 0},
			{-0.30, 0, -0.40, 2.00, -1.00, 0.30, -1.00, 1.00, 0},
		},
	}
}
