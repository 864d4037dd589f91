// Package features turns a borrower's history into the fixed-order numeric
// vector consumed by the classifier.
package features

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/okian/loanguard/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Feature names in vector order. Classifier artifacts are keyed on this order.
const (
	TotalIncome      = "total_income"
	TotalExpense     = "total_expense"
	NetCashflow      = "net_cashflow"
	GamblingRatio    = "gambling_ratio"
	SavingsRatio     = "savings_ratio"
	IncomeStd        = "income_std"
	RepaymentRate    = "repayment_rate"
	MissedRepayments = "missed_repayments"
	TotalLoans       = "total_loans"
)

// Count is the vector length.
const Count = 9

var names = [Count]string{
	TotalIncome,
	TotalExpense,
	NetCashflow,
	GamblingRatio,
	SavingsRatio,
	IncomeStd,
	RepaymentRate,
	MissedRepayments,
	TotalLoans,
}

// Names returns the feature names in vector order.
func Names() []string {
	out := make([]string, Count)
	copy(out, names[:])
	return out
}

// Vector is an immutable, ordered set of named features.
type Vector struct {
	values [Count]float64
}

// Values returns a copy of the feature values in vector order.
func (v Vector) Values() []float64 {
	out := make([]float64, Count)
	copy(out, v.values[:])
	return out
}

// Get returns the value of the named feature.
func (v Vector) Get(name string) (float64, bool) {
	for i, n := range names {
		if n == name {
			return v.values[i], true
		}
	}
	return 0, false
}

// MarshalJSON writes the vector as an object whose keys keep vector order.
func (v Vector) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, n := range names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(n)
		val, err := json.Marshal(v.values[i])
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", n, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// FromValues builds a Vector from raw values in vector order.
func FromValues(values []float64) (Vector, error) {
	if len(values) != Count {
		return Vector{}, fmt.Errorf("expected %d feature values, got %d", Count, len(values))
	}
	var v Vector
	copy(v.values[:], values)
	return v, nil
}

// Extract computes the feature vector for a borrower record. It validates the
// record first and falls back to neutral values for empty histories.
func Extract(rec model.BorrowerRecord) (Vector, error) {
	if err := rec.Validate(); err != nil {
		return Vector{}, fmt.Errorf("extract features: %w", err)
	}

	var (
		income   = decimal.Zero
		expense  = decimal.Zero
		gambling = decimal.Zero
		savings  = decimal.Zero
		incomes  = make([]float64, 0, len(rec.Transactions))
	)
	for _, t := range rec.Transactions {
		switch t.Type {
		case model.TransactionIncome:
			income = income.Add(t.Amount)
			incomes = append(incomes, t.Amount.InexactFloat64())
		case model.TransactionExpense:
			expense = expense.Add(t.Amount)
			switch t.Category {
			case model.CategoryGambling:
				gambling = gambling.Add(t.Amount)
			case model.CategorySavings:
				savings = savings.Add(t.Amount)
			}
		}
	}

	var onTime, missed int
	for _, r := range rec.Repayments {
		switch r.Status {
		case model.RepaymentOnTime:
			onTime++
		case model.RepaymentMissed:
			missed++
		}
	}
	loans := len(rec.Repayments)

	repaymentRate := 1.0
	if loans > 0 {
		repaymentRate = float64(onTime) / float64(loans)
	}

	var v Vector
	v.values = [Count]float64{
		income.InexactFloat64(),
		expense.InexactFloat64(),
		income.Sub(expense).InexactFloat64(),
		ratio(gambling, expense),
		ratio(savings, income),
		populationStd(incomes),
		repaymentRate,
		float64(missed),
		float64(loans),
	}
	for i, x := range v.values {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return Vector{}, fmt.Errorf("extract features: %w: %s is not finite", model.ErrMalformedInput, names[i])
		}
	}
	return v, nil
}

// ratio returns num/den, or 0 when den is zero.
func ratio(num, den decimal.Decimal) float64 {
	if den.IsZero() {
		return 0
	}
	return num.InexactFloat64() / den.InexactFloat64()
}

// populationStd divides by n, not n-1.
func populationStd(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)))
}
