package simulation

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/loanguard/internal/domain/model"
	"github.com/shopspring/decimal"
)

// MaxMonths bounds the history length a caller may request.
const MaxMonths = 120

// Simulation constants.
const (
	defaultSeed       = 42
	defaultMonths     = 6
	weeksPerMonth     = 4
	expenseShareOfPay = 0.9
	shareNoise        = 0.1
	idleSpendMin      = 100
	idleSpendMax      = 400
	loanTermDays      = 30
	maxLateDays       = 20
	lateVsMissed      = 0.3
	reliabilityJitLo  = 0.9
	reliabilityJitHi  = 1.05
)

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithSeed makes output reproducible for a given seed.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// WithStart sets the date of the first simulated week.
func WithStart(t time.Time) Option {
	return func(g *Generator) {
		if !t.IsZero() {
			g.start = t
		}
	}
}

// WithMonths sets the default history length. Values outside [1, MaxMonths]
// are ignored.
func WithMonths(months int) Option {
	return func(g *Generator) {
		if months > 0 && months <= MaxMonths {
			g.months = months
		}
	}
}

// Generator produces borrower records. It is safe for concurrent use; the
// sequence of records depends on the seed and call order.
type Generator struct {
	mu     sync.Mutex
	rng    *rand.Rand
	seed   int64
	start  time.Time
	months int
}

// NewGenerator creates a generator with configuration options.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		seed:   defaultSeed,
		start:  time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		months: defaultMonths,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.rng = rand.New(rand.NewSource(g.seed)) //nolint:gosec // reproducible synthetic data
	return g
}

// Months returns the default history length.
func (g *Generator) Months() int { return g.months }

// Generate simulates months of weekly activity for the named profile. A
// non-positive months uses the generator default.
func (g *Generator) Generate(profile string, months int) (model.BorrowerRecord, error) {
	p, err := Lookup(profile)
	if err != nil {
		return model.BorrowerRecord{}, err
	}
	if months > MaxMonths {
		return model.BorrowerRecord{}, fmt.Errorf("%w: months must be at most %d, got %d",
			ErrInvalidMonths, MaxMonths, months)
	}
	if months <= 0 {
		months = g.months
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	weeks := months * weeksPerMonth
	rec := model.BorrowerRecord{
		Transactions: make([]model.Transaction, 0, weeks*(1+len(p.Expenses))),
		Repayments:   make([]model.Repayment, 0, weeks),
	}

	date := g.start
	for week := 0; week < weeks; week++ {
		pay := g.income(p, week)
		if pay > 0 {
			rec.Transactions = append(rec.Transactions, model.Transaction{
				Date:   date,
				Amount: decimal.NewFromInt(int64(pay)),
				Type:   model.TransactionIncome,
			})
		}

		spend := float64(pay) * expenseShareOfPay
		if pay == 0 {
			spend = float64(g.between(idleSpendMin, idleSpendMax))
		}
		for _, c := range p.Expenses {
			share := c.Share + g.uniform(-shareNoise, shareNoise)
			if share <= 0 {
				continue
			}
			amt := decimal.NewFromFloat(spend * share).Round(2)
			if !amt.IsPositive() {
				continue
			}
			rec.Transactions = append(rec.Transactions, model.Transaction{
				Date:     date,
				Amount:   amt,
				Type:     model.TransactionExpense,
				Category: c.Category,
			})
		}

		rec.Repayments = append(rec.Repayments, g.repayment(p, week, date))
		date = date.AddDate(0, 0, 7)
	}
	return rec, nil
}

func (g *Generator) income(p Profile, week int) int {
	switch p.Frequency {
	case Weekly:
		return p.IncomeMin
	case Biweekly:
		if week%2 == 0 {
			return p.IncomeMin
		}
		return 0
	case Irregular:
		return g.between(p.IncomeMin, p.IncomeMax)
	default:
		return 0
	}
}

func (g *Generator) repayment(p Profile, week int, issued time.Time) model.Repayment {
	due := issued.AddDate(0, 0, loanTermDays)
	onTime := g.rng.Float64() < p.Reliability*g.uniform(reliabilityJitLo, reliabilityJitHi)

	status := model.RepaymentOnTime
	paid := due
	if !onTime {
		paid = due.AddDate(0, 0, g.between(1, maxLateDays))
		status = model.RepaymentMissed
		if g.rng.Float64() > lateVsMissed {
			status = model.RepaymentLate
		}
	}
	return model.Repayment{
		LoanID:   fmt.Sprintf("LOAN-%d", week),
		DueDate:  &due,
		PaidDate: &paid,
		Status:   status,
	}
}

// between returns an int in [lo, hi].
func (g *Generator) between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + g.rng.Intn(hi-lo+1)
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}
