// Package simulation generates synthetic borrower histories for demos,
// fixtures and offline evaluation.
package simulation

import (
	"fmt"
	"sort"

	"github.com/okian/loanguard/internal/domain/risk"
)

// IncomeFrequency describes how often a profile gets paid.
type IncomeFrequency string

// Income frequencies.
const (
	Weekly    IncomeFrequency = "weekly"
	Biweekly  IncomeFrequency = "biweekly"
	Irregular IncomeFrequency = "irregular"
)

// Built-in profile names.
const (
	GoodSpender        = "good_spender"
	GamblingSpender    = "gambling_spender"
	InconsistentEarner = "inconsistent_earner"
)

// CategoryShare is the fraction of each period's spending in one category.
type CategoryShare struct {
	Category string
	Share    float64
}

// Profile parameterizes a synthetic borrower.
type Profile struct {
	Name      string
	Frequency IncomeFrequency
	// IncomeMin is the paycheck; Irregular profiles draw from [IncomeMin, IncomeMax].
	IncomeMin   int
	IncomeMax   int
	Expenses    []CategoryShare
	Reliability float64 // chance of paying on time
	Label       risk.Class
}

var profiles = map[string]Profile{
	GoodSpender: {
		Name:      GoodSpender,
		Frequency: Biweekly,
		IncomeMin: 800,
		IncomeMax: 800,
		Expenses: []CategoryShare{
			{"groceries", 0.4}, {"utilities", 0.2}, {"savings", 0.3}, {"entertainment", 0.1},
		},
		Reliability: 0.98,
		Label:       risk.Low,
	},
	GamblingSpender: {
		Name:      GamblingSpender,
		Frequency: Weekly,
		IncomeMin: 600,
		IncomeMax: 600,
		Expenses: []CategoryShare{
			{"gambling", 0.5}, {"food", 0.3}, {"bills", 0.15}, {"other", 0.05},
		},
		Reliability: 0.65,
		Label:       risk.High,
	},
	InconsistentEarner: {
		Name:      InconsistentEarner,
		Frequency: Irregular,
		IncomeMin: 300,
		IncomeMax: 1200,
		Expenses: []CategoryShare{
			{"essentials", 0.7}, {"debt", 0.2}, {"misc", 0.1},
		},
		Reliability: 0.70,
		Label:       risk.Medium,
	},
}

// Profiles returns the built-in profile names in a stable order.
func Profiles() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a built-in profile by name.
func Lookup(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return p, nil
}
