// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType separates money flowing in from money flowing out.
type TransactionType string

// Transaction types.
const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// RepaymentStatus is the outcome of a single loan repayment.
type RepaymentStatus string

// Repayment statuses.
const (
	RepaymentOnTime RepaymentStatus = "on_time"
	RepaymentLate   RepaymentStatus = "late"
	RepaymentMissed RepaymentStatus = "missed"
)

// Well-known expense categories that drive features.
const (
	CategoryGambling = "gambling"
	CategorySavings  = "savings"
)

// Transaction is a single cash movement on the borrower's account.
type Transaction struct {
	Date     time.Time       `json:"date"`
	Amount   decimal.Decimal `json:"amount"` // non-negative
	Type     TransactionType `json:"type"`
	Category string          `json:"category,omitempty"` // e.g. "groceries"
}

// Repayment is the record of one installment of a past loan.
type Repayment struct {
	LoanID   string          `json:"loan_id,omitempty"`
	DueDate  *time.Time      `json:"due_date,omitempty"`
	PaidDate *time.Time      `json:"paid_date,omitempty"`
	Status   RepaymentStatus `json:"status"`
}

// BorrowerRecord is the aggregate scored by the pipeline.
type BorrowerRecord struct {
	Transactions []Transaction `json:"transactions"`
	Repayments   []Repayment   `json:"repayments"`
}

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == TransactionIncome || t == TransactionExpense
}

// Valid reports whether s is one of the known repayment statuses.
func (s RepaymentStatus) Valid() bool {
	switch s {
	case RepaymentOnTime, RepaymentLate, RepaymentMissed:
		return true
	}
	return false
}

// ParseTransactionType maps a wire value to a TransactionType.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(strings.ToLower(strings.TrimSpace(s))); t {
	case TransactionIncome, TransactionExpense:
		return t, nil
	case "":
		return "", fmt.Errorf("%w: missing transaction type", ErrMalformedInput)
	default:
		return "", fmt.Errorf("%w: unknown transaction type %q", ErrMalformedInput, s)
	}
}

// ParseRepaymentStatus maps a wire value to a RepaymentStatus.
func ParseRepaymentStatus(s string) (RepaymentStatus, error) {
	switch st := RepaymentStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case RepaymentOnTime, RepaymentLate, RepaymentMissed:
		return st, nil
	case "":
		return "", fmt.Errorf("%w: missing repayment status", ErrMalformedInput)
	default:
		return "", fmt.Errorf("%w: unknown repayment status %q", ErrMalformedInput, s)
	}
}

// Validate checks required fields and amount bounds. Empty sequences are valid.
func (r BorrowerRecord) Validate() error {
	for i, t := range r.Transactions {
		if err := t.validate(); err != nil {
			return fmt.Errorf("transactions[%d]: %w", i, err)
		}
	}
	for i, rp := range r.Repayments {
		if !rp.Status.Valid() {
			return fmt.Errorf("repayments[%d]: %w: invalid status %q", i, ErrMalformedInput, rp.Status)
		}
	}
	return nil
}

func (t Transaction) validate() error {
	if t.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrMalformedInput)
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w: invalid type %q", ErrMalformedInput, t.Type)
	}
	if t.Amount.IsNegative() {
		return fmt.Errorf("%w: negative amount %s", ErrMalformedInput, t.Amount.String())
	}
	if math.IsInf(t.Amount.InexactFloat64(), 0) {
		return fmt.Errorf("%w: amount %s out of range", ErrMalformedInput, t.Amount.String())
	}
	return nil
}
