package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okian/loanguard/internal/domain/model"
	"github.com/okian/loanguard/internal/domain/risk"
)

// ScoreDependencies scores a borrower record.
type ScoreDependencies interface {
	Score(ctx context.Context, rec model.BorrowerRecord) (risk.Result, error)
}

// ScoreHandler handles score requests.
type ScoreHandler struct {
	deps ScoreDependencies
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(deps ScoreDependencies) *ScoreHandler {
	return &ScoreHandler{deps: deps}
}

// HandleScore handles POST /score requests.
func (h *ScoreHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.score"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req scoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	rec, err := req.record()
	if err != nil {
		writeDomainError(w, r, Wrap(op, err))
		return
	}
	if req.RequestedAmount != nil && req.RequestedAmount.IsNegative() {
		writeError(w, r, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, fmt.Errorf("negative requested_amount %s", req.RequestedAmount)))
		return
	}

	res, err := h.deps.Score(r.Context(), rec)
	if err != nil {
		writeDomainError(w, r, Wrap(op, err))
		return
	}

	out := scoreResult{Result: res}
	if req.RequestedAmount != nil {
		approved := req.RequestedAmount.Mul(decimal.NewFromFloat(res.ApprovedFraction)).Round(2)
		out.ApprovedAmount = &approved
	}
	writeJSON(w, http.StatusOK, scoreResponse{
		Success:   true,
		RequestID: RequestIDFrom(r.Context()),
		Result:    out,
	})
}

type transactionDTO struct {
	Date     string           `json:"date"`
	Amount   *decimal.Decimal `json:"amount"`
	Type     string           `json:"type"`
	Category string           `json:"category,omitempty"`
}

type repaymentDTO struct {
	LoanID   string `json:"loan_id,omitempty"`
	DueDate  string `json:"due_date,omitempty"`
	PaidDate string `json:"paid_date,omitempty"`
	Status   string `json:"status"`
}

type scoreRequest struct {
	Transactions    []transactionDTO `json:"transactions"`
	Repayments      []repaymentDTO   `json:"repayments"`
	RequestedAmount *decimal.Decimal `json:"requested_amount,omitempty"`
}

type scoreResult struct {
	risk.Result
	ApprovedAmount *decimal.Decimal `json:"approved_amount,omitempty"`
}

type scoreResponse struct {
	Success   bool        `json:"success"`
	RequestID string      `json:"request_id,omitempty"`
	Result    scoreResult `json:"result"`
}

// dateLayouts are the accepted wire formats for dates, tried in order.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable date %q", model.ErrMalformedInput, s)
}

func parseOptionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// record converts the wire payload into a validated BorrowerRecord.
func (req scoreRequest) record() (model.BorrowerRecord, error) {
	rec := model.BorrowerRecord{
		Transactions: make([]model.Transaction, 0, len(req.Transactions)),
		Repayments:   make([]model.Repayment, 0, len(req.Repayments)),
	}
	for i, t := range req.Transactions {
		if strings.TrimSpace(t.Date) == "" {
			return rec, fmt.Errorf("transactions[%d]: %w: missing date", i, model.ErrMalformedInput)
		}
		date, err := parseDate(t.Date)
		if err != nil {
			return rec, fmt.Errorf("transactions[%d]: %w", i, err)
		}
		if t.Amount == nil {
			return rec, fmt.Errorf("transactions[%d]: %w: missing amount", i, model.ErrMalformedInput)
		}
		typ, err := model.ParseTransactionType(t.Type)
		if err != nil {
			return rec, fmt.Errorf("transactions[%d]: %w", i, err)
		}
		rec.Transactions = append(rec.Transactions, model.Transaction{
			Date:     date,
			Amount:   *t.Amount,
			Type:     typ,
			Category: t.Category,
		})
	}
	for i, rp := range req.Repayments {
		status, err := model.ParseRepaymentStatus(rp.Status)
		if err != nil {
			return rec, fmt.Errorf("repayments[%d]: %w", i, err)
		}
		due, err := parseOptionalDate(rp.DueDate)
		if err != nil {
			return rec, fmt.Errorf("repayments[%d].due_date: %w", i, err)
		}
		paid, err := parseOptionalDate(rp.PaidDate)
		if err != nil {
			return rec, fmt.Errorf("repayments[%d].paid_date: %w", i, err)
		}
		rec.Repayments = append(rec.Repayments, model.Repayment{
			LoanID:   rp.LoanID,
			DueDate:  due,
			PaidDate: paid,
			Status:   status,
		})
	}
	return rec, rec.Validate()
}
