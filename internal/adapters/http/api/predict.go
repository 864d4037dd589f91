package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/loanguard/internal/domain/risk"
	"github.com/okian/loanguard/internal/simulation"
)

// PredictDependencies scores a simulated borrower of a named profile.
type PredictDependencies interface {
	ScoreProfile(ctx context.Context, profile string, months int) (risk.Result, error)
}

// PredictHandler handles predict requests.
type PredictHandler struct {
	deps PredictDependencies
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps PredictDependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

type predictRequest struct {
	Profile string `json:"profile"`
	Months  int    `json:"months,omitempty"`
}

type predictResponse struct {
	RiskClass          risk.Class `json:"risk_class"`
	DefaultProbability float64    `json:"default_probability"`
	Indicator          string     `json:"indicator,omitempty"`
	Recommendation     string     `json:"recommendation"`
}

// HandlePredict handles POST /predict requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req predictRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	profile := strings.TrimSpace(req.Profile)
	if profile == "" || req.Months < 0 || req.Months > simulation.MaxMonths {
		writeError(w, r, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	res, err := h.deps.ScoreProfile(r.Context(), profile, req.Months)
	if err != nil {
		writeDomainError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, predictResponse{
		RiskClass:          res.RiskClass,
		DefaultProbability: res.DefaultProbability,
		Indicator:          res.Indicator,
		Recommendation:     res.Recommendation,
	})
}
