package api

import (
	"context"
	"net/http"

	"github.com/okian/loanguard/internal/evaluation"
)

// EvaluateDependencies runs a batch evaluation over synthetic borrowers.
type EvaluateDependencies interface {
	Evaluate(ctx context.Context, samplesPerProfile, months int) (evaluation.Report, error)
}

// AdminHandler handles operator endpoints.
type AdminHandler struct {
	deps EvaluateDependencies
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(deps EvaluateDependencies) *AdminHandler {
	return &AdminHandler{deps: deps}
}

type evaluateRequest struct {
	SamplesPerProfile int `json:"samples_per_profile"`
	Months            int `json:"months"`
}

// HandleEvaluate handles POST /admin/evaluate requests.
func (h *AdminHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_evaluate"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req evaluateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	report, err := h.deps.Evaluate(r.Context(), req.SamplesPerProfile, req.Months)
	if err != nil {
		writeDomainError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleRetrain handles POST /admin/retrain. Model training happens offline.
func (h *AdminHandler) HandleRetrain(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_retrain"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	writeDomainError(w, r, NewKind(op, ErrNotImplemented))
}
