package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/loanguard/internal/domain/risk"
)

// FixtureDependencies lists and scores stored borrower fixtures.
type FixtureDependencies interface {
	Fixtures(ctx context.Context) ([]string, error)
	ScoreFixture(ctx context.Context, name string) (risk.Result, error)
}

// FixturesHandler handles fixture requests.
type FixturesHandler struct {
	deps FixtureDependencies
}

// NewFixturesHandler creates a new fixtures handler.
func NewFixturesHandler(deps FixtureDependencies) *FixturesHandler {
	return &FixturesHandler{deps: deps}
}

type fixtureListResponse struct {
	Fixtures []string `json:"fixtures"`
}

type fixtureScoreResponse struct {
	Name   string      `json:"name"`
	Result risk.Result `json:"result"`
}

// HandleList handles GET /fixtures requests.
func (h *FixturesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_fixtures"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	names, err := h.deps.Fixtures(r.Context())
	if err != nil {
		writeDomainError(w, r, Wrap(op, err))
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, fixtureListResponse{Fixtures: names})
}

// HandleScore handles GET /fixtures/{name} requests.
func (h *FixturesHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.score_fixture"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/fixtures/")
	if name == "" || strings.Contains(name, "/") {
		writeError(w, r, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	res, err := h.deps.ScoreFixture(r.Context(), name)
	if err != nil {
		writeDomainError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, fixtureScoreResponse{Name: name, Result: res})
}
