// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/loanguard/internal/adapters/repository"
	"github.com/okian/loanguard/internal/domain/model"
	"github.com/okian/loanguard/internal/domain/risk"
	"github.com/okian/loanguard/internal/evaluation"
	"github.com/okian/loanguard/internal/simulation"
	"github.com/okian/loanguard/pkg/logger"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ScoreDependencies
	PredictDependencies
	EvaluateDependencies
	FixtureDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	scoreHandler    *ScoreHandler
	predictHandler  *PredictHandler
	adminHandler    *AdminHandler
	fixturesHandler *FixturesHandler
	corsOrigins     []string
	logger          logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithCORSOrigins sets the allowed CORS origins. "*" allows any origin.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithLogger enables request logging through l.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		scoreHandler:    NewScoreHandler(deps),
		predictHandler:  NewPredictHandler(deps),
		adminHandler:    NewAdminHandler(deps),
		fixturesHandler: NewFixturesHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/score", MetricsMiddleware(s.scoreHandler.HandleScore, "score"))
	mux.HandleFunc("/predict", MetricsMiddleware(s.predictHandler.HandlePredict, "predict"))
	mux.HandleFunc("/admin/evaluate", MetricsMiddleware(s.adminHandler.HandleEvaluate, "admin_evaluate"))
	mux.HandleFunc("/admin/retrain", MetricsMiddleware(s.adminHandler.HandleRetrain, "admin_retrain"))
	mux.HandleFunc("/fixtures", MetricsMiddleware(s.fixturesHandler.HandleList, "fixtures"))
	mux.HandleFunc("/fixtures/", MetricsMiddleware(s.fixturesHandler.HandleScore, "fixture_score"))
}

// Handler wraps next with request IDs, optional request logging and CORS, in
// that order.
func (s *Server) Handler(next http.Handler) http.Handler {
	h := CORSMiddleware(s.corsOrigins)(next)
	if s.logger != nil {
		h = LoggingMiddleware(s.logger)(h)
	}
	return RequestIDMiddleware(h)
}

type errorResponse struct {
	Success   bool   `json:"success"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{
		Code:      code,
		Message:   msg,
		RequestID: RequestIDFrom(r.Context()),
	})
}

// statusFor maps domain errors to an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrMalformedInput),
		errors.Is(err, ErrBadRequest),
		errors.Is(err, simulation.ErrUnknownProfile),
		errors.Is(err, simulation.ErrInvalidMonths),
		errors.Is(err, evaluation.ErrInvalidRequest),
		errors.Is(err, repository.ErrInvalidName):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, risk.ErrClassifierContract):
		return http.StatusBadGateway, "classifier_contract"
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrNotImplemented):
		return http.StatusNotImplemented, "not_implemented"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	writeError(w, r, status, code, err)
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return nil
}
