// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/okian/eventdraw/internal/adapters/journal"
	repository "github.com/okian/eventdraw/internal/adapters/repository"
	service "github.com/okian/eventdraw/internal/app"
	"github.com/okian/eventdraw/internal/domain/tuning"
	"github.com/okian/eventdraw/internal/domain/types"
)

// maxBodyBytes bounds request bodies. Pools are capped separately by the
// service.
const maxBodyBytes = 4 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SessionDependencies
	CatalogDependencies
}

// SessionDependencies covers the session lifecycle and selection operations.
type SessionDependencies interface {
	CreateSession(ctx context.Context, req types.CreateSessionRequest) (types.SessionInfo, error)
	ImportSession(ctx context.Context, data []byte) (types.SessionInfo, error)
	Session(ctx context.Context, id string) (types.SessionInfo, error)
	ListSessions(ctx context.Context) ([]types.SessionInfo, error)
	DeleteSession(ctx context.Context, id string) error

	Draw(ctx context.Context, id string, req types.DrawRequest) (types.DrawResult, error)
	InitPool(ctx context.Context, id string, req types.InitRequest) (types.SessionInfo, error)
	SetStrategy(ctx context.Context, id string, req types.StrategyRequest) (types.StrategyResult, error)
	Reset(ctx context.Context, id string) (types.SessionInfo, error)

	Weights(ctx context.Context, id string) (types.WeightsResult, error)
	ExportConfig(ctx context.Context, id string) (tuning.Snapshot, error)
	Journal(ctx context.Context, id string, limit int) ([]journal.Entry, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	catalogHandler  *CatalogHandler
	sessionsHandler *SessionsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		catalogHandler:  NewCatalogHandler(deps),
		sessionsHandler: NewSessionsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/presets", MetricsMiddleware(s.catalogHandler.HandlePresets, "presets"))
	mux.HandleFunc("/scenarios", MetricsMiddleware(s.catalogHandler.HandleScenarios, "scenarios"))
	mux.HandleFunc("/catalog", MetricsMiddleware(s.catalogHandler.HandleCatalog, "catalog"))
	mux.HandleFunc("/sessions", MetricsMiddleware(s.sessionsHandler.HandleCollection, "sessions"))
	mux.HandleFunc("/sessions/", MetricsMiddleware(s.sessionsHandler.HandleSession, "session"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure translates upstream errors to a status code.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, ErrUnknownRoute):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, ErrMethodNotAllowed):
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", err)
	case errors.Is(err, repository.ErrCapacity):
		writeError(w, http.StatusConflict, "capacity", err)
	case errors.Is(err, service.ErrJournalDisabled):
		writeError(w, http.StatusNotImplemented, "journal_disabled", err)
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, repository.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// methodNotAllowed answers 405 for a known route, advertising the methods it
// serves.
func methodNotAllowed(w http.ResponseWriter, op string, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeFailure(w, NewKind(op, ErrMethodNotAllowed))
}

// decode reads a JSON body into v, rejecting unknown fields. An empty body
// leaves v untouched when allowEmpty is set.
func decode(r *http.Request, v any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}
