package api

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/eventdraw/internal/domain/types"
)

// SessionsHandler handles the /sessions routes.
type SessionsHandler struct {
	deps SessionDependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps SessionDependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// HandleCollection handles GET and POST /sessions.
func (h *SessionsHandler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	const op = "api.sessions"
	switch r.Method {
	case http.MethodGet:
		list, err := h.deps.ListSessions(r.Context())
		if err != nil {
			writeFailure(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		var req types.CreateSessionRequest
		if err := decode(r, &req, true); err != nil {
			writeFailure(w, Wrap(op, err))
			return
		}
		info, err := h.deps.CreateSession(r.Context(), req)
		if err != nil {
			writeFailure(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusCreated, info)
	default:
		methodNotAllowed(w, "api.sessions", http.MethodGet, http.MethodPost)
	}
}

// HandleSession handles /sessions/import and /sessions/{id}[/{action}].
func (h *SessionsHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.session"
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/sessions/"), "/")
	if path == "" {
		writeFailure(w, NewKind(op, ErrUnknownRoute))
		return
	}
	if path == "import" {
		h.handleImport(w, r)
		return
	}

	id, action, _ := strings.Cut(path, "/")
	if strings.Contains(action, "/") {
		writeFailure(w, NewKind(op, ErrUnknownRoute))
		return
	}

	route := r.Method + " " + action
	switch route {
	case "GET ":
		h.handleGet(w, r, id)
	case "DELETE ":
		h.handleDelete(w, r, id)
	case "POST draw":
		h.handleDraw(w, r, id)
	case "POST init":
		h.handleInit(w, r, id)
	case "PUT strategy", "POST strategy":
		h.handleStrategy(w, r, id)
	case "POST reset":
		h.handleReset(w, r, id)
	case "GET stats":
		h.handleStats(w, r, id)
	case "GET weights":
		h.handleWeights(w, r, id)
	case "GET journal":
		h.handleJournal(w, r, id)
	case "GET config":
		h.handleConfig(w, r, id)
	default:
		switch action {
		case "", "draw", "init", "strategy", "reset", "stats", "weights", "journal", "config":
			writeFailure(w, NewKind(op, ErrMethodNotAllowed))
		default:
			writeFailure(w, NewKind(op, ErrUnknownRoute))
		}
	}
}

func (h *SessionsHandler) handleImport(w http.ResponseWriter, r *http.Request) {
	const op = "api.import_session"
	if r.Method != http.MethodPost {
		writeFailure(w, NewKind(op, ErrMethodNotAllowed))
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	info, err := h.deps.ImportSession(r.Context(), data)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (h *SessionsHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	info, err := h.deps.Session(r.Context(), id)
	if err != nil {
		writeFailure(w, Wrap("api.get_session", err))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *SessionsHandler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.deps.DeleteSession(r.Context(), id); err != nil {
		writeFailure(w, Wrap("api.delete_session", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionsHandler) handleDraw(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.draw"
	var req types.DrawRequest
	if err := decode(r, &req, false); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	res, err := h.deps.Draw(r.Context(), id, req)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *SessionsHandler) handleInit(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.init"
	var req types.InitRequest
	if err := decode(r, &req, false); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	info, err := h.deps.InitPool(r.Context(), id, req)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *SessionsHandler) handleStrategy(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.strategy"
	var req types.StrategyRequest
	if err := decode(r, &req, false); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	res, err := h.deps.SetStrategy(r.Context(), id, req)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *SessionsHandler) handleReset(w http.ResponseWriter, r *http.Request, id string) {
	info, err := h.deps.Reset(r.Context(), id)
	if err != nil {
		writeFailure(w, Wrap("api.reset", err))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *SessionsHandler) handleStats(w http.ResponseWriter, r *http.Request, id string) {
	info, err := h.deps.Session(r.Context(), id)
	if err != nil {
		writeFailure(w, Wrap("api.session_stats", err))
		return
	}
	writeJSON(w, http.StatusOK, info.Stats)
}

func (h *SessionsHandler) handleWeights(w http.ResponseWriter, r *http.Request, id string) {
	res, err := h.deps.Weights(r.Context(), id)
	if err != nil {
		writeFailure(w, Wrap("api.weights", err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *SessionsHandler) handleJournal(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.journal"
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeFailure(w, NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}
	entries, err := h.deps.Journal(r.Context(), id, limit)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleConfig exports the session parameters as JSON, or YAML with
// ?format=yaml.
func (h *SessionsHandler) handleConfig(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.config"
	snap, err := h.deps.ExportConfig(r.Context(), id)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	switch r.URL.Query().Get("format") {
	case "", "json":
		writeJSON(w, http.StatusOK, snap)
	case "yaml":
		data, err := snap.YAML()
		if err != nil {
			writeFailure(w, Wrap(op, err))
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	default:
		writeFailure(w, NewKind(op, ErrBadRequest))
	}
}
