package api

import (
	"context"
	"net/http"

	"github.com/okian/eventdraw/internal/domain/types"
)

// CatalogDependencies lists the tunable surface.
type CatalogDependencies interface {
	Catalog(ctx context.Context) types.Catalog
}

// CatalogHandler serves presets, scenarios and tunables.
type CatalogHandler struct {
	deps CatalogDependencies
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(deps CatalogDependencies) *CatalogHandler {
	return &CatalogHandler{deps: deps}
}

// HandlePresets handles GET /presets requests.
func (h *CatalogHandler) HandlePresets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "api.presets", http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Catalog(r.Context()).Presets)
}

// HandleScenarios handles GET /scenarios requests.
func (h *CatalogHandler) HandleScenarios(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "api.scenarios", http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Catalog(r.Context()).Scenarios)
}

// HandleCatalog handles GET /catalog requests.
func (h *CatalogHandler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "api.catalog", http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Catalog(r.Context()))
}
