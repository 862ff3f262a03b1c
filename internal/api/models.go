package api

import (
	"encoding/json"
	"net/http"

	"github.com/MikeSquared-Agency/Democracy/internal/engine"
	"github.com/MikeSquared-Agency/Democracy/internal/registry"
	"github.com/MikeSquared-Agency/Democracy/internal/store"
)

type ModelsHandler struct {
	engine *engine.Engine
	store  store.Store
}

func NewModelsHandler(e *engine.Engine, s store.Store) *ModelsHandler {
	return &ModelsHandler{engine: e, store: s}
}

type ReplaceModelsRequest struct {
	Models []registry.ModelRecord `json:"models"`
}

func (h *ModelsHandler) List(w http.ResponseWriter, r *http.Request) {
	models, err := h.store.ListModels(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if models == nil {
		models = []registry.ModelRecord{}
	}
	writeJSON(w, http.StatusOK, models)
}

// Replace swaps the whole registry. The new registry must form a valid
// genealogy or nothing is stored. The active flag of each model is recomputed
// from its variants.
func (h *ModelsHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var req ReplaceModelsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	for _, m := range req.Models {
		if m.Name == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "every model needs a name"})
			return
		}
	}

	updatedBy := r.Header.Get("X-Client-ID")
	if err := h.engine.ReplaceRegistry(r.Context(), req.Models, updatedBy); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"models": len(req.Models)})
}
