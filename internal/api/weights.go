package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Democracy/internal/engine"
	"github.com/MikeSquared-Agency/Democracy/internal/report"
	"github.com/MikeSquared-Agency/Democracy/internal/store"
	"github.com/MikeSquared-Agency/Democracy/internal/weighting"
)

const (
	defaultRunLimit = 50
	maxRunLimit     = 500
)

type WeightsHandler struct {
	engine        *engine.Engine
	store         store.Store
	defaultScheme weighting.Scheme
}

func NewWeightsHandler(e *engine.Engine, s store.Store, defaultScheme weighting.Scheme) *WeightsHandler {
	if defaultScheme == "" {
		defaultScheme = weighting.SchemeCode
	}
	return &WeightsHandler{engine: e, store: s, defaultScheme: defaultScheme}
}

type ComputeRequest struct {
	Scheme string   `json:"scheme,omitempty"`
	Subset []string `json:"subset,omitempty"`
}

// ComputeResponse is the stored run plus the exact total of its resolved
// fractions.
type ComputeResponse struct {
	*store.WeightRun
	Total string `json:"total"`
}

func (h *WeightsHandler) Schemes(w http.ResponseWriter, r *http.Request) {
	schemes := weighting.Schemes()
	names := make([]string, len(schemes))
	for i, s := range schemes {
		names[i] = string(s)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"schemes": names,
		"default": string(h.defaultScheme),
	})
}

func (h *WeightsHandler) Compute(w http.ResponseWriter, r *http.Request) {
	var req ComputeRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}

	scheme, ok := h.scheme(w, req.Scheme)
	if !ok {
		return
	}

	run, result, err := h.engine.Compute(r.Context(), scheme, req.Subset)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ComputeResponse{
		WeightRun: run,
		Total:     result.Total().RatString(),
	})
}

func (h *WeightsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "run_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid run id"})
		return
	}
	run, err := h.store.GetRun(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if run == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *WeightsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.RunFilter{Limit: defaultRunLimit}
	if s := r.URL.Query().Get("scheme"); s != "" {
		scheme, err := weighting.ParseScheme(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		filter.Scheme = string(scheme)
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		filter.Limit = min(n, maxRunLimit)
	}

	runs, err := h.store.ListRuns(r.Context(), filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if runs == nil {
		runs = []*store.WeightRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// Tree renders the genealogy listing with per-model weights as plain text.
func (h *WeightsHandler) Tree(w http.ResponseWriter, r *http.Request) {
	scheme, ok := h.scheme(w, r.URL.Query().Get("scheme"))
	if !ok {
		return
	}
	weights, err := h.engine.Weights(r.Context(), scheme)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteTree(&buf, weights); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *WeightsHandler) scheme(w http.ResponseWriter, raw string) (weighting.Scheme, bool) {
	if raw == "" {
		return h.defaultScheme, true
	}
	scheme, err := weighting.ParseScheme(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return "", false
	}
	return scheme, true
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, weighting.ErrInvalidScheme):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, engine.ErrInvalidRegistry):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
