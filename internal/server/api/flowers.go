package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/ayusman/airbloom/internal/store"
	"github.com/ayusman/airbloom/internal/trajectory"
)

// FlowerHandler serves /api/flowers and /api/flowers/{id}.
type FlowerHandler struct {
	store   *store.Store
	control Controller
}

// NewFlowerHandler creates a FlowerHandler. control may be nil, in which
// case flowers cannot be planted over HTTP.
func NewFlowerHandler(s *store.Store, control Controller) *FlowerHandler {
	return &FlowerHandler{store: s, control: control}
}

func (h *FlowerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := itemID(r.URL.Path, "/api/flowers")

	if id == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.plant(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, id)
	case http.MethodDelete:
		h.delete(w, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type listFlowersResponse struct {
	Flowers []*store.Flower `json:"flowers"`
	Total   int             `json:"total"`
}

type plantRequest struct {
	Phrase string  `json:"phrase"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

func (h *FlowerHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	flowers, err := h.store.Flowers().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list flowers")
		return
	}
	total, err := h.store.Flowers().Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count flowers")
		return
	}

	writeJSON(w, http.StatusOK, listFlowersResponse{Flowers: flowers, Total: total})
}

func (h *FlowerHandler) get(w http.ResponseWriter, id string) {
	flower, err := h.store.Flowers().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Flower not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get flower")
		return
	}
	writeJSON(w, http.StatusOK, flower)
}

func (h *FlowerHandler) delete(w http.ResponseWriter, id string) {
	if err := h.store.Flowers().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Flower not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete flower")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// plant handles POST /api/flowers: grow a flower for a typed phrase.
func (h *FlowerHandler) plant(w http.ResponseWriter, r *http.Request) {
	if h.control == nil {
		writeError(w, http.StatusServiceUnavailable, "Planting is not available")
		return
	}

	var req plantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Phrase = strings.TrimSpace(req.Phrase)
	if req.Phrase == "" {
		writeError(w, http.StatusBadRequest, "phrase is required")
		return
	}
	if math.IsNaN(req.X) || math.IsNaN(req.Y) {
		writeError(w, http.StatusBadRequest, "x and y must be numbers")
		return
	}

	flower, err := h.control.Plant(r.Context(), req.Phrase, trajectory.Point{X: req.X, Y: req.Y})
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, flower)
}
