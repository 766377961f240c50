package api

import (
	"errors"
	"net/http"

	"github.com/ayusman/airbloom/internal/store"
)

// CaptureHandler serves the read-only capture history.
type CaptureHandler struct {
	store *store.Store
}

// NewCaptureHandler creates a CaptureHandler.
func NewCaptureHandler(s *store.Store) *CaptureHandler {
	return &CaptureHandler{store: s}
}

func (h *CaptureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if id := itemID(r.URL.Path, "/api/captures"); id != "" {
		c, err := h.store.Captures().GetByID(id)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Capture not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to get capture")
			return
		}
		writeJSON(w, http.StatusOK, c)
		return
	}

	limit, ok := queryLimit(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	captures, err := h.store.Captures().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list captures")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"captures": captures})
}
