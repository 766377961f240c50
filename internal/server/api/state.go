package api

import (
	"encoding/json"
	"net/http"
)

// StateHandler reports the pipeline state and toggles tracking.
type StateHandler struct {
	control Controller
}

// NewStateHandler creates a StateHandler.
func NewStateHandler(control Controller) *StateHandler {
	return &StateHandler{control: control}
}

type stateUpdate struct {
	Enabled *bool `json:"enabled"`
}

func (h *StateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req stateUpdate
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
			writeError(w, http.StatusBadRequest, `body must be {"enabled": bool}`)
			return
		}
		h.control.SetEnabled(*req.Enabled)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.control.State())
}
