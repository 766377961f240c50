package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/airbloom/internal/gesture"
	"github.com/ayusman/airbloom/internal/store"
)

// GestureSettingsHandler reads and updates the live recognizer thresholds.
// Updates are validated, applied to the running pipeline and persisted.
type GestureSettingsHandler struct {
	store   *store.Store
	control Controller
}

// NewGestureSettingsHandler creates a GestureSettingsHandler.
func NewGestureSettingsHandler(s *store.Store, control Controller) *GestureSettingsHandler {
	return &GestureSettingsHandler{store: s, control: control}
}

func (h *GestureSettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.control.GestureConfig())
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// update handles PUT. Fields missing from the body keep their current
// value, or the value of ?preset= when given.
func (h *GestureSettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	cfg := h.control.GestureConfig()
	if name := r.URL.Query().Get("preset"); name != "" {
		preset, ok := gesture.Preset(name)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown preset: "+name)
			return
		}
		cfg = preset
	}

	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	if err := h.control.Reconfigure(cfg); err != nil {
		if errors.Is(err, gesture.ErrInvalidConfig) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to apply settings")
		return
	}

	if h.store != nil {
		if err := h.store.Settings().SetJSON(store.SettingGesture, cfg); err != nil {
			writeError(w, http.StatusInternalServerError, "Settings applied but not saved")
			return
		}
	}

	writeJSON(w, http.StatusOK, cfg)
}
