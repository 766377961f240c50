// Package api provides the JSON HTTP handlers for airbloom.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/airbloom/internal/app"
	"github.com/ayusman/airbloom/internal/gesture"
	"github.com/ayusman/airbloom/internal/store"
	"github.com/ayusman/airbloom/internal/trajectory"
)

// Controller is the part of the running installation the API drives.
type Controller interface {
	State() app.State
	SetEnabled(enabled bool)
	GestureConfig() gesture.Config
	Reconfigure(cfg gesture.Config) error
	Plant(ctx context.Context, phrase string, at trajectory.Point) (*store.Flower, error)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// itemID returns the path segment after prefix, or "" for the collection.
func itemID(path, prefix string) string {
	return strings.Trim(strings.TrimPrefix(path, prefix), "/")
}

// queryLimit parses ?limit=, defaulting to 50.
func queryLimit(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 50, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
