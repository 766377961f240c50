package store

import (
	"errors"
	"testing"
)

func TestSettingsRepository_GetSet(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	if _, err := repo.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := repo.Set("mode", "calm"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := repo.Set("mode", "wild"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}

	v, err := repo.Get("mode")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v != "wild" {
		t.Errorf("Get() = %q, want wild", v)
	}
}

func TestSettingsRepository_JSON(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	type thresholds struct {
		CloseThreshold float64 `json:"close_threshold"`
		Cooldown       int     `json:"cooldown"`
	}

	in := thresholds{CloseThreshold: 75, Cooldown: 90}
	if err := repo.SetJSON(SettingGesture, in); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}

	var out thresholds
	if err := repo.GetJSON(SettingGesture, &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out != in {
		t.Errorf("GetJSON() = %+v, want %+v", out, in)
	}

	if err := repo.GetJSON("absent", &out); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := repo.Set("broken", "{"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := repo.GetJSON("broken", &out); err == nil {
		t.Error("expected decode error for invalid JSON")
	}
}
