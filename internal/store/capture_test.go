package store

import (
	"errors"
	"testing"
	"time"

	"github.com/ayusman/airbloom/internal/trajectory"
)

func TestCaptureRepository_CreateAndFinish(t *testing.T) {
	s := newTestStore(t)
	repo := s.Captures()

	c := &Capture{
		ID:        "cap-1",
		CentroidX: 310.5,
		CentroidY: 220.25,
		Path:      []trajectory.Point{{X: 1, Y: 2}, {X: 3, Y: 4}, {X: 5, Y: 6}},
		Roundness: 0.92,
	}
	if err := repo.Create(c); err != nil {
		t.Fatalf("failed to create capture: %v", err)
	}
	if c.Points != 3 {
		t.Errorf("Points = %d, want 3 from path length", c.Points)
	}

	got, err := repo.GetByID("cap-1")
	if err != nil {
		t.Fatalf("failed to get capture: %v", err)
	}
	if got.Outcome != OutcomePending {
		t.Errorf("Outcome = %q, want %q", got.Outcome, OutcomePending)
	}
	if got.FinishedAt != nil {
		t.Error("pending capture should not have FinishedAt")
	}
	if len(got.Path) != 3 || got.Path[2] != (trajectory.Point{X: 5, Y: 6}) {
		t.Errorf("Path = %v", got.Path)
	}

	if err := repo.Finish("cap-1", "a field of lavender", "ok"); err != nil {
		t.Fatalf("failed to finish capture: %v", err)
	}

	got, err = repo.GetByID("cap-1")
	if err != nil {
		t.Fatalf("failed to get capture: %v", err)
	}
	if got.Transcript != "a field of lavender" || got.Outcome != "ok" {
		t.Errorf("got transcript=%q outcome=%q", got.Transcript, got.Outcome)
	}
	if got.FinishedAt == nil {
		t.Error("FinishedAt should be set after Finish")
	}
}

func TestCaptureRepository_Finish_NotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.Captures().Finish("missing", "", "timeout")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCaptureRepository_GetByID_NotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Captures().GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCaptureRepository_List(t *testing.T) {
	s := newTestStore(t)
	repo := s.Captures()

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"a", "b", "c"} {
		c := &Capture{
			ID:        id,
			Path:      []trajectory.Point{{X: 1, Y: 1}},
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := repo.Create(c); err != nil {
			t.Fatalf("failed to create capture %q: %v", id, err)
		}
	}

	captures, err := repo.List(0)
	if err != nil {
		t.Fatalf("failed to list captures: %v", err)
	}
	if len(captures) != 3 {
		t.Fatalf("expected 3 captures, got %d", len(captures))
	}
	if captures[0].ID != "c" {
		t.Errorf("expected newest first, got %q", captures[0].ID)
	}
	for _, c := range captures {
		if c.Path != nil {
			t.Errorf("List should omit paths, capture %q has %d points", c.ID, len(c.Path))
		}
		if c.Points != 1 {
			t.Errorf("Points = %d, want 1", c.Points)
		}
	}
}
