package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/airbloom/internal/app"
	"github.com/ayusman/airbloom/internal/capture"
	"github.com/ayusman/airbloom/internal/detector"
	"github.com/ayusman/airbloom/internal/gesture"
	applog "github.com/ayusman/airbloom/internal/log"
	"github.com/ayusman/airbloom/internal/server"
	"github.com/ayusman/airbloom/internal/speech"
	"github.com/ayusman/airbloom/internal/store"
	"github.com/ayusman/airbloom/testdata"
)

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := server.NewHub(applog.Discard())
	go hub.Run(ctx)

	frames := testdata.BlankFrames(1, 640, 480)
	defer testdata.CloseFrames(frames)
	cam := capture.NewMockCamera(frames, true)
	cam.SetFPS(250)

	mock := detector.NewMockDetector()
	mock.SetScript(testdata.CircleScript(0.5, 0.5, 0.25, 60))

	application, err := app.New(app.Config{
		Camera:        cam,
		Detector:      mock,
		Recognizer:    speech.NewStubRecognizer("a field of poppies"),
		Store:         s,
		Events:        hub,
		Gesture:       gesture.DefaultConfig(),
		Mirror:        true,
		SpeechTimeout: time.Second,
		Logger:        applog.Discard(),
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	defer application.Close()

	srv := server.New(server.Config{
		Store:   s,
		Control: application,
		Frames:  application.Preview(),
		Hub:     hub,
	})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/events", nil)
	if err != nil {
		t.Fatalf("dial events: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("renderer client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Run("DrawLoopGrowsFlower", func(t *testing.T) {
		if err := application.Start(); err != nil {
			t.Fatalf("Start() error = %v", err)
		}

		seen := map[string]bool{}
		var flower app.FlowerMessage
		conn.SetReadDeadline(time.Now().Add(10 * time.Second))
		for !seen[app.KindFlower] {
			var env server.Envelope
			if err := conn.ReadJSON(&env); err != nil {
				t.Fatalf("read event (seen %v): %v", seen, err)
			}
			seen[env.Type] = true
			if env.Type == app.KindFlower {
				if err := json.Unmarshal(env.Data, &flower); err != nil {
					t.Fatalf("decode flower: %v", err)
				}
			}
		}

		for _, kind := range []string{app.KindGesture, app.KindListening, app.KindTranscript} {
			if !seen[kind] {
				t.Errorf("no %s event before the flower", kind)
			}
		}
		if flower.Flower == nil || flower.Phrase != "a field of poppies" {
			t.Fatalf("flower message = %+v, want phrase %q", flower, "a field of poppies")
		}
		if flower.Spec.Petals < 3 {
			t.Errorf("seeded flower has %d petals", flower.Spec.Petals)
		}
	})

	t.Run("FlowerListed", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/flowers")
		if err != nil {
			t.Fatalf("GET /api/flowers error = %v", err)
		}
		defer resp.Body.Close()

		var listed struct {
			Flowers []store.Flower `json:"flowers"`
		}
		json.NewDecoder(resp.Body).Decode(&listed)
		if len(listed.Flowers) == 0 {
			t.Fatal("expected at least one flower")
		}
		if listed.Flowers[len(listed.Flowers)-1].CaptureID == "" {
			t.Error("gesture-born flower should reference its capture")
		}
	})

	t.Run("PauseTracking", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/state", strings.NewReader(`{"enabled": false}`))
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("PUT /api/state error = %v", err)
		}
		defer resp.Body.Close()

		var state app.State
		json.NewDecoder(resp.Body).Decode(&state)
		if state.Enabled {
			t.Error("expected tracking disabled")
		}
		if !state.Running {
			t.Error("pipeline should keep running while paused")
		}
	})

	t.Run("HealthReportsClient", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/health")
		if err != nil {
			t.Fatalf("GET /api/health error = %v", err)
		}
		defer resp.Body.Close()

		var health struct {
			Status  string `json:"status"`
			Clients int    `json:"clients"`
		}
		json.NewDecoder(resp.Body).Decode(&health)
		if health.Status != "ok" || health.Clients != 1 {
			t.Errorf("health = %+v, want ok with 1 client", health)
		}
	})

	application.Stop()
}
