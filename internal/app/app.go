// Package app runs the installation: camera frames in, fingertip loops
// recognised, phrases captured and flowers grown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/airbloom/internal/bloom"
	"github.com/ayusman/airbloom/internal/capture"
	"github.com/ayusman/airbloom/internal/detector"
	"github.com/ayusman/airbloom/internal/gesture"
	"github.com/ayusman/airbloom/internal/speech"
	"github.com/ayusman/airbloom/internal/store"
	"github.com/ayusman/airbloom/internal/trajectory"
)

// Status is the coarse activity shown in the tray.
type Status string

const (
	StatusPaused    Status = "paused"
	StatusReady     Status = "ready"
	StatusListening Status = "listening"
	StatusGrowing   Status = "growing"
)

// Config wires the pipeline's collaborators.
type Config struct {
	Camera     capture.Camera
	Detector   detector.Detector
	Recognizer speech.Recognizer
	Generator  bloom.Generator
	Store      *store.Store
	Events     Broadcaster

	Gesture gesture.Config

	// Mirror flips x so the preview behaves like a mirror.
	Mirror          bool
	MotionThreshold float64
	IdleTimeout     time.Duration
	SpeechTimeout   time.Duration

	// OnStatus is called from the pipeline goroutine whenever the coarse
	// status or last phrase changes. It must not block.
	OnStatus func(Status, string)

	Logger *slog.Logger
}

// State is a snapshot for status displays.
type State struct {
	gesture.State
	Running    bool              `json:"running"`
	Enabled    bool              `json:"enabled"`
	Status     Status            `json:"status"`
	Listening  bool              `json:"listening"`
	Growing    int               `json:"growing"`
	Fingertip  *trajectory.Point `json:"fingertip,omitempty"`
	LastPhrase string            `json:"last_phrase,omitempty"`
	Frames     uint64            `json:"frames"`
}

// ErrNotConfigured is returned by New when a required collaborator is missing.
var ErrNotConfigured = errors.New("app: camera, detector and recognizer are required")

type reconfigRequest struct {
	cfg   gesture.Config
	reply chan error
}

// App owns the frame loop. The gesture detector is only touched by the
// loop goroutine while running; speech results and reconfiguration reach
// it through channels.
type App struct {
	cfg       Config
	logger    *slog.Logger
	generator bloom.Generator
	det       *gesture.Detector
	gate      *capture.Gate
	preview   *Preview

	enabled  atomic.Bool
	growing  atomic.Int32
	results  chan speech.Result
	reconfig chan reconfigRequest

	mu     sync.Mutex
	stopCh chan struct{}
	done   chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup

	stateMu sync.RWMutex
	state   State
	gcfg    gesture.Config

	// owned by the loop goroutine
	listening  *gesture.Event
	lastPhrase string
	lastStatus Status
}

// New validates cfg and builds an App. Generation failures fall back to a
// seeded flower, so Generator may be nil.
func New(cfg Config) (*App, error) {
	if cfg.Camera == nil || cfg.Detector == nil || cfg.Recognizer == nil {
		return nil, ErrNotConfigured
	}

	det, err := gesture.NewDetector(cfg.Gesture)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	if cfg.Events == nil {
		cfg.Events = nopBroadcaster{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SpeechTimeout <= 0 {
		cfg.SpeechTimeout = 10 * time.Second
	}
	if cfg.MotionThreshold <= 0 {
		cfg.MotionThreshold = 1.0
	}

	a := &App{
		cfg:       cfg,
		logger:    cfg.Logger,
		generator: bloom.Fallback{Primary: cfg.Generator},
		det:       det,
		gate:      capture.NewGate(cfg.MotionThreshold, cfg.IdleTimeout),
		preview:   &Preview{mirror: cfg.Mirror},
		results:   make(chan speech.Result, 4),
		reconfig:  make(chan reconfigRequest),
		gcfg:      cfg.Gesture,
	}
	a.enabled.Store(true)
	a.state = State{State: det.Snapshot(), Enabled: true, Status: StatusReady}
	return a, nil
}

// Start opens the camera and launches the frame loop.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.cfg.Camera.Open(); err != nil {
		return fmt.Errorf("app: %w", err)
	}

	// A capture cut short by Stop never reported back.
	a.det.Release()
	a.listening = nil
	for len(a.results) > 0 {
		<-a.results
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.run(ctx, a.stopCh, a.done)

	a.setRunning(true)
	a.logger.Info("pipeline started", "fps", a.cfg.Camera.FPS(), "mirror", a.cfg.Mirror)
	return nil
}

// Stop halts the loop, cancels in-flight captures and generations, and
// closes the camera. The App can be started again.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh == nil {
		return
	}

	close(a.stopCh)
	<-a.done
	a.cancel()
	a.wg.Wait()

	a.stopCh = nil
	a.done = nil

	if err := a.cfg.Camera.Close(); err != nil {
		a.logger.Warn("close camera", "error", err)
	}
	a.setRunning(false)
	a.logger.Info("pipeline stopped")
}

// Close stops the pipeline and releases the detector and motion gate.
func (a *App) Close() error {
	a.Stop()
	a.gate.Close()
	return a.cfg.Detector.Close()
}

// SetEnabled pauses or resumes hand tracking. While paused every frame
// counts as "no hand", so running cooldowns still elapse.
func (a *App) SetEnabled(enabled bool) {
	if a.enabled.Swap(enabled) != enabled {
		a.logger.Info("tracking toggled", "enabled", enabled)
	}
}

// Enabled reports whether hand tracking is on.
func (a *App) Enabled() bool {
	return a.enabled.Load()
}

// State returns the latest snapshot.
func (a *App) State() State {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()

	s := a.state
	s.Enabled = a.enabled.Load()
	s.Growing = int(a.growing.Load())
	return s
}

// GestureConfig returns the active recognizer thresholds.
func (a *App) GestureConfig() gesture.Config {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.gcfg
}

// Reconfigure replaces the recognizer thresholds. While running, the
// change is applied by the loop between two frames.
func (a *App) Reconfigure(cfg gesture.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	for {
		a.mu.Lock()
		if a.done == nil {
			err := a.applyConfig(cfg)
			a.mu.Unlock()
			return err
		}
		done := a.done
		a.mu.Unlock()

		req := reconfigRequest{cfg: cfg, reply: make(chan error, 1)}
		select {
		case a.reconfig <- req:
			return <-req.reply
		case <-done:
			// Stopped in between; apply directly on the next pass.
		}
	}
}

func (a *App) applyConfig(cfg gesture.Config) error {
	if err := a.det.Reconfigure(cfg); err != nil {
		return err
	}
	a.stateMu.Lock()
	a.gcfg = cfg
	a.stateMu.Unlock()
	a.logger.Info("gesture thresholds updated",
		"max_history", cfg.MaxHistory, "min_points", cfg.MinPoints,
		"close_threshold", cfg.CloseThreshold, "min_extent", cfg.MinExtent,
		"cooldown", cfg.Cooldown)
	return nil
}

// Preview returns the MJPEG frame source.
func (a *App) Preview() *Preview {
	return a.preview
}

// Plant grows a flower for phrase at the given preview position without a
// gesture. The flower is stored and broadcast like a gesture-born one.
func (a *App) Plant(ctx context.Context, phrase string, at trajectory.Point) (*store.Flower, error) {
	if !at.IsFinite() {
		return nil, fmt.Errorf("app: invalid position")
	}
	return a.grow(ctx, "", phrase, at)
}

func (a *App) setRunning(running bool) {
	a.stateMu.Lock()
	a.state.Running = running
	a.stateMu.Unlock()
}
