package gesture

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/airbloom/internal/trajectory"
)

// Phase is the externally visible recognizer state.
type Phase int

const (
	// PhaseArmed means the trajectory is evaluated every frame.
	PhaseArmed Phase = iota
	// PhaseSuppressed means a cooldown is running or a capture holds the lock.
	PhaseSuppressed
)

// String returns the lower-case phase name.
func (p Phase) String() string {
	switch p {
	case PhaseArmed:
		return "armed"
	case PhaseSuppressed:
		return "suppressed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "armed":
		*p = PhaseArmed
	case "suppressed":
		*p = PhaseSuppressed
	default:
		return fmt.Errorf("unknown phase %q", text)
	}
	return nil
}

// Event is emitted when a closed loop is recognised while armed. Path holds
// the loop newest-first.
type Event struct {
	ID        string             `json:"id"`
	Centroid  trajectory.Point   `json:"centroid"`
	Points    int                `json:"points"`
	Path      []trajectory.Point `json:"path"`
	Bounds    trajectory.Box     `json:"bounds"`
	Roundness float64            `json:"roundness"`
	At        time.Time          `json:"at"`
}

// State is a read-only view of the recognizer for status displays.
type State struct {
	Phase     Phase `json:"phase"`
	Cooldown  int   `json:"cooldown"`
	Locked    bool  `json:"locked"`
	BufferLen int   `json:"buffer_len"`
}

// Detector owns the trajectory buffer together with the cooldown and lock
// that gate it. It is driven by exactly one goroutine, once per frame.
type Detector struct {
	cfg      Config
	buf      *trajectory.Buffer
	cooldown int
	locked   bool
	pending  *Event
	now      func() time.Time
}

// NewDetector creates an armed detector with an empty buffer.
func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Detector{
		cfg: cfg,
		buf: trajectory.NewBuffer(cfg.MaxHistory),
		now: time.Now,
	}, nil
}

// OnTrackedPoint advances the detector by one frame. p is nil when no hand
// was found; points with non-finite coordinates are treated the same way.
//
// The cooldown is decremented before evaluation, so after a trigger with
// Cooldown C the next C-1 frames are suppressed and the C-th frame is
// evaluated again if the lock has been released.
func (d *Detector) OnTrackedPoint(p *trajectory.Point) {
	d.pending = nil

	if d.cooldown > 0 {
		d.cooldown--
	}

	if p != nil {
		d.buf.Push(*p)
	}

	if d.suppressed() {
		return
	}

	if !IsClosedLoop(d.buf, d.cfg) {
		return
	}

	d.trigger()
}

// trigger emits an event for the current buffer and enters suppression.
func (d *Detector) trigger() {
	centroid, _ := d.buf.Centroid()
	bounds, _ := d.buf.Bounds()
	points := d.buf.Points()

	d.pending = &Event{
		ID:        uuid.New().String(),
		Centroid:  centroid,
		Points:    len(points),
		Path:      points,
		Bounds:    bounds,
		Roundness: Roundness(points),
		At:        d.now(),
	}

	d.locked = true
	d.cooldown = d.cfg.Cooldown
	d.buf.Clear()
}

// TakeEvent returns the event produced by the latest frame, if any.
// The event is consumed; a second call in the same frame returns false.
func (d *Detector) TakeEvent() (Event, bool) {
	if d.pending == nil {
		return Event{}, false
	}
	ev := *d.pending
	d.pending = nil
	return ev, true
}

// Release clears the lock taken by the last trigger. It is the completion
// notification of the downstream capture and must be called once per
// event whatever the capture outcome. It reports whether a lock was held.
func (d *Detector) Release() bool {
	was := d.locked
	d.locked = false
	return was
}

// Snapshot returns the current state.
func (d *Detector) Snapshot() State {
	phase := PhaseArmed
	if d.suppressed() {
		phase = PhaseSuppressed
	}
	return State{
		Phase:     phase,
		Cooldown:  d.cooldown,
		Locked:    d.locked,
		BufferLen: d.buf.Len(),
	}
}

// Trail returns a copy of the buffered trajectory, newest first.
func (d *Detector) Trail() []trajectory.Point {
	return d.buf.Points()
}

// Config returns the active configuration.
func (d *Detector) Config() Config {
	return d.cfg
}

// Reconfigure replaces the thresholds. A new MaxHistory starts a fresh
// buffer; the cooldown and lock carry over unchanged.
func (d *Detector) Reconfigure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.MaxHistory != d.cfg.MaxHistory {
		d.buf = trajectory.NewBuffer(cfg.MaxHistory)
	}
	d.cfg = cfg
	return nil
}

func (d *Detector) suppressed() bool {
	return d.cooldown > 0 || d.locked
}
