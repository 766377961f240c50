package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a Detector whose results are set by tests.
type MockDetector struct {
	mu     sync.Mutex
	hands  []HandLandmarks
	err    error
	script func(call int) []HandLandmarks
	calls  int
}

// NewMockDetector creates a MockDetector that sees no hands.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands returned by every Detect call.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetScript makes Detect return script(n) on its n-th call (0-based),
// overriding SetHands.
func (m *MockDetector) SetScript(script func(call int) []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = script
}

// Calls returns how many times Detect ran.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := m.calls
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.script != nil {
		return m.script(call), nil
	}
	return m.hands, nil
}

// Close is a no-op.
func (m *MockDetector) Close() error {
	return nil
}

// PointingAt returns a right hand with the index finger extended and its
// tip at the normalized position (x, y).
func PointingAt(x, y float64) HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.95}

	h.Points[Wrist] = Point3D{X: x + 0.02, Y: y + 0.35}
	h.Points[ThumbTip] = Point3D{X: x + 0.10, Y: y + 0.22}
	h.Points[IndexMCP] = Point3D{X: x + 0.01, Y: y + 0.20}
	h.Points[IndexPIP] = Point3D{X: x, Y: y + 0.12}
	h.Points[IndexDIP] = Point3D{X: x, Y: y + 0.06}
	h.Points[IndexTip] = Point3D{X: x, Y: y}
	h.Points[MiddleMCP] = Point3D{X: x - 0.03, Y: y + 0.21}
	h.Points[MiddleTip] = Point3D{X: x - 0.03, Y: y + 0.24, Z: -0.02}
	h.Points[RingTip] = Point3D{X: x - 0.06, Y: y + 0.25, Z: -0.02}
	h.Points[PinkyTip] = Point3D{X: x - 0.08, Y: y + 0.26, Z: -0.02}

	return h
}
