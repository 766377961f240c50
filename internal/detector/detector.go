package detector

import "gocv.io/x/gocv"

// Detector finds hands in a video frame.
type Detector interface {
	// Detect returns the hands found in frame, or an empty slice.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds options for hand detection.
type Config struct {
	// MaxHands is the number of hands the model may report. Only the most
	// confident one drives the cursor, so 1 is usually enough.
	MaxHands int

	// MinConfidence is the detection threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the tracking threshold (0.0-1.0).
	MinTrackingConf float64

	// ScriptPath overrides the hand tracking service lookup.
	ScriptPath string
}

// DefaultConfig returns the detection settings used by the installation.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.6,
		MinTrackingConf: 0.5,
	}
}
