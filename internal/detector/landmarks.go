// Package detector locates the visitor's index fingertip in camera frames.
package detector

import (
	"math"

	"github.com/ayusman/airbloom/internal/trajectory"
)

// Hand landmark indices following the MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddleTip    = 12
	RingTip      = 16
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D is a landmark in normalized image coordinates: x and y in 0..1
// from the top-left corner, z relative to the wrist depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks is one detected hand.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Primary picks the hand that drives the cursor: the highest scoring one.
func Primary(hands []HandLandmarks) (HandLandmarks, bool) {
	if len(hands) == 0 {
		return HandLandmarks{}, false
	}
	best := 0
	for i := 1; i < len(hands); i++ {
		if hands[i].Score > hands[best].Score {
			best = i
		}
	}
	return hands[best], true
}

// Fingertip converts the index fingertip of hand to screen pixels for a
// preview of width x height. With mirror set, x is flipped so that the
// preview behaves like a mirror. It reports false when the landmark is
// not a finite number.
func Fingertip(hand HandLandmarks, width, height int, mirror bool) (trajectory.Point, bool) {
	tip := hand.Points[IndexTip]
	if !finite(tip.X) || !finite(tip.Y) {
		return trajectory.Point{}, false
	}

	x := tip.X
	if mirror {
		x = 1 - x
	}
	return trajectory.Point{X: x * float64(width), Y: tip.Y * float64(height)}, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
