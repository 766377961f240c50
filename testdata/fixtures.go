// Package testdata builds synthetic camera frames and fingertip paths for
// pipeline tests.
package testdata

import (
	"math"

	"gocv.io/x/gocv"

	"github.com/ayusman/airbloom/internal/detector"
)

// BlankFrames returns n black BGR frames of the given size. The caller
// closes them.
func BlankFrames(n, width, height int) []*gocv.Mat {
	frames := make([]*gocv.Mat, 0, n)
	for i := 0; i < n; i++ {
		m := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
		frames = append(frames, &m)
	}
	return frames
}

// CloseFrames closes every frame.
func CloseFrames(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}

// CircleScript returns a MockDetector script whose index fingertip traces a
// circle of radius r (normalised units) around (cx, cy), one revolution per
// period calls.
func CircleScript(cx, cy, r float64, period int) func(call int) []detector.HandLandmarks {
	return func(call int) []detector.HandLandmarks {
		a := 2 * math.Pi * float64(call%period) / float64(period)
		return []detector.HandLandmarks{detector.PointingAt(cx+r*math.Cos(a), cy+r*math.Sin(a))}
	}
}

// LineScript returns a script sweeping the fingertip left to right across
// the frame at height y, one pass per period calls. It never closes a loop.
func LineScript(y float64, period int) func(call int) []detector.HandLandmarks {
	return func(call int) []detector.HandLandmarks {
		x := 0.1 + 0.8*float64(call%period)/float64(period)
		return []detector.HandLandmarks{detector.PointingAt(x, y)}
	}
}
