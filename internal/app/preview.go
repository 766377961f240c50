package app

import (
	"fmt"
	"image"
	"image/color"
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"

	"github.com/ayusman/airbloom/internal/trajectory"
)

var (
	trailColor  = color.RGBA{R: 120, G: 220, B: 255, A: 0}
	markerColor = color.RGBA{R: 255, G: 0, B: 255, A: 0}
	textColor   = color.RGBA{R: 255, G: 255, B: 255, A: 0}
)

// Preview holds the latest annotated camera frame as JPEG. Frames are only
// encoded while at least one viewer is watching.
type Preview struct {
	mirror   bool
	watchers atomic.Int32

	mu   sync.RWMutex
	jpeg []byte
	seq  uint64
}

// Watch registers a viewer. The returned func unregisters it.
func (p *Preview) Watch() (release func()) {
	p.watchers.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { p.watchers.Add(-1) })
	}
}

// Latest returns the most recent JPEG and its sequence number. seq is 0
// until the first frame has been encoded.
func (p *Preview) Latest() ([]byte, uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.jpeg, p.seq
}

// Update draws the trail and fingertip over frame and stores it. trail is
// newest-first in preview pixels, already mirrored when the preview is.
func (p *Preview) Update(frame *gocv.Mat, trail []trajectory.Point, tip *trajectory.Point) {
	if p.watchers.Load() == 0 || frame == nil || frame.Empty() {
		return
	}

	img := gocv.NewMat()
	defer img.Close()
	if p.mirror {
		gocv.Flip(*frame, &img, 1)
	} else {
		frame.CopyTo(&img)
	}

	for i := 1; i < len(trail); i++ {
		gocv.Line(&img, pixel(trail[i-1]), pixel(trail[i]), trailColor, 3)
	}
	if tip != nil {
		gocv.Circle(&img, pixel(*tip), 10, markerColor, -1)
		label := fmt.Sprintf("x: %d, y: %d", int(tip.X), int(tip.Y))
		gocv.PutText(&img, label, image.Pt(10, 30), gocv.FontHersheySimplex, 0.6, textColor, 1)
	}

	buf, err := gocv.IMEncode(".jpg", img)
	if err != nil {
		return
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())

	p.mu.Lock()
	p.jpeg = data
	p.seq++
	p.mu.Unlock()
}

func pixel(p trajectory.Point) image.Point {
	return image.Pt(int(p.X), int(p.Y))
}
