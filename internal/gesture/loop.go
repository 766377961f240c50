package gesture

import "github.com/ayusman/airbloom/internal/trajectory"

// IsClosedLoop reports whether the buffered trajectory looks like a finished
// circle: the newest and oldest samples nearly meet while the path spans
// more than MinExtent in both axes. Having too few samples is never a loop.
func IsClosedLoop(buf *trajectory.Buffer, cfg Config) bool {
	if buf == nil || buf.Len() < cfg.MinPoints {
		return false
	}

	start, _ := buf.Newest()
	end, _ := buf.Oldest()
	closure := start.Distance(end)

	box, _ := buf.Bounds()

	return closure < cfg.CloseThreshold &&
		box.Width() > cfg.MinExtent &&
		box.Height() > cfg.MinExtent
}
