package gesture

import (
	"math"

	"github.com/ayusman/airbloom/internal/trajectory"
)

// Roundness scores how circular a trajectory is, from 0 (nothing like a
// circle) to 1 (a perfect circle). points are newest-first, as returned by
// trajectory.Buffer.Points. The trajectory is compared against an ideal
// circle of the same length with Dynamic Time Warping; the circle starts at
// the trajectory's first sample and both winding directions are tried.
//
// The score is informational: it is stored and shown but never gates
// detection.
func Roundness(points []trajectory.Point) float64 {
	n := len(points)
	if n < 3 {
		return 0
	}

	// Chronological order, oldest first.
	path := make([]trajectory.Point, n)
	for i, p := range points {
		path[n-1-i] = p
	}

	var cx, cy float64
	for _, p := range path {
		cx += p.X
		cy += p.Y
	}
	cx /= float64(n)
	cy /= float64(n)

	start := math.Atan2(path[0].Y-cy, path[0].X-cx)
	input := normalizePath(path)

	best := math.Inf(1)
	for _, dir := range []float64{1, -1} {
		template := circlePath(n, start, dir)
		if d := DTWDistance(input, normalizePath(template)); d < best {
			best = d
		}
	}

	if math.IsInf(best, 1) {
		return 0
	}
	return 1.0 / (1.0 + best)
}

// circlePath samples n points of a unit circle starting at angle start and
// winding in direction dir (+1 or -1).
func circlePath(n int, start, dir float64) []trajectory.Point {
	path := make([]trajectory.Point, n)
	step := 2 * math.Pi / float64(n-1)
	for i := range path {
		a := start + dir*step*float64(i)
		path[i] = trajectory.Point{X: math.Cos(a), Y: math.Sin(a)}
	}
	return path
}

// DTWDistance calculates the Dynamic Time Warping distance between two paths,
// normalised by the longer path length. It returns +Inf if either is empty.
func DTWDistance(a, b []trajectory.Point) float64 {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return math.Inf(1)
	}

	// Two rolling rows of the (n+1) x (m+1) cost matrix.
	prev := make([]float64, m+1)
	curr := make([]float64, m+1)
	for j := range prev {
		prev[j] = math.Inf(1)
	}
	prev[0] = 0

	for i := 1; i <= n; i++ {
		curr[0] = math.Inf(1)
		for j := 1; j <= m; j++ {
			cost := a[i-1].Distance(b[j-1])
			curr[j] = cost + min(prev[j], curr[j-1], prev[j-1])
		}
		prev, curr = curr, prev
	}

	return prev[m] / float64(max(n, m))
}

// normalizePath scales both axes of a path into the 0-1 range. An axis with
// no spread maps to 0.
func normalizePath(path []trajectory.Point) []trajectory.Point {
	if len(path) == 0 {
		return nil
	}

	minX, maxX := path[0].X, path[0].X
	minY, maxY := path[0].Y, path[0].Y
	for _, p := range path[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY

	normalized := make([]trajectory.Point, len(path))
	for i, p := range path {
		if rangeX > 0 {
			normalized[i].X = (p.X - minX) / rangeX
		}
		if rangeY > 0 {
			normalized[i].Y = (p.Y - minY) / rangeY
		}
	}
	return normalized
}
