// Package trajectory keeps the recent history of a tracked fingertip.
package trajectory

import "math"

// DefaultMaxHistory is the buffer capacity used when none is given.
const DefaultMaxHistory = 60

// Point is a tracked position in screen pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// IsFinite reports whether both coordinates are usable numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Box is an axis-aligned bounding box.
type Box struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Width returns the horizontal extent of the box.
func (b Box) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent of the box.
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// Buffer is a bounded, newest-first record of tracked points.
// Index 0 is the most recent point; index Len()-1 the oldest still held.
// Storage is a fixed ring so Push never allocates.
type Buffer struct {
	points []Point
	head   int // slot of the newest point
	n      int
}

// NewBuffer creates an empty buffer holding at most capacity points.
// A capacity below 1 falls back to DefaultMaxHistory.
func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = DefaultMaxHistory
	}
	return &Buffer{
		points: make([]Point, capacity),
	}
}

// Push inserts p as the newest point, evicting the oldest once the buffer
// is full. Points with NaN or infinite coordinates are ignored and Push
// returns false.
func (b *Buffer) Push(p Point) bool {
	if !p.IsFinite() {
		return false
	}

	capacity := len(b.points)
	b.head = (b.head - 1 + capacity) % capacity
	b.points[b.head] = p
	if b.n < capacity {
		b.n++
	}
	return true
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	b.head = 0
	b.n = 0
}

// Len returns the number of points currently held.
func (b *Buffer) Len() int {
	return b.n
}

// Cap returns the maximum number of points the buffer holds.
func (b *Buffer) Cap() int {
	return len(b.points)
}

// At returns the i-th newest point. It panics if i is out of range.
func (b *Buffer) At(i int) Point {
	if i < 0 || i >= b.n {
		panic("trajectory: index out of range")
	}
	return b.points[(b.head+i)%len(b.points)]
}

// Newest returns the most recent point.
func (b *Buffer) Newest() (Point, bool) {
	if b.n == 0 {
		return Point{}, false
	}
	return b.At(0), true
}

// Oldest returns the oldest point still in the buffer.
func (b *Buffer) Oldest() (Point, bool) {
	if b.n == 0 {
		return Point{}, false
	}
	return b.At(b.n - 1), true
}

// Points returns a copy of the held points, newest first.
func (b *Buffer) Points() []Point {
	out := make([]Point, b.n)
	for i := range out {
		out[i] = b.At(i)
	}
	return out
}

// Centroid returns the arithmetic mean of all held points.
// ok is false when the buffer is empty.
func (b *Buffer) Centroid() (c Point, ok bool) {
	if b.n == 0 {
		return Point{}, false
	}

	var sumX, sumY float64
	for i := 0; i < b.n; i++ {
		p := b.At(i)
		sumX += p.X
		sumY += p.Y
	}

	n := float64(b.n)
	return Point{X: sumX / n, Y: sumY / n}, true
}

// Bounds returns the bounding box of all held points.
// ok is false when the buffer is empty.
func (b *Buffer) Bounds() (box Box, ok bool) {
	if b.n == 0 {
		return Box{}, false
	}

	first := b.At(0)
	box = Box{MinX: first.X, MinY: first.Y, MaxX: first.X, MaxY: first.Y}
	for i := 1; i < b.n; i++ {
		p := b.At(i)
		box.MinX = math.Min(box.MinX, p.X)
		box.MaxX = math.Max(box.MaxX, p.X)
		box.MinY = math.Min(box.MinY, p.Y)
		box.MaxY = math.Max(box.MaxY, p.Y)
	}
	return box, true
}
