package trajectory

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuffer_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultMaxHistory, NewBuffer(0).Cap())
	assert.Equal(t, DefaultMaxHistory, NewBuffer(-5).Cap())
	assert.Equal(t, 7, NewBuffer(7).Cap())
}

func TestBuffer_PushNewestFirst(t *testing.T) {
	b := NewBuffer(5)
	b.Push(Point{X: 1})
	b.Push(Point{X: 2})
	b.Push(Point{X: 3})

	require.Equal(t, 3, b.Len())
	assert.Equal(t, Point{X: 3}, b.At(0))
	assert.Equal(t, Point{X: 1}, b.At(2))

	newest, ok := b.Newest()
	require.True(t, ok)
	assert.Equal(t, 3.0, newest.X)

	oldest, ok := b.Oldest()
	require.True(t, ok)
	assert.Equal(t, 1.0, oldest.X)
}

func TestBuffer_CapacityInvariant(t *testing.T) {
	const capacity = 60
	b := NewBuffer(capacity)

	for i := 1; i <= 250; i++ {
		b.Push(Point{X: float64(i), Y: float64(-i)})
		require.LessOrEqual(t, b.Len(), capacity)

		if i > capacity {
			// The buffer holds exactly the last capacity pushes, newest first.
			require.Equal(t, capacity, b.Len())
			for j := 0; j < capacity; j++ {
				want := float64(i - j)
				require.Equal(t, want, b.At(j).X, "push %d index %d", i, j)
			}
		}
	}
}

func TestBuffer_Clear(t *testing.T) {
	b := NewBuffer(4)
	for i := 0; i < 10; i++ {
		b.Push(Point{X: float64(i)})
	}
	b.Clear()

	assert.Equal(t, 0, b.Len())
	_, ok := b.Newest()
	assert.False(t, ok)
	_, ok = b.Centroid()
	assert.False(t, ok)

	// Reuse after clear keeps ordering.
	b.Push(Point{X: 100})
	b.Push(Point{X: 200})
	assert.Equal(t, []Point{{X: 200}, {X: 100}}, b.Points())
}

func TestBuffer_Centroid(t *testing.T) {
	b := NewBuffer(10)
	for _, p := range []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}} {
		b.Push(p)
	}

	c, ok := b.Centroid()
	require.True(t, ok)
	assert.InDelta(t, 5.0, c.X, 1e-12)
	assert.InDelta(t, 5.0, c.Y, 1e-12)
}

func TestBuffer_CentroidEmpty(t *testing.T) {
	_, ok := NewBuffer(3).Centroid()
	assert.False(t, ok)
}

func TestBuffer_Bounds(t *testing.T) {
	b := NewBuffer(10)
	for _, p := range []Point{{5, -2}, {-3, 8}, {12, 1}} {
		b.Push(p)
	}

	box, ok := b.Bounds()
	require.True(t, ok)
	assert.Equal(t, Box{MinX: -3, MinY: -2, MaxX: 12, MaxY: 8}, box)
	assert.Equal(t, 15.0, box.Width())
	assert.Equal(t, 10.0, box.Height())
}

func TestBuffer_RejectsNonFinite(t *testing.T) {
	tests := []struct {
		name string
		p    Point
	}{
		{"NaN x", Point{X: math.NaN(), Y: 1}},
		{"NaN y", Point{X: 1, Y: math.NaN()}},
		{"+Inf x", Point{X: math.Inf(1), Y: 1}},
		{"-Inf y", Point{X: 1, Y: math.Inf(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuffer(5)
			b.Push(Point{X: 1, Y: 1})

			assert.False(t, b.Push(tt.p))
			assert.Equal(t, 1, b.Len())

			c, ok := b.Centroid()
			require.True(t, ok)
			assert.Equal(t, Point{X: 1, Y: 1}, c)
		})
	}
}

func TestBuffer_AtOutOfRangePanics(t *testing.T) {
	b := NewBuffer(3)
	b.Push(Point{})
	assert.Panics(t, func() { b.At(1) })
	assert.Panics(t, func() { b.At(-1) })
}
