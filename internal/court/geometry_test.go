package court

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBBoxAnchors(t *testing.T) {
	t.Parallel()

	b := BBox{X1: 10, Y1: 20, X2: 30, Y2: 60}
	assert.Equal(t, Point{X: 20, Y: 40}, b.Center())
	assert.Equal(t, Point{X: 20, Y: 60}, b.FootAnchor())
	assert.Equal(t, 20.0, b.Width())
	assert.Equal(t, 40.0, b.Height())
}

func TestBBoxDistanceTo(t *testing.T) {
	t.Parallel()

	b := BBox{X1: 0, Y1: 0, X2: 10, Y2: 10}

	t.Run("inside is zero", func(t *testing.T) {
		assert.Equal(t, 0.0, b.DistanceTo(Point{X: 5, Y: 5}))
	})

	t.Run("clamps to nearest edge", func(t *testing.T) {
		assert.Equal(t, 5.0, b.DistanceTo(Point{X: 15, Y: 5}))
		assert.Equal(t, 5.0, b.DistanceTo(Point{X: 5, Y: -5}))
	})

	t.Run("corner distance", func(t *testing.T) {
		assert.InDelta(t, 5.0, b.DistanceTo(Point{X: 13, Y: 14}), 1e-9)
	})
}

func TestTemplateGeometry(t *testing.T) {
	t.Parallel()

	pts := TemplatePoints()
	assert.Len(t, pts, NumKeypoints)

	// Slots 0-5 sit on the left baseline, 10-15 on the right.
	for i := 0; i < 6; i++ {
		assert.Equal(t, 0.0, pts[i].X, "slot %d", i)
		assert.Equal(t, LengthMeters, pts[10+i].X, "slot %d", 10+i)
	}

	// Centre-line slots are mirrored across the court width.
	assert.Equal(t, Point{X: 14, Y: 15}, pts[6])
	assert.Equal(t, Point{X: 14, Y: 0}, pts[7])

	// Free-throw lanes are symmetric about mid-court.
	assert.InDelta(t, pts[8].X, LengthMeters-pts[16].X, 1e-9)
}

func TestInBounds(t *testing.T) {
	t.Parallel()

	assert.True(t, InBounds(Point{X: 14, Y: 7.5}, 0))
	assert.True(t, InBounds(Point{X: -0.3, Y: 7.5}, 0.5))
	assert.False(t, InBounds(Point{X: 30, Y: 7.5}, 0.5))
	assert.False(t, InBounds(Point{X: 14, Y: 16}, 0.5))
}
