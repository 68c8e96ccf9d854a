package track

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtside-data/courtside.report/internal/court"
)

func playerDet(frame, id int, x float64) Detection {
	return Detection{
		FrameIndex: frame,
		TrackID:    id,
		BBox:       court.BBox{X1: x, Y1: 100, X2: x + 40, Y2: 200},
		Confidence: 0.9,
	}
}

func ballDet(frame int, cx, cy float64) *Detection {
	return &Detection{
		FrameIndex: frame,
		BBox:       court.BBox{X1: cx - 10, Y1: cy - 10, X2: cx + 10, Y2: cy + 10},
		Confidence: 0.8,
	}
}

func TestIngestValidatesFrameOrder(t *testing.T) {
	t.Parallel()

	s := NewStore(10)
	require.NoError(t, s.Ingest(Snapshot{FrameIndex: 5}))
	require.NoError(t, s.Ingest(Snapshot{FrameIndex: 6}))

	t.Run("gap is fatal", func(t *testing.T) {
		err := s.Ingest(Snapshot{FrameIndex: 8})
		assert.ErrorIs(t, err, ErrNonMonotonicFrame)
	})

	t.Run("regression is fatal", func(t *testing.T) {
		err := s.Ingest(Snapshot{FrameIndex: 4})
		assert.ErrorIs(t, err, ErrNonMonotonicFrame)
	})
}

func TestFrameRange(t *testing.T) {
	t.Parallel()

	s := NewStore(10)
	for f := 3; f < 8; f++ {
		require.NoError(t, s.Ingest(Snapshot{FrameIndex: f}))
	}

	snap, err := s.Frame(5)
	require.NoError(t, err)
	assert.Equal(t, 5, snap.FrameIndex)

	_, err = s.Frame(2)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = s.Frame(8)
	assert.ErrorIs(t, err, ErrOutOfRange)

	assert.Equal(t, 3, s.FirstFrame())
	assert.Equal(t, 7, s.LastFrame())
	assert.Equal(t, 5, s.FrameCount())
}

func TestLookbackBounded(t *testing.T) {
	t.Parallel()

	s := NewStore(3)
	for f := 0; f < 10; f++ {
		require.NoError(t, s.Ingest(Snapshot{
			FrameIndex: f,
			Players:    []Detection{playerDet(f, 7, float64(f*10))},
		}))
	}

	win := s.Lookback(7, 100)
	require.Len(t, win, 3, "window bounded by store depth")
	assert.Equal(t, 7, win[0].FrameIndex)
	assert.Equal(t, 9, win[2].FrameIndex)

	win = s.Lookback(7, 2)
	require.Len(t, win, 2)
	assert.Equal(t, 8, win[0].FrameIndex)

	assert.Empty(t, s.Lookback(99, 5), "unknown track")
}

func TestCursorRestartable(t *testing.T) {
	t.Parallel()

	s := NewStore(10)
	for f := 0; f < 4; f++ {
		require.NoError(t, s.Ingest(Snapshot{FrameIndex: f}))
	}

	c := s.Cursor()
	var got []int
	for snap, ok := c.Next(); ok; snap, ok = c.Next() {
		got = append(got, snap.FrameIndex)
	}
	assert.Equal(t, []int{0, 1, 2, 3}, got)

	c.Reset()
	snap, ok := c.Next()
	require.True(t, ok)
	assert.Equal(t, 0, snap.FrameIndex)
}

func TestConditionBallRejectsJumps(t *testing.T) {
	t.Parallel()

	s := NewStore(10)
	// Smooth trajectory with one wild outlier at frame 2.
	centres := []struct{ x, y float64 }{{100, 100}, {110, 100}, {600, 400}, {130, 100}}
	for f, c := range centres {
		require.NoError(t, s.Ingest(Snapshot{FrameIndex: f, Ball: ballDet(f, c.x, c.y)}))
	}

	s.ConditionBall(25, 0)

	snap, _ := s.Frame(2)
	assert.Nil(t, snap.Ball, "outlier removed")
	snap, _ = s.Frame(3)
	require.NotNil(t, snap.Ball)
	assert.False(t, snap.Ball.Interpolated)
}

func TestConditionBallInterpolatesGaps(t *testing.T) {
	t.Parallel()

	s := NewStore(10)
	require.NoError(t, s.Ingest(Snapshot{FrameIndex: 0, Ball: ballDet(0, 100, 100)}))
	require.NoError(t, s.Ingest(Snapshot{FrameIndex: 1}))
	require.NoError(t, s.Ingest(Snapshot{FrameIndex: 2}))
	require.NoError(t, s.Ingest(Snapshot{FrameIndex: 3, Ball: ballDet(3, 130, 130)}))

	s.ConditionBall(25, 5)

	snap, _ := s.Frame(1)
	require.NotNil(t, snap.Ball)
	assert.True(t, snap.Ball.Interpolated)
	centre := snap.Ball.BBox.Center()
	if diff := cmp.Diff(court.Point{X: 110, Y: 110}, centre); diff != "" {
		t.Errorf("interpolated centre mismatch (-want +got):\n%s", diff)
	}

	snap, _ = s.Frame(2)
	require.NotNil(t, snap.Ball)
	assert.Equal(t, court.Point{X: 120, Y: 120}, snap.Ball.BBox.Center())
}

func TestConditionBallLeavesLongGaps(t *testing.T) {
	t.Parallel()

	s := NewStore(10)
	require.NoError(t, s.Ingest(Snapshot{FrameIndex: 0, Ball: ballDet(0, 100, 100)}))
	for f := 1; f < 6; f++ {
		require.NoError(t, s.Ingest(Snapshot{FrameIndex: f}))
	}
	require.NoError(t, s.Ingest(Snapshot{FrameIndex: 6, Ball: ballDet(6, 130, 130)}))

	s.ConditionBall(25, 3)

	for f := 1; f < 6; f++ {
		snap, _ := s.Frame(f)
		assert.Nil(t, snap.Ball, "frame %d stays empty", f)
	}
}
