package tactical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtside-data/courtside.report/internal/court"
	"github.com/courtside-data/courtside.report/internal/homography"
	"github.com/courtside-data/courtside.report/internal/track"
)

// scaleTransform maps a 40 px/metre top-down camera into court metres.
func scaleTransform(sourceFrame int) *homography.Homography {
	return &homography.Homography{
		M:           homography.Matrix{1.0 / 40, 0, 0, 0, 1.0 / 40, 0, 0, 0, 1},
		StartFrame:  sourceFrame,
		EndFrame:    sourceFrame + 1,
		SourceFrame: sourceFrame,
	}
}

func playerAt(id int, footX, footY float64) track.Detection {
	return track.Detection{
		TrackID: id,
		BBox:    court.BBox{X1: footX - 20, Y1: footY - 80, X2: footX + 20, Y2: footY},
	}
}

func TestBuildProjectsPlayersAndBall(t *testing.T) {
	t.Parallel()

	b := NewBuilder(track.TeamAssignment{7: track.TeamA, 20: track.TeamB}, 0.5)
	snap := track.Snapshot{
		FrameIndex: 12,
		Players: []track.Detection{
			playerAt(7, 400, 300),
			playerAt(20, 800, 480),
		},
		Ball: &track.Detection{BBox: court.BBox{X1: 432, Y1: 272, X2: 448, Y2: 288}},
	}

	f := b.Build(snap, scaleTransform(12))
	require.True(t, f.Projectable)
	assert.False(t, f.Stale)

	require.Len(t, f.Players, 2)
	assert.Equal(t, 7, f.Players[0].TrackID)
	assert.Equal(t, track.TeamA, f.Players[0].Team)
	assert.InDelta(t, 10.0, f.Players[0].Court.X, 1e-9)
	assert.InDelta(t, 7.5, f.Players[0].Court.Y, 1e-9)
	assert.Equal(t, track.TeamB, f.Players[1].Team)

	require.NotNil(t, f.Ball)
	assert.InDelta(t, 11.0, f.Ball.X, 1e-9)
	assert.InDelta(t, 7.0, f.Ball.Y, 1e-9)
}

func TestBuildWithoutTransformIsUnprojectable(t *testing.T) {
	t.Parallel()

	b := NewBuilder(track.TeamAssignment{}, 0.5)
	snap := track.Snapshot{FrameIndex: 3, Players: []track.Detection{playerAt(7, 400, 300)}}

	f := b.Build(snap, nil)
	assert.False(t, f.Projectable)
	assert.Empty(t, f.Players)
	assert.Nil(t, f.Ball)
}

func TestBuildMarksStaleTransform(t *testing.T) {
	t.Parallel()

	b := NewBuilder(track.TeamAssignment{}, 0.5)
	h := scaleTransform(99)
	h.EndFrame = 101

	f := b.Build(track.Snapshot{FrameIndex: 100}, h)
	assert.True(t, f.Projectable)
	assert.True(t, f.Stale)
}

func TestBuildDiscardsOffCourtProjections(t *testing.T) {
	t.Parallel()

	b := NewBuilder(track.TeamAssignment{7: track.TeamA}, 0.5)
	snap := track.Snapshot{
		FrameIndex: 0,
		Players: []track.Detection{
			// Projects to x=50 m, far past the baseline: a bench or
			// crowd detection leaking through the tracker.
			playerAt(7, 2000, 300),
			playerAt(8, 400, 300),
		},
		// Ball projects just past the sideline but within slack.
		Ball: &track.Detection{BBox: court.BBox{X1: 392, Y1: 604, X2: 408, Y2: 612}},
	}

	f := b.Build(snap, scaleTransform(0))
	require.Len(t, f.Players, 1)
	assert.Equal(t, 8, f.Players[0].TrackID)
	require.NotNil(t, f.Ball)
	assert.InDelta(t, 15.2, f.Ball.Y, 1e-9)
}
