package pipeline

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtside-data/courtside.report/internal/config"
	"github.com/courtside-data/courtside.report/internal/court"
	"github.com/courtside-data/courtside.report/internal/events"
	"github.com/courtside-data/courtside.report/internal/possession"
	"github.com/courtside-data/courtside.report/internal/track"
)

// fullKeypoints places all 18 landmarks under a 40 px/metre top-down
// camera, so the estimated transform is a pure scale.
func fullKeypoints() track.CourtKeypoints {
	var kps track.CourtKeypoints
	for i := 0; i < court.NumKeypoints; i++ {
		p := court.TemplatePoint(i)
		kps[i] = track.Keypoint{
			Point:      court.Point{X: p.X * 40, Y: p.Y * 40},
			Confidence: 0.9,
			Valid:      true,
		}
	}
	return kps
}

func sparseKeypoints() track.CourtKeypoints {
	full := fullKeypoints()
	var kps track.CourtKeypoints
	for _, s := range []int{0, 7, 10} {
		kps[s] = full[s]
	}
	return kps
}

func playerBox(footX float64) court.BBox {
	return court.BBox{X1: footX - 20, Y1: 420, X2: footX + 20, Y2: 500}
}

// passStore scripts a pass: player 7 holds the ball, releases it at
// frame 41, and it travels at 25 px per frame to player 12, who gains
// at frame 53. Frame 5 has too few keypoints and must fall back.
func passStore(t *testing.T) *track.Store {
	t.Helper()
	s := track.NewStore(30)
	for f := 0; f < 60; f++ {
		ballX := 400.0
		switch {
		case f >= 41 && f <= 54:
			ballX = 400 + 25*float64(f-40)
		case f > 54:
			ballX = 750
		}
		snap := track.Snapshot{
			FrameIndex: f,
			Players: []track.Detection{
				{FrameIndex: f, TrackID: 7, BBox: playerBox(400), Confidence: 0.9},
				{FrameIndex: f, TrackID: 12, BBox: playerBox(800), Confidence: 0.9},
			},
			Ball: &track.Detection{
				FrameIndex: f,
				BBox:       court.BBox{X1: ballX - 8, Y1: 452, X2: ballX + 8, Y2: 468},
			},
			Keypoints: fullKeypoints(),
		}
		if f == 5 {
			snap.Keypoints = sparseKeypoints()
		}
		require.NoError(t, s.Ingest(snap))
	}
	return s
}

func testTeams() track.TeamAssignment {
	return track.TeamAssignment{7: track.TeamA, 12: track.TeamA}
}

func TestRunEndToEnd(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	res, err := Run(context.Background(), passStore(t), testTeams(),
		config.EmptyTuningConfig(), Options{Metrics: m})
	require.NoError(t, err)

	assert.Equal(t, 60, res.FramesProcessed)
	require.Len(t, res.Possession, 60)
	assert.Equal(t, 7, res.Possession[10].Holder)
	assert.Equal(t, possession.NoHolder, res.Possession[48].Holder)
	assert.Equal(t, 12, res.Possession[56].Holder)

	require.Len(t, res.Events, 1)
	assert.Equal(t, events.Pass, res.Events[0].Type)
	assert.Equal(t, 7, res.Events[0].FromPlayer)
	assert.Equal(t, 12, res.Events[0].ToPlayer)
	assert.Equal(t, 44, res.Events[0].StartFrame)
	assert.Equal(t, 53, res.Events[0].EndFrame)

	// Frame 5 reused frame 4's transform; everything else estimated.
	assert.Equal(t, 1, res.HomographyFallbacks)
	require.Len(t, res.Tactical, 60)
	assert.True(t, res.Tactical[0].Projectable)
	assert.True(t, res.Tactical[5].Projectable)
	assert.True(t, res.Tactical[5].Stale)
	require.Len(t, res.Tactical[10].Players, 2)
	assert.InDelta(t, 10.0, res.Tactical[10].Players[0].Court.X, 0.01)
	assert.InDelta(t, 12.5, res.Tactical[10].Players[0].Court.Y, 0.01)

	// Static players accumulate no distance and no anomalies.
	require.Len(t, res.Kinematics, 2)
	assert.InDelta(t, 0.0, res.Kinematics[0].CumulativeDistanceM, 1e-9)
	assert.Empty(t, res.Anomalies)

	// Possession held 0-43 by player 7 and 53-59 by player 12.
	assert.Equal(t, 51, res.TeamControl[track.TeamA])
	assert.Zero(t, res.TeamControl[track.TeamB])

	assert.InDelta(t, 60.0, promtestutil.ToFloat64(m.FramesProcessed), 0)
	assert.InDelta(t, 1.0, promtestutil.ToFloat64(m.EventsByType.WithLabelValues("pass")), 0)
	assert.InDelta(t, 1.0, promtestutil.ToFloat64(m.HomographyFallbacks), 0)
	assert.InDelta(t, 0.0, promtestutil.ToFloat64(m.KinematicsAnomalies), 0)
}

func TestRunCancellationReturnsPartialResults(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Run(ctx, passStore(t), testTeams(), config.EmptyTuningConfig(), Options{})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Zero(t, res.FramesProcessed)
	assert.Empty(t, res.Possession)
}
