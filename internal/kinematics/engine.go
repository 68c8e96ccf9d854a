// Package kinematics integrates court-plane displacement into
// per-player cumulative distance and smoothed speed. Inputs are the
// projected positions from the tactical view; frames where a player is
// missing are bridged over a bounded gap rather than interpolated, and
// physically impossible single-frame speeds are flagged and excluded
// instead of silently inflating the distance totals.
package kinematics

import (
	"sort"

	"github.com/courtside-data/courtside.report/internal/court"
	"github.com/courtside-data/courtside.report/internal/units"
)

// Sample is one smoothed speed reading.
type Sample struct {
	FrameIndex int     `json:"frame_index"`
	SpeedKmh   float64 `json:"speed_kmh"`
}

// Anomaly records a frame whose implied instantaneous speed exceeded
// the configured cap. The displacement was not added to the player's
// cumulative distance.
type Anomaly struct {
	TrackID    int     `json:"track_id"`
	FrameIndex int     `json:"frame_index"`
	SpeedKmh   float64 `json:"speed_kmh"`
}

// Summary is the accumulated kinematics of one player.
type Summary struct {
	TrackID             int      `json:"track_id"`
	CumulativeDistanceM float64  `json:"cumulative_distance_m"`
	SpeedSeries         []Sample `json:"speed_series"`
}

// Config holds the engine's tuning knobs.
type Config struct {
	// FrameRate is the video frame rate, frames per second.
	FrameRate float64
	// MaxSpeedKmh is the instantaneous speed cap; faster implied
	// movement is an anomaly.
	MaxSpeedKmh float64
	// SpeedWindowFrames is the rolling-mean window for the reported
	// speed series.
	SpeedWindowFrames int
	// MaxBridgeGapFrames is the longest detection gap whose
	// displacement still counts; past it the player's track restarts.
	MaxBridgeGapFrames int
}

// accumulator is the per-player running state.
type accumulator struct {
	anchored   bool
	lastFrame  int
	lastPos    court.Point
	distanceM  float64
	window     []float64 // recent instantaneous speeds, m/s
	series     []Sample
}

// Engine accumulates per-player kinematics. Observations must arrive
// in frame order per player; different players are independent.
type Engine struct {
	cfg       Config
	players   map[int]*accumulator
	anomalies []Anomaly
}

// NewEngine creates an engine.
func NewEngine(cfg Config) *Engine {
	if cfg.SpeedWindowFrames < 1 {
		cfg.SpeedWindowFrames = 1
	}
	return &Engine{cfg: cfg, players: make(map[int]*accumulator)}
}

// Observe feeds one projected position for one player. The first
// observation of a track anchors it without producing a speed sample.
func (e *Engine) Observe(frameIndex, trackID int, pos court.Point) {
	acc := e.players[trackID]
	if acc == nil {
		acc = &accumulator{}
		e.players[trackID] = acc
	}

	if !acc.anchored {
		acc.anchor(frameIndex, pos)
		return
	}

	gap := frameIndex - acc.lastFrame
	if gap <= 0 {
		return
	}
	if gap > e.cfg.MaxBridgeGapFrames {
		// Too long unseen: restart the track rather than credit an
		// unobserved run across the court.
		acc.anchor(frameIndex, pos)
		return
	}

	dt := float64(gap) / e.cfg.FrameRate
	distM := acc.lastPos.DistanceTo(pos)
	speedMps := distM / dt

	if units.MpsToKmh(speedMps) > e.cfg.MaxSpeedKmh {
		e.anomalies = append(e.anomalies, Anomaly{
			TrackID:    trackID,
			FrameIndex: frameIndex,
			SpeedKmh:   units.MpsToKmh(speedMps),
		})
		// Keep the previous anchor: the outlier position is treated as
		// unobserved, so the next frame bridges across it.
		return
	}

	acc.lastFrame = frameIndex
	acc.lastPos = pos
	acc.distanceM += distM
	acc.push(speedMps, e.cfg.SpeedWindowFrames)
	acc.series = append(acc.series, Sample{
		FrameIndex: frameIndex,
		SpeedKmh:   units.MpsToKmh(acc.mean()),
	})
}

func (a *accumulator) anchor(frameIndex int, pos court.Point) {
	a.anchored = true
	a.lastFrame = frameIndex
	a.lastPos = pos
	a.window = a.window[:0]
}

func (a *accumulator) push(speedMps float64, window int) {
	a.window = append(a.window, speedMps)
	if len(a.window) > window {
		a.window = a.window[1:]
	}
}

func (a *accumulator) mean() float64 {
	var sum float64
	for _, s := range a.window {
		sum += s
	}
	return sum / float64(len(a.window))
}

// Summaries returns one summary per observed player, ordered by track
// id.
func (e *Engine) Summaries() []Summary {
	out := make([]Summary, 0, len(e.players))
	for id, acc := range e.players {
		out = append(out, Summary{
			TrackID:             id,
			CumulativeDistanceM: acc.distanceM,
			SpeedSeries:         acc.series,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TrackID < out[j].TrackID })
	return out
}

// Anomalies returns the flagged speed-cap violations in observation
// order.
func (e *Engine) Anomalies() []Anomaly {
	return e.anomalies
}

// Distance returns the cumulative distance for one player, metres.
func (e *Engine) Distance(trackID int) float64 {
	if acc := e.players[trackID]; acc != nil {
		return acc.distanceM
	}
	return 0
}
