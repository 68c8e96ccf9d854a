// Package track owns the raw per-frame detections for the lifetime of a
// pipeline run. It validates frame ordering on ingest, keeps a bounded
// per-track lookback window, and hands out read-only snapshots to the
// downstream analytics stages.
package track

import (
	"github.com/courtside-data/courtside.report/internal/court"
)

// NoTrack is the sentinel track id meaning "no player".
const NoTrack = -1

// Team identifies one of the two teams. Assignment comes from the
// upstream jersey classifier and is immutable here.
type Team string

const (
	TeamUnknown Team = ""
	TeamA       Team = "A"
	TeamB       Team = "B"
)

// TeamAssignment maps track id to team. Supplied once, never re-derived.
type TeamAssignment map[int]Team

// Opponent returns the other team, or TeamUnknown for TeamUnknown.
func (t Team) Opponent() Team {
	switch t {
	case TeamA:
		return TeamB
	case TeamB:
		return TeamA
	}
	return TeamUnknown
}

// Detection is one tracked object observation in one frame. TrackID is
// stable across frames for the same physical player; that guarantee
// comes from the upstream tracker.
type Detection struct {
	FrameIndex int        `json:"frame_index"`
	TrackID    int        `json:"track_id"`
	BBox       court.BBox `json:"bbox"`
	Confidence float64    `json:"confidence"`

	// Interpolated marks ball detections synthesised by gap bridging
	// rather than observed by the detector.
	Interpolated bool `json:"interpolated,omitempty"`
}

// Keypoint is one slot of the court keypoint set.
type Keypoint struct {
	Point      court.Point `json:"point"`
	Confidence float64     `json:"confidence"`
	Valid      bool        `json:"valid"`
}

// CourtKeypoints is the fixed 18-slot keypoint set. Slot index denotes
// a fixed physical court landmark.
type CourtKeypoints [court.NumKeypoints]Keypoint

// ValidCount returns how many slots hold a valid point with confidence
// at or above the floor.
func (k CourtKeypoints) ValidCount(minConfidence float64) int {
	n := 0
	for _, kp := range k {
		if kp.Valid && kp.Confidence >= minConfidence {
			n++
		}
	}
	return n
}

// Snapshot is the complete detection state of one frame.
type Snapshot struct {
	FrameIndex int
	Players    []Detection
	Ball       *Detection
	Keypoints  CourtKeypoints
}

// BallCenter returns the ball centre point, if a ball was detected.
func (s Snapshot) BallCenter() (court.Point, bool) {
	if s.Ball == nil {
		return court.Point{}, false
	}
	return s.Ball.BBox.Center(), true
}
