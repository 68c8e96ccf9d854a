// Package possession assigns the ball to at most one player per frame.
// Raw nearest-player assignment flickers with detector noise, so the
// assigner applies temporal hysteresis: an established holder is only
// displaced by a rival who stays closer for a run of consecutive
// frames, and short ball-detection dropouts carry the holder forward.
package possession

import (
	"math"

	"github.com/courtside-data/courtside.report/internal/court"
	"github.com/courtside-data/courtside.report/internal/track"
)

// NoHolder marks a frame where nobody controls the ball.
const NoHolder = track.NoTrack

// Record is the per-frame possession outcome. At most one holder per
// frame, by construction.
type Record struct {
	FrameIndex int `json:"frame_index"`
	Holder     int `json:"holder"` // NoHolder when none
}

// Config holds the assigner's tuning knobs.
type Config struct {
	// MaxDistance is the ball-to-player assignment threshold, pixels.
	MaxDistance float64
	// DisplaceFrames is how many consecutive frames a closer rival
	// needs before taking possession from the current holder.
	DisplaceFrames int
	// CarryGapFrames is how long the previous holder is carried while
	// the ball is undetected before possession reverts to none.
	CarryGapFrames int
}

// Assigner turns per-frame snapshots into a gapless possession stream.
type Assigner struct {
	cfg Config

	holder     int
	candidate  int
	streak     int
	missingRun int
}

// NewAssigner creates an assigner with no current holder.
func NewAssigner(cfg Config) *Assigner {
	return &Assigner{cfg: cfg, holder: NoHolder, candidate: NoHolder}
}

// Reset clears all hysteresis state.
func (a *Assigner) Reset() {
	a.holder = NoHolder
	a.candidate = NoHolder
	a.streak = 0
	a.missingRun = 0
}

// Step consumes one frame snapshot and emits its possession record.
// Records come out one per frame with monotonically increasing frame
// index and no gaps, because Step is called once per ingested frame.
func (a *Assigner) Step(snap track.Snapshot) Record {
	ball, ok := snap.BallCenter()
	if !ok {
		a.stepMissingBall()
		return Record{FrameIndex: snap.FrameIndex, Holder: a.holder}
	}
	a.missingRun = 0

	bestID, bestDist := nearestPlayer(snap.Players, ball, a.cfg.MaxDistance)

	switch {
	case bestID == NoHolder:
		// Ball detected away from everyone: clearly loose.
		a.holder = NoHolder
		a.clearCandidate()

	case a.holder == NoHolder:
		// Acquisition from a loose ball is immediate; hysteresis only
		// protects an established holder.
		a.holder = bestID
		a.clearCandidate()

	case bestID == a.holder:
		a.clearCandidate()

	default:
		a.stepRival(snap.Players, ball, bestID, bestDist)
	}

	return Record{FrameIndex: snap.FrameIndex, Holder: a.holder}
}

// stepMissingBall carries the holder across a detection gap, up to the
// configured limit.
func (a *Assigner) stepMissingBall() {
	a.clearCandidate()
	if a.holder == NoHolder {
		return
	}
	a.missingRun++
	if a.missingRun > a.cfg.CarryGapFrames {
		a.holder = NoHolder
		a.missingRun = 0
	}
}

// stepRival advances the displacement streak for a rival candidate. The
// incumbent keeps possession until the rival has been strictly closer,
// and within threshold, for DisplaceFrames consecutive frames.
func (a *Assigner) stepRival(players []track.Detection, ball court.Point, bestID int, bestDist float64) {
	holderDist := math.Inf(1)
	for _, p := range players {
		if p.TrackID == a.holder {
			holderDist = p.BBox.DistanceTo(ball)
			break
		}
	}

	if bestDist >= holderDist {
		// Rival not strictly closer (exact tie keeps the incumbent).
		a.clearCandidate()
		return
	}

	if bestID == a.candidate {
		a.streak++
	} else {
		a.candidate = bestID
		a.streak = 1
	}
	if a.streak >= a.cfg.DisplaceFrames {
		a.holder = bestID
		a.clearCandidate()
	}
}

func (a *Assigner) clearCandidate() {
	a.candidate = NoHolder
	a.streak = 0
}

// nearestPlayer returns the closest player within maxDist, measuring to
// the nearest point of each bounding box. Exact distance ties go to the
// smallest track id.
func nearestPlayer(players []track.Detection, ball court.Point, maxDist float64) (int, float64) {
	bestID := NoHolder
	bestDist := math.Inf(1)
	for _, p := range players {
		d := p.BBox.DistanceTo(ball)
		if d > maxDist {
			continue
		}
		if d < bestDist || (d == bestDist && p.TrackID < bestID) {
			bestID = p.TrackID
			bestDist = d
		}
	}
	return bestID, bestDist
}
