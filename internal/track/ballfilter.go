package track

import "github.com/courtside-data/courtside.report/internal/court"

// ConditionBall cleans the ball trajectory in place after ingest:
// detections implying an implausible jump from the last good detection
// are dropped, then interior gaps up to maxInterpGap frames are bridged
// by linear interpolation of the bounding box. Player detections are
// never touched; only the ball track is smooth enough to interpolate
// safely because there is at most one ball.
//
// The jump budget scales with the frame gap: a detection may be up to
// maxJumpPerFrame pixels away from the last good one per elapsed frame.
func (s *Store) ConditionBall(maxJumpPerFrame float64, maxInterpGap int) {
	s.rejectBallJumps(maxJumpPerFrame)
	s.interpolateBallGaps(maxInterpGap)
}

func (s *Store) rejectBallJumps(maxJumpPerFrame float64) {
	lastGood := -1
	for i := range s.snapshots {
		ball := s.snapshots[i].Ball
		if ball == nil {
			continue
		}
		if lastGood == -1 {
			lastGood = i
			continue
		}
		prev := s.snapshots[lastGood].Ball
		gap := float64(i - lastGood)
		jump := prev.BBox.Center().DistanceTo(ball.BBox.Center())
		if jump > maxJumpPerFrame*gap {
			s.snapshots[i].Ball = nil
		} else {
			lastGood = i
		}
	}
}

func (s *Store) interpolateBallGaps(maxInterpGap int) {
	prev := -1
	for i := range s.snapshots {
		if s.snapshots[i].Ball == nil {
			continue
		}
		if prev >= 0 && i-prev > 1 && i-prev-1 <= maxInterpGap {
			s.fillBallGap(prev, i)
		}
		prev = i
	}
}

// fillBallGap writes interpolated ball detections between two observed
// frames. Synthesised detections carry zero confidence and the
// Interpolated flag so downstream consumers can tell them apart.
func (s *Store) fillBallGap(from, to int) {
	a := s.snapshots[from].Ball.BBox
	b := s.snapshots[to].Ball.BBox
	span := float64(to - from)
	for i := from + 1; i < to; i++ {
		t := float64(i-from) / span
		s.snapshots[i].Ball = &Detection{
			FrameIndex: s.snapshots[i].FrameIndex,
			TrackID:    s.snapshots[from].Ball.TrackID,
			BBox: court.BBox{
				X1: a.X1 + (b.X1-a.X1)*t,
				Y1: a.Y1 + (b.Y1-a.Y1)*t,
				X2: a.X2 + (b.X2-a.X2)*t,
				Y2: a.Y2 + (b.Y2-a.Y2)*t,
			},
			Interpolated: true,
		}
	}
}
