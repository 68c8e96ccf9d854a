// Package homography estimates and maintains the per-frame projective
// transform from image coordinates to metric court-plane coordinates.
// Real footage frequently occludes court landmarks, so the engine keeps
// an explicit staleness contract: frames that cannot be estimated reuse
// the most recent accepted transform, and frames before the first
// acceptance are marked unprojectable.
package homography

import (
	"errors"
	"math"

	"github.com/courtside-data/courtside.report/internal/court"
)

var (
	// ErrUnprojectable means no transform has ever been accepted.
	ErrUnprojectable = errors.New("no homography accepted yet")

	// ErrNotEstimable means this frame's keypoints cannot support
	// estimation (too few, inconsistent, or degenerate).
	ErrNotEstimable = errors.New("keypoints insufficient for homography")
)

// Matrix is a row-major 3x3 projective transform.
type Matrix [9]float64

// Project applies the transform to a point. Points at projective
// infinity (w ~ 0) map to +Inf coordinates, which downstream bounds
// checks discard.
func (m Matrix) Project(p court.Point) court.Point {
	w := m[6]*p.X + m[7]*p.Y + m[8]
	if math.Abs(w) < 1e-12 {
		return court.Point{X: math.Inf(1), Y: math.Inf(1)}
	}
	return court.Point{
		X: (m[0]*p.X + m[1]*p.Y + m[2]) / w,
		Y: (m[3]*p.X + m[4]*p.Y + m[5]) / w,
	}
}

// Homography is a transform with the frame range it covers. The range
// end is exclusive and extends whenever a later frame falls back to
// this transform.
type Homography struct {
	M Matrix

	// StartFrame..EndFrame is the valid range [start, end).
	StartFrame int
	EndFrame   int

	// SourceFrame is the frame whose keypoints produced the transform;
	// SourceFrame < StartFrame never happens, but SourceFrame may be
	// well behind a frame that reuses the transform.
	SourceFrame int
}

// Stale reports whether the transform was estimated on an earlier
// frame than the one it is being used for.
func (h *Homography) Stale(frameIndex int) bool {
	return frameIndex != h.SourceFrame
}
