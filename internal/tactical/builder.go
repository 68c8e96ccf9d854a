// Package tactical projects per-frame detections through the current
// court homography into the top-down metric view. The builder is
// stateless per frame: everything it needs is the snapshot and the
// transform covering that frame, so frames without a usable transform
// carry an explicit unprojectable marker instead of stale coordinates.
package tactical

import (
	"github.com/courtside-data/courtside.report/internal/court"
	"github.com/courtside-data/courtside.report/internal/homography"
	"github.com/courtside-data/courtside.report/internal/track"
)

// Position is one projected entity in the court plane, metres.
type Position struct {
	TrackID int         `json:"track_id"`
	Court   court.Point `json:"court"`
	Team    track.Team  `json:"team"`
}

// Frame is the tactical view of one video frame.
type Frame struct {
	FrameIndex int `json:"frame_index"`

	// Projectable is false when no transform has ever been accepted up
	// to this frame; Players and Ball are then empty.
	Projectable bool `json:"projectable"`

	// Stale marks frames projected through a transform estimated on an
	// earlier frame.
	Stale bool `json:"stale,omitempty"`

	Players []Position   `json:"players,omitempty"`
	Ball    *court.Point `json:"ball,omitempty"`
}

// Builder turns snapshots into tactical frames.
type Builder struct {
	teams track.TeamAssignment

	// boundsSlack is how far beyond the court lines, metres, a
	// projected position may land before it is discarded as a
	// projection artefact.
	boundsSlack float64
}

// NewBuilder creates a builder with a fixed team assignment.
func NewBuilder(teams track.TeamAssignment, boundsSlack float64) *Builder {
	return &Builder{teams: teams, boundsSlack: boundsSlack}
}

// Build projects one frame. A nil transform yields an unprojectable
// frame. Player anchors are the bbox foot points; positions projecting
// outside the court (plus slack) are dropped.
func (b *Builder) Build(snap track.Snapshot, h *homography.Homography) Frame {
	out := Frame{FrameIndex: snap.FrameIndex}
	if h == nil {
		return out
	}
	out.Projectable = true
	out.Stale = h.Stale(snap.FrameIndex)

	for _, d := range snap.Players {
		p := h.M.Project(d.BBox.FootAnchor())
		if !court.InBounds(p, b.boundsSlack) {
			continue
		}
		out.Players = append(out.Players, Position{
			TrackID: d.TrackID,
			Court:   p,
			Team:    b.teams[d.TrackID],
		})
	}

	if c, ok := snap.BallCenter(); ok {
		p := h.M.Project(c)
		if court.InBounds(p, b.boundsSlack) {
			out.Ball = &p
		}
	}
	return out
}
