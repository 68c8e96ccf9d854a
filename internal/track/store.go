package track

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange is returned when a frame index outside the ingested
	// range is requested.
	ErrOutOfRange = errors.New("frame index out of ingested range")

	// ErrNonMonotonicFrame is returned when ingest sees a frame index
	// that does not extend the sequence. A structurally invalid input
	// stream is fatal to the run rather than silently reordered.
	ErrNonMonotonicFrame = errors.New("non-monotonic frame index")
)

// Store ingests detections in frame order and exposes per-frame
// snapshots plus a bounded lookback window per track id. Frames must be
// contiguous and strictly increasing; video frames always are, and
// anything else indicates a broken upstream stream.
type Store struct {
	snapshots []Snapshot
	first     int
	lookback  int
	byTrack   map[int][]Detection // ring of most recent detections per track
}

// NewStore creates a store with the given per-track lookback depth.
func NewStore(lookbackDepth int) *Store {
	if lookbackDepth < 1 {
		lookbackDepth = 1
	}
	return &Store{
		lookback: lookbackDepth,
		byTrack:  make(map[int][]Detection),
	}
}

// Ingest appends one frame snapshot. The snapshot's frame index must be
// exactly one past the previous frame (or any index for the first).
func (s *Store) Ingest(snap Snapshot) error {
	if len(s.snapshots) == 0 {
		s.first = snap.FrameIndex
	} else if want := s.first + len(s.snapshots); snap.FrameIndex != want {
		return fmt.Errorf("%w: got frame %d, want %d", ErrNonMonotonicFrame, snap.FrameIndex, want)
	}
	s.snapshots = append(s.snapshots, snap)

	for _, d := range snap.Players {
		s.pushTrack(d.TrackID, d)
	}
	return nil
}

func (s *Store) pushTrack(id int, d Detection) {
	win := append(s.byTrack[id], d)
	if len(win) > s.lookback {
		win = win[len(win)-s.lookback:]
	}
	s.byTrack[id] = win
}

// Frame returns the snapshot for a frame index.
func (s *Store) Frame(frameIndex int) (Snapshot, error) {
	i := frameIndex - s.first
	if len(s.snapshots) == 0 || i < 0 || i >= len(s.snapshots) {
		return Snapshot{}, fmt.Errorf("%w: frame %d", ErrOutOfRange, frameIndex)
	}
	return s.snapshots[i], nil
}

// FirstFrame returns the first ingested frame index.
func (s *Store) FirstFrame() int { return s.first }

// LastFrame returns the last ingested frame index.
func (s *Store) LastFrame() int { return s.first + len(s.snapshots) - 1 }

// FrameCount returns the number of ingested frames.
func (s *Store) FrameCount() int { return len(s.snapshots) }

// Lookback returns up to depth most recent detections for a track, in
// frame order, bounded by the store's configured lookback depth.
func (s *Store) Lookback(trackID, depth int) []Detection {
	win := s.byTrack[trackID]
	if depth < len(win) {
		win = win[len(win)-depth:]
	}
	out := make([]Detection, len(win))
	copy(out, win)
	return out
}

// Cursor returns a restartable cursor over all ingested snapshots.
func (s *Store) Cursor() *Cursor {
	return &Cursor{store: s}
}

// Cursor is a lazy, restartable sequence of per-frame snapshots.
type Cursor struct {
	store *Store
	pos   int
}

// Next returns the next snapshot, or false when the sequence is done.
func (c *Cursor) Next() (Snapshot, bool) {
	if c.pos >= len(c.store.snapshots) {
		return Snapshot{}, false
	}
	snap := c.store.snapshots[c.pos]
	c.pos++
	return snap, true
}

// Reset restarts the cursor from the first frame.
func (c *Cursor) Reset() { c.pos = 0 }
