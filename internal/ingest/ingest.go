// Package ingest decodes the four external input streams produced by
// the upstream detection models: player detections, ball detections,
// court keypoints, and the team assignment. It assembles them into a
// trajectory store ready for one pipeline run. No model inference
// happens here; files are trusted output of the detection stage.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/courtside-data/courtside.report/internal/court"
	"github.com/courtside-data/courtside.report/internal/monitoring"
	"github.com/courtside-data/courtside.report/internal/track"
)

// Inputs names the four stream files. TeamsPath is optional; without it
// every track is TeamUnknown and no pass/interception events can be
// classified.
type Inputs struct {
	PlayersPath   string
	BallPath      string
	KeypointsPath string
	TeamsPath     string
}

// playerRecord mirrors one player detection row.
type playerRecord struct {
	FrameIndex int        `json:"frame_index"`
	TrackID    int        `json:"track_id"`
	BBox       court.BBox `json:"bbox"`
	Confidence float64    `json:"confidence"`
}

// ballRecord mirrors one ball detection row; at most one per frame
// survives (highest confidence wins upstream, enforced again here).
type ballRecord struct {
	FrameIndex int        `json:"frame_index"`
	BBox       court.BBox `json:"bbox"`
	Confidence float64    `json:"confidence"`
}

// keypointRecord mirrors one frame's 18-slot keypoint set.
type keypointRecord struct {
	FrameIndex int `json:"frame_index"`
	Slots      []struct {
		Point      court.Point `json:"point"`
		Confidence float64     `json:"confidence"`
		Valid      bool        `json:"valid"`
	} `json:"slots"`
}

// Load reads all streams and assembles a store covering the full frame
// range seen across them, with empty snapshots for frames no stream
// mentions. Returns the store and the team assignment.
func Load(in Inputs, lookbackDepth int) (*track.Store, track.TeamAssignment, error) {
	players, err := readPlayers(in.PlayersPath)
	if err != nil {
		return nil, nil, err
	}
	balls, err := readBalls(in.BallPath)
	if err != nil {
		return nil, nil, err
	}
	keypoints, err := readKeypoints(in.KeypointsPath)
	if err != nil {
		return nil, nil, err
	}
	teams := track.TeamAssignment{}
	if in.TeamsPath != "" {
		if teams, err = readTeams(in.TeamsPath); err != nil {
			return nil, nil, err
		}
	}

	first, last, any := frameRange(players, balls, keypoints)
	if !any {
		return nil, nil, fmt.Errorf("ingest: no frames in any input stream")
	}

	store := track.NewStore(lookbackDepth)
	for f := first; f <= last; f++ {
		snap := track.Snapshot{
			FrameIndex: f,
			Players:    players[f],
			Ball:       balls[f],
		}
		if kp, ok := keypoints[f]; ok {
			snap.Keypoints = kp
		}
		if err := store.Ingest(snap); err != nil {
			return nil, nil, fmt.Errorf("ingest: %w", err)
		}
	}

	monitoring.Logf("ingest: %d frames (%d..%d), %d tracks with team labels",
		store.FrameCount(), first, last, len(teams))
	return store, teams, nil
}

func readPlayers(path string) (map[int][]track.Detection, error) {
	var rows []playerRecord
	if err := readJSON(path, &rows); err != nil {
		return nil, fmt.Errorf("players: %w", err)
	}
	out := make(map[int][]track.Detection)
	for _, r := range rows {
		out[r.FrameIndex] = append(out[r.FrameIndex], track.Detection{
			FrameIndex: r.FrameIndex,
			TrackID:    r.TrackID,
			BBox:       r.BBox,
			Confidence: r.Confidence,
		})
	}
	return out, nil
}

func readBalls(path string) (map[int]*track.Detection, error) {
	var rows []ballRecord
	if err := readJSON(path, &rows); err != nil {
		return nil, fmt.Errorf("ball: %w", err)
	}
	out := make(map[int]*track.Detection)
	for _, r := range rows {
		if prev, ok := out[r.FrameIndex]; ok && prev.Confidence >= r.Confidence {
			continue
		}
		out[r.FrameIndex] = &track.Detection{
			FrameIndex: r.FrameIndex,
			TrackID:    track.NoTrack,
			BBox:       r.BBox,
			Confidence: r.Confidence,
		}
	}
	return out, nil
}

func readKeypoints(path string) (map[int]track.CourtKeypoints, error) {
	var rows []keypointRecord
	if err := readJSON(path, &rows); err != nil {
		return nil, fmt.Errorf("keypoints: %w", err)
	}
	out := make(map[int]track.CourtKeypoints)
	for _, r := range rows {
		if len(r.Slots) != court.NumKeypoints {
			return nil, fmt.Errorf("keypoints: frame %d has %d slots, want %d",
				r.FrameIndex, len(r.Slots), court.NumKeypoints)
		}
		var kps track.CourtKeypoints
		for i, s := range r.Slots {
			kps[i] = track.Keypoint{Point: s.Point, Confidence: s.Confidence, Valid: s.Valid}
		}
		out[r.FrameIndex] = kps
	}
	return out, nil
}

// readTeams decodes {"track_id": "A"|"B"} pairs. Unknown labels are an
// input error rather than a silent TeamUnknown.
func readTeams(path string) (track.TeamAssignment, error) {
	var raw map[int]string
	if err := readJSON(path, &raw); err != nil {
		return nil, fmt.Errorf("teams: %w", err)
	}
	out := track.TeamAssignment{}
	for id, label := range raw {
		switch track.Team(label) {
		case track.TeamA, track.TeamB:
			out[id] = track.Team(label)
		default:
			return nil, fmt.Errorf("teams: track %d has unknown team %q", id, label)
		}
	}
	return out, nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func frameRange(players map[int][]track.Detection, balls map[int]*track.Detection, keypoints map[int]track.CourtKeypoints) (first, last int, any bool) {
	span := func(f int) {
		if !any {
			first, last, any = f, f, true
			return
		}
		if f < first {
			first = f
		}
		if f > last {
			last = f
		}
	}
	for f := range players {
		span(f)
	}
	for f := range balls {
		span(f)
	}
	for f := range keypoints {
		span(f)
	}
	return first, last, any
}
