package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/courtside-data/courtside.report/internal/events"
	"github.com/courtside-data/courtside.report/internal/kinematics"
	"github.com/courtside-data/courtside.report/internal/pipeline"
	"github.com/courtside-data/courtside.report/internal/possession"
	"github.com/courtside-data/courtside.report/internal/track"
)

// Run is one persisted pipeline run.
type Run struct {
	ID                  uuid.UUID
	Source              string
	FramesProcessed     int
	HomographyFallbacks int
	TeamAFrames         int
	TeamBFrames         int
	CreatedAt           time.Time
}

// SaveRun persists all outputs of one pipeline run under a fresh run
// id, atomically. Source is a free-form label for the footage (file
// name, camera id).
func (db *DB) SaveRun(source string, res *pipeline.Results) (uuid.UUID, error) {
	runID := uuid.New()

	tx, err := db.Begin()
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (id, source, frames_processed, homography_fallbacks, team_a_frames, team_b_frames)
		VALUES (?, ?, ?, ?, ?, ?)`,
		runID.String(), source, res.FramesProcessed, res.HomographyFallbacks,
		res.TeamControl[track.TeamA], res.TeamControl[track.TeamB])
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert run: %w", err)
	}

	for _, ev := range res.Events {
		_, err = tx.Exec(`
			INSERT INTO events (run_id, type, start_frame, end_frame, from_player, to_player, from_team, to_team, outcome)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID.String(), string(ev.Type), ev.StartFrame, ev.EndFrame,
			ev.FromPlayer, ev.ToPlayer, string(ev.FromTeam), string(ev.ToTeam), string(ev.Outcome))
		if err != nil {
			return uuid.Nil, fmt.Errorf("insert event: %w", err)
		}
	}

	for _, rec := range res.Possession {
		_, err = tx.Exec(`
			INSERT INTO possession (run_id, frame_index, holder) VALUES (?, ?, ?)`,
			runID.String(), rec.FrameIndex, rec.Holder)
		if err != nil {
			return uuid.Nil, fmt.Errorf("insert possession: %w", err)
		}
	}

	for _, sum := range res.Kinematics {
		var maxKmh, sumKmh float64
		for _, s := range sum.SpeedSeries {
			sumKmh += s.SpeedKmh
			if s.SpeedKmh > maxKmh {
				maxKmh = s.SpeedKmh
			}
		}
		avgKmh := 0.0
		if len(sum.SpeedSeries) > 0 {
			avgKmh = sumKmh / float64(len(sum.SpeedSeries))
		}
		_, err = tx.Exec(`
			INSERT INTO kinematics (run_id, track_id, cumulative_distance_m, avg_speed_kmh, max_speed_kmh)
			VALUES (?, ?, ?, ?, ?)`,
			runID.String(), sum.TrackID, sum.CumulativeDistanceM, avgKmh, maxKmh)
		if err != nil {
			return uuid.Nil, fmt.Errorf("insert kinematics: %w", err)
		}
		for _, s := range sum.SpeedSeries {
			_, err = tx.Exec(`
				INSERT INTO speed_samples (run_id, track_id, frame_index, speed_kmh) VALUES (?, ?, ?, ?)`,
				runID.String(), sum.TrackID, s.FrameIndex, s.SpeedKmh)
			if err != nil {
				return uuid.Nil, fmt.Errorf("insert speed sample: %w", err)
			}
		}
	}

	for _, a := range res.Anomalies {
		_, err = tx.Exec(`
			INSERT INTO anomalies (run_id, track_id, frame_index, speed_kmh) VALUES (?, ?, ?, ?)`,
			runID.String(), a.TrackID, a.FrameIndex, a.SpeedKmh)
		if err != nil {
			return uuid.Nil, fmt.Errorf("insert anomaly: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

// Runs returns all persisted runs, newest first.
func (db *DB) Runs() ([]Run, error) {
	rows, err := db.Query(`
		SELECT id, source, frames_processed, homography_fallbacks, team_a_frames, team_b_frames, created_at
		FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var id string
		if err := rows.Scan(&id, &r.Source, &r.FramesProcessed, &r.HomographyFallbacks,
			&r.TeamAFrames, &r.TeamBFrames, &r.CreatedAt); err != nil {
			return nil, err
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("runs.id %q: %w", id, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// EventsForRun returns the event log of one run in frame order.
func (db *DB) EventsForRun(runID uuid.UUID) ([]events.Event, error) {
	rows, err := db.Query(`
		SELECT type, start_frame, end_frame, from_player, to_player, from_team, to_team, outcome
		FROM events WHERE run_id = ? ORDER BY start_frame, id`, runID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []events.Event
	for rows.Next() {
		var ev events.Event
		var typ, fromTeam, toTeam, outcome string
		if err := rows.Scan(&typ, &ev.StartFrame, &ev.EndFrame,
			&ev.FromPlayer, &ev.ToPlayer, &fromTeam, &toTeam, &outcome); err != nil {
			return nil, err
		}
		ev.Type = events.Type(typ)
		ev.FromTeam = track.Team(fromTeam)
		ev.ToTeam = track.Team(toTeam)
		ev.Outcome = events.Outcome(outcome)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// PossessionForRun returns one run's possession stream in frame order.
func (db *DB) PossessionForRun(runID uuid.UUID) ([]possession.Record, error) {
	rows, err := db.Query(`
		SELECT frame_index, holder FROM possession WHERE run_id = ? ORDER BY frame_index`,
		runID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []possession.Record
	for rows.Next() {
		var rec possession.Record
		if err := rows.Scan(&rec.FrameIndex, &rec.Holder); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// KinematicsForRun returns per-player summaries with their speed
// series, ordered by track id.
func (db *DB) KinematicsForRun(runID uuid.UUID) ([]kinematics.Summary, error) {
	rows, err := db.Query(`
		SELECT track_id, cumulative_distance_m FROM kinematics WHERE run_id = ? ORDER BY track_id`,
		runID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []kinematics.Summary
	for rows.Next() {
		var sum kinematics.Summary
		if err := rows.Scan(&sum.TrackID, &sum.CumulativeDistanceM); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		srows, err := db.Query(`
			SELECT frame_index, speed_kmh FROM speed_samples
			WHERE run_id = ? AND track_id = ? ORDER BY frame_index`,
			runID.String(), out[i].TrackID)
		if err != nil {
			return nil, err
		}
		for srows.Next() {
			var s kinematics.Sample
			if err := srows.Scan(&s.FrameIndex, &s.SpeedKmh); err != nil {
				srows.Close()
				return nil, err
			}
			out[i].SpeedSeries = append(out[i].SpeedSeries, s)
		}
		if err := srows.Err(); err != nil {
			srows.Close()
			return nil, err
		}
		srows.Close()
	}
	return out, nil
}

// AnomaliesForRun returns one run's speed-cap anomalies.
func (db *DB) AnomaliesForRun(runID uuid.UUID) ([]kinematics.Anomaly, error) {
	rows, err := db.Query(`
		SELECT track_id, frame_index, speed_kmh FROM anomalies WHERE run_id = ? ORDER BY frame_index`,
		runID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []kinematics.Anomaly
	for rows.Next() {
		var a kinematics.Anomaly
		if err := rows.Scan(&a.TrackID, &a.FrameIndex, &a.SpeedKmh); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
