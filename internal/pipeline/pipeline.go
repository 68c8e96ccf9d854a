// Package pipeline runs one ordered analytics pass over an ingested
// trajectory store: ball conditioning, possession assignment, event
// detection, homography maintenance, tactical projection, and
// kinematics accumulation. Every stage consumes only bounded lookback,
// so a single cursor pass produces the same results as a staged
// implementation.
package pipeline

import (
	"context"
	"errors"

	"github.com/courtside-data/courtside.report/internal/config"
	"github.com/courtside-data/courtside.report/internal/court"
	"github.com/courtside-data/courtside.report/internal/events"
	"github.com/courtside-data/courtside.report/internal/homography"
	"github.com/courtside-data/courtside.report/internal/kinematics"
	"github.com/courtside-data/courtside.report/internal/possession"
	"github.com/courtside-data/courtside.report/internal/tactical"
	"github.com/courtside-data/courtside.report/internal/track"
)

// Options carries optional collaborators for a run.
type Options struct {
	// Metrics receives per-run counter increments; nil disables it.
	Metrics *Metrics
}

// Results is everything one pipeline run produces. On cancellation the
// struct holds the internally consistent prefix computed so far.
type Results struct {
	Possession []possession.Record  `json:"possession"`
	Events     []events.Event       `json:"events"`
	Tactical   []tactical.Frame     `json:"tactical"`
	Kinematics []kinematics.Summary `json:"kinematics"`
	Anomalies  []kinematics.Anomaly `json:"anomalies"`

	// TeamControl counts frames of established possession per team.
	TeamControl map[track.Team]int `json:"team_control"`

	FramesProcessed     int `json:"frames_processed"`
	HomographyFallbacks int `json:"homography_fallbacks"`
}

// Run performs one full pass over the store. Cancellation stops after
// the current frame and returns the partial results alongside ctx.Err().
func Run(ctx context.Context, store *track.Store, teams track.TeamAssignment, tcfg *config.TuningConfig, opts Options) (*Results, error) {
	store.ConditionBall(tcfg.GetBallMaxJumpPxPerFrame(), tcfg.GetBallMaxInterpGapFrames())

	assigner := possession.NewAssigner(possession.Config{
		MaxDistance:    tcfg.GetPossessionMaxDistancePx(),
		DisplaceFrames: tcfg.GetPossessionDisplaceFrames(),
		CarryGapFrames: tcfg.GetPossessionCarryGapFrames(),
	})
	detector := events.NewDetector(events.Config{
		PassMaxGapFrames:         tcfg.GetPassMaxGapFrames(),
		ShotLookbackFrames:       tcfg.GetShotLookbackFrames(),
		ShotUpwardDisplacementPx: tcfg.GetShotUpwardDisplacementPx(),
		ShotCooldownFrames:       tcfg.GetShotCooldownFrames(),
		ShotTimeoutFrames:        tcfg.GetShotTimeoutFrames(),
		PossessionLookbackFrames: tcfg.GetShotPossessionLookbackFrames(),
		HoopZones:                hoopZones(tcfg),
	}, teams, store)
	hengine := homography.NewEngine(homography.Config{
		MinKeypoints:          tcfg.GetMinValidKeypoints(),
		MinConfidence:         tcfg.GetKeypointMinConfidence(),
		ProportionTolerance:   tcfg.GetKeypointProportionTolerance(),
		ResidualTrim:          tcfg.GetResidualTrimMeters(),
		CollinearityMinSpread: tcfg.GetCollinearityMinSpreadPx(),
	})
	builder := tactical.NewBuilder(teams, tcfg.GetCourtBoundsSlackMeters())
	kin := kinematics.NewEngine(kinematics.Config{
		FrameRate:          tcfg.GetFrameRate(),
		MaxSpeedKmh:        tcfg.GetMaxPlayerSpeedKmh(),
		SpeedWindowFrames:  tcfg.GetSpeedWindowFrames(),
		MaxBridgeGapFrames: tcfg.GetMaxBridgeGapFrames(),
	})

	res := &Results{TeamControl: make(map[track.Team]int)}
	Diagf("run start: %d frames, %d tracked teams", store.FrameCount(), len(teams))

	cur := store.Cursor()
	var runErr error
	for {
		if err := ctx.Err(); err != nil {
			Opsf("run cancelled after frame %d: %v", store.FirstFrame()+res.FramesProcessed-1, err)
			runErr = err
			break
		}
		snap, ok := cur.Next()
		if !ok {
			break
		}

		rec := assigner.Step(snap)
		res.Possession = append(res.Possession, rec)
		if rec.Holder != possession.NoHolder {
			res.TeamControl[teams[rec.Holder]]++
		}
		detector.Step(rec)

		h, err := hengine.Step(snap.FrameIndex, snap.Keypoints)
		if err != nil {
			if !errors.Is(err, homography.ErrUnprojectable) {
				Opsf("homography at frame %d: %v", snap.FrameIndex, err)
			}
			h = nil
			if opts.Metrics != nil {
				opts.Metrics.UnprojectableFrames.Inc()
			}
		}

		tf := builder.Build(snap, h)
		res.Tactical = append(res.Tactical, tf)
		for _, p := range tf.Players {
			kin.Observe(tf.FrameIndex, p.TrackID, p.Court)
		}

		res.FramesProcessed++
		if opts.Metrics != nil {
			opts.Metrics.FramesProcessed.Inc()
		}
		Tracef("frame %d: holder=%d players=%d projectable=%v",
			snap.FrameIndex, rec.Holder, len(tf.Players), tf.Projectable)
	}

	if res.FramesProcessed > 0 {
		detector.Finish(store.FirstFrame() + res.FramesProcessed - 1)
	}
	res.Events = detector.Events()
	res.Kinematics = kin.Summaries()
	res.Anomalies = kin.Anomalies()
	res.HomographyFallbacks = hengine.Fallbacks()

	if opts.Metrics != nil {
		for _, ev := range res.Events {
			opts.Metrics.EventsByType.WithLabelValues(string(ev.Type)).Inc()
		}
		opts.Metrics.HomographyFallbacks.Add(float64(res.HomographyFallbacks))
		opts.Metrics.KinematicsAnomalies.Add(float64(len(res.Anomalies)))
	}

	Diagf("run done: frames=%d events=%d fallbacks=%d anomalies=%d",
		res.FramesProcessed, len(res.Events), res.HomographyFallbacks, len(res.Anomalies))
	return res, runErr
}

// hoopZones converts the configured zone rectangles into detector form.
func hoopZones(tcfg *config.TuningConfig) []events.HoopZone {
	var out []events.HoopZone
	for _, hz := range tcfg.GetHoopZones() {
		out = append(out, events.HoopZone{
			Zone: court.BBox{X1: hz.Zone[0], Y1: hz.Zone[1], X2: hz.Zone[2], Y2: hz.Zone[3]},
			Net:  court.BBox{X1: hz.Net[0], Y1: hz.Net[1], X2: hz.Net[2], Y2: hz.Net[3]},
		})
	}
	return out
}
