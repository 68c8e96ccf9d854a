// Package events turns the possession stream and the ball trajectory
// into semantic game events: passes, interceptions, and shot attempts.
// An explicit state machine replaces scattered per-frame flags so the
// hysteresis and shot-resolution rules are independently testable.
package events

import (
	"math"

	"github.com/courtside-data/courtside.report/internal/court"
	"github.com/courtside-data/courtside.report/internal/possession"
	"github.com/courtside-data/courtside.report/internal/track"
)

// Type classifies an event.
type Type string

const (
	Pass         Type = "pass"
	Interception Type = "interception"
	ShotAttempt  Type = "shot_attempt"
)

// Outcome resolves a shot attempt.
type Outcome string

const (
	OutcomeNone Outcome = ""
	Make        Outcome = "make"
	Miss        Outcome = "miss"
)

// Event is one detected game event. FromPlayer/ToPlayer are track ids;
// ToPlayer is NoTrack for shot attempts.
type Event struct {
	Type       Type       `json:"type"`
	StartFrame int        `json:"start_frame"`
	EndFrame   int        `json:"end_frame"`
	FromPlayer int        `json:"from_player"`
	ToPlayer   int        `json:"to_player"`
	FromTeam   track.Team `json:"from_team"`
	ToTeam     track.Team `json:"to_team"`
	Outcome    Outcome    `json:"outcome,omitempty"`
}

// HoopZone is one basket's trigger region and its net sub-region, image
// coordinates. The net box sits below the rim inside the zone; a ball
// entering it from above scores.
type HoopZone struct {
	Zone court.BBox
	Net  court.BBox
}

// Config holds the detector's tuning knobs.
type Config struct {
	PassMaxGapFrames         int
	ShotLookbackFrames       int
	ShotUpwardDisplacementPx float64
	ShotCooldownFrames       int
	ShotTimeoutFrames        int
	PossessionLookbackFrames int
	HoopZones                []HoopZone
}

type state int

const (
	stateNoPossession state = iota
	statePossessing
	stateBallInAir
)

// Detector is the event state machine. It consumes one possession
// record per frame, in order, and appends to an ordered event log.
type Detector struct {
	cfg   Config
	teams track.TeamAssignment
	store *track.Store

	state  state
	holder int

	// release context, meaningful in stateNoPossession
	lastHolder   int
	releaseFrame int

	// shot context, meaningful in stateBallInAir
	shooter     int
	shooterTeam track.Team
	shotStart   int
	targetZone  int
	enteredZone bool

	lastShotEnd int // cooldown anchor

	events []Event
}

// NewDetector builds a detector over the given trajectory store (for
// ball lookback) and static team assignment.
func NewDetector(cfg Config, teams track.TeamAssignment, store *track.Store) *Detector {
	return &Detector{
		cfg:         cfg,
		teams:       teams,
		store:       store,
		holder:      possession.NoHolder,
		lastHolder:  possession.NoHolder,
		lastShotEnd: math.MinInt32,
	}
}

// Events returns the append-only ordered event log so far.
func (d *Detector) Events() []Event { return d.events }

// Step consumes one possession record. Records must arrive in frame
// order with no gaps.
func (d *Detector) Step(rec possession.Record) {
	switch d.state {
	case statePossessing:
		d.stepPossessing(rec)
	case stateNoPossession:
		d.stepNoPossession(rec)
	case stateBallInAir:
		d.stepBallInAir(rec)
	}
}

// Finish closes the stream: a still-pending shot attempt is resolved as
// a miss rather than left open.
func (d *Detector) Finish(lastFrame int) {
	if d.state == stateBallInAir {
		d.emitShot(lastFrame, Miss)
		d.state = stateNoPossession
		d.lastHolder = possession.NoHolder
	}
}

func (d *Detector) stepPossessing(rec possession.Record) {
	f := rec.FrameIndex
	switch {
	case rec.Holder == d.holder:
		// Holding on.

	case rec.Holder != possession.NoHolder:
		// Direct holder-to-holder transition.
		d.emitTransition(d.holder, rec.Holder, f, f)
		d.holder = rec.Holder

	default:
		// Ball released.
		d.lastHolder = d.holder
		d.releaseFrame = f
		d.holder = possession.NoHolder
		if d.tryStartShot(f) {
			return
		}
		d.state = stateNoPossession
	}
}

func (d *Detector) stepNoPossession(rec possession.Record) {
	f := rec.FrameIndex

	if rec.Holder == possession.NoHolder {
		// Ball still loose; the shot trigger may fire late as the arc
		// develops.
		d.tryStartShot(f)
		return
	}

	if d.lastHolder != possession.NoHolder &&
		rec.Holder != d.lastHolder &&
		f-d.releaseFrame <= d.cfg.PassMaxGapFrames {
		d.emitTransition(d.lastHolder, rec.Holder, d.releaseFrame, f)
	}
	d.holder = rec.Holder
	d.lastHolder = possession.NoHolder
	d.state = statePossessing
}

func (d *Detector) stepBallInAir(rec possession.Record) {
	f := rec.FrameIndex

	if f-d.shotStart >= d.cfg.ShotTimeoutFrames {
		d.resolveShot(f, Miss, rec)
		return
	}

	cur, curOK := d.ballCenterAt(f)
	prev, prevOK := d.ballCenterAt(f - 1)
	if curOK && d.targetZone >= 0 {
		hz := d.cfg.HoopZones[d.targetZone]
		inZone := hz.Zone.Contains(cur)
		if hz.Net.Contains(cur) && prevOK && prev.Y < hz.Net.Y1 {
			// Through the net, entered from above.
			d.resolveShot(f, Make, rec)
			return
		}
		if d.enteredZone && !inZone {
			// Left the hoop zone without passing the net.
			d.resolveShot(f, Miss, rec)
			return
		}
		if inZone {
			d.enteredZone = true
		}
	}

	if rec.Holder != possession.NoHolder {
		// Possession resumed without the ball passing the net.
		d.resolveShot(f, Miss, rec)
	}
}

// resolveShot emits the shot event and transitions out of BallInAir.
// A rebound is a fresh possession: no pass or interception is derived
// from the shooter-to-rebounder change.
func (d *Detector) resolveShot(f int, outcome Outcome, rec possession.Record) {
	d.emitShot(f, outcome)
	d.lastHolder = possession.NoHolder
	if rec.Holder != possession.NoHolder {
		d.holder = rec.Holder
		d.state = statePossessing
	} else {
		d.holder = possession.NoHolder
		d.state = stateNoPossession
	}
}

func (d *Detector) emitShot(endFrame int, outcome Outcome) {
	d.events = append(d.events, Event{
		Type:       ShotAttempt,
		StartFrame: d.shotStart,
		EndFrame:   endFrame,
		FromPlayer: d.shooter,
		ToPlayer:   track.NoTrack,
		FromTeam:   d.shooterTeam,
		Outcome:    outcome,
	})
	d.lastShotEnd = endFrame
}

// emitTransition classifies a completed possession change as a pass or
// an interception based on the two holders' teams. Unknown teams emit
// nothing: better no event than a wrong one.
func (d *Detector) emitTransition(from, to, startFrame, endFrame int) {
	fromTeam := d.teams[from]
	toTeam := d.teams[to]
	if fromTeam == track.TeamUnknown || toTeam == track.TeamUnknown {
		return
	}
	typ := Pass
	if fromTeam != toTeam {
		typ = Interception
	}
	d.events = append(d.events, Event{
		Type:       typ,
		StartFrame: startFrame,
		EndFrame:   endFrame,
		FromPlayer: from,
		ToPlayer:   to,
		FromTeam:   fromTeam,
		ToTeam:     toTeam,
	})
}

// tryStartShot fires the shot trigger: significant upward ball motion
// (image y decreasing) over the lookback window, attributed to the most
// recent possessor, subject to a cooldown. Returns true when the
// detector moved to BallInAir.
func (d *Detector) tryStartShot(f int) bool {
	if f-d.lastShotEnd < d.cfg.ShotCooldownFrames {
		return false
	}
	cur, ok := d.ballCenterAt(f)
	if !ok {
		return false
	}
	past, ok := d.ballCenterAt(f - d.cfg.ShotLookbackFrames)
	if !ok {
		return false
	}
	if past.Y-cur.Y < d.cfg.ShotUpwardDisplacementPx {
		return false
	}

	shooter, team := d.recentPossessor(f)
	if team == track.TeamUnknown {
		return false
	}

	d.shooter = shooter
	d.shooterTeam = team
	d.shotStart = f
	d.targetZone = d.nearestZone(cur)
	d.enteredZone = false
	d.state = stateBallInAir
	return true
}

// recentPossessor walks back through the release context for the last
// player with possession. With hysteresis upstream the release context
// is authoritative; the lookback bound keeps stale holders out.
func (d *Detector) recentPossessor(f int) (int, track.Team) {
	if d.lastHolder == possession.NoHolder {
		return track.NoTrack, track.TeamUnknown
	}
	if f-d.releaseFrame > d.cfg.PossessionLookbackFrames {
		return track.NoTrack, track.TeamUnknown
	}
	return d.lastHolder, d.teams[d.lastHolder]
}

// nearestZone picks the hoop zone closest to the ball at trigger time,
// or -1 when no zones are calibrated.
func (d *Detector) nearestZone(ball court.Point) int {
	best := -1
	bestDist := math.Inf(1)
	for i, hz := range d.cfg.HoopZones {
		if dist := hz.Zone.DistanceTo(ball); dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	return best
}

func (d *Detector) ballCenterAt(f int) (court.Point, bool) {
	snap, err := d.store.Frame(f)
	if err != nil {
		return court.Point{}, false
	}
	return snap.BallCenter()
}
