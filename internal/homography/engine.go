package homography

import (
	"math"

	"github.com/courtside-data/courtside.report/internal/court"
	"github.com/courtside-data/courtside.report/internal/track"
)

// Config holds the engine's tuning knobs.
type Config struct {
	// MinKeypoints is the minimum surviving keypoint count; never
	// below 4.
	MinKeypoints int
	// MinConfidence is the detection confidence floor per slot.
	MinConfidence float64
	// ProportionTolerance is the relative error margin for the
	// pairwise-distance consistency check against the court template.
	ProportionTolerance float64
	// ResidualTrim is the court-plane residual (metres) above which a
	// correspondence is dropped before the re-fit.
	ResidualTrim float64
	// CollinearityMinSpread is the minimum minor-axis spread (pixels)
	// of the accepted image points.
	CollinearityMinSpread float64
}

// Engine validates keypoints frame by frame and maintains the current
// transform with fallback. Fallback resolution is sequential: later
// frames must observe the most recent accepted transform in frame
// order, so Step must be called in frame order.
type Engine struct {
	cfg      Config
	template [court.NumKeypoints]court.Point

	current   *Homography
	fallbacks int
}

// NewEngine creates an engine against the canonical court template.
func NewEngine(cfg Config) *Engine {
	if cfg.MinKeypoints < 4 {
		cfg.MinKeypoints = 4
	}
	return &Engine{cfg: cfg, template: court.TemplatePoints()}
}

// Fallbacks returns how many frames reused a previous transform.
func (e *Engine) Fallbacks() int { return e.fallbacks }

// Current returns the transform covering the most recent stepped frame,
// or nil before the first acceptance.
func (e *Engine) Current() *Homography { return e.current }

// Step examines one frame's keypoints. On acceptance it estimates a new
// transform starting at this frame; on rejection it extends the current
// transform's range. Before any acceptance it returns ErrUnprojectable.
func (e *Engine) Step(frameIndex int, kps track.CourtKeypoints) (*Homography, error) {
	slots := e.validate(kps)
	if len(slots) >= e.cfg.MinKeypoints {
		src := make([]court.Point, len(slots))
		dst := make([]court.Point, len(slots))
		for i, s := range slots {
			src[i] = kps[s].Point
			dst[i] = e.template[s]
		}
		if !nearCollinear(src, e.cfg.CollinearityMinSpread) {
			if m, err := EstimateRobust(src, dst, e.cfg.ResidualTrim, e.cfg.MinKeypoints); err == nil {
				e.current = &Homography{
					M:           m,
					StartFrame:  frameIndex,
					EndFrame:    frameIndex + 1,
					SourceFrame: frameIndex,
				}
				return e.current, nil
			}
		}
	}

	// Rejected: reuse the most recent accepted transform.
	if e.current == nil {
		return nil, ErrUnprojectable
	}
	e.current.EndFrame = frameIndex + 1
	e.fallbacks++
	return e.current, nil
}

// validate returns the slot indices that survive the confidence floor
// and the proportional-distance consistency check. For each detected
// slot the ratio of its distances to two other detected slots is
// compared with the same ratio on the court template; a slot whose
// ratio disagrees beyond the tolerance is a misdetection.
func (e *Engine) validate(kps track.CourtKeypoints) []int {
	var detected []int
	for i, kp := range kps {
		if kp.Valid && kp.Confidence >= e.cfg.MinConfidence {
			detected = append(detected, i)
		}
	}
	// Proportions need at least three points; below that, pass through.
	if len(detected) < 3 {
		return detected
	}

	invalid := make(map[int]bool)
	for _, i := range detected {
		var others []int
		for _, j := range detected {
			if j != i && !invalid[j] {
				others = append(others, j)
			}
		}
		if len(others) < 2 {
			continue
		}
		j, k := others[0], others[1]

		dIJ := kps[i].Point.DistanceTo(kps[j].Point)
		dIK := kps[i].Point.DistanceTo(kps[k].Point)
		tIJ := e.template[i].DistanceTo(e.template[j])
		tIK := e.template[i].DistanceTo(e.template[k])
		if tIJ == 0 || tIK == 0 || dIK == 0 {
			continue
		}

		propDetected := dIJ / dIK
		propTemplate := tIJ / tIK
		if math.Abs((propDetected-propTemplate)/propTemplate) > e.cfg.ProportionTolerance {
			invalid[i] = true
		}
	}

	kept := detected[:0]
	for _, i := range detected {
		if !invalid[i] {
			kept = append(kept, i)
		}
	}
	return kept
}

// nearCollinear rejects point sets whose minor-axis spread is too small
// to pin down a projective transform. Spread is the standard deviation
// along the minor principal axis.
func nearCollinear(pts []court.Point, minSpread float64) bool {
	if minSpread <= 0 {
		return false
	}
	n := float64(len(pts))
	var cx, cy float64
	for _, p := range pts {
		cx += p.X
		cy += p.Y
	}
	cx /= n
	cy /= n

	var xx, xy, yy float64
	for _, p := range pts {
		dx, dy := p.X-cx, p.Y-cy
		xx += dx * dx
		xy += dx * dy
		yy += dy * dy
	}
	xx /= n
	xy /= n
	yy /= n

	// Smaller eigenvalue of the 2x2 covariance matrix.
	mean := (xx + yy) / 2
	det := math.Sqrt((xx-yy)*(xx-yy)/4 + xy*xy)
	lambdaMin := mean - det
	if lambdaMin < 0 {
		lambdaMin = 0
	}
	return math.Sqrt(lambdaMin) < minSpread
}
