package court

// Court dimensions of a full FIBA court, metres.
const (
	LengthMeters = 28.0
	WidthMeters  = 15.0
)

// NumKeypoints is the fixed size of the court keypoint set. Slot order
// is a stable contract with the upstream keypoint detector; slots are
// never reordered.
const NumKeypoints = 18

// templatePoints holds the 18 canonical landmarks in court-plane
// metres, origin at the top-left corner of the court, x along the
// length, y along the width. Slot order: left baseline (6), centre
// line (2), left free-throw lane (2), right baseline (6), right
// free-throw lane (2).
var templatePoints = [NumKeypoints]Point{
	{X: 0, Y: 0},
	{X: 0, Y: 0.91},
	{X: 0, Y: 5.18},
	{X: 0, Y: 10},
	{X: 0, Y: 14.1},
	{X: 0, Y: WidthMeters},

	{X: LengthMeters / 2, Y: WidthMeters},
	{X: LengthMeters / 2, Y: 0},

	{X: 5.79, Y: 5.18},
	{X: 5.79, Y: 10},

	{X: LengthMeters, Y: WidthMeters},
	{X: LengthMeters, Y: 14.1},
	{X: LengthMeters, Y: 10},
	{X: LengthMeters, Y: 5.18},
	{X: LengthMeters, Y: 0.91},
	{X: LengthMeters, Y: 0},

	{X: LengthMeters - 5.79, Y: 5.18},
	{X: LengthMeters - 5.79, Y: 10},
}

// TemplatePoints returns the canonical landmark positions by slot index.
func TemplatePoints() [NumKeypoints]Point {
	return templatePoints
}

// TemplatePoint returns the canonical landmark for one slot.
func TemplatePoint(slot int) Point {
	return templatePoints[slot]
}

// InBounds reports whether a court-plane point lies on the court,
// allowing slack metres beyond the lines for players straddling the
// boundary.
func InBounds(p Point, slack float64) bool {
	return p.X >= -slack && p.X <= LengthMeters+slack &&
		p.Y >= -slack && p.Y <= WidthMeters+slack
}
