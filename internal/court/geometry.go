// Package court provides the 2D geometry primitives shared across the
// analytics pipeline: image-plane points and bounding boxes, and the
// canonical metric court template used for homography estimation.
package court

import "math"

// Point is a 2D coordinate. The unit depends on context: pixels in the
// image plane, metres in the court plane.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceTo returns the Euclidean distance to q.
func (p Point) DistanceTo(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// BBox is an axis-aligned bounding box (x1,y1)=(top-left),
// (x2,y2)=(bottom-right) in image coordinates.
type BBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Width returns the box width in pixels.
func (b BBox) Width() float64 { return b.X2 - b.X1 }

// Height returns the box height in pixels.
func (b BBox) Height() float64 { return b.Y2 - b.Y1 }

// Center returns the centre point of the box.
func (b BBox) Center() Point {
	return Point{X: (b.X1 + b.X2) / 2, Y: (b.Y1 + b.Y2) / 2}
}

// FootAnchor returns the bottom-centre point of the box. For a player
// detection this approximates the ground contact point and is the
// anchor projected into the court plane.
func (b BBox) FootAnchor() Point {
	return Point{X: (b.X1 + b.X2) / 2, Y: b.Y2}
}

// ClosestPointTo returns the point on or inside the box nearest to p.
func (b BBox) ClosestPointTo(p Point) Point {
	return Point{
		X: math.Min(math.Max(p.X, b.X1), b.X2),
		Y: math.Min(math.Max(p.Y, b.Y1), b.Y2),
	}
}

// DistanceTo returns the distance from p to the nearest point of the
// box. Zero when p lies inside the box.
func (b BBox) DistanceTo(p Point) float64 {
	return p.DistanceTo(b.ClosestPointTo(p))
}

// Contains reports whether p lies within the box (inclusive).
func (b BBox) Contains(p Point) bool {
	return p.X >= b.X1 && p.X <= b.X2 && p.Y >= b.Y1 && p.Y <= b.Y2
}
