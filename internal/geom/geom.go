// Package geom provides the planar predicates used to rasterize curves and
// areas onto a grid.
package geom

import "math"

// Point represents a 2D point with float64 coordinates.
type Point struct {
	X, Y float64
}

// Pt creates a Point from x, y coordinates.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Sub returns the difference of two points.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Lerp performs linear interpolation between p and q.
func (p Point) Lerp(q Point, t float64) Point {
	return Point{
		X: p.X + (q.X-p.X)*t,
		Y: p.Y + (q.Y-p.Y)*t,
	}
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	Min, Max Point
}

// Bounds returns the bounding box of pts. The result is empty for no points.
func Bounds(pts []Point) Rect {
	r := Rect{
		Min: Point{X: math.Inf(1), Y: math.Inf(1)},
		Max: Point{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	for _, p := range pts {
		r.Min.X = math.Min(r.Min.X, p.X)
		r.Min.Y = math.Min(r.Min.Y, p.Y)
		r.Max.X = math.Max(r.Max.X, p.X)
		r.Max.Y = math.Max(r.Max.Y, p.Y)
	}
	return r
}

// IsEmpty returns true if the box holds no point.
func (r Rect) IsEmpty() bool {
	return r.Min.X > r.Max.X || r.Min.Y > r.Max.Y
}

// Contains returns true if the point is inside the box, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Intersects returns true if two boxes overlap.
func (r Rect) Intersects(o Rect) bool {
	return !(o.Min.X > r.Max.X || o.Max.X < r.Min.X ||
		o.Min.Y > r.Max.Y || o.Max.Y < r.Min.Y)
}

// isLeft returns positive if pt is left of line p0-p1, negative if right, 0 if on.
func isLeft(p0, p1, pt Point) float64 {
	return (p1.X-p0.X)*(pt.Y-p0.Y) - (pt.X-p0.X)*(p1.Y-p0.Y)
}

// lineWinding computes the winding contribution of a line segment.
func lineWinding(p0, p1, pt Point) int {
	if p0.Y <= pt.Y && p1.Y > pt.Y {
		if isLeft(p0, p1, pt) > 0 {
			return 1
		}
	} else if p0.Y > pt.Y && p1.Y <= pt.Y {
		if isLeft(p0, p1, pt) < 0 {
			return -1
		}
	}
	return 0
}

// Winding returns the winding number of pt relative to the closed polygon
// ring. The closing edge from the last vertex back to the first is implied.
func Winding(ring []Point, pt Point) int {
	if len(ring) < 3 {
		return 0
	}
	var w int
	for k := range ring {
		w += lineWinding(ring[k], ring[(k+1)%len(ring)], pt)
	}
	return w
}

// InPolygon reports whether pt lies inside ring under the non-zero rule.
func InPolygon(ring []Point, pt Point) bool {
	return Winding(ring, pt) != 0
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func onSegment(p0, p1, q Point) bool {
	return q.X >= math.Min(p0.X, p1.X) && q.X <= math.Max(p0.X, p1.X) &&
		q.Y >= math.Min(p0.Y, p1.Y) && q.Y <= math.Max(p0.Y, p1.Y)
}

// SegmentsIntersect reports whether segments a0-a1 and b0-b1 share a point.
// Touching endpoints and collinear overlaps count as intersections.
func SegmentsIntersect(a0, a1, b0, b1 Point) bool {
	d1 := sign(isLeft(b0, b1, a0))
	d2 := sign(isLeft(b0, b1, a1))
	d3 := sign(isLeft(a0, a1, b0))
	d4 := sign(isLeft(a0, a1, b1))

	if d1*d2 < 0 && d3*d4 < 0 {
		return true
	}
	switch {
	case d1 == 0 && onSegment(b0, b1, a0):
		return true
	case d2 == 0 && onSegment(b0, b1, a1):
		return true
	case d3 == 0 && onSegment(a0, a1, b0):
		return true
	case d4 == 0 && onSegment(a0, a1, b1):
		return true
	}
	return false
}
