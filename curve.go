package gridfit

import (
	"fmt"

	"github.com/gogpu/gridfit/internal/geom"
)

// Curve is a polyline. A curve used as an area boundary is closed
// implicitly.
type Curve struct {
	X, Y []float64
	Name string
}

// Len returns the number of vertices.
func (c *Curve) Len() int { return len(c.X) }

// Validate checks that the coordinate slices agree in length.
func (c *Curve) Validate() error {
	if len(c.X) != len(c.Y) {
		return fmt.Errorf("%w: curve %q has %d x and %d y", ErrSizeMismatch, c.Name, len(c.X), len(c.Y))
	}
	return nil
}

func (c *Curve) points() []geom.Point {
	pts := make([]geom.Point, len(c.X))
	for k := range c.X {
		pts[k] = geom.Pt(c.X[k], c.Y[k])
	}
	return pts
}

// Area is a region bounded by one or more closed curves. A point is inside
// when an odd number of boundaries enclose it, so nested curves form holes.
type Area struct {
	Curves []*Curve
	Name   string

	rings  [][]geom.Point
	bounds []geom.Rect
}

// NewArea creates an area from its boundary curves.
func NewArea(name string, curves ...*Curve) *Area {
	a := &Area{Curves: curves, Name: name}
	a.prepare()
	return a
}

func (a *Area) prepare() {
	if a.rings != nil {
		return
	}
	a.rings = make([][]geom.Point, 0, len(a.Curves))
	a.bounds = make([]geom.Rect, 0, len(a.Curves))
	for _, c := range a.Curves {
		pts := c.points()
		a.rings = append(a.rings, pts)
		a.bounds = append(a.bounds, geom.Bounds(pts))
	}
}

// Contains reports whether (x, y) lies inside the area.
func (a *Area) Contains(x, y float64) bool {
	a.prepare()
	pt := geom.Pt(x, y)
	inside := false
	for k, ring := range a.rings {
		if !a.bounds[k].Contains(pt) {
			continue
		}
		if geom.InPolygon(ring, pt) {
			inside = !inside
		}
	}
	return inside
}
