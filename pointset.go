package gridfit

import (
	"fmt"
	"math"
)

// PointSet is a set of scattered measurements. Z values equal to Undefined
// mark points that carry no meaningful value.
type PointSet struct {
	X, Y, Z []float64
	Name    string
}

// Len returns the number of points.
func (p *PointSet) Len() int { return len(p.Z) }

// Validate checks that the coordinate and value slices agree in length.
func (p *PointSet) Validate() error {
	if len(p.X) != len(p.Z) || len(p.Y) != len(p.Z) {
		return fmt.Errorf("%w: points %q have %d x, %d y, %d z",
			ErrSizeMismatch, p.Name, len(p.X), len(p.Y), len(p.Z))
	}
	return nil
}

// Bounds returns the coordinate extent. ok is false for an empty set.
func (p *PointSet) Bounds() (minX, maxX, minY, maxY float64, ok bool) {
	if len(p.X) == 0 || len(p.Y) == 0 {
		return 0, 0, 0, 0, false
	}
	minX, maxX = math.Inf(1), math.Inf(-1)
	minY, maxY = math.Inf(1), math.Inf(-1)
	for k := range p.X {
		minX = math.Min(minX, p.X[k])
		maxX = math.Max(maxX, p.X[k])
		minY = math.Min(minY, p.Y[k])
		maxY = math.Max(maxY, p.Y[k])
	}
	return minX, maxX, minY, maxY, true
}

// Mean returns the mean of the defined values, or Undefined when there are
// none.
func (p *PointSet) Mean() float64 {
	var sum float64
	cnt := 0
	for _, z := range p.Z {
		if z == Undefined {
			continue
		}
		sum += z
		cnt++
	}
	if cnt == 0 {
		return Undefined
	}
	return sum / float64(cnt)
}

// RemoveValue drops every point whose value equals v.
func (p *PointSet) RemoveValue(v float64) {
	j := 0
	for i, z := range p.Z {
		if z == v {
			continue
		}
		p.X[j], p.Y[j], p.Z[j] = p.X[i], p.Y[i], z
		j++
	}
	p.X, p.Y, p.Z = p.X[:j], p.Y[:j], p.Z[:j]
}
