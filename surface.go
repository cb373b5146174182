package gridfit

import (
	"fmt"
	"math"
)

// Undefined is the sentinel value of a node or point that carries no
// meaningful value. It is compared by equality.
const Undefined = 1.70141e+38

// Surface holds one value per node of a grid.
type Surface struct {
	Grid   *Grid
	Values []float64
	Name   string
}

// NewSurface creates a surface on g with every node Undefined.
func NewSurface(g *Grid) *Surface {
	v := make([]float64, g.Size())
	for k := range v {
		v[k] = Undefined
	}
	return &Surface{Grid: g, Values: v}
}

// Validate checks that the value count matches the grid.
func (s *Surface) Validate() error {
	if err := s.Grid.Validate(); err != nil {
		return err
	}
	if len(s.Values) != s.Grid.Size() {
		return fmt.Errorf("%w: surface %q has %d values for %d nodes",
			ErrSizeMismatch, s.Name, len(s.Values), s.Grid.Size())
	}
	return nil
}

// At returns the value of node (i, j).
func (s *Surface) At(i, j int) float64 {
	return s.Values[i+j*s.Grid.CountX()]
}

// Defined returns the number of nodes with a value.
func (s *Surface) Defined() int {
	n := 0
	for _, v := range s.Values {
		if v != Undefined {
			n++
		}
	}
	return n
}

// MinMax returns the range of the defined values. ok is false when no node
// is defined.
func (s *Surface) MinMax() (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range s.Values {
		if v == Undefined {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		ok = true
	}
	return lo, hi, ok
}

// axis locates coordinate t on an axis with n nodes and returns the lower
// node index and the fractional offset towards the next node.
func axis(t, start, step float64, n int) (int, float64, bool) {
	u := (t - start) / step
	const eps = 1e-9
	if u < -eps || u > float64(n-1)+eps {
		return 0, 0, false
	}
	if n == 1 {
		return 0, 0, true
	}
	k := int(math.Floor(u))
	k = min(max(k, 0), n-2)
	f := u - float64(k)
	switch {
	case math.Abs(f) < eps:
		f = 0
	case math.Abs(f-1) < eps:
		f = 1
	}
	return k, f, true
}

// Value returns the bilinear interpolation of the surface at (x, y). It
// returns Undefined outside the grid or when a corner with non-zero weight
// is undefined.
func (s *Surface) Value(x, y float64) float64 {
	g := s.Grid
	nn, mm := g.CountX(), g.CountY()
	i, fx, okX := axis(x, g.StartX, g.StepX, nn)
	j, fy, okY := axis(y, g.StartY, g.StepY, mm)
	if !okX || !okY {
		return Undefined
	}

	var sum float64
	for _, c := range [4]struct {
		di, dj int
		w      float64
	}{
		{0, 0, (1 - fx) * (1 - fy)},
		{1, 0, fx * (1 - fy)},
		{0, 1, (1 - fx) * fy},
		{1, 1, fx * fy},
	} {
		if c.w == 0 {
			continue
		}
		v := s.Values[(i+c.di)+(j+c.dj)*nn]
		if v == Undefined {
			return Undefined
		}
		sum += c.w * v
	}
	return sum
}

// Project resamples the surface onto g.
func (s *Surface) Project(g *Grid) *Surface {
	if s.Grid.Equal(g) {
		v := make([]float64, len(s.Values))
		copy(v, s.Values)
		return &Surface{Grid: g, Values: v, Name: s.Name}
	}

	out := &Surface{Grid: g, Values: make([]float64, g.Size()), Name: s.Name}
	nn, mm := g.CountX(), g.CountY()
	for j := range mm {
		y := g.NodeY(j)
		for i := range nn {
			out.Values[i+j*nn] = s.Value(g.NodeX(i), y)
		}
	}
	return out
}
