package gridfit

import (
	"math"

	"github.com/gogpu/gridfit/bitmask"
	"github.com/gogpu/gridfit/internal/geom"
)

// FaultLine is a set of fault curves traced onto a grid. It records every
// link between adjacent nodes that a curve crosses.
type FaultLine struct {
	nn, mm int

	// cutX bit pos marks the link pos -> pos+1, cutY the link pos -> pos+nn.
	cutX  *bitmask.Mask
	cutY  *bitmask.Mask
	nodes *bitmask.Mask
	count int
}

// NewFaultLine traces curves onto g.
func NewFaultLine(g *Grid, curves ...*Curve) *FaultLine {
	nn, mm := g.CountX(), g.CountY()
	f := &FaultLine{
		nn:    nn,
		mm:    mm,
		cutX:  bitmask.New(nn * mm),
		cutY:  bitmask.New(nn * mm),
		nodes: bitmask.New(nn * mm),
	}
	f.cutX.InitFalse()
	f.cutY.InitFalse()
	f.nodes.InitFalse()

	for _, c := range curves {
		pts := c.points()
		for k := 1; k < len(pts); k++ {
			f.trace(g, pts[k-1], pts[k])
		}
	}
	return f
}

func (f *FaultLine) trace(g *Grid, p0, p1 geom.Point) {
	seg := geom.Bounds([]geom.Point{p0, p1})
	i0 := g.clampI(int(math.Floor((seg.Min.X - g.StartX) / g.StepX)))
	i1 := g.clampI(int(math.Floor((seg.Max.X-g.StartX)/g.StepX)) + 1)
	j0 := g.clampJ(int(math.Floor((seg.Min.Y - g.StartY) / g.StepY)))
	j1 := g.clampJ(int(math.Floor((seg.Max.Y-g.StartY)/g.StepY)) + 1)

	for j := j0; j <= j1; j++ {
		for i := i0; i <= i1; i++ {
			a := geom.Pt(g.NodeX(i), g.NodeY(j))
			pos := i + j*f.nn
			if i+1 < f.nn && geom.SegmentsIntersect(a, geom.Pt(g.NodeX(i+1), a.Y), p0, p1) {
				f.cut(f.cutX, pos, pos+1)
			}
			if j+1 < f.mm && geom.SegmentsIntersect(a, geom.Pt(a.X, g.NodeY(j+1)), p0, p1) {
				f.cut(f.cutY, pos, pos+f.nn)
			}
		}
	}
}

func (f *FaultLine) cut(m *bitmask.Mask, a, b int) {
	if m.Get(a) {
		return
	}
	m.SetTrue(a)
	f.nodes.SetTrue(a)
	f.nodes.SetTrue(b)
	f.count++
}

// Cut reports whether the link between adjacent nodes a and b crosses a
// fault. A nil FaultLine cuts nothing.
func (f *FaultLine) Cut(a, b int) bool {
	if f == nil {
		return false
	}
	if b < a {
		a, b = b, a
	}
	switch {
	case b == a+1 && a%f.nn != f.nn-1:
		return f.cutX.Get(a)
	case b == a+f.nn:
		return f.cutY.Get(a)
	}
	return false
}

// HasNode reports whether node pos is an endpoint of a cut link.
func (f *FaultLine) HasNode(pos int) bool {
	return f != nil && f.nodes.Get(pos)
}

// Links returns the number of cut links.
func (f *FaultLine) Links() int {
	if f == nil {
		return 0
	}
	return f.count
}
