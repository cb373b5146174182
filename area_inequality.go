package gridfit

import (
	"context"
	"fmt"

	"github.com/gogpu/gridfit/bitmask"
)

// AreaInequality is a soft one-sided bound applied to the nodes inside an
// area, or outside it.
type AreaInequality struct {
	base
	bound  bound
	area   *Area
	inside bool

	// mask is computed against maskGrid.
	mask     *bitmask.Mask
	maskGrid *Grid
	maskSig  uint64
}

// NewAreaInequality creates a bound restricted to area. With inside false
// the bound applies to the exterior of the area.
func NewAreaInequality(value float64, area *Area, leq bool, mult float64, inside bool, opts ...FunctionalOption) *AreaInequality {
	b := bound{value: value, leq: leq, mult: mult}
	where := "inside"
	if !inside {
		where = "outside"
	}
	name := fmt.Sprintf("area inequality %s %s", b, where)
	if area.Name != "" {
		name += " " + area.Name
	}
	o := applyFunctionalOptions(name, opts)
	return &AreaInequality{base: base{name: o.name}, bound: b, area: area, inside: inside}
}

func (f *AreaInequality) condition() {}

func (f *AreaInequality) prepare(sc *SolveContext) { f.regionMask(sc.Grid) }

// regionMask returns the nodes of g the bound applies to.
func (f *AreaInequality) regionMask(g *Grid) *bitmask.Mask {
	sig := g.Signature()
	if f.mask != nil && f.maskSig == sig && f.maskGrid.Equal(g) {
		return f.mask
	}

	nn, mm := g.CountX(), g.CountY()
	m := bitmask.New(nn * mm)
	m.InitFalse()
	for j := range mm {
		y := g.NodeY(j)
		for i := range nn {
			if f.area.Contains(g.NodeX(i), y) {
				m.SetTrue(i + j*nn)
			}
		}
	}
	if !f.inside {
		m.Invert()
	}

	f.mask = m
	c := *g
	f.maskGrid = &c
	f.maskSig = sig
	Logger().Debug("area mask", "functional", f.name, "nodes", m.TrueCount())
	return m
}

// Assemble returns the penalty system for the violating nodes within the
// area. An area with no node on the grid is not solvable.
func (f *AreaInequality) Assemble(sc *SolveContext, solved, undefined *bitmask.Mask) (System, bool) {
	within := f.regionMask(sc.Grid)
	if within.IsEmpty() {
		return System{}, false
	}
	sys := f.bound.assemble(sc.X, solved, undefined, within)
	sys, _ = f.wrapSums(sc, sys, solved, undefined)
	return sys, true
}

// Minimize fails: an area inequality never determines nodes on its own.
func (f *AreaInequality) Minimize(context.Context, *SolveContext) error {
	return fmt.Errorf("%s: %w: condition without target", f.name, ErrNotSolvable)
}

// CommitMasks does nothing; an area inequality never claims nodes.
func (f *AreaInequality) CommitMasks(*SolveContext, *bitmask.Mask, *bitmask.Mask, bool) {}

// DropCaches forgets the area mask.
func (f *AreaInequality) DropCaches() {
	f.mask = nil
	f.maskGrid = nil
	f.dropDependents()
}
