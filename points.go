package gridfit

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/gogpu/gridfit/bitmask"
	"github.com/gogpu/gridfit/sparse"
)

// cellGroup is the set of points falling into one grid cell.
type cellGroup struct {
	pos    int
	points []int
}

// Points binds a point set to the grid: every cell holding points gets the
// mean of their values.
type Points struct {
	base
	set      *PointSet
	weighted bool

	// groups is bound to boundGrid; rebound only when the grid changes.
	groups    []cellGroup
	boundGrid *Grid
	boundSig  uint64
}

// NewPoints creates a point binding functional.
func NewPoints(set *PointSet, opts ...FunctionalOption) *Points {
	name := "points"
	if set.Name != "" {
		name = "points " + set.Name
	}
	o := applyFunctionalOptions(name, opts)
	return &Points{base: base{name: o.name}, set: set, weighted: o.weighted}
}

// PointSet returns the bound data.
func (f *Points) PointSet() *PointSet { return f.set }

func (f *Points) prepare(sc *SolveContext) { f.bind(sc.Grid) }

// bind groups the points by cell of g unless they are already bound to an
// equal grid.
func (f *Points) bind(g *Grid) {
	sig := g.Signature()
	if f.boundGrid != nil && f.boundSig == sig && f.boundGrid.Equal(g) {
		return
	}

	cells := make(map[int][]int)
	for k := range f.set.Z {
		pos, ok := g.Cell(f.set.X[k], f.set.Y[k])
		if !ok {
			continue
		}
		cells[pos] = append(cells[pos], k)
	}

	groups := make([]cellGroup, 0, len(cells))
	for pos, pts := range cells {
		groups = append(groups, cellGroup{pos: pos, points: pts})
	}
	sort.Slice(groups, func(a, b int) bool { return groups[a].pos < groups[b].pos })

	f.groups = groups
	c := *g
	f.boundGrid = &c
	f.boundSig = sig
	Logger().Debug("points bound", "functional", f.name, "points", f.set.Len(), "cells", len(groups))
}

// value returns the aggregated value of a cell, or Undefined when any of
// its points is undefined.
func (f *Points) value(g *Grid, grp cellGroup) float64 {
	nn := g.CountX()
	cx, cy := g.NodeX(grp.pos%nn), g.NodeY(grp.pos/nn)

	var sum, wsum float64
	for _, k := range grp.points {
		z := f.set.Z[k]
		if z == Undefined {
			return Undefined
		}
		w := 1.0
		if f.weighted {
			d := math.Hypot(f.set.X[k]-cx, f.set.Y[k]-cy)
			w = 1 / (d + 1e-6*math.Min(g.StepX, g.StepY))
		}
		sum += w * z
		wsum += w
	}
	return sum / wsum
}

// Assemble builds a unit identity over the unknown cells holding points
// with the cell values as right-hand side. Cells whose value is Undefined
// do not enter the system; they are marked undefined on commit instead.
func (f *Points) Assemble(sc *SolveContext, solved, undefined *bitmask.Mask) (System, bool) {
	f.bind(sc.Grid)

	n := sc.Size()
	mask := bitmask.New(n)
	mask.InitFalse()
	rhs := make([]float64, n)
	points := 0
	for _, grp := range f.groups {
		if solved.Get(grp.pos) || undefined.Get(grp.pos) {
			continue
		}
		v := f.value(sc.Grid, grp)
		if v == Undefined {
			continue
		}
		rhs[grp.pos] = v
		mask.SetTrue(grp.pos)
		points++
	}

	var sys System
	if points > 0 {
		sys = System{Op: sparse.NewIdentity(1, mask, solved, undefined), RHS: rhs, Points: points}
	}
	Logger().Debug("points assembled", "functional", f.name, "points", points)

	sys, addOK := f.wrapSums(sc, sys, solved, undefined)
	return sys, points > 0 || addOK
}

// Minimize writes the cell values directly when nothing depends on the
// binding; otherwise it solves the combined system.
func (f *Points) Minimize(ctx context.Context, sc *SolveContext) error {
	if f.alone() {
		f.solveAlone(sc)
		return nil
	}
	sys, ok := f.Assemble(sc, sc.Solved, sc.Undefined)
	if !ok {
		return fmt.Errorf("%s: %w: no unknown cell holds points", f.name, ErrNotSolvable)
	}
	return f.solve(ctx, sc, sys)
}

func (f *Points) solveAlone(sc *SolveContext) {
	f.bind(sc.Grid)
	for _, grp := range f.groups {
		if sc.Solved.Get(grp.pos) || sc.Undefined.Get(grp.pos) {
			continue
		}
		if v := f.value(sc.Grid, grp); v != Undefined {
			sc.X[grp.pos] = v
		}
	}
}

// CommitMasks marks the cells holding points as solved, or undefined when
// their value is Undefined.
func (f *Points) CommitMasks(sc *SolveContext, solved, undefined *bitmask.Mask, conditional bool) {
	f.bind(sc.Grid)
	for _, grp := range f.groups {
		if solved.Get(grp.pos) || undefined.Get(grp.pos) {
			continue
		}
		if f.value(sc.Grid, grp) == Undefined {
			undefined.SetTrue(grp.pos)
		} else {
			solved.SetTrue(grp.pos)
		}
	}
	f.markSums(sc, solved, undefined)
}

// DropCaches forgets the cell binding.
func (f *Points) DropCaches() {
	f.groups = nil
	f.boundGrid = nil
	f.dropDependents()
}
