package gridfit

import (
	"context"
	"fmt"

	"github.com/gogpu/gridfit/bitmask"
	"github.com/gogpu/gridfit/internal/region"
	"github.com/gogpu/gridfit/sparse"
)

// Trend fits the solution to the shape of a reference surface: it
// minimizes d1*E1(u - t) + d2*E2(u - t) over the nodes the surface covers,
// where E1 and E2 are the first and second derivative energies and t is
// the surface projected onto the grid. Faults declared before the trend
// break the energies along their curves.
type Trend struct {
	base
	d1, d2  float64
	surface *Surface

	// Caches below are computed against cacheGrid.
	cacheGrid *Grid
	cacheSig  uint64
	proj      []float64
	rect      sparse.Rect
	overlap   bool
	faults    *FaultLine
}

// NewTrend creates a trend functional with weights d1 and d2 for the first
// and second derivative energies.
func NewTrend(d1, d2 float64, surf *Surface, opts ...FunctionalOption) *Trend {
	name := "trend"
	if surf.Name != "" {
		name = "trend " + surf.Name
	}
	o := applyFunctionalOptions(name, opts)
	return &Trend{base: base{name: o.name}, d1: d1, d2: d2, surface: surf}
}

// NewCompleter creates a smoothing functional: a trend towards a flat zero
// reference over the whole grid. It fills the unknown nodes with the
// smoothest surface through the known ones.
func NewCompleter(d1, d2 float64, opts ...FunctionalOption) *Trend {
	o := applyFunctionalOptions("completer", opts)
	return &Trend{base: base{name: o.name}, d1: d1, d2: d2}
}

// Surface returns the reference surface, or nil for a completer.
func (f *Trend) Surface() *Surface { return f.surface }

func (f *Trend) prepare(sc *SolveContext) {
	g := sc.Grid
	sig := g.Signature()
	if f.cacheGrid != nil && f.cacheSig == sig && f.cacheGrid.Equal(g) {
		return
	}

	f.proj = nil
	if f.surface == nil {
		f.rect, f.overlap = sparse.FullRect(g.CountX(), g.CountY()), true
	} else {
		f.rect, f.overlap = g.Intersect(f.surface.Grid)
		if f.overlap {
			f.proj = f.surface.Project(g).Values
		}
	}

	f.faults = nil
	if curves := sc.faultCurvesBefore(f); len(curves) > 0 {
		f.faults = NewFaultLine(g, curves...)
	}

	c := *g
	f.cacheGrid = &c
	f.cacheSig = sig
	Logger().Debug("trend prepared", "functional", f.name, "overlap", f.overlap,
		"fault_links", f.faults.Links())
}

// neighbourhood returns the offsets around a node whose stencil terms
// could reach it.
func (f *Trend) neighbourhood() [][2]int {
	var out [][2]int
	if f.d1 > 0 || f.d2 > 0 {
		out = append(out, [2]int{-1, 0}, [2]int{1, 0}, [2]int{0, -1}, [2]int{0, 1})
	}
	if f.d2 > 0 {
		out = append(out,
			[2]int{-1, -1}, [2]int{1, -1}, [2]int{-1, 1}, [2]int{1, 1},
			[2]int{-2, 0}, [2]int{2, 0}, [2]int{0, -2}, [2]int{0, 2})
	}
	return out
}

// localUndefined marks the nodes of the rect where the reference is
// undefined, widened by the stencil neighbourhood. It returns nil when the
// reference is defined everywhere.
func (f *Trend) localUndefined(nn, mm int) *bitmask.Mask {
	if f.proj == nil {
		return nil
	}
	var m *bitmask.Mask
	offsets := f.neighbourhood()
	for j := f.rect.J0; j <= f.rect.J1; j++ {
		for i := f.rect.I0; i <= f.rect.I1; i++ {
			if f.proj[i+j*nn] != Undefined {
				continue
			}
			if m == nil {
				m = bitmask.New(nn * mm)
				m.InitFalse()
			}
			m.SetTrue(i + j*nn)
			for _, d := range offsets {
				if ni, nj := i+d[0], j+d[1]; f.rect.Contains(ni, nj) {
					m.SetTrue(ni + nj*nn)
				}
			}
		}
	}
	return m
}

// Assemble builds the smoothing system on the overlap of the reference
// with the grid. Nodes near an undefined reference take no part in it.
func (f *Trend) Assemble(sc *SolveContext, solved, undefined *bitmask.Mask) (System, bool) {
	f.prepare(sc)
	if !f.overlap {
		return f.wrapSums(sc, System{}, solved, undefined)
	}

	g := sc.Grid
	nn, mm := g.CountX(), g.CountY()
	s, u := solved, undefined
	if local := f.localUndefined(nn, mm); local != nil {
		s = solved.Clone()
		s.AndNot(local)
		u = undefined.Clone()
		u.Or(local)
	}

	topo := g.Topology(f.faults)
	n := sc.Size()
	rhs := make([]float64, n)
	points := 0
	var op1, op2 sparse.Operator
	if f.d1 > 0 {
		st := sparse.NewD1Rect(topo, f.rect, s, u)
		points = max(points, f.addRHS(st, f.d1, sc.X, rhs))
		op1 = st
	}
	if f.d2 > 0 {
		st := sparse.NewD2Rect(topo, f.rect, s, u)
		points = max(points, f.addRHS(st, f.d2, sc.X, rhs))
		op2 = st
	}

	var sys System
	if points > 0 {
		sys = System{Op: sparse.NewRectSum(f.rect, nn, f.d1, op1, f.d2, op2), RHS: rhs, Points: points}
	}
	Logger().Debug("trend assembled", "functional", f.name, "points", points)

	sys, addOK := f.wrapSums(sc, sys, solved, undefined)
	return sys, points > 0 || addOK
}

func (f *Trend) addRHS(st *sparse.Stencil, w float64, x, rhs []float64) int {
	part := make([]float64, len(rhs))
	points := st.RHS(f.proj, x, part)
	for k, v := range part {
		rhs[k] += w * v
	}
	return points
}

// Minimize solves the trend on the grid. On a refined grid it first
// re-solves the neighbourhood of faults and of undefined areas starting
// from the projected coarse solution; disconnected areas are then solved
// one by one, and a final pass covers the whole grid.
func (f *Trend) Minimize(ctx context.Context, sc *SolveContext) error {
	f.prepare(sc)
	if !f.overlap {
		return fmt.Errorf("%s: %w: reference does not overlap %s", f.name, ErrNotSolvable, sc.Grid)
	}

	if sc.PrevGrid != nil && sc.opts.reprojectFaults {
		if err := f.solveWithin(ctx, sc, f.faultArea(sc), "fault area"); err != nil {
			return err
		}
	}
	if sc.PrevGrid != nil && sc.opts.reprojectUndefined {
		if err := f.solveWithin(ctx, sc, f.undefinedBoundary(sc), "undefined boundary"); err != nil {
			return err
		}
	}
	if sc.opts.isolatedAreas {
		if err := f.solveIsolated(ctx, sc); err != nil {
			return err
		}
	}
	return f.solveOnce(ctx, sc)
}

func (f *Trend) solveOnce(ctx context.Context, sc *SolveContext) error {
	sys, ok := f.Assemble(sc, sc.Solved, sc.Undefined)
	if !ok {
		return fmt.Errorf("%s: %w: no unknown node in reach", f.name, ErrNotSolvable)
	}
	return f.solve(ctx, sc, sys)
}

// solveWithin solves with every node outside area frozen as solved, then
// restores the masks. A failed partial solve is not an error; only
// cancellation is returned.
func (f *Trend) solveWithin(ctx context.Context, sc *SolveContext, area *bitmask.Mask, what string) error {
	if area == nil {
		return nil
	}
	free := area.Clone()
	free.AndNot(sc.Solved)
	free.AndNot(sc.Undefined)
	if free.IsEmpty() {
		return nil
	}

	saved := sc.Solved.Clone()
	frozen := free.Clone()
	frozen.Invert()
	frozen.AndNot(sc.Undefined)
	sc.Solved.CopyFrom(frozen)
	Logger().Debug("trend partial solve", "functional", f.name, "area", what, "nodes", free.TrueCount())

	err := f.solveOnce(ctx, sc)
	sc.Solved.CopyFrom(saved)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		Logger().Warn("trend partial solve failed", "functional", f.name, "area", what, "err", err)
	}
	return nil
}

// faultArea returns the nodes lying under cells of the previous grid that
// a fault touches.
func (f *Trend) faultArea(sc *SolveContext) *bitmask.Mask {
	curves := sc.faultCurvesBefore(f)
	if len(curves) == 0 {
		return nil
	}
	prev, g := sc.PrevGrid, sc.Grid
	fl := NewFaultLine(prev, curves...)
	if fl.Links() == 0 {
		return nil
	}

	pn := prev.CountX()
	nn := g.CountX()
	m := bitmask.New(sc.Size())
	m.InitFalse()
	for pos := range prev.Size() {
		if !fl.HasNode(pos) {
			continue
		}
		pi, pj := pos%pn, pos/pn
		i0, i1 := g.clampI(g.I(prev.XFrom(pi))), g.clampI(g.I(prev.XTo(pi)))
		j0, j1 := g.clampJ(g.J(prev.YFrom(pj))), g.clampJ(g.J(prev.YTo(pj)))
		for j := j0; j <= j1; j++ {
			for i := i0; i <= i1; i++ {
				m.SetTrue(i + j*nn)
			}
		}
	}
	return m
}

// undefinedBoundary returns the ring of nodes around undefined areas.
func (f *Trend) undefinedBoundary(sc *SolveContext) *bitmask.Mask {
	width := 1
	if f.d2 > 0 {
		width = 2
	}
	return region.UndefinedBoundary(sc.Grid.CountX(), sc.Grid.CountY(), sc.Undefined, width)
}

// solveIsolated labels the areas separated by faults and undefined nodes
// and, when there is more than one, solves each on a fork with the others
// set undefined. Areas are solved in parallel when nothing else shares the
// trend's system.
func (f *Trend) solveIsolated(ctx context.Context, sc *SolveContext) error {
	g := sc.Grid
	nn, mm := g.CountX(), g.CountY()
	undef := sc.Undefined
	if local := f.localUndefined(nn, mm); local != nil {
		undef = undef.Clone()
		undef.Or(local)
	}
	labels, count := region.Label(nn, mm, undef, f.faults)
	if count < 2 {
		return nil
	}
	sc.metrics.observeRegions(count)

	type unit struct {
		area  *bitmask.Mask
		child *SolveContext
		err   error
	}
	units := make([]*unit, 0, count)
	for label := 1; label <= count; label++ {
		area := region.Mask(labels, label)
		free := area.Clone()
		free.AndNot(sc.Solved)
		if free.IsEmpty() {
			continue
		}
		child := sc.Fork()
		others := area.Clone()
		others.Invert()
		child.Undefined.Or(others)
		child.Solved.AndNot(others)
		units = append(units, &unit{area: area, child: child})
	}

	work := make([]func(), len(units))
	for k, u := range units {
		work[k] = func() {
			Logger().Info("trend: processing isolated area", "functional", f.name,
				"area", k+1, "of", len(units))
			u.err = f.solveOnce(ctx, u.child)
		}
	}
	if f.alone() {
		sc.parallelRun(work)
	} else {
		for _, w := range work {
			w()
		}
	}

	for k, u := range units {
		if u.err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			Logger().Warn("trend: isolated area not solved", "functional", f.name, "area", k+1, "err", u.err)
			continue
		}
		sc.Merge(u.child, u.area)
	}
	return nil
}

// CommitMasks marks the unknown nodes of the overlap that the reference
// reaches as solved.
func (f *Trend) CommitMasks(sc *SolveContext, solved, undefined *bitmask.Mask, conditional bool) {
	f.prepare(sc)
	if f.overlap {
		nn, mm := sc.Grid.CountX(), sc.Grid.CountY()
		local := f.localUndefined(nn, mm)
		for j := f.rect.J0; j <= f.rect.J1; j++ {
			for i := f.rect.I0; i <= f.rect.I1; i++ {
				pos := i + j*nn
				if solved.Get(pos) || undefined.Get(pos) {
					continue
				}
				if local != nil && local.Get(pos) {
					continue
				}
				solved.SetTrue(pos)
			}
		}
	}
	f.markSums(sc, solved, undefined)
}

// DropCaches forgets the projection and the traced faults.
func (f *Trend) DropCaches() {
	f.cacheGrid = nil
	f.proj = nil
	f.faults = nil
	f.dropDependents()
}
