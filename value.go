package gridfit

import (
	"context"
	"fmt"

	"github.com/gogpu/gridfit/bitmask"
	"github.com/gogpu/gridfit/sparse"
)

// Value fills every unknown node with a constant. With Undefined as the
// constant it marks the remaining nodes undefined instead.
type Value struct {
	base
	value float64
}

// NewValue creates a constant fill functional.
func NewValue(v float64, opts ...FunctionalOption) *Value {
	name := "value undefined"
	if v != Undefined {
		name = fmt.Sprintf("value %g", v)
	}
	o := applyFunctionalOptions(name, opts)
	return &Value{base: base{name: o.name}, value: v}
}

// Value returns the fill constant.
func (f *Value) Value() float64 { return f.value }

// Assemble builds a unit identity over every unknown node with the constant
// as right-hand side. An Undefined constant contributes nothing.
func (f *Value) Assemble(sc *SolveContext, solved, undefined *bitmask.Mask) (System, bool) {
	var sys System
	if f.value != Undefined {
		mask := solved.Clone()
		mask.Or(undefined)
		mask.Invert()
		if points := mask.TrueCount(); points > 0 {
			rhs := make([]float64, sc.Size())
			mask.ForEach(func(pos int) { rhs[pos] = f.value })
			sys = System{Op: sparse.NewIdentity(1, mask, solved, undefined), RHS: rhs, Points: points}
		}
	}
	sys, addOK := f.wrapSums(sc, sys, solved, undefined)
	return sys, sys.Points > 0 || addOK
}

// Minimize writes the constant into every unknown node, or solves the
// combined system when co-contributors or conditions are attached.
func (f *Value) Minimize(ctx context.Context, sc *SolveContext) error {
	if f.alone() || f.value == Undefined {
		f.solveAlone(sc)
		return nil
	}
	sys, ok := f.Assemble(sc, sc.Solved, sc.Undefined)
	if !ok {
		return fmt.Errorf("%s: %w: no unknown node", f.name, ErrNotSolvable)
	}
	return f.solve(ctx, sc, sys)
}

func (f *Value) solveAlone(sc *SolveContext) {
	if f.value == Undefined {
		return
	}
	for pos := range sc.X {
		if !sc.Solved.Get(pos) && !sc.Undefined.Get(pos) {
			sc.X[pos] = f.value
		}
	}
}

// CommitMasks marks every unknown node solved, or undefined for an
// Undefined constant.
func (f *Value) CommitMasks(sc *SolveContext, solved, undefined *bitmask.Mask, conditional bool) {
	markAll(solved, undefined, nil, f.value == Undefined)
	f.markSums(sc, solved, undefined)
}

// DropCaches forwards to the co-contributors; Value keeps no cache.
func (f *Value) DropCaches() { f.dropDependents() }
