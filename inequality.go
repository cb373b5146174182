package gridfit

import (
	"context"
	"fmt"
	"math"

	"github.com/gogpu/gridfit/bitmask"
	"github.com/gogpu/gridfit/sparse"
)

// bound is a one-sided soft limit.
type bound struct {
	value float64
	leq   bool
	mult  float64
}

func (b bound) violated(x float64) bool {
	if b.leq {
		return x > b.value
	}
	return x < b.value
}

// assemble emits a diagonal penalty for every unknown node inside within
// (nil for all) whose current value violates the bound. The coefficient
// grows with the distance from the bound.
func (b bound) assemble(x []float64, solved, undefined, within *bitmask.Mask) System {
	n := len(x)
	d := make([]float64, n)
	rhs := make([]float64, n)
	mask := bitmask.New(n)
	mask.InitFalse()
	points := 0
	for pos, v := range x {
		if solved.Get(pos) || undefined.Get(pos) {
			continue
		}
		if within != nil && !within.Get(pos) {
			continue
		}
		if !b.violated(v) {
			continue
		}
		w := b.mult * (math.Abs(b.value-v) + 1)
		d[pos] = w
		rhs[pos] = b.value * w
		mask.SetTrue(pos)
		points++
	}
	if points == 0 {
		return System{}
	}
	return System{Op: sparse.NewDiagonal(d, mask), RHS: rhs, Points: points}
}

func (b bound) String() string {
	op := ">="
	if b.leq {
		op = "<="
	}
	return fmt.Sprintf("%s %g", op, b.value)
}

// Inequality is a soft one-sided bound on the whole grid. It is enforced
// as a penalty on the functional it is attached to.
type Inequality struct {
	base
	bound bound
}

// NewInequality creates a bound x <= value (leq) or x >= value with
// penalty multiplier mult.
func NewInequality(value float64, leq bool, mult float64, opts ...FunctionalOption) *Inequality {
	b := bound{value: value, leq: leq, mult: mult}
	o := applyFunctionalOptions("inequality "+b.String(), opts)
	return &Inequality{base: base{name: o.name}, bound: b}
}

func (f *Inequality) condition() {}

// Assemble returns the penalty system for the current solution. An
// inequality is always solvable: a satisfied bound simply contributes no
// points.
func (f *Inequality) Assemble(sc *SolveContext, solved, undefined *bitmask.Mask) (System, bool) {
	sys := f.bound.assemble(sc.X, solved, undefined, nil)
	sys, _ = f.wrapSums(sc, sys, solved, undefined)
	return sys, true
}

// Minimize fails: an inequality never determines nodes on its own.
func (f *Inequality) Minimize(context.Context, *SolveContext) error {
	return fmt.Errorf("%s: %w: condition without target", f.name, ErrNotSolvable)
}

// CommitMasks does nothing; an inequality never claims nodes.
func (f *Inequality) CommitMasks(*SolveContext, *bitmask.Mask, *bitmask.Mask, bool) {}

// DropCaches forwards to the co-contributors.
func (f *Inequality) DropCaches() { f.dropDependents() }
