package gridfit

import (
	"github.com/gogpu/gridfit/bitmask"
	"github.com/gogpu/gridfit/internal/cg"
	"github.com/gogpu/gridfit/internal/parallel"
	"github.com/gogpu/gridfit/sparse"
)

// Solver solves op*x = b in place. x holds the initial guess. A Solver
// must keep rows gated off by op unchanged and be safe for concurrent use.
type Solver interface {
	Solve(op sparse.Operator, b, x []float64) (iterations int, err error)
}

// SolveContext is the mutable state of one fit: the active grid, the
// solution vector and the solved/undefined masks. Functionals borrow it
// for the duration of a call and must not keep it across grid changes.
//
// A SolveContext is not safe for concurrent use. Parallel sub-solves work on
// a Fork and are merged back by the caller.
type SolveContext struct {
	// Grid is the active grid; PrevGrid is the grid of the previous level
	// or nil.
	Grid     *Grid
	PrevGrid *Grid

	// X is the solution vector, one entry per node of Grid.
	X []float64

	// Solved and Undefined are disjoint after each functional's commit.
	Solved    *bitmask.Mask
	Undefined *bitmask.Mask

	solver  Solver
	pool    *parallel.WorkerPool
	metrics *Metrics
	opts    sessionOptions

	// functionals is the ordered list of the running session; trends use
	// it to find the faults declared before them.
	functionals []Functional
}

// NewSolveContext creates a context on g with every node unknown and a zero
// solution vector. It is used by sessions and by tests that drive
// functionals directly.
func NewSolveContext(g *Grid, opts ...SessionOption) *SolveContext {
	o := defaultSessionOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	sc := newSolveContext(o, nil)
	sc.SetGrid(g)
	return sc
}

func newSolveContext(o sessionOptions, pool *parallel.WorkerPool) *SolveContext {
	s := o.solver
	if s == nil {
		s = cg.New()
	}
	return &SolveContext{solver: s, pool: pool, metrics: o.metrics, opts: o}
}

// SetGrid makes g the active grid. When g differs from the current grid
// the previous one becomes PrevGrid. The vector and masks are re-created
// with every node unknown and X zero. SetGrid reports whether the grid
// changed.
func (sc *SolveContext) SetGrid(g *Grid) bool {
	changed := !sc.Grid.Equal(g)
	if changed {
		sc.PrevGrid = sc.Grid
		sc.Grid = g
	}

	n := g.Size()
	sc.X = make([]float64, n)
	sc.Solved = bitmask.New(n)
	sc.Solved.InitFalse()
	sc.Undefined = bitmask.New(n)
	sc.Undefined.InitFalse()
	return changed
}

// Size returns the node count of the active grid.
func (sc *SolveContext) Size() int { return len(sc.X) }

// Unknown returns the number of nodes neither solved nor undefined.
func (sc *SolveContext) Unknown() int {
	return len(sc.X) - sc.Solved.TrueCount() - sc.Undefined.TrueCount()
}

// CheckMasks returns the first node both solved and undefined, or -1.
func (sc *SolveContext) CheckMasks() int {
	return sc.Solved.FirstCommon(sc.Undefined)
}

// Fork returns a context sharing the grid and configuration with private
// copies of the vector and masks.
func (sc *SolveContext) Fork() *SolveContext {
	child := *sc
	child.X = make([]float64, len(sc.X))
	copy(child.X, sc.X)
	child.Solved = sc.Solved.Clone()
	child.Undefined = sc.Undefined.Clone()
	return &child
}

// Merge copies the vector entries and mask state of the nodes in region
// from child back into sc.
func (sc *SolveContext) Merge(child *SolveContext, region *bitmask.Mask) {
	region.ForEach(func(pos int) {
		sc.X[pos] = child.X[pos]
		sc.Solved.Set(pos, child.Solved.Get(pos))
		sc.Undefined.Set(pos, child.Undefined.Get(pos))
	})
}

// Surface returns the current solution. Nodes that are not solved are
// Undefined.
func (sc *SolveContext) Surface() *Surface {
	s := &Surface{Grid: sc.Grid, Values: make([]float64, len(sc.X))}
	for pos := range sc.X {
		if sc.Solved.Get(pos) {
			s.Values[pos] = sc.X[pos]
		} else {
			s.Values[pos] = Undefined
		}
	}
	return s
}

// faultCurvesBefore returns the fault curves of the modifiers declared
// before f.
func (sc *SolveContext) faultCurvesBefore(f Functional) []*Curve {
	var out []*Curve
	for _, g := range sc.functionals {
		if g == f {
			break
		}
		if fg, ok := g.(FaultGeometry); ok {
			if c := fg.FaultCurve(); c != nil {
				out = append(out, c)
			}
		}
	}
	return out
}

// parallelRun executes units on the worker pool, or inline without one.
func (sc *SolveContext) parallelRun(units []func()) {
	if sc.pool == nil {
		for _, u := range units {
			u()
		}
		return
	}
	sc.pool.ExecuteAll(units)
}
