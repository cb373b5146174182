package gridfit

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/gridfit/bitmask"
	"github.com/gogpu/gridfit/sparse"
)

// System is an assembled linear system restricted to unknown nodes. A
// system with Points == 0 and a nil Op is the no-contribution outcome.
type System struct {
	Op     sparse.Operator
	RHS    []float64
	Points int
}

// plus returns s + w*o. Absent operators are treated as zero.
func (s System) plus(w float64, o System) System {
	if o.Op == nil && o.RHS == nil {
		s.Points += o.Points
		return s
	}
	out := System{Points: s.Points + o.Points}
	out.Op = sparse.NewSum(1, s.Op, w, o.Op)

	switch {
	case s.RHS == nil && o.RHS == nil:
	case s.RHS == nil:
		out.RHS = make([]float64, len(o.RHS))
		for k, v := range o.RHS {
			out.RHS[k] = w * v
		}
	default:
		out.RHS = make([]float64, len(s.RHS))
		copy(out.RHS, s.RHS)
		for k, v := range o.RHS {
			out.RHS[k] += w * v
		}
	}
	return out
}

// Functional is one constraint or data term of a fit.
type Functional interface {
	// Name identifies the functional in logs and reports.
	Name() string

	// Assemble builds the functional's system against the given masks.
	// Only nodes neither solved nor undefined receive coefficients. The
	// boolean reports whether the system, combined with co-contributors,
	// is solvable.
	Assemble(sc *SolveContext, solved, undefined *bitmask.Mask) (System, bool)

	// CommitMasks marks the nodes the functional determines. It never
	// flips a node that is already solved or undefined and is idempotent.
	// conditional is true when the functional is committed as part of
	// another functional's combination.
	CommitMasks(sc *SolveContext, solved, undefined *bitmask.Mask, conditional bool)

	// Minimize writes the functional's solution into sc.X.
	Minimize(ctx context.Context, sc *SolveContext) error

	// DropCaches releases every grid-keyed private cache.
	DropCaches()
}

// Condition is a functional enforced as a penalty on the solve of
// another functional instead of being minimized on its own.
type Condition interface {
	Functional
	condition()
}

// FaultGeometry is implemented by modifiers that carry a fault curve.
type FaultGeometry interface {
	FaultCurve() *Curve
}

// preparer is implemented by functionals whose caches can be filled ahead
// of concurrent assembly.
type preparer interface {
	prepare(sc *SolveContext)
}

type weighted struct {
	f Functional
	w float64
}

// base carries the co-contributor and condition lists shared by every
// functional.
type base struct {
	name  string
	adds  []weighted
	conds []Condition
}

// Name returns the functional name.
func (b *base) Name() string { return b.name }

// Add folds f into this functional's system with the given weight. f is
// assembled against the same masks and committed together with this
// functional.
func (b *base) Add(f Functional, weight float64) {
	b.adds = append(b.adds, weighted{f: f, w: weight})
}

// AddCondition attaches a penalty condition.
func (b *base) AddCondition(c Condition) {
	b.conds = append(b.conds, c)
}

// Conditions returns the attached conditions.
func (b *base) Conditions() []Condition { return b.conds }

// alone reports whether nothing depends on this functional's system.
func (b *base) alone() bool {
	return len(b.adds) == 0 && len(b.conds) == 0
}

// wrapSums folds the systems of the co-contributors into sys. The boolean
// reports whether any co-contributor is solvable on its own.
func (b *base) wrapSums(sc *SolveContext, sys System, solved, undefined *bitmask.Mask) (System, bool) {
	ok := false
	for _, a := range b.adds {
		s, solvable := a.f.Assemble(sc, solved, undefined)
		ok = ok || solvable
		sys = sys.plus(a.w, s)
	}
	return sys, ok
}

// markSums commits the co-contributors' nodes.
func (b *base) markSums(sc *SolveContext, solved, undefined *bitmask.Mask) {
	for _, a := range b.adds {
		a.f.CommitMasks(sc, solved, undefined, true)
	}
}

func (b *base) dropDependents() {
	for _, a := range b.adds {
		a.f.DropCaches()
	}
	for _, c := range b.conds {
		c.DropCaches()
	}
}

// solve runs sys through the context solver, with penalties when
// conditions are attached.
func (b *base) solve(ctx context.Context, sc *SolveContext, sys System) error {
	if len(b.conds) > 0 {
		return b.solveWithPenalties(ctx, sc, sys)
	}
	return b.solveSystem(sc, sys)
}

// solveSystem improves sc.X in place. Rows of solved and undefined nodes
// are gated off by the operators, so their entries are not touched.
func (b *base) solveSystem(sc *SolveContext, sys System) error {
	if sys.Op == nil {
		return fmt.Errorf("%s: %w: empty system", b.name, ErrNotSolvable)
	}
	rhs := sys.RHS
	if rhs == nil {
		rhs = make([]float64, len(sc.X))
	}
	iters, err := sc.solver.Solve(sys.Op, rhs, sc.X)
	sc.metrics.observeSolve(iters, err)
	Logger().Debug("solve", "functional", b.name, "points", sys.Points, "iterations", iters)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", b.name, ErrNotSolvable, err)
	}
	return nil
}

// solveWithPenalties alternates solves with re-assembly of the conditions
// against the new solution. Penalties accumulate over the iterations; the
// loop stops when no condition is violated.
func (b *base) solveWithPenalties(ctx context.Context, sc *SolveContext, sys System) error {
	var penalty System
	iterations := max(sc.opts.penaltyIterations, 1)
	for it := range iterations {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.solveSystem(sc, sys.plus(1, penalty)); err != nil {
			return err
		}

		add, err := b.assembleConditions(ctx, sc)
		if err != nil {
			return err
		}
		if add.Points == 0 {
			Logger().Debug("conditions satisfied", "functional", b.name, "iteration", it+1)
			return nil
		}
		Logger().Debug("conditions violated", "functional", b.name, "iteration", it+1, "points", add.Points)
		penalty = penalty.plus(1, add)
	}
	return b.solveSystem(sc, sys.plus(1, penalty))
}

// assembleConditions assembles every condition concurrently. Caches are
// filled first so that assembly only reads shared state.
func (b *base) assembleConditions(ctx context.Context, sc *SolveContext) (System, error) {
	for _, c := range b.conds {
		if p, ok := c.(preparer); ok {
			p.prepare(sc)
		}
	}

	parts := make([]System, len(b.conds))
	g, _ := errgroup.WithContext(ctx)
	for k, c := range b.conds {
		g.Go(func() error {
			parts[k], _ = c.Assemble(sc, sc.Solved, sc.Undefined)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return System{}, err
	}

	var out System
	for _, p := range parts {
		out = out.plus(1, p)
	}
	return out, nil
}

// markAll sets every unknown node of solved (or undefined when asUndefined)
// that is also set in within. within may be nil for the whole grid.
func markAll(solved, undefined, within *bitmask.Mask, asUndefined bool) {
	free := solved.Clone()
	free.Or(undefined)
	free.Invert()
	if within != nil {
		free.And(within)
	}
	if asUndefined {
		undefined.Or(free)
	} else {
		solved.Or(free)
	}
}
