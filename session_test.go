package gridfit

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/gogpu/gridfit/bitmask"
)

func mustGrid(t *testing.T, startX, endX, stepX, startY, endY, stepY float64) *Grid {
	t.Helper()
	g, err := NewGrid(startX, endX, stepX, startY, endY, stepY)
	if err != nil {
		t.Fatalf("NewGrid() = %v", err)
	}
	return g
}

func mustAdd(t *testing.T, s *Session, fs ...Functional) {
	t.Helper()
	for _, f := range fs {
		if err := s.Add(f); err != nil {
			t.Fatalf("Add(%s) = %v", f.Name(), err)
		}
	}
}

func mustFit(t *testing.T, s *Session, g *Grid) *Result {
	t.Helper()
	res, err := s.Fit(context.Background(), g)
	if err != nil {
		t.Fatalf("Fit() = %v", err)
	}
	return res
}

func near(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

// splitGrid returns a 5x5 grid and a fault between columns 1 and 2.
func splitGrid(t *testing.T) (*Grid, *Fault) {
	t.Helper()
	g := mustGrid(t, 0, 4, 1, 0, 4, 1)
	f := NewFault(&Curve{X: []float64{1.5, 1.5}, Y: []float64{-1, 5}, Name: "split"})
	return g, f
}

// =============================================================================
// End to end
// =============================================================================

func TestFit_PointsThenFill(t *testing.T) {
	g := mustGrid(t, 0, 2, 1, 0, 2, 1)
	s := NewSession()
	mustAdd(t, s,
		NewPoints(&PointSet{X: []float64{1}, Y: []float64{1}, Z: []float64{5}}),
		NewValue(0),
	)

	res := mustFit(t, s, g)

	if got := res.Solved.TrueCount(); got != 9 {
		t.Errorf("solved = %d, want 9", got)
	}
	if !res.Undefined.IsEmpty() {
		t.Errorf("undefined = %d, want 0", res.Undefined.TrueCount())
	}
	for pos, v := range res.Surface.Values {
		want := 0.0
		if pos == 4 {
			want = 5
		}
		if v != want {
			t.Errorf("Values[%d] = %v, want %v", pos, v, want)
		}
	}
}

func TestFit_MasksDisjoint(t *testing.T) {
	g := mustGrid(t, 0, 4, 1, 0, 4, 1)
	ref := NewSurface(g)
	for k := range ref.Values {
		ref.Values[k] = float64(k % 5)
	}
	ref.Values[0] = Undefined

	s := NewSession()
	mustAdd(t, s,
		NewPoints(&PointSet{
			X: []float64{2, 4, 0},
			Y: []float64{2, 4, 4},
			Z: []float64{1, 3, Undefined},
		}),
		NewTrend(1, 0, ref),
		NewValue(Undefined),
	)

	res := mustFit(t, s, g)
	if res.Solved.Intersects(res.Undefined) {
		t.Fatalf("node %d both solved and undefined", res.Solved.FirstCommon(res.Undefined))
	}
	if got := res.Solved.TrueCount() + res.Undefined.TrueCount(); got != g.Size() {
		t.Errorf("determined = %d, want %d", got, g.Size())
	}
	for pos, v := range res.Surface.Values {
		if res.Undefined.Get(pos) && v != Undefined {
			t.Errorf("Values[%d] = %v, want Undefined", pos, v)
		}
	}
}

func TestFit_EarlierFunctionalWins(t *testing.T) {
	g := mustGrid(t, 0, 2, 1, 0, 2, 1)
	s := NewSession()
	mustAdd(t, s, NewValue(1), NewValue(2))

	res := mustFit(t, s, g)
	for pos, v := range res.Surface.Values {
		if v != 1 {
			t.Errorf("Values[%d] = %v, want 1", pos, v)
		}
	}
}

// =============================================================================
// Isolated areas
// =============================================================================

func TestFit_IsolatedAreasSameMasks(t *testing.T) {
	run := func(isolated bool) *Result {
		g, fault := splitGrid(t)
		s := NewSession(WithIsolatedAreas(isolated), WithWorkers(2))
		mustAdd(t, s,
			fault,
			NewPoints(&PointSet{X: []float64{0, 4}, Y: []float64{2, 2}, Z: []float64{1, 7}}),
			NewCompleter(1, 0),
		)
		return mustFit(t, s, g)
	}

	on, off := run(true), run(false)
	if !on.Solved.Equal(off.Solved) {
		t.Error("solved masks differ with and without isolated areas")
	}
	if !on.Undefined.Equal(off.Undefined) {
		t.Error("undefined masks differ with and without isolated areas")
	}

	for _, res := range []*Result{on, off} {
		for j := range 5 {
			for i := range 5 {
				want := 1.0
				if i >= 2 {
					want = 7
				}
				if got := res.Surface.At(i, j); !near(got, want, 1e-6) {
					t.Errorf("At(%d, %d) = %v, want %v", i, j, got, want)
				}
			}
		}
	}
}

// =============================================================================
// Conditions
// =============================================================================

func TestFit_InequalityBoundsCompleter(t *testing.T) {
	g := mustGrid(t, 0, 4, 1, 0, 0, 1)
	s := NewSession()
	mustAdd(t, s,
		NewPoints(&PointSet{X: []float64{0, 4}, Y: []float64{0, 0}, Z: []float64{10, -10}}),
		NewCompleter(1, 0),
		NewInequality(0, false, 1000),
	)

	res := mustFit(t, s, g)
	if got := res.Surface.Values[3]; got < -0.1 {
		t.Errorf("Values[3] = %v, want >= -0.1", got)
	}
	if got := res.Surface.Values[1]; got <= 0 {
		t.Errorf("Values[1] = %v, want > 0", got)
	}
	if got := res.Surface.Values[4]; got != -10 {
		t.Errorf("Values[4] = %v, want -10", got)
	}
}

func TestSession_AddCondition(t *testing.T) {
	s := NewSession()
	if err := s.Add(NewInequality(0, true, 1)); !errors.Is(err, ErrNoTarget) {
		t.Errorf("Add(condition) on empty session = %v, want ErrNoTarget", err)
	}

	c := NewCompleter(1, 0)
	fault := NewFault(&Curve{X: []float64{0, 1}, Y: []float64{0, 1}})
	mustAdd(t, s, c, fault)
	ineq := NewInequality(0, true, 1)
	if err := s.Add(ineq); err != nil {
		t.Fatalf("Add(condition) = %v", err)
	}
	if got := c.Conditions(); len(got) != 1 || got[0] != Condition(ineq) {
		t.Errorf("Conditions() = %v, want the inequality", got)
	}
	if got := len(s.Functionals()); got != 2 {
		t.Errorf("len(Functionals()) = %d, want 2", got)
	}

	onlyFault := NewSession()
	mustAdd(t, onlyFault, fault)
	if err := onlyFault.Add(NewInequality(0, true, 1)); !errors.Is(err, ErrNoTarget) {
		t.Errorf("Add(condition) after fault only = %v, want ErrNoTarget", err)
	}
	if err := onlyFault.Add(nil); err == nil {
		t.Error("Add(nil) = nil, want error")
	}
}

// =============================================================================
// Levels
// =============================================================================

func TestFit_Levels(t *testing.T) {
	g := mustGrid(t, 0, 8, 1, 0, 8, 1)
	s := NewSession(WithLevels(3))
	mustAdd(t, s,
		NewPoints(&PointSet{X: []float64{0, 8, 0, 8}, Y: []float64{0, 0, 8, 8}, Z: []float64{1, 1, 1, 1}}),
		NewCompleter(1, 0),
	)

	res := mustFit(t, s, g)
	if got := len(res.Report.Levels); got != 3 {
		t.Fatalf("levels = %d, want 3", got)
	}
	wantSizes := []int{9, 25, 81}
	for k, lr := range res.Report.Levels {
		if lr.Grid.Size() != wantSizes[k] {
			t.Errorf("level %d size = %d, want %d", k, lr.Grid.Size(), wantSizes[k])
		}
		if lr.Unknown != 0 {
			t.Errorf("level %d unknown = %d, want 0", k, lr.Unknown)
		}
	}
	if !res.Surface.Grid.Equal(g) {
		t.Errorf("surface grid = %v, want %v", res.Surface.Grid, g)
	}
	for pos, v := range res.Surface.Values {
		if !near(v, 1, 1e-6) {
			t.Errorf("Values[%d] = %v, want 1", pos, v)
		}
	}
}

func TestFit_LevelsWithFault(t *testing.T) {
	g := mustGrid(t, 0, 8, 1, 0, 8, 1)
	fault := NewFault(&Curve{X: []float64{3.5, 3.5}, Y: []float64{-1, 9}})
	s := NewSession(WithLevels(2))
	mustAdd(t, s,
		fault,
		NewPoints(&PointSet{X: []float64{0, 8}, Y: []float64{4, 4}, Z: []float64{2, 6}}),
		NewCompleter(1, 0),
	)

	res := mustFit(t, s, g)
	if res.Solved.TrueCount() != g.Size() {
		t.Fatalf("solved = %d, want %d", res.Solved.TrueCount(), g.Size())
	}
	for j := range 9 {
		for i := range 9 {
			want := 2.0
			if i >= 4 {
				want = 6
			}
			if got := res.Surface.At(i, j); !near(got, want, 1e-6) {
				t.Errorf("At(%d, %d) = %v, want %v", i, j, got, want)
			}
		}
	}
}

// =============================================================================
// Failures
// =============================================================================

// conflicting marks its first node both solved and undefined.
type conflicting struct{ base }

func (c *conflicting) Assemble(*SolveContext, *bitmask.Mask, *bitmask.Mask) (System, bool) {
	return System{}, false
}
func (c *conflicting) Minimize(context.Context, *SolveContext) error { return nil }
func (c *conflicting) CommitMasks(_ *SolveContext, solved, undefined *bitmask.Mask, _ bool) {
	solved.SetTrue(0)
	undefined.SetTrue(0)
}
func (c *conflicting) DropCaches() {}

func TestFit_MaskConflict(t *testing.T) {
	g := mustGrid(t, 0, 2, 1, 0, 2, 1)
	s := NewSession()
	mustAdd(t, s, &conflicting{base{name: "conflicting"}})

	_, err := s.Fit(context.Background(), g)
	var mc *MaskConflictError
	if !errors.As(err, &mc) {
		t.Fatalf("Fit() = %v, want MaskConflictError", err)
	}
	if mc.Functional != "conflicting" || mc.Pos != 0 {
		t.Errorf("MaskConflictError = %+v, want conflicting at 0", mc)
	}
}

func TestFit_Canceled(t *testing.T) {
	g := mustGrid(t, 0, 2, 1, 0, 2, 1)
	s := NewSession()
	mustAdd(t, s, NewValue(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Fit(ctx, g); !errors.Is(err, context.Canceled) {
		t.Errorf("Fit() = %v, want context.Canceled", err)
	}
}

func TestFit_InvalidGrid(t *testing.T) {
	s := NewSession()
	if _, err := s.Fit(context.Background(), &Grid{StepX: 0, StepY: 1}); !errors.Is(err, ErrInvalidGrid) {
		t.Errorf("Fit() = %v, want ErrInvalidGrid", err)
	}
}

func TestFit_SkippedStepReported(t *testing.T) {
	g := mustGrid(t, 0, 2, 1, 0, 2, 1)
	off := &Surface{Grid: mustGrid(t, 10, 12, 1, 10, 12, 1), Values: make([]float64, 9)}
	s := NewSession()
	mustAdd(t, s, NewTrend(1, 0, off), NewValue(3))

	res := mustFit(t, s, g)
	skipped := res.Report.Skipped()
	if len(skipped) != 1 || skipped[0].Name != "trend" {
		t.Fatalf("Skipped() = %+v, want the trend", skipped)
	}
	if !errors.Is(skipped[0].Err, ErrNotSolvable) {
		t.Errorf("skipped error = %v, want ErrNotSolvable", skipped[0].Err)
	}
	if res.Solved.TrueCount() != 9 {
		t.Errorf("solved = %d, want 9", res.Solved.TrueCount())
	}
}

func BenchmarkFit_Completer(b *testing.B) {
	g, _ := NewGrid(0, 63, 1, 0, 63, 1)
	pts := &PointSet{}
	for k := range 32 {
		pts.X = append(pts.X, float64(k*2))
		pts.Y = append(pts.Y, float64((k*7)%64))
		pts.Z = append(pts.Z, float64(k%5))
	}
	s := NewSession()
	_ = s.Add(NewPoints(pts))
	_ = s.Add(NewCompleter(1, 1))

	b.ReportAllocs()
	for b.Loop() {
		if _, err := s.Fit(context.Background(), g); err != nil {
			b.Fatal(err)
		}
	}
}
