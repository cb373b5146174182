package gridfit

import (
	"testing"

	"github.com/gogpu/gridfit/bitmask"
)

func TestSolveContext_SetGrid(t *testing.T) {
	a := mustGrid(t, 0, 2, 1, 0, 2, 1)
	sc := NewSolveContext(a)
	if sc.Size() != 9 || sc.Unknown() != 9 || sc.PrevGrid != nil {
		t.Fatalf("new context: size %d, unknown %d, prev %v", sc.Size(), sc.Unknown(), sc.PrevGrid)
	}

	sc.X[0] = 1
	sc.Solved.SetTrue(0)
	if sc.SetGrid(&Grid{StartX: 0, EndX: 2, StepX: 1, StartY: 0, EndY: 2, StepY: 1}) {
		t.Error("SetGrid() with an equal grid reported a change")
	}
	if sc.X[0] != 0 || sc.Solved.Get(0) {
		t.Error("SetGrid() did not reset the state")
	}

	b := mustGrid(t, 0, 4, 1, 0, 2, 1)
	if !sc.SetGrid(b) {
		t.Error("SetGrid() with a new grid reported no change")
	}
	if sc.PrevGrid != a || sc.Grid != b || sc.Size() != 15 {
		t.Errorf("after SetGrid: prev %v, grid %v, size %d", sc.PrevGrid, sc.Grid, sc.Size())
	}
	if sc.Solved.Len() != 15 || sc.Undefined.Len() != 15 {
		t.Error("masks not resized")
	}
}

func TestSolveContext_ForkMerge(t *testing.T) {
	g := mustGrid(t, 0, 3, 1, 0, 0, 1)
	sc := NewSolveContext(g)
	sc.X[0] = 1
	sc.Solved.SetTrue(0)

	child := sc.Fork()
	child.X[1], child.X[2] = 5, 6
	child.Solved.SetTrue(1)
	child.Undefined.SetTrue(2)
	if sc.X[1] != 0 || sc.Solved.Get(1) || sc.Undefined.Get(2) {
		t.Fatal("Fork() shares state with the parent")
	}

	region := bitmask.New(4)
	region.InitFalse()
	region.SetTrue(1)
	sc.Merge(child, region)

	if sc.X[1] != 5 || !sc.Solved.Get(1) {
		t.Error("Merge() did not copy the region")
	}
	if sc.X[2] != 0 || sc.Undefined.Get(2) {
		t.Error("Merge() copied outside the region")
	}
}

func TestSolveContext_SurfaceAndCheck(t *testing.T) {
	g := mustGrid(t, 0, 2, 1, 0, 0, 1)
	sc := NewSolveContext(g)
	sc.X = []float64{1, 2, 3}
	sc.Solved.SetTrue(1)
	sc.Undefined.SetTrue(2)

	s := sc.Surface()
	want := []float64{Undefined, 2, Undefined}
	for k := range want {
		if s.Values[k] != want[k] {
			t.Errorf("Values[%d] = %v, want %v", k, s.Values[k], want[k])
		}
	}
	if sc.CheckMasks() != -1 {
		t.Errorf("CheckMasks() = %d, want -1", sc.CheckMasks())
	}
	if sc.Unknown() != 1 {
		t.Errorf("Unknown() = %d, want 1", sc.Unknown())
	}
	sc.Solved.SetTrue(2)
	if sc.CheckMasks() != 2 {
		t.Errorf("CheckMasks() = %d, want 2", sc.CheckMasks())
	}
}

func TestSolveContext_FaultCurvesBefore(t *testing.T) {
	g := mustGrid(t, 0, 2, 1, 0, 2, 1)
	sc := NewSolveContext(g)
	f1 := NewFault(&Curve{X: []float64{0, 1}, Y: []float64{0, 1}})
	f2 := NewFault(&Curve{X: []float64{1, 2}, Y: []float64{0, 1}})
	trend := NewCompleter(1, 0)
	sc.functionals = []Functional{f1, trend, f2}

	got := sc.faultCurvesBefore(trend)
	if len(got) != 1 || got[0] != f1.FaultCurve() {
		t.Errorf("faultCurvesBefore() = %v, want the first fault only", got)
	}
}
