package cg

import (
	"errors"
	"math"
	"testing"

	"github.com/gogpu/gridfit/bitmask"
	"github.com/gogpu/gridfit/sparse"
)

func mask(n int, set ...int) *bitmask.Mask {
	m := bitmask.New(n)
	m.InitFalse()
	for _, p := range set {
		m.SetTrue(p)
	}
	return m
}

func TestSolve_Diagonal(t *testing.T) {
	d := []float64{2, 4, 8}
	op := sparse.NewDiagonal(d, mask(3, 0, 1, 2))
	b := []float64{2, 2, 2}
	x := make([]float64, 3)

	if _, err := New().Solve(op, b, x); err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	want := []float64{1, 0.5, 0.25}
	for i := range want {
		if math.Abs(x[i]-want[i]) > 1e-9 {
			t.Errorf("x[%d] = %v, want %v", i, x[i], want[i])
		}
	}
}

func TestSolve_GatedRowsUntouched(t *testing.T) {
	d := []float64{1, 1, 1}
	op := sparse.NewDiagonal(d, mask(3, 1))
	b := []float64{0, 7, 0}
	x := []float64{42, 0, -3}

	if _, err := New().Solve(op, b, x); err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if x[0] != 42 || x[2] != -3 {
		t.Errorf("gated components moved: %v", x)
	}
	if math.Abs(x[1]-7) > 1e-9 {
		t.Errorf("x[1] = %v, want 7", x[1])
	}
}

func TestSolve_LaplaceChain(t *testing.T) {
	// Five-node chain, ends fixed at 0 and 4: the D1 solution is linear.
	const n = 5
	topo := sparse.Topology{NN: n, MM: 1, StepX: 1, StepY: 1}
	solved := mask(n, 0, n-1)
	op := sparse.NewD1(topo, solved, mask(n))

	x := []float64{0, 0, 0, 0, 4}
	b := make([]float64, n)
	op.RHS(nil, x, b)

	iters, err := New().Solve(op, b, x)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if iters == 0 {
		t.Error("expected at least one iteration")
	}
	for i := range n {
		if math.Abs(x[i]-float64(i)) > 1e-6 {
			t.Errorf("x[%d] = %v, want %d", i, x[i], i)
		}
	}
}

func TestSolve_NotConverged(t *testing.T) {
	topo := sparse.Topology{NN: 30, MM: 30, StepX: 1, StepY: 1}
	n := 900
	solved := mask(n, 0)
	op := sparse.NewD2(topo, solved, mask(n))

	x := make([]float64, n)
	x[0] = 1
	b := make([]float64, n)
	op.RHS(nil, x, b)

	s := &Solver{Tolerance: 1e-14, MaxIter: 2}
	_, err := s.Solve(op, b, x)
	if !errors.Is(err, ErrNotConverged) {
		t.Errorf("Solve() error = %v, want ErrNotConverged", err)
	}
}

func TestSolve_ShortVector(t *testing.T) {
	op := sparse.NewDiagonal([]float64{1, 1}, mask(2, 0, 1))
	if _, err := New().Solve(op, []float64{1}, []float64{0, 0}); err == nil {
		t.Error("expected error for short right-hand side")
	}
}
