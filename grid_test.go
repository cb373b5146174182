package gridfit

import (
	"errors"
	"testing"
)

func TestNewGrid_Validate(t *testing.T) {
	tests := []struct {
		name    string
		g       Grid
		wantErr bool
	}{
		{"valid", Grid{0, 10, 1, 0, 5, 0.5, ""}, false},
		{"single node", Grid{3, 3, 1, 3, 3, 1, ""}, false},
		{"zero step", Grid{0, 10, 0, 0, 5, 1, ""}, true},
		{"negative step", Grid{0, 10, 1, 0, 5, -1, ""}, true},
		{"end before start", Grid{10, 0, 1, 0, 5, 1, ""}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGrid(tt.g.StartX, tt.g.EndX, tt.g.StepX, tt.g.StartY, tt.g.EndY, tt.g.StepY)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewGrid() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidGrid) {
				t.Errorf("NewGrid() error = %v, want ErrInvalidGrid", err)
			}
		})
	}
}

func TestGrid_Counts(t *testing.T) {
	g := mustGrid(t, 0, 10, 1, 0, 5, 0.5)
	if g.CountX() != 11 || g.CountY() != 11 {
		t.Errorf("counts = %dx%d, want 11x11", g.CountX(), g.CountY())
	}
	if g.Size() != 121 {
		t.Errorf("Size() = %d, want 121", g.Size())
	}

	// End not on a node rounds to the nearest count.
	odd := mustGrid(t, 0, 10.4, 1, 0, 0, 1)
	if odd.CountX() != 11 {
		t.Errorf("CountX() = %d, want 11", odd.CountX())
	}
}

func TestGrid_Cell(t *testing.T) {
	g := mustGrid(t, 0, 4, 1, 0, 4, 1)
	tests := []struct {
		x, y   float64
		pos    int
		inside bool
	}{
		{0, 0, 0, true},
		{1.49, 0, 1, true},
		{1.5, 0, 2, true},
		{4.4, 4.4, 24, true},
		{-0.6, 0, 0, false},
		{4.6, 0, 0, false},
		{2, 2, 12, true},
	}
	for _, tt := range tests {
		pos, ok := g.Cell(tt.x, tt.y)
		if ok != tt.inside || (ok && pos != tt.pos) {
			t.Errorf("Cell(%v, %v) = %d, %v; want %d, %v", tt.x, tt.y, pos, ok, tt.pos, tt.inside)
		}
	}
}

func TestGrid_EqualSignature(t *testing.T) {
	a := mustGrid(t, 0, 4, 1, 0, 4, 1)
	b := &Grid{StartX: 0, EndX: 4, StepX: 1, StartY: 0, EndY: 4, StepY: 1, Name: "other"}
	c := mustGrid(t, 0, 4, 0.5, 0, 4, 1)

	if !a.Equal(b) || a.Signature() != b.Signature() {
		t.Error("grids differing by name only are not equal")
	}
	if a.Equal(c) || a.Signature() == c.Signature() {
		t.Error("grids with different steps are equal")
	}
	var nilGrid *Grid
	if a.Equal(nilGrid) || !nilGrid.Equal(nil) {
		t.Error("nil grid comparison wrong")
	}
}

func TestGrid_Intersect(t *testing.T) {
	g := mustGrid(t, 0, 9, 1, 0, 9, 1)

	tests := []struct {
		name string
		o    *Grid
		ok   bool
		want [4]int
	}{
		{"inner", mustGrid(t, 2, 5, 1, 3, 4, 1), true, [4]int{2, 5, 3, 4}},
		{"covering", mustGrid(t, -5, 20, 1, -5, 20, 1), true, [4]int{0, 9, 0, 9}},
		{"partial", mustGrid(t, 7, 12, 1, -3, 1, 1), true, [4]int{7, 9, 0, 1}},
		{"disjoint", mustGrid(t, 20, 30, 1, 0, 9, 1), false, [4]int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := g.Intersect(tt.o)
			if ok != tt.ok {
				t.Fatalf("Intersect() ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if got := [4]int{r.I0, r.I1, r.J0, r.J1}; got != tt.want {
				t.Errorf("Intersect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGrid_SubGridCoarsen(t *testing.T) {
	g := mustGrid(t, 0, 9, 1, 0, 9, 1)
	r, _ := g.Intersect(mustGrid(t, 2, 5, 1, 3, 4, 1))
	sub := g.SubGrid(r)
	if sub.CountX() != 4 || sub.CountY() != 2 || sub.StartX != 2 || sub.StartY != 3 {
		t.Errorf("SubGrid() = %v", sub)
	}

	c := g.Coarsen(4)
	if c.StepX != 4 || c.CountX() != 4 || c.EndX != 12 {
		t.Errorf("Coarsen(4) = %v, want 4 nodes of step 4 covering 0..12", c)
	}
	if same := g.Coarsen(1); !same.Equal(g) || same == g {
		t.Error("Coarsen(1) must return an equal copy")
	}
}

func TestGridForPoints(t *testing.T) {
	p := &PointSet{X: []float64{0, 10, 5}, Y: []float64{2, 4, 3}, Z: []float64{1, 1, 1}}
	g, err := GridForPoints(p, 11, 3)
	if err != nil {
		t.Fatalf("GridForPoints() = %v", err)
	}
	if g.CountX() != 11 || g.CountY() != 3 || g.StepX != 1 || g.StepY != 1 {
		t.Errorf("GridForPoints() = %v", g)
	}

	if _, err := GridForPoints(&PointSet{}, 2, 2); !errors.Is(err, ErrInvalidGrid) {
		t.Errorf("GridForPoints(empty) = %v, want ErrInvalidGrid", err)
	}
}
