package sparse

import (
	"fmt"
	"sort"

	"github.com/gogpu/gridfit/bitmask"
)

// Faults breaks stencil connectivity between adjacent grid nodes.
type Faults interface {
	// Cut reports whether the link between adjacent nodes a and b crosses
	// a fault.
	Cut(a, b int) bool
}

// Rect is an inclusive rectangle of node indices.
type Rect struct {
	I0, I1 int
	J0, J1 int
}

// FullRect returns the rectangle covering an nn×mm grid.
func FullRect(nn, mm int) Rect {
	return Rect{I0: 0, I1: nn - 1, J0: 0, J1: mm - 1}
}

// Contains reports whether node (i, j) lies inside r.
func (r Rect) Contains(i, j int) bool {
	return i >= r.I0 && i <= r.I1 && j >= r.J0 && j <= r.J1
}

// Width returns the node count along X.
func (r Rect) Width() int { return r.I1 - r.I0 + 1 }

// Height returns the node count along Y.
func (r Rect) Height() int { return r.J1 - r.J0 + 1 }

// Topology describes the grid a stencil operates on.
type Topology struct {
	NN, MM       int
	StepX, StepY float64

	// Faults may be nil.
	Faults Faults
}

// Stencil is the Hessian of a finite-difference smoothness energy.
//
// Order 1 sums ((u_a-u_b)/h)^2 over grid links. Order 2 sums
// ((u_a-2u_b+u_c)/h^2)^2 over 3-node lines in X and Y plus
// 2*((u_{i+1,j+1}-u_{i+1,j}-u_{i,j+1}+u_{i,j})/(hx*hy))^2 over cells. A term
// exists only when all its nodes lie in the rectangle, none is undefined and
// no link between consecutive nodes is cut by a fault.
//
// Rows and columns of solved or undefined nodes are gated off by At and
// MultLine; RHS moves their known values to the right-hand side.
type Stencil struct {
	topo      Topology
	rect      Rect
	order     int
	solved    *bitmask.Mask
	undefined *bitmask.Mask
	wx, wy    float64
	wxy       float64
}

type term struct {
	nodes [4]int
	coef  [4]float64
	n     int
	w     float64
}

// NewD1 creates a full-grid first-derivative operator.
func NewD1(topo Topology, solved, undefined *bitmask.Mask) *Stencil {
	return newStencil(1, topo, FullRect(topo.NN, topo.MM), solved, undefined)
}

// NewD2 creates a full-grid second-derivative operator.
func NewD2(topo Topology, solved, undefined *bitmask.Mask) *Stencil {
	return newStencil(2, topo, FullRect(topo.NN, topo.MM), solved, undefined)
}

// NewD1Rect creates a first-derivative operator restricted to rect.
func NewD1Rect(topo Topology, rect Rect, solved, undefined *bitmask.Mask) *Stencil {
	return newStencil(1, topo, rect, solved, undefined)
}

// NewD2Rect creates a second-derivative operator restricted to rect.
func NewD2Rect(topo Topology, rect Rect, solved, undefined *bitmask.Mask) *Stencil {
	return newStencil(2, topo, rect, solved, undefined)
}

func newStencil(order int, topo Topology, rect Rect, solved, undefined *bitmask.Mask) *Stencil {
	n := topo.NN * topo.MM
	if solved.Len() != n || undefined.Len() != n {
		panic(fmt.Sprintf("sparse: stencil masks %d/%d do not match grid %dx%d",
			solved.Len(), undefined.Len(), topo.NN, topo.MM))
	}
	s := &Stencil{
		topo:      topo,
		rect:      rect,
		order:     order,
		solved:    solved,
		undefined: undefined,
	}
	if order == 1 {
		s.wx = 1 / (topo.StepX * topo.StepX)
		s.wy = 1 / (topo.StepY * topo.StepY)
	} else {
		hx2 := topo.StepX * topo.StepX
		hy2 := topo.StepY * topo.StepY
		s.wx = 1 / (hx2 * hx2)
		s.wy = 1 / (hy2 * hy2)
		s.wxy = 2 / (hx2 * hy2)
	}
	return s
}

// Order returns 1 for D1 and 2 for D2.
func (s *Stencil) Order() int { return s.order }

// Rect returns the rectangle the stencil is restricted to.
func (s *Stencil) Rect() Rect { return s.rect }

// Rows returns N.
func (s *Stencil) Rows() int { return s.topo.NN * s.topo.MM }

// Cols returns N.
func (s *Stencil) Cols() int { return s.topo.NN * s.topo.MM }

func (s *Stencil) active(pos int) bool {
	return !s.solved.Get(pos) && !s.undefined.Get(pos)
}

func (s *Stencil) cut(a, b int) bool {
	return s.topo.Faults != nil && s.topo.Faults.Cut(a, b)
}

// node returns the position of (i, j) or -1 when it is outside the rect or
// undefined.
func (s *Stencil) node(i, j int) int {
	if !s.rect.Contains(i, j) {
		return -1
	}
	pos := i + j*s.topo.NN
	if s.undefined.Get(pos) {
		return -1
	}
	return pos
}

// line emits a term over consecutive nodes when all are usable and no link
// between neighbours is cut.
func (s *Stencil) line(t *term, fn func(*term), w float64, coef []float64, nodes ...int) {
	for k, p := range nodes {
		if p < 0 {
			return
		}
		if k > 0 && s.cut(nodes[k-1], p) {
			return
		}
	}
	t.n = len(nodes)
	t.w = w
	copy(t.nodes[:], nodes)
	copy(t.coef[:], coef)
	fn(t)
}

var (
	coefD1   = []float64{1, -1}
	coefD2   = []float64{1, -2, 1}
	coefMix  = []float64{1, -1, -1, 1}
	mixLinks = [4][2]int{{0, 1}, {2, 3}, {0, 2}, {1, 3}}
)

// forTerms calls fn for every energy term that contains node (i, j).
func (s *Stencil) forTerms(i, j int, fn func(*term)) {
	var t term
	if s.order == 1 {
		s.line(&t, fn, s.wx, coefD1, s.node(i-1, j), s.node(i, j))
		s.line(&t, fn, s.wx, coefD1, s.node(i, j), s.node(i+1, j))
		s.line(&t, fn, s.wy, coefD1, s.node(i, j-1), s.node(i, j))
		s.line(&t, fn, s.wy, coefD1, s.node(i, j), s.node(i, j+1))
		return
	}

	for c := i - 1; c <= i+1; c++ {
		s.line(&t, fn, s.wx, coefD2, s.node(c-1, j), s.node(c, j), s.node(c+1, j))
	}
	for c := j - 1; c <= j+1; c++ {
		s.line(&t, fn, s.wy, coefD2, s.node(i, c-1), s.node(i, c), s.node(i, c+1))
	}
	for cy := j - 1; cy <= j; cy++ {
		for cx := i - 1; cx <= i; cx++ {
			nodes := [4]int{s.node(cx, cy), s.node(cx+1, cy), s.node(cx, cy+1), s.node(cx+1, cy+1)}
			if nodes[0] < 0 || nodes[1] < 0 || nodes[2] < 0 || nodes[3] < 0 {
				continue
			}
			broken := false
			for _, l := range mixLinks {
				if s.cut(nodes[l[0]], nodes[l[1]]) {
					broken = true
					break
				}
			}
			if broken {
				continue
			}
			t.n = 4
			t.w = s.wxy
			t.nodes = nodes
			copy(t.coef[:], coefMix)
			fn(&t)
		}
	}
}

func (s *Stencil) ij(pos int) (int, int) {
	return pos % s.topo.NN, pos / s.topo.NN
}

// support returns the sorted positions row pos can couple to.
func (s *Stencil) support(pos int) []int {
	i, j := s.ij(pos)
	var offs [][2]int
	if s.order == 1 {
		offs = [][2]int{{0, -1}, {-1, 0}, {0, 0}, {1, 0}, {0, 1}}
	} else {
		offs = [][2]int{
			{0, -2}, {-1, -1}, {0, -1}, {1, -1},
			{-2, 0}, {-1, 0}, {0, 0}, {1, 0}, {2, 0},
			{-1, 1}, {0, 1}, {1, 1}, {0, 2},
		}
	}
	out := make([]int, 0, len(offs))
	for _, o := range offs {
		if s.rect.Contains(i+o[0], j+o[1]) {
			out = append(out, i+o[0]+(j+o[1])*s.topo.NN)
		}
	}
	sort.Ints(out)
	return out
}

func nextAfter(support []int, j int) int {
	k := sort.SearchInts(support, j+1)
	if k < len(support) {
		return support[k]
	}
	return None
}

// ElementAt returns the Hessian coefficient (i, j) over the structural term
// set, ignoring solved gating.
func (s *Stencil) ElementAt(i, j int) (float64, int) {
	ri, rj := s.ij(i)
	if !s.rect.Contains(ri, rj) {
		return 0, None
	}
	sup := s.support(i)
	next := nextAfter(sup, j)
	k := sort.SearchInts(sup, j)
	if k == len(sup) || sup[k] != j {
		return 0, next
	}
	var v float64
	s.forTerms(ri, rj, func(t *term) {
		var ci, cj float64
		for k := range t.n {
			if t.nodes[k] == i {
				ci = t.coef[k]
			}
			if t.nodes[k] == j {
				cj = t.coef[k]
			}
		}
		v += t.w * ci * cj
	})
	return v, next
}

// At is ElementAt with solved and undefined rows and columns gated to zero.
func (s *Stencil) At(i, j int) (float64, int) {
	if !s.active(i) {
		return 0, None
	}
	v, next := s.ElementAt(i, j)
	if !s.active(j) {
		return 0, next
	}
	return v, next
}

// MultLine returns the gated row product for row.
func (s *Stencil) MultLine(row int, x []float64) float64 {
	if !s.active(row) {
		return 0
	}
	ri, rj := s.ij(row)
	if !s.rect.Contains(ri, rj) {
		return 0
	}
	var sum float64
	s.forTerms(ri, rj, func(t *term) {
		var ci, dot float64
		for k := range t.n {
			p := t.nodes[k]
			if p == row {
				ci = t.coef[k]
			}
			if s.active(p) {
				dot += t.coef[k] * x[p]
			}
		}
		sum += t.w * ci * dot
	})
	return sum
}

// RHS fills out with the right-hand side of the normal equations for
// matching the energy of trend: for each active row i it stores
// Σ w*c_i*(c·trend − Σ_solved c_k*x_k). trend may be nil for a zero
// reference. Inactive rows inside the rect get zero; entries outside the
// rect are left unchanged. It returns the number of active rows
// touched by at least one term.
func (s *Stencil) RHS(trend, x, out []float64) int {
	points := 0
	for j := s.rect.J0; j <= s.rect.J1; j++ {
		for i := s.rect.I0; i <= s.rect.I1; i++ {
			pos := i + j*s.topo.NN
			out[pos] = 0
			if !s.active(pos) {
				continue
			}
			terms := 0
			var sum float64
			s.forTerms(i, j, func(t *term) {
				var ci, val float64
				for k := range t.n {
					p := t.nodes[k]
					if p == pos {
						ci = t.coef[k]
					}
					if trend != nil {
						val += t.coef[k] * trend[p]
					}
					if !s.active(p) {
						val -= t.coef[k] * x[p]
					}
				}
				sum += t.w * ci * val
				terms++
			})
			if terms > 0 {
				out[pos] = sum
				points++
			}
		}
	}
	return points
}
