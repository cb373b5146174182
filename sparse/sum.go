package sparse

import "fmt"

// Sum is the weighted combination c1*A + c2*B. A nil operand is the zero
// operator.
type Sum struct {
	c1, c2 float64
	a, b   Operator
	n      int
}

// NewSum combines two operators. It returns nil when both are nil and
// panics when the non-nil operands disagree in size.
func NewSum(c1 float64, a Operator, c2 float64, b Operator) Operator {
	n, ok := sumSize(a, b)
	if !ok {
		return nil
	}
	return &Sum{c1: c1, c2: c2, a: a, b: b, n: n}
}

func sumSize(a, b Operator) (int, bool) {
	switch {
	case a == nil && b == nil:
		return 0, false
	case a == nil:
		return b.Rows(), true
	case b == nil:
		return a.Rows(), true
	}
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		panic(fmt.Sprintf("sparse: sum operands %dx%d and %dx%d differ",
			a.Rows(), a.Cols(), b.Rows(), b.Cols()))
	}
	return a.Rows(), true
}

// Rows returns N.
func (s *Sum) Rows() int { return s.n }

// Cols returns N.
func (s *Sum) Cols() int { return s.n }

func (s *Sum) combine(i, j int, at bool) (float64, int) {
	var v float64
	next := None
	for _, part := range [2]struct {
		c  float64
		op Operator
	}{{s.c1, s.a}, {s.c2, s.b}} {
		if part.op == nil {
			continue
		}
		var pv float64
		var pn int
		if at {
			pv, pn = part.op.At(i, j)
		} else {
			pv, pn = part.op.ElementAt(i, j)
		}
		v += part.c * pv
		next = minHint(next, pn)
	}
	return v, next
}

// ElementAt returns c1*A(i,j) + c2*B(i,j) with the nearer of both hints.
func (s *Sum) ElementAt(i, j int) (float64, int) { return s.combine(i, j, false) }

// At is the gated combination.
func (s *Sum) At(i, j int) (float64, int) { return s.combine(i, j, true) }

// MultLine returns c1*A.MultLine + c2*B.MultLine.
func (s *Sum) MultLine(row int, x []float64) float64 {
	var v float64
	if s.a != nil {
		v += s.c1 * s.a.MultLine(row, x)
	}
	if s.b != nil {
		v += s.c2 * s.b.MultLine(row, x)
	}
	return v
}

// RectSum is a Sum whose rows outside a rectangle are zero.
type RectSum struct {
	Sum
	rect Rect
	nn   int
}

// NewRectSum combines two operators restricted to rect on a grid with nn
// nodes per row. It returns nil when both operands are nil.
func NewRectSum(rect Rect, nn int, c1 float64, a Operator, c2 float64, b Operator) Operator {
	n, ok := sumSize(a, b)
	if !ok {
		return nil
	}
	return &RectSum{Sum: Sum{c1: c1, c2: c2, a: a, b: b, n: n}, rect: rect, nn: nn}
}

func (s *RectSum) inside(row int) bool {
	return s.rect.Contains(row%s.nn, row/s.nn)
}

// ElementAt returns the combined coefficient for rows inside the rect.
func (s *RectSum) ElementAt(i, j int) (float64, int) {
	if !s.inside(i) {
		return 0, None
	}
	return s.Sum.ElementAt(i, j)
}

// At returns the gated combined coefficient for rows inside the rect.
func (s *RectSum) At(i, j int) (float64, int) {
	if !s.inside(i) {
		return 0, None
	}
	return s.Sum.At(i, j)
}

// MultLine returns the combined row product for rows inside the rect.
func (s *RectSum) MultLine(row int, x []float64) float64 {
	if !s.inside(row) {
		return 0
	}
	return s.Sum.MultLine(row, x)
}
