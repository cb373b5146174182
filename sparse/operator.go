// Package sparse provides logical N×N operators over grid node space that are
// never materialized densely.
//
// # Contract
//
// Every Operator is square. ElementAt returns the structural coefficient of
// (i, j) ignoring solve masks, together with a hint: the next column ≥ j+1
// in row i that may hold a nonzero, or None. At additionally returns zero
// for (i, j) whenever row i or column j is gated off by the operator's masks.
// MultLine computes the dot product of one gated row with a dense vector and
// is the single primitive an iterative solver needs.
//
// Gated rows contribute nothing to MultLine and gated columns are skipped,
// so a solver running over the full vector with zeros on gated right-hand
// side entries never moves gated components.
//
// # Variants
//
//   - Diagonal: per-node coefficients with an activity mask
//   - Identity: one scalar shared by all active rows, excluding solved and
//     undefined nodes
//   - Stencil: first (D1) and second (D2) finite-difference energies over the
//     grid topology, full-grid or restricted to a rectangle, broken by faults
//   - Sum / RectSum: c1*A + c2*B with absent operands treated as zero
package sparse

// None is the next-column hint meaning "no further nonzero in this row".
const None = -1

// Operator is a square sparse linear operator over node index space.
type Operator interface {
	// Rows returns the logical row count N.
	Rows() int

	// Cols returns the logical column count N.
	Cols() int

	// ElementAt returns the structural coefficient at (i, j) and the next
	// column that may be nonzero in row i.
	ElementAt(i, j int) (v float64, next int)

	// At is ElementAt gated by the operator's masks.
	At(i, j int) (v float64, next int)

	// MultLine returns the dot product of gated row `row` with x.
	MultLine(row int, x []float64) float64
}

// Traverse visits the nonzero gated coefficients of one row in ascending
// column order using the next-column hints. It returns the number of
// operator probes made.
func Traverse(op Operator, row int, fn func(col int, v float64)) int {
	probes := 0
	cols := op.Cols()
	for j := 0; j >= 0 && j < cols; {
		v, next := op.At(row, j)
		probes++
		if v != 0 && fn != nil {
			fn(j, v)
		}
		if next == None {
			break
		}
		if next <= j {
			next = j + 1
		}
		j = next
	}
	return probes
}

// Apply computes out = op * x row by row. out must have Rows() entries.
func Apply(op Operator, x, out []float64) {
	for i := range op.Rows() {
		out[i] = op.MultLine(i, x)
	}
}

// Diag extracts the gated diagonal of op into out.
func Diag(op Operator, out []float64) {
	for i := range op.Rows() {
		out[i], _ = op.At(i, i)
	}
}

func minHint(a, b int) int {
	switch {
	case a == None:
		return b
	case b == None:
		return a
	case a < b:
		return a
	default:
		return b
	}
}
