package sparse

import (
	"fmt"
	"math"

	"github.com/gogpu/gridfit/bitmask"
)

// Diagonal is a diagonal operator with per-node coefficients.
// Row j is active when mask bit j is set.
type Diagonal struct {
	d    []float64
	mask *bitmask.Mask
}

// NewDiagonal creates a diagonal operator. The operator takes ownership of
// d and mask; callers must not mutate them afterwards.
func NewDiagonal(d []float64, mask *bitmask.Mask) *Diagonal {
	if len(d) != mask.Len() {
		panic(fmt.Sprintf("sparse: diagonal size %d != mask size %d", len(d), mask.Len()))
	}
	return &Diagonal{d: d, mask: mask}
}

// Rows returns N.
func (o *Diagonal) Rows() int { return len(o.d) }

// Cols returns N.
func (o *Diagonal) Cols() int { return len(o.d) }

// ElementAt returns d[j] on the diagonal. Left of the diagonal the hint
// jumps straight to column i; right of it there is nothing more.
func (o *Diagonal) ElementAt(i, j int) (float64, int) {
	switch {
	case i < j:
		return 0, None
	case i > j:
		return 0, i
	default:
		return o.d[j], None
	}
}

// At is ElementAt gated by the activity mask.
func (o *Diagonal) At(i, j int) (float64, int) {
	if !o.mask.Get(i) {
		return 0, None
	}
	return o.ElementAt(i, j)
}

// MultLine returns d[row]*x[row] for active rows.
func (o *Diagonal) MultLine(row int, x []float64) float64 {
	if !o.mask.Get(row) {
		return 0
	}
	return o.d[row] * x[row]
}

// Norm returns the Euclidean norm of the active coefficients.
func (o *Diagonal) Norm() float64 {
	var s float64
	o.mask.ForEach(func(pos int) { s += o.d[pos] * o.d[pos] })
	return math.Sqrt(s)
}

// Identity is a scaled identity over the rows of a local mask, excluding any
// row already solved or undefined.
type Identity struct {
	value     float64
	mask      *bitmask.Mask
	solved    *bitmask.Mask
	undefined *bitmask.Mask
}

// NewIdentity creates a scaled identity operator. mask is owned by the
// operator; solved and undefined are borrowed read-only and must outlive it.
func NewIdentity(value float64, mask, solved, undefined *bitmask.Mask) *Identity {
	if mask.Len() != solved.Len() || mask.Len() != undefined.Len() {
		panic(fmt.Sprintf("sparse: identity mask sizes %d/%d/%d differ",
			mask.Len(), solved.Len(), undefined.Len()))
	}
	return &Identity{value: value, mask: mask, solved: solved, undefined: undefined}
}

// Rows returns N.
func (o *Identity) Rows() int { return o.mask.Len() }

// Cols returns N.
func (o *Identity) Cols() int { return o.mask.Len() }

func (o *Identity) active(pos int) bool {
	return o.mask.Get(pos) && !o.solved.Get(pos) && !o.undefined.Get(pos)
}

// ElementAt returns the shared value on the diagonal.
func (o *Identity) ElementAt(i, j int) (float64, int) {
	switch {
	case i < j:
		return 0, None
	case i > j:
		return 0, i
	default:
		return o.value, None
	}
}

// At is ElementAt gated by the local, solved and undefined masks.
func (o *Identity) At(i, j int) (float64, int) {
	if !o.active(i) {
		return 0, None
	}
	return o.ElementAt(i, j)
}

// MultLine returns value*x[row] for active rows.
func (o *Identity) MultLine(row int, x []float64) float64 {
	if !o.active(row) {
		return 0
	}
	return o.value * x[row]
}
