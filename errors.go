package gridfit

import (
	"errors"
	"fmt"
)

// Sentinel errors for gridfit.
var (
	// ErrNotSolvable is returned when a functional's system has nothing to
	// solve for or the iterative solve did not converge. The functional is
	// skipped for the pass; already solved nodes are untouched.
	ErrNotSolvable = errors.New("gridfit: system not solvable")

	// ErrInvalidGrid is returned for grids with non-positive steps or an
	// end before the start.
	ErrInvalidGrid = errors.New("gridfit: invalid grid")

	// ErrNoTarget is returned when a condition is added to a session that
	// has no functional to attach it to.
	ErrNoTarget = errors.New("gridfit: condition has no target functional")

	// ErrSizeMismatch is returned when coordinate or value slices of one
	// data set have different lengths.
	ErrSizeMismatch = errors.New("gridfit: size mismatch")
)

// MaskConflictError reports a node left both solved and undefined by a
// functional's commit.
type MaskConflictError struct {
	Functional string
	Pos        int
}

func (e *MaskConflictError) Error() string {
	return fmt.Sprintf("gridfit: %s left node %d both solved and undefined", e.Functional, e.Pos)
}
