package gridfit

import (
	"context"

	"github.com/gogpu/gridfit/bitmask"
)

// Fault declares a fault curve. It determines no nodes itself; trends
// declared after it break their smoothing stencils along the curve.
type Fault struct {
	base
	curve *Curve
}

// NewFault creates a fault modifier.
func NewFault(curve *Curve, opts ...FunctionalOption) *Fault {
	name := "fault"
	if curve.Name != "" {
		name = "fault " + curve.Name
	}
	o := applyFunctionalOptions(name, opts)
	return &Fault{base: base{name: o.name}, curve: curve}
}

// FaultCurve returns the fault geometry.
func (f *Fault) FaultCurve() *Curve { return f.curve }

// Assemble contributes nothing.
func (f *Fault) Assemble(*SolveContext, *bitmask.Mask, *bitmask.Mask) (System, bool) {
	return System{}, false
}

// Minimize does nothing.
func (f *Fault) Minimize(context.Context, *SolveContext) error { return nil }

// CommitMasks does nothing.
func (f *Fault) CommitMasks(*SolveContext, *bitmask.Mask, *bitmask.Mask, bool) {}

// DropCaches does nothing.
func (f *Fault) DropCaches() {}
