package gridfit

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/zeebo/xxh3"

	"github.com/gogpu/gridfit/sparse"
)

// Grid is an equidistant rectangular 2D grid. Node (i, j) sits at
// (StartX + i*StepX, StartY + j*StepY) and has linear index i + j*CountX().
type Grid struct {
	StartX, EndX, StepX float64
	StartY, EndY, StepY float64

	// Name is informational and not part of grid identity.
	Name string
}

// NewGrid creates a validated grid.
func NewGrid(startX, endX, stepX, startY, endY, stepY float64) (*Grid, error) {
	g := &Grid{
		StartX: startX, EndX: endX, StepX: stepX,
		StartY: startY, EndY: endY, StepY: stepY,
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate checks the grid geometry.
func (g *Grid) Validate() error {
	switch {
	case g == nil:
		return fmt.Errorf("%w: nil grid", ErrInvalidGrid)
	case !(g.StepX > 0) || !(g.StepY > 0):
		return fmt.Errorf("%w: steps %g, %g must be positive", ErrInvalidGrid, g.StepX, g.StepY)
	case g.EndX < g.StartX || g.EndY < g.StartY:
		return fmt.Errorf("%w: end before start", ErrInvalidGrid)
	case math.IsInf(g.EndX-g.StartX, 0) || math.IsInf(g.EndY-g.StartY, 0):
		return fmt.Errorf("%w: infinite extent", ErrInvalidGrid)
	}
	return nil
}

// CountX returns the number of nodes along X.
func (g *Grid) CountX() int {
	return int(math.Floor((g.EndX-g.StartX)/g.StepX+0.5)) + 1
}

// CountY returns the number of nodes along Y.
func (g *Grid) CountY() int {
	return int(math.Floor((g.EndY-g.StartY)/g.StepY+0.5)) + 1
}

// Size returns CountX()*CountY().
func (g *Grid) Size() int {
	return g.CountX() * g.CountY()
}

// NodeX returns the X coordinate of column i.
func (g *Grid) NodeX(i int) float64 { return g.StartX + float64(i)*g.StepX }

// NodeY returns the Y coordinate of row j.
func (g *Grid) NodeY(j int) float64 { return g.StartY + float64(j)*g.StepY }

// XFrom returns the left edge of the cell around column i.
func (g *Grid) XFrom(i int) float64 { return g.StartX + (float64(i)-0.5)*g.StepX }

// XTo returns the right edge of the cell around column i.
func (g *Grid) XTo(i int) float64 { return g.StartX + (float64(i)+0.5)*g.StepX }

// YFrom returns the lower edge of the cell around row j.
func (g *Grid) YFrom(j int) float64 { return g.StartY + (float64(j)-0.5)*g.StepY }

// YTo returns the upper edge of the cell around row j.
func (g *Grid) YTo(j int) float64 { return g.StartY + (float64(j)+0.5)*g.StepY }

// I returns the column whose cell contains x. The result may lie outside
// [0, CountX()).
func (g *Grid) I(x float64) int {
	return int(math.Floor((x-g.StartX)/g.StepX + 0.5))
}

// J returns the row whose cell contains y. The result may lie outside
// [0, CountY()).
func (g *Grid) J(y float64) int {
	return int(math.Floor((y-g.StartY)/g.StepY + 0.5))
}

// Cell returns the linear index of the cell containing (x, y) and whether
// the point lies inside the grid.
func (g *Grid) Cell(x, y float64) (int, bool) {
	i, j := g.I(x), g.J(y)
	nn, mm := g.CountX(), g.CountY()
	if i < 0 || i >= nn || j < 0 || j >= mm {
		return 0, false
	}
	return i + j*nn, true
}

// clampI clamps a column index into the grid.
func (g *Grid) clampI(i int) int { return min(max(i, 0), g.CountX()-1) }

// clampJ clamps a row index into the grid.
func (g *Grid) clampJ(j int) int { return min(max(j, 0), g.CountY()-1) }

// Equal reports whether both grids have the same geometry. Names are
// ignored.
func (g *Grid) Equal(o *Grid) bool {
	if g == nil || o == nil {
		return g == o
	}
	return g.StartX == o.StartX && g.EndX == o.EndX && g.StepX == o.StepX &&
		g.StartY == o.StartY && g.EndY == o.EndY && g.StepY == o.StepY
}

// Signature returns a 64-bit hash of the grid geometry. Equal grids have
// equal signatures; a signature match is confirmed with Equal.
func (g *Grid) Signature() uint64 {
	var buf [48]byte
	for k, v := range [6]float64{g.StartX, g.EndX, g.StepX, g.StartY, g.EndY, g.StepY} {
		binary.LittleEndian.PutUint64(buf[k*8:], math.Float64bits(v))
	}
	return xxh3.Hash(buf[:])
}

// Intersect returns the rectangle of g's nodes whose cells overlap the
// extent of o. ok is false when the grids do not overlap.
func (g *Grid) Intersect(o *Grid) (r sparse.Rect, ok bool) {
	nn, mm := o.CountX(), o.CountY()
	xMin := o.XFrom(0)
	xMax := o.XTo(nn-1) - o.StepX*1e-6
	yMin := o.YFrom(0)
	yMax := o.YTo(mm-1) - o.StepY*1e-6

	if xMax < g.XFrom(0) || xMin >= g.XTo(g.CountX()-1) ||
		yMax < g.YFrom(0) || yMin >= g.YTo(g.CountY()-1) {
		return sparse.Rect{}, false
	}

	r = sparse.Rect{
		I0: g.clampI(g.I(xMin)),
		I1: g.clampI(g.I(xMax)),
		J0: g.clampJ(g.J(yMin)),
		J1: g.clampJ(g.J(yMax)),
	}
	return r, r.I0 <= r.I1 && r.J0 <= r.J1
}

// SubGrid returns the grid made of the nodes inside r.
func (g *Grid) SubGrid(r sparse.Rect) *Grid {
	return &Grid{
		StartX: g.NodeX(r.I0), EndX: g.NodeX(r.I1), StepX: g.StepX,
		StartY: g.NodeY(r.J0), EndY: g.NodeY(r.J1), StepY: g.StepY,
		Name: g.Name,
	}
}

// Coarsen returns a grid with steps multiplied by factor that starts at the
// same origin and covers g.
func (g *Grid) Coarsen(factor int) *Grid {
	if factor <= 1 {
		c := *g
		return &c
	}
	f := float64(factor)
	nx := (g.CountX()-1+factor-1)/factor + 1
	ny := (g.CountY()-1+factor-1)/factor + 1
	return &Grid{
		StartX: g.StartX, EndX: g.StartX + float64(nx-1)*g.StepX*f, StepX: g.StepX * f,
		StartY: g.StartY, EndY: g.StartY + float64(ny-1)*g.StepY*f, StepY: g.StepY * f,
		Name: g.Name,
	}
}

// Topology returns the stencil topology of g. faults may be nil.
func (g *Grid) Topology(faults sparse.Faults) sparse.Topology {
	return sparse.Topology{NN: g.CountX(), MM: g.CountY(), StepX: g.StepX, StepY: g.StepY, Faults: faults}
}

// String returns a description of the grid geometry.
func (g *Grid) String() string {
	return fmt.Sprintf("grid %dx%d x:[%g,%g] step %g, y:[%g,%g] step %g",
		g.CountX(), g.CountY(), g.StartX, g.EndX, g.StepX, g.StartY, g.EndY, g.StepY)
}

// GridForPoints returns a grid with nx×ny nodes spanning the bounds of p.
func GridForPoints(p *PointSet, nx, ny int) (*Grid, error) {
	minX, maxX, minY, maxY, ok := p.Bounds()
	if !ok {
		return nil, fmt.Errorf("%w: no points", ErrInvalidGrid)
	}
	nx, ny = max(nx, 2), max(ny, 2)
	stepX := (maxX - minX) / float64(nx-1)
	stepY := (maxY - minY) / float64(ny-1)
	if stepX == 0 {
		stepX = 1
	}
	if stepY == 0 {
		stepY = 1
	}
	return NewGrid(minX, minX+stepX*float64(nx-1), stepX, minY, minY+stepY*float64(ny-1), stepY)
}
