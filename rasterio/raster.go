// Package rasterio exports solved surfaces as raster images: 16-bit
// grayscale TIFF grids and color PNG previews.
package rasterio

import (
	"image"
	"image/color"
	"io"
	"os"

	"golang.org/x/image/tiff"

	"github.com/gogpu/gridfit"
)

// NoData is the raster sample of an undefined node.
const NoData = 0

// Raster is a surface quantized to 16-bit samples. Defined values map
// linearly onto [1, 65535]; undefined nodes are NoData. Row 0 is the
// northern (maximum Y) grid row.
type Raster struct {
	width  int
	height int
	data   []uint16
	lo, hi float64
}

// Render quantizes s.
func Render(s *gridfit.Surface) *Raster {
	nn, mm := s.Grid.CountX(), s.Grid.CountY()
	r := &Raster{width: nn, height: mm, data: make([]uint16, nn*mm)}

	lo, hi, ok := s.MinMax()
	if !ok {
		return r
	}
	r.lo, r.hi = lo, hi
	scale := 0.0
	if hi > lo {
		scale = 65534 / (hi - lo)
	}
	for j := range mm {
		row := (mm - 1 - j) * nn
		for i := range nn {
			v := s.Values[i+j*nn]
			if v == gridfit.Undefined {
				continue
			}
			r.data[row+i] = uint16(1 + (v-lo)*scale + 0.5)
		}
	}
	return r
}

// Width returns the number of columns.
func (r *Raster) Width() int { return r.width }

// Height returns the number of rows.
func (r *Raster) Height() int { return r.height }

// Range returns the values mapped to samples 1 and 65535.
func (r *Raster) Range() (lo, hi float64) { return r.lo, r.hi }

// Sample returns the sample at pixel (x, y).
func (r *Raster) Sample(x, y int) uint16 {
	if x < 0 || x >= r.width || y < 0 || y >= r.height {
		return NoData
	}
	return r.data[y*r.width+x]
}

// Value converts a sample back to a surface value.
func (r *Raster) Value(sample uint16) float64 {
	if sample == NoData {
		return gridfit.Undefined
	}
	if r.hi == r.lo {
		return r.lo
	}
	return r.lo + float64(sample-1)*(r.hi-r.lo)/65534
}

// ToImage converts the raster to an image.Gray16.
func (r *Raster) ToImage() *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, r.width, r.height))
	for y := range r.height {
		for x := range r.width {
			img.SetGray16(x, y, color.Gray16{Y: r.data[y*r.width+x]})
		}
	}
	return img
}

// WriteTIFF encodes s as a deflate-compressed 16-bit grayscale TIFF.
func WriteTIFF(w io.Writer, s *gridfit.Surface) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return tiff.Encode(w, Render(s).ToImage(), &tiff.Options{Compression: tiff.Deflate, Predictor: true})
}

// SaveTIFF writes s to a TIFF file.
func SaveTIFF(path string, s *gridfit.Surface) error {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	if err := WriteTIFF(f, s); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
