package rasterio

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"

	"github.com/gogpu/gridfit"
)

// Ramp is a color gradient sampled at evenly spaced stops.
type Ramp []color.NRGBA

// DefaultRamp runs from deep blue through green and yellow to red.
var DefaultRamp = Ramp{
	{R: 0x2c, G: 0x3e, B: 0x9c, A: 0xff},
	{R: 0x2b, G: 0x9d, B: 0x8f, A: 0xff},
	{R: 0x9b, G: 0xc9, B: 0x4b, A: 0xff},
	{R: 0xf2, G: 0xc1, B: 0x3a, A: 0xff},
	{R: 0xc8, G: 0x3b, B: 0x2a, A: 0xff},
}

// At returns the color at t in [0, 1]. Values outside are clamped.
func (r Ramp) At(t float64) color.NRGBA {
	switch {
	case len(r) == 0:
		return color.NRGBA{}
	case len(r) == 1 || t <= 0:
		return r[0]
	case t >= 1:
		return r[len(r)-1]
	}
	u := t * float64(len(r)-1)
	k := int(u)
	f := u - float64(k)
	a, b := r[k], r[k+1]
	lerp := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*f + 0.5) }
	return color.NRGBA{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: lerp(a.A, b.A)}
}

// Colorize maps every node of s to the ramp, one pixel per node and north
// up. Undefined nodes are transparent.
func (r Ramp) Colorize(s *gridfit.Surface) *image.NRGBA {
	nn, mm := s.Grid.CountX(), s.Grid.CountY()
	img := image.NewNRGBA(image.Rect(0, 0, nn, mm))
	lo, hi, ok := s.MinMax()
	if !ok {
		return img
	}
	span := hi - lo
	for j := range mm {
		y := mm - 1 - j
		for i := range nn {
			v := s.Values[i+j*nn]
			if v == gridfit.Undefined {
				continue
			}
			t := 0.5
			if span > 0 {
				t = (v - lo) / span
			}
			img.SetNRGBA(i, y, r.At(t))
		}
	}
	return img
}

// ErrPreviewSize is returned for a non-positive preview width.
var ErrPreviewSize = errors.New("rasterio: preview width must be positive")

// WritePreview encodes a PNG preview of s scaled to width pixels, keeping
// the grid aspect ratio.
func WritePreview(w io.Writer, s *gridfit.Surface, width int) error {
	if width <= 0 {
		return ErrPreviewSize
	}
	if err := s.Validate(); err != nil {
		return err
	}
	src := DefaultRamp.Colorize(s)

	b := src.Bounds()
	height := max(1, int(float64(width)*float64(b.Dy())/float64(b.Dx())+0.5))
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return png.Encode(w, dst)
}

// SavePreview writes a PNG preview of s to a file.
func SavePreview(path string, s *gridfit.Surface, width int) error {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	if err := WritePreview(f, s, width); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
