package raster

import (
	"fmt"
)

// Channels is the number of interleaved bytes per pixel (R, G, B, A).
const Channels = 4

// Raster is a width x height RGBA pixel buffer, row-major with a top-left origin.
// Operations in this module never mutate a Raster they receive; they return a new one.
type Raster struct {
	Width  int
	Height int
	Pix    []uint8
}

// New allocates an opaque black raster of the given size.
func New(width, height int) (*Raster, error) {
	if width <= 0 || height <= 0 {
		return nil, &OpError{Op: "new", Err: fmt.Errorf("%w: dimensions %dx%d", ErrUnsupportedInput, width, height)}
	}
	r := &Raster{Width: width, Height: height, Pix: make([]uint8, width*height*Channels)}
	for i := 3; i < len(r.Pix); i += Channels {
		r.Pix[i] = 255
	}
	return r, nil
}

// NewFilled allocates a raster filled with a single colour.
func NewFilled(width, height int, cr, cg, cb, ca uint8) (*Raster, error) {
	r, err := New(width, height)
	if err != nil {
		return nil, err
	}
	for i := 0; i < len(r.Pix); i += Channels {
		r.Pix[i] = cr
		r.Pix[i+1] = cg
		r.Pix[i+2] = cb
		r.Pix[i+3] = ca
	}
	return r, nil
}

// Validate reports ErrUnsupportedInput when the raster cannot be processed.
func (r *Raster) Validate() error {
	switch {
	case r == nil:
		return fmt.Errorf("%w: nil raster", ErrUnsupportedInput)
	case r.Width <= 0 || r.Height <= 0:
		return fmt.Errorf("%w: dimensions %dx%d", ErrUnsupportedInput, r.Width, r.Height)
	case len(r.Pix) == 0:
		return fmt.Errorf("%w: empty pixel buffer", ErrUnsupportedInput)
	case len(r.Pix) != r.Width*r.Height*Channels:
		return fmt.Errorf("%w: buffer length %d does not match %dx%d",
			ErrUnsupportedInput, len(r.Pix), r.Width, r.Height)
	}
	return nil
}

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	pix := make([]uint8, len(r.Pix))
	copy(pix, r.Pix)
	return &Raster{Width: r.Width, Height: r.Height, Pix: pix}
}

// CloneEmpty allocates a zeroed raster with the same dimensions.
func (r *Raster) CloneEmpty() *Raster {
	return &Raster{Width: r.Width, Height: r.Height, Pix: make([]uint8, len(r.Pix))}
}

// Offset returns the index of the first byte of pixel (x, y).
func (r *Raster) Offset(x, y int) int {
	return (y*r.Width + x) * Channels
}

// At returns the RGBA components at (x, y). Coordinates are clamped to the raster.
func (r *Raster) At(x, y int) (uint8, uint8, uint8, uint8) {
	x = clampInt(x, 0, r.Width-1)
	y = clampInt(y, 0, r.Height-1)
	i := r.Offset(x, y)
	return r.Pix[i], r.Pix[i+1], r.Pix[i+2], r.Pix[i+3]
}

// Set writes the RGBA components at (x, y); out-of-range coordinates are ignored.
func (r *Raster) Set(x, y int, cr, cg, cb, ca uint8) {
	if x < 0 || y < 0 || x >= r.Width || y >= r.Height {
		return
	}
	i := r.Offset(x, y)
	r.Pix[i] = cr
	r.Pix[i+1] = cg
	r.Pix[i+2] = cb
	r.Pix[i+3] = ca
}

// Equal reports whether two rasters have the same size and pixels.
func (r *Raster) Equal(o *Raster) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.Width != o.Width || r.Height != o.Height || len(r.Pix) != len(o.Pix) {
		return false
	}
	for i := range r.Pix {
		if r.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}

// ClampByte rounds v to the nearest integer and clamps it to [0,255].
func ClampByte(v float64) uint8 {
	if v <= 0 || v != v {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
