package raster

import (
	"fmt"
	"math"

	"github.com/MeKo-Tech/docscan/internal/utils"
)

// Point is a raster-space coordinate; it may be fractional or outside the raster.
type Point = utils.Point

// CornerSet holds a document quadrilateral in top-left, top-right,
// bottom-right, bottom-left order.
type CornerSet [4]Point

// FullFrame returns the corners of the whole w x h raster.
func FullFrame(w, h int) CornerSet {
	fw, fh := float64(w), float64(h)
	return CornerSet{{X: 0, Y: 0}, {X: fw, Y: 0}, {X: fw, Y: fh}, {X: 0, Y: fh}}
}

// CornersFromSlice converts a point slice, which must hold exactly four points.
func CornersFromSlice(pts []Point) (CornerSet, error) {
	var cs CornerSet
	if len(pts) != 4 {
		return cs, fmt.Errorf("%w: expected 4 corners, got %d", ErrInvalidGeometry, len(pts))
	}
	copy(cs[:], pts)
	return cs, nil
}

// Slice returns the corners as a new slice.
func (c CornerSet) Slice() []Point {
	return append([]Point(nil), c[:]...)
}

// Validate rejects non-finite coordinates.
func (c CornerSet) Validate() error {
	for i, p := range c {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return fmt.Errorf("%w: corner %d is not finite (%v, %v)", ErrInvalidGeometry, i, p.X, p.Y)
		}
	}
	return nil
}

// Area returns the unsigned shoelace area of the quadrilateral.
func (c CornerSet) Area() float64 {
	return math.Abs(utils.PolygonArea(c[:]))
}

// Scale multiplies every coordinate by sx, sy.
func (c CornerSet) Scale(sx, sy float64) CornerSet {
	var out CornerSet
	for i, p := range c {
		out[i] = utils.ScalePoint(p, sx, sy)
	}
	return out
}

// Clamp pulls every corner inside [0,w] x [0,h].
func (c CornerSet) Clamp(w, h int) CornerSet {
	var out CornerSet
	for i, p := range c {
		out[i] = Point{
			X: math.Max(0, math.Min(float64(w), p.X)),
			Y: math.Max(0, math.Min(float64(h), p.Y)),
		}
	}
	return out
}
