package rectify

import (
	"math"

	"github.com/MeKo-Tech/docscan/internal/raster"
	"github.com/MeKo-Tech/docscan/internal/utils"
)

// snapEpsilon absorbs floating point noise so that sample positions which
// are integers up to rounding hit the pixel exactly.
const snapEpsilon = 1e-9

// outputRect returns the corners of a dstW x dstH rectangle in TL, TR, BR, BL order.
func outputRect(dstW, dstH int) [4]utils.Point {
	return [4]utils.Point(raster.FullFrame(dstW, dstH))
}

// warpPerspective fills a dstW x dstH raster by mapping every output pixel
// through h (output rect to source quad) and sampling src bilinearly.
func warpPerspective(src *raster.Raster, h [9]float64, dstW, dstH int) *raster.Raster {
	out := &raster.Raster{Width: dstW, Height: dstH, Pix: make([]uint8, dstW*dstH*raster.Channels)}
	i := 0
	for y := range dstH {
		for x := range dstW {
			sx, sy := applyHomography(h, float64(x), float64(y))
			r, g, b, a := bilinearSample(src, snap(sx), snap(sy))
			out.Pix[i] = r
			out.Pix[i+1] = g
			out.Pix[i+2] = b
			out.Pix[i+3] = a
			i += raster.Channels
		}
	}
	return out
}

func snap(v float64) float64 {
	if r := math.Round(v); math.Abs(v-r) < snapEpsilon {
		return r
	}
	return v
}

// bilinearSample interpolates src at (x, y). Coordinates outside
// [0,W) x [0,H) yield opaque white.
func bilinearSample(src *raster.Raster, x, y float64) (uint8, uint8, uint8, uint8) {
	if !(x >= 0 && y >= 0 && x < float64(src.Width) && y < float64(src.Height)) {
		return 255, 255, 255, 255
	}
	x0 := int(x)
	y0 := int(y)
	x1 := min(x0+1, src.Width-1)
	y1 := min(y0+1, src.Height-1)
	fx := x - float64(x0)
	fy := y - float64(y0)

	i00 := src.Offset(x0, y0)
	i10 := src.Offset(x1, y0)
	i01 := src.Offset(x0, y1)
	i11 := src.Offset(x1, y1)

	var c [4]uint8
	for k := range raster.Channels {
		top := lerp(float64(src.Pix[i00+k]), float64(src.Pix[i10+k]), fx)
		bottom := lerp(float64(src.Pix[i01+k]), float64(src.Pix[i11+k]), fx)
		c[k] = raster.ClampByte(lerp(top, bottom, fy))
	}
	return c[0], c[1], c[2], c[3]
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
