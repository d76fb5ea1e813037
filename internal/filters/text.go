package filters

import (
	"math"

	"github.com/MeKo-Tech/docscan/internal/mempool"
	"github.com/MeKo-Tech/docscan/internal/raster"
)

const (
	textBlockRadius     = 4  // 9x9 block average at each grid point
	textDeviation       = 20 // luminance deviation treated as a stroke
	textBrightLevel     = 200
	textStrokeGain      = 0.5
	textBackgroundLift  = 0.2
	textMinGridStride   = 4
	textGridStrideRatio = 50
)

// TextEnhancementStage boosts local contrast around text strokes. Local
// mean luminance is sampled on a coarse grid and interpolated bilinearly;
// pixels deviating from it by more than textDeviation have the deviation
// amplified, while uniformly bright paper is lightened slightly.
type TextEnhancementStage struct{}

func (TextEnhancementStage) Name() string { return StageTextEnhancement }

func (TextEnhancementStage) Active(p Params) bool { return p.TextEnhancement != 0 }

func (TextEnhancementStage) Apply(r *raster.Raster, p Params) (*raster.Raster, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	s := p.TextEnhancement / 100
	w, h := r.Width, r.Height

	lum := mempool.GetFloat32(w * h)
	defer mempool.PutFloat32(lum)
	for i, j := 0, 0; i < len(r.Pix); i, j = i+raster.Channels, j+1 {
		lum[j] = float32(raster.Luminance(r.Pix[i], r.Pix[i+1], r.Pix[i+2]))
	}

	grid := newMeanGrid(lum, w, h)
	defer grid.release()

	strokeGain := 1 + textStrokeGain*s
	lift := 1 + textBackgroundLift*s

	out := r.CloneEmpty()
	for y := range h {
		for x := range w {
			i := y*w + x
			o := i * raster.Channels
			mean := grid.at(x, y)
			dev := float64(lum[i]) - mean
			cr, cg, cb := r.Pix[o], r.Pix[o+1], r.Pix[o+2]

			switch {
			case math.Abs(dev) > textDeviation:
				shift := dev * (strokeGain - 1)
				cr = raster.ClampByte(float64(cr) + shift)
				cg = raster.ClampByte(float64(cg) + shift)
				cb = raster.ClampByte(float64(cb) + shift)
			case mean > textBrightLevel:
				cr = raster.ClampByte(float64(cr) * lift)
				cg = raster.ClampByte(float64(cg) * lift)
				cb = raster.ClampByte(float64(cb) * lift)
			}
			out.Pix[o], out.Pix[o+1], out.Pix[o+2] = cr, cg, cb
			out.Pix[o+3] = r.Pix[o+3]
		}
	}
	return out, nil
}

// meanGrid holds block-average luminance at every stride-th pixel.
type meanGrid struct {
	stride int
	cols   int
	rows   int
	w, h   int
	means  []float32
}

func newMeanGrid(lum []float32, w, h int) *meanGrid {
	stride := max(textMinGridStride, min(w, h)/textGridStrideRatio)
	g := &meanGrid{
		stride: stride,
		cols:   (w-1)/stride + 2,
		rows:   (h-1)/stride + 2,
		w:      w,
		h:      h,
	}
	g.means = mempool.GetFloat32(g.cols * g.rows)

	for gy := range g.rows {
		cy := min(gy*stride, h-1)
		for gx := range g.cols {
			cx := min(gx*stride, w-1)
			var sum float64
			n := 0
			for y := max(0, cy-textBlockRadius); y <= min(h-1, cy+textBlockRadius); y++ {
				for x := max(0, cx-textBlockRadius); x <= min(w-1, cx+textBlockRadius); x++ {
					sum += float64(lum[y*w+x])
					n++
				}
			}
			g.means[gy*g.cols+gx] = float32(sum / float64(n))
		}
	}
	return g
}

// at interpolates the local mean at pixel (x, y).
func (g *meanGrid) at(x, y int) float64 {
	gx, gy := x/g.stride, y/g.stride
	// The last grid column sits on the image edge, not at a full stride.
	x0, x1 := gx*g.stride, min((gx+1)*g.stride, g.w-1)
	y0, y1 := gy*g.stride, min((gy+1)*g.stride, g.h-1)
	fx, fy := 0.0, 0.0
	if x1 > x0 {
		fx = float64(x-x0) / float64(x1-x0)
	}
	if y1 > y0 {
		fy = float64(y-y0) / float64(y1-y0)
	}
	m := func(cx, cy int) float64 { return float64(g.means[cy*g.cols+cx]) }
	top := m(gx, gy) + (m(gx+1, gy)-m(gx, gy))*fx
	bottom := m(gx, gy+1) + (m(gx+1, gy+1)-m(gx, gy+1))*fx
	return top + (bottom-top)*fy
}

func (g *meanGrid) release() { mempool.PutFloat32(g.means) }
