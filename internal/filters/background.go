package filters

import (
	"github.com/MeKo-Tech/docscan/internal/raster"
)

// whiteBandStart is where the whitening ramp begins, as a fraction of the
// background threshold.
const whiteBandStart = 0.8

// WhiteBackgroundStage pushes paper-bright pixels towards white. The
// background threshold is the 90th luminance percentile; pixels brighter
// than 0.8 times that threshold are lifted in proportion to how far they
// reach into the band and to the strength.
func WhiteBackgroundStage() Stage {
	return pixelStage{
		name:   StageWhiteBackground,
		active: func(p Params) bool { return p.WhiteBackground != 0 },
		prepare: func(r *raster.Raster, p Params) rgbFunc {
			s := p.WhiteBackground / 100
			hist := r.LuminanceHistogram()
			threshold := float64(hist.Percentile(0.9))
			lo := whiteBandStart * threshold
			return func(cr, cg, cb uint8) (uint8, uint8, uint8) {
				lum := raster.Luminance(cr, cg, cb)
				if lum <= lo {
					return cr, cg, cb
				}
				t := 1.0
				if threshold > lo {
					t = min(1, (lum-lo)/(threshold-lo))
				}
				k := t * s
				lift := func(v uint8) uint8 { return raster.ClampByte(float64(v) + (255-float64(v))*k) }
				return lift(cr), lift(cg), lift(cb)
			}
		},
	}
}
