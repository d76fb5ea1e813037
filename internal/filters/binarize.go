package filters

import (
	"github.com/MeKo-Tech/docscan/internal/raster"
)

// fallbackThreshold splits a histogram without between-class variance.
const fallbackThreshold = 0

// BinarizationStage thresholds luminance with Otsu's method and blends the
// black and white result over the source: out = v*(1-s) + bin*s.
func BinarizationStage() Stage {
	return pixelStage{
		name:   StageBinarization,
		active: func(p Params) bool { return p.Binarization != 0 },
		prepare: func(r *raster.Raster, p Params) rgbFunc {
			s := p.Binarization / 100
			hist := r.LuminanceHistogram()
			t, ok := hist.OtsuThreshold()
			if !ok {
				t = fallbackThreshold
			}
			return func(cr, cg, cb uint8) (uint8, uint8, uint8) {
				bin := 0.0
				if int(raster.Luma8(cr, cg, cb)) > t {
					bin = 255
				}
				mix := func(v uint8) uint8 { return raster.ClampByte(float64(v)*(1-s) + bin*s) }
				return mix(cr), mix(cg), mix(cb)
			}
		},
	}
}
