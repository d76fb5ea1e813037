package filters

import (
	"image"
	"math"

	"github.com/MeKo-Tech/docscan/internal/raster"
	"github.com/disintegration/gift"
)

// DenoiseStage is a per-channel median filter. The window radius is
// floor(value/100*2) with a minimum of one (3x3); borders replicate the
// edge pixels. Alpha is untouched.
type DenoiseStage struct{}

func (DenoiseStage) Name() string { return StageDenoise }

func (DenoiseStage) Active(p Params) bool { return p.Denoise != 0 }

func (DenoiseStage) Apply(r *raster.Raster, p Params) (*raster.Raster, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	radius := max(1, int(math.Floor(p.Denoise/100*2)))
	return medianFilter(r, radius), nil
}

// medianFilter runs gift's square median over an opaque copy of r so each
// color channel is ranked on its own, then puts the original alpha back.
func medianFilter(r *raster.Raster, radius int) *raster.Raster {
	src := r.ToImage()
	for i := 3; i < len(src.Pix); i += raster.Channels {
		src.Pix[i] = 255
	}
	dst := image.NewNRGBA(src.Bounds())
	gift.New(gift.Median(2*radius+1, false)).Draw(dst, src)

	out := r.CloneEmpty()
	copy(out.Pix, dst.Pix)
	for i := 3; i < len(out.Pix); i += raster.Channels {
		out.Pix[i] = r.Pix[i]
	}
	return out
}
