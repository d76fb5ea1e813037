package filters

import (
	"math"

	"github.com/MeKo-Tech/docscan/internal/raster"
	"github.com/disintegration/imaging"
)

// maxSharpenSigma caps the blur radius used for the unsharp mask.
const maxSharpenSigma = 3.0

// SharpnessStage is an unsharp mask: out = src*(1+s) - blurred*s with
// s = value/100. The Gaussian sigma grows with s up to maxSharpenSigma.
type SharpnessStage struct{}

func (SharpnessStage) Name() string { return StageSharpness }

func (SharpnessStage) Active(p Params) bool { return p.Sharpness != 0 }

func (SharpnessStage) Apply(r *raster.Raster, p Params) (*raster.Raster, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	s := p.Sharpness / 100
	sigma := math.Min(maxSharpenSigma, 1+2*s)
	blurred := imaging.Blur(r.ToImage(), sigma)

	out := r.CloneEmpty()
	for y := range r.Height {
		src := r.Pix[y*r.Width*raster.Channels : (y+1)*r.Width*raster.Channels]
		blr := blurred.Pix[y*blurred.Stride : y*blurred.Stride+r.Width*raster.Channels]
		dst := out.Pix[y*r.Width*raster.Channels:]
		for i := 0; i < len(src); i += raster.Channels {
			for c := range 3 {
				dst[i+c] = raster.ClampByte(float64(src[i+c])*(1+s) - float64(blr[i+c])*s)
			}
			dst[i+3] = src[i+3]
		}
	}
	return out, nil
}
