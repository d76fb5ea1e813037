package filters

import (
	"math/rand"
	"testing"

	"github.com/MeKo-Tech/docscan/internal/raster"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func randomRaster(w, h int, seed int64) *raster.Raster {
	r, err := raster.New(w, h)
	if err != nil {
		panic(err)
	}
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic test data
	for i := range r.Pix {
		r.Pix[i] = uint8(rng.Intn(256))
	}
	return r
}

func TestProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 60
	properties := gopter.NewProperties(parameters)

	properties.Property("neutral parameters return an identical raster", prop.ForAll(
		func(w, h int, seed int64) bool {
			r := randomRaster(w, h, seed)
			out, err := ApplyAll(r, Params{})
			return err == nil && r.Equal(out)
		},
		gen.IntRange(1, 40),
		gen.IntRange(1, 40),
		gen.Int64(),
	))

	properties.Property("full binarization is two-valued", prop.ForAll(
		func(w, h int, seed int64) bool {
			out, err := ApplyAll(randomRaster(w, h, seed), Params{Binarization: 100})
			if err != nil {
				return false
			}
			for i := 0; i < len(out.Pix); i += raster.Channels {
				v := out.Pix[i]
				if (v != 0 && v != 255) || out.Pix[i+1] != v || out.Pix[i+2] != v {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 30),
		gen.IntRange(1, 30),
		gen.Int64(),
	))

	properties.Property("every stage keeps size and alpha", prop.ForAll(
		func(seed int64, b, c, s, d, bin float64) bool {
			r := randomRaster(16, 12, seed)
			out, err := ApplyAll(r, Params{
				Brightness: b, Contrast: c, Sharpness: s, Saturation: c,
				Denoise: d, Temperature: b, Tint: -c, Binarization: bin,
				WhiteBackground: d, TextEnhancement: bin,
			})
			if err != nil || out.Width != r.Width || out.Height != r.Height {
				return false
			}
			for i := 3; i < len(r.Pix); i += raster.Channels {
				if out.Pix[i] != r.Pix[i] {
					return false
				}
			}
			return true
		},
		gen.Int64(),
		gen.Float64Range(-100, 100),
		gen.Float64Range(-100, 100),
		gen.Float64Range(0, 200),
		gen.Float64Range(0, 100),
		gen.Float64Range(0, 100),
	))

	properties.TestingRun(t)
}
