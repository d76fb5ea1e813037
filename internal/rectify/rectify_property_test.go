package rectify

import (
	"testing"

	"github.com/MeKo-Tech/docscan/internal/raster"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestRectify_OutputHasRequestedSize checks that any valid quadrilateral
// produces a raster of the requested size, clamped to the minimum.
func TestRectify_OutputHasRequestedSize(t *testing.T) {
	rect, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	src, err := raster.NewFilled(24, 18, 90, 120, 150, 255)
	if err != nil {
		t.Fatal(err)
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("output dimensions", prop.ForAll(
		func(outW, outH int, inset float64) bool {
			corners := raster.CornerSet{
				{X: inset, Y: inset / 2},
				{X: 24 - inset/3, Y: inset},
				{X: 24 - inset, Y: 18 - inset/4},
				{X: inset / 2, Y: 18 - inset/2},
			}
			out, err := rect.Rectify(src, corners, outW, outH)
			if err != nil {
				return false
			}
			return out.Width == max(outW, MinOutputSize) &&
				out.Height == max(outH, MinOutputSize) &&
				len(out.Pix) == out.Width*out.Height*raster.Channels
		},
		gen.IntRange(-10, 260),
		gen.IntRange(-10, 260),
		gen.Float64Range(0, 6),
	))

	properties.TestingRun(t)
}
