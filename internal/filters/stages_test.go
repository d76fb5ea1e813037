package filters

import (
	"image/color"
	"math"
	"testing"

	"github.com/MeKo-Tech/docscan/internal/raster"
	"github.com/MeKo-Tech/docscan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nanValue() float64 { return math.NaN() }

func pixel(t *testing.T, r *raster.Raster, x, y int) [4]uint8 {
	t.Helper()
	cr, cg, cb, ca := r.At(x, y)
	return [4]uint8{cr, cg, cb, ca}
}

func apply(t *testing.T, r *raster.Raster, p Params) *raster.Raster {
	t.Helper()
	out, err := ApplyAll(r, p)
	require.NoError(t, err)
	return out
}

func TestBrightness_RoundTrip(t *testing.T) {
	src := testutil.GradientRaster(t, 64, 64)

	for _, b := range []float64{10, 37.5, 60, 100} {
		up := apply(t, src, Params{Brightness: b})
		back := apply(t, up, Params{Brightness: -b})
		shift := b / 100 * 255
		for i := 0; i < len(src.Pix); i += raster.Channels {
			for c := range 3 {
				v := float64(src.Pix[i+c])
				if v+shift > 255 {
					continue // clamped on the way up
				}
				assert.InDelta(t, v, float64(back.Pix[i+c]), 1, "b=%v byte %d", b, i+c)
			}
		}
	}
}

func TestBrightness_Clamps(t *testing.T) {
	src := testutil.UniformRaster(t, 2, 2, color.NRGBA{200, 10, 128, 255})

	out := apply(t, src, Params{Brightness: 100})
	assert.Equal(t, [4]uint8{255, 255, 255, 255}, pixel(t, out, 0, 0))

	out = apply(t, src, Params{Brightness: -20})
	assert.Equal(t, [4]uint8{149, 0, 77, 255}, pixel(t, out, 1, 1))
}

func TestContrast(t *testing.T) {
	src, err := raster.New(2, 1)
	require.NoError(t, err)
	src.Set(0, 0, 200, 50, 128, 255)
	src.Set(1, 0, 0, 255, 100, 90)

	out := apply(t, src, Params{Contrast: 50})
	assert.Equal(t, [4]uint8{235, 12, 128, 255}, pixel(t, out, 0, 0))
	assert.Equal(t, uint8(90), out.Pix[7])

	assert.InDelta(t, 1.0, contrastFactor(0), 1e-12)
	assert.Less(t, contrastFactor(-50), 1.0)
}

func TestSaturation(t *testing.T) {
	src := testutil.UniformRaster(t, 3, 3, color.NRGBA{200, 100, 50, 255})

	gray := apply(t, src, Params{Saturation: -100})
	assert.Equal(t, [4]uint8{124, 124, 124, 255}, pixel(t, gray, 1, 1))

	vivid := apply(t, src, Params{Saturation: 50})
	p := pixel(t, vivid, 0, 0)
	assert.Greater(t, p[0], uint8(200))
	assert.Less(t, p[2], uint8(50))
}

func TestColorCorrection(t *testing.T) {
	src := testutil.UniformRaster(t, 2, 2, color.NRGBA{100, 100, 100, 255})

	tests := []struct {
		name string
		p    Params
		want [4]uint8
	}{
		{"warm", Params{Temperature: 100}, [4]uint8{130, 100, 70, 255}},
		{"cool", Params{Temperature: -50}, [4]uint8{85, 100, 115, 255}},
		{"green", Params{Tint: 100}, [4]uint8{90, 120, 90, 255}},
		{"magenta", Params{Tint: -100}, [4]uint8{110, 80, 110, 255}},
		{"both", Params{Temperature: 100, Tint: 100}, [4]uint8{120, 120, 60, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pixel(t, apply(t, src, tt.p), 0, 0))
		})
	}
}

func TestDenoise_RemovesImpulse(t *testing.T) {
	src := testutil.UniformRaster(t, 9, 9, color.NRGBA{0, 0, 0, 255})
	src.Set(4, 4, 255, 255, 255, 255)

	for _, v := range []float64{1, 50, 100} {
		out := apply(t, src, Params{Denoise: v})
		assert.Equal(t, [4]uint8{0, 0, 0, 255}, pixel(t, out, 4, 4), "denoise %v", v)
	}
}

func TestDenoise_MatchesBruteForceMedian(t *testing.T) {
	src := testutil.NoiseRaster(t, 13, 11, 4)
	out := medianFilter(src, 2)

	for y := range src.Height {
		for x := range src.Width {
			for c := range 3 {
				var window []int
				for dy := -2; dy <= 2; dy++ {
					for dx := -2; dx <= 2; dx++ {
						xx := min(max(x+dx, 0), src.Width-1)
						yy := min(max(y+dy, 0), src.Height-1)
						window = append(window, int(src.Pix[src.Offset(xx, yy)+c]))
					}
				}
				sortInts(window)
				require.Equal(t, uint8(window[12]), out.Pix[src.Offset(x, y)+c], "(%d,%d) c%d", x, y, c)
			}
		}
	}
}

func TestDenoise_KeepsAlphaAndIgnoresItForColor(t *testing.T) {
	src := testutil.UniformRaster(t, 7, 7, color.NRGBA{40, 80, 120, 255})
	for i := 3; i < len(src.Pix); i += raster.Channels {
		src.Pix[i] = uint8(i % 256)
	}
	src.Set(3, 3, 250, 10, 0, 0)

	out := medianFilter(src, 1)
	for i := 3; i < len(out.Pix); i += raster.Channels {
		require.Equal(t, src.Pix[i], out.Pix[i], "alpha at byte %d", i)
	}
	assert.Equal(t, [4]uint8{40, 80, 120, 0}, pixel(t, out, 3, 3))
}

func sortInts(v []int) {
	for i := 1; i < len(v); i++ {
		for j := i; j > 0 && v[j] < v[j-1]; j-- {
			v[j], v[j-1] = v[j-1], v[j]
		}
	}
}

func TestSharpness(t *testing.T) {
	flat := testutil.UniformRaster(t, 12, 12, color.NRGBA{128, 90, 30, 255})
	assert.True(t, flat.Equal(apply(t, flat, Params{Sharpness: 150})), "flat areas are unchanged")

	edge := testutil.UniformRaster(t, 20, 10, color.NRGBA{100, 100, 100, 255})
	for y := range 10 {
		for x := 10; x < 20; x++ {
			edge.Set(x, y, 160, 160, 160, 255)
		}
	}
	out := apply(t, edge, Params{Sharpness: 100})
	dark := pixel(t, out, 9, 5)
	light := pixel(t, out, 10, 5)
	assert.Less(t, dark[0], uint8(100), "overshoot on the dark side")
	assert.Greater(t, light[0], uint8(160), "overshoot on the light side")
}

func TestWhiteBackground(t *testing.T) {
	src := testutil.UniformRaster(t, 10, 10, color.NRGBA{200, 200, 200, 255})
	for x := range 10 {
		src.Set(x, 5, 0, 0, 0, 255)
	}

	full := apply(t, src, Params{WhiteBackground: 100})
	assert.Equal(t, [4]uint8{255, 255, 255, 255}, pixel(t, full, 0, 0))
	assert.Equal(t, [4]uint8{0, 0, 0, 255}, pixel(t, full, 3, 5), "ink is untouched")

	half := apply(t, src, Params{WhiteBackground: 50})
	assert.Equal(t, [4]uint8{228, 228, 228, 255}, pixel(t, half, 0, 0))
}

func TestTextEnhancement(t *testing.T) {
	src := testutil.UniformRaster(t, 60, 60, color.NRGBA{240, 240, 240, 255})
	for y := 30; y < 32; y++ {
		for x := 10; x < 50; x++ {
			src.Set(x, y, 60, 60, 60, 255)
		}
	}

	out := apply(t, src, Params{TextEnhancement: 100})
	stroke := pixel(t, out, 30, 30)
	assert.Less(t, stroke[0], uint8(60), "strokes get darker")
	paper := pixel(t, out, 5, 5)
	assert.Equal(t, uint8(255), paper[0], "bright paper is lightened")
}

func TestBinarization(t *testing.T) {
	src := testutil.GradientRaster(t, 50, 40)

	out := apply(t, src, Params{Binarization: 100})
	for i := 0; i < len(out.Pix); i += raster.Channels {
		v := out.Pix[i]
		require.True(t, v == 0 || v == 255, "value %d", v)
		require.Equal(t, v, out.Pix[i+1])
		require.Equal(t, v, out.Pix[i+2])
	}

	assert.True(t, src.Equal(apply(t, src, Params{Binarization: 0})))

	uniform := testutil.UniformRaster(t, 5, 5, color.NRGBA{200, 200, 200, 255})
	assert.Equal(t, [4]uint8{255, 255, 255, 255}, pixel(t, apply(t, uniform, Params{Binarization: 100}), 2, 2))
}

func TestBinarization_UniformFallsBackToZero(t *testing.T) {
	tests := []struct {
		level uint8
		want  uint8
	}{
		{0, 0},
		{1, 255},
		{100, 255},
		{127, 255},
	}
	for _, tt := range tests {
		uniform := testutil.UniformRaster(t, 4, 4, color.NRGBA{tt.level, tt.level, tt.level, 255})
		out := apply(t, uniform, Params{Binarization: 100})
		assert.Equal(t, [4]uint8{tt.want, tt.want, tt.want, 255}, pixel(t, out, 1, 1), "level %d", tt.level)
	}
}

func TestPixelStage_LargeRasterMatchesPerPixel(t *testing.T) {
	// Large enough to be split into bands.
	src := testutil.NoiseRaster(t, 320, 300, 7)
	out := apply(t, src, Params{Contrast: 40})

	f := contrastFactor(40)
	for i := 0; i < len(src.Pix); i += raster.Channels {
		for c := range 3 {
			want := raster.ClampByte(f*(float64(src.Pix[i+c])-128) + 128)
			require.Equal(t, want, out.Pix[i+c], "byte %d", i+c)
		}
		require.Equal(t, src.Pix[i+3], out.Pix[i+3])
	}
}

func TestForEachBand_CoversEveryRowOnce(t *testing.T) {
	for _, size := range [][2]int{{10, 10}, {400, 300}, {1000, 97}} {
		r, err := raster.New(size[0], size[1])
		require.NoError(t, err)

		seen := make([]int, r.Height)
		forEachBand(r, func(y0, y1 int) {
			for y := y0; y < y1; y++ {
				seen[y]++
			}
		})
		for y, n := range seen {
			assert.Equal(t, 1, n, "row %d of %dx%d", y, size[0], size[1])
		}
	}
}
