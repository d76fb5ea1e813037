package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"github.com/MeKo-Tech/docscan/internal/raster"
	"github.com/MeKo-Tech/docscan/internal/utils"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DocumentConfig describes a synthetic photo of a sheet of paper.
type DocumentConfig struct {
	Width      int
	Height     int
	Corners    raster.CornerSet
	Background color.NRGBA
	Paper      color.NRGBA
	Ink        color.NRGBA
	// TextLines draws this many lines of sample text onto the sheet.
	TextLines int
}

// DefaultDocumentConfig returns a 400x300 photo with a slightly skewed
// white sheet on a dark desk.
func DefaultDocumentConfig() DocumentConfig {
	return DocumentConfig{
		Width:  400,
		Height: 300,
		Corners: raster.CornerSet{
			{X: 70, Y: 40}, {X: 330, Y: 55}, {X: 315, Y: 265}, {X: 85, Y: 250},
		},
		Background: color.NRGBA{40, 42, 48, 255},
		Paper:      color.NRGBA{240, 238, 230, 255},
		Ink:        color.NRGBA{20, 20, 20, 255},
		TextLines:  5,
	}
}

// NewDocumentRaster renders the configured document.
func NewDocumentRaster(t *testing.T, cfg DocumentConfig) *raster.Raster {
	t.Helper()

	r, err := RenderDocument(cfg)
	require.NoError(t, err)
	return r
}

// RenderDocument is NewDocumentRaster for callers without a *testing.T.
func RenderDocument(cfg DocumentConfig) (*raster.Raster, error) {
	img := image.NewNRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	quad := [4]utils.Point(cfg.Corners)
	for y := range cfg.Height {
		for x := range cfg.Width {
			c := cfg.Background
			if insideConvex(quad, utils.Point{X: float64(x), Y: float64(y)}) {
				c = cfg.Paper
			}
			img.SetNRGBA(x, y, c)
		}
	}

	if cfg.TextLines > 0 {
		drawText(img, quad, cfg)
	}

	return raster.FromImage(img)
}

func drawText(img *image.NRGBA, quad [4]utils.Point, cfg DocumentConfig) {
	bb := utils.BoundingBox(quad[:])
	text := image.NewNRGBA(img.Bounds())
	d := &font.Drawer{Dst: text, Src: image.NewUniform(cfg.Ink), Face: basicfont.Face7x13}
	lineHeight := basicfont.Face7x13.Metrics().Height.Ceil() + 6
	x := int(bb.MinX + bb.Width()*0.2)
	for i := range cfg.TextLines {
		y := int(bb.MinY+bb.Height()*0.2) + (i+1)*lineHeight
		d.Dot = fixed.P(x, y)
		d.DrawString("Lorem ipsum dolor sit amet")
	}
	// Keep ink only where it lands on paper.
	for y := range cfg.Height {
		for x := range cfg.Width {
			if text.NRGBAAt(x, y).A > 0 && insideConvex(quad, utils.Point{X: float64(x), Y: float64(y)}) {
				img.SetNRGBA(x, y, cfg.Ink)
			}
		}
	}
}

func insideConvex(q [4]utils.Point, p utils.Point) bool {
	sign := 0.0
	for i := range 4 {
		c := utils.Cross(q[i], q[(i+1)%4], p)
		if c == 0 {
			continue
		}
		if sign == 0 {
			sign = c
		} else if (c > 0) != (sign > 0) {
			return false
		}
	}
	return true
}

// UniformRaster returns a raster filled with one opaque colour.
func UniformRaster(t *testing.T, w, h int, c color.NRGBA) *raster.Raster {
	t.Helper()

	r, err := raster.NewFilled(w, h, c.R, c.G, c.B, c.A)
	require.NoError(t, err)
	return r
}

// GradientRaster returns a raster whose channels vary smoothly with position.
func GradientRaster(t *testing.T, w, h int) *raster.Raster {
	t.Helper()

	r, err := raster.New(w, h)
	require.NoError(t, err)
	for y := range h {
		for x := range w {
			r.Set(x, y, uint8(x*255/max(1, w-1)), uint8(y*255/max(1, h-1)), uint8((x+y)*255/max(1, w+h-2)), 255)
		}
	}
	return r
}

// NoiseRaster returns a deterministic pseudo-random raster with varying alpha.
func NoiseRaster(t *testing.T, w, h int, seed int64) *raster.Raster {
	t.Helper()

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic test data
	r, err := raster.New(w, h)
	require.NoError(t, err)
	for i := range r.Pix {
		r.Pix[i] = uint8(rng.Intn(256))
	}
	return r
}

// EncodePNG encodes the raster as PNG bytes.
func EncodePNG(t *testing.T, r *raster.Raster) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, r.ToImage()))
	return buf.Bytes()
}
