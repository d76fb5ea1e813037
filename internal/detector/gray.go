package detector

import (
	"image"

	"github.com/MeKo-Tech/docscan/internal/raster"
	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
)

// GrayMap is a single-channel luminance plane.
type GrayMap struct {
	Width  int
	Height int
	Pix    []uint8
}

func (g *GrayMap) at(x, y int) uint8 {
	x = min(max(x, 0), g.Width-1)
	y = min(max(y, 0), g.Height-1)
	return g.Pix[y*g.Width+x]
}

func (g *GrayMap) toImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	copy(img.Pix, g.Pix)
	return img
}

// prepareGray downsamples the raster so its longest side is at most
// maxDim, converts it to luminance, and applies a Gaussian blur of the
// given radius. It returns the plane and the factors that map its
// coordinates back to the raster.
func prepareGray(r *raster.Raster, maxDim int, blurRadius float64) (*GrayMap, float64, float64) {
	var src image.Image = r.ToImage()
	w, h := r.Width, r.Height
	if maxDim > 0 && max(w, h) > maxDim {
		if w >= h {
			src = imaging.Resize(src, maxDim, 0, imaging.Lanczos)
		} else {
			src = imaging.Resize(src, 0, maxDim, imaging.Lanczos)
		}
	}

	small, err := raster.FromImage(src)
	if err != nil {
		// Resize of a valid raster cannot produce an empty image.
		small = r
	}
	g := &GrayMap{Width: small.Width, Height: small.Height, Pix: small.Gray()}

	if blurRadius > 0 {
		blurred := blur.Gaussian(g.toImage(), blurRadius)
		for i := range g.Pix {
			g.Pix[i] = blurred.Pix[i*4]
		}
	}

	return g, float64(w) / float64(g.Width), float64(h) / float64(g.Height)
}
