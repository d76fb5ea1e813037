package raster

import (
	"image"
	"image/draw"
)

// FromImage converts any image.Image into a non-premultiplied RGBA raster.
func FromImage(img image.Image) (*Raster, error) {
	if img == nil {
		return nil, &OpError{Op: "from image", Err: ErrUnsupportedInput}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &OpError{Op: "from image", Err: ErrUnsupportedInput}
	}

	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Stride != b.Dx()*Channels {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	}

	pix := make([]uint8, b.Dx()*b.Dy()*Channels)
	copy(pix, nrgba.Pix)
	return &Raster{Width: b.Dx(), Height: b.Dy(), Pix: pix}, nil
}

// ToImage exposes a copy of the raster as an *image.NRGBA.
func (r *Raster) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	copy(img.Pix, r.Pix)
	return img
}
