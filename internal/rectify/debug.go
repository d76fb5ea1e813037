package rectify

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"time"

	"github.com/MeKo-Tech/docscan/internal/raster"
	"github.com/MeKo-Tech/docscan/internal/utils"
	"github.com/disintegration/imaging"
)

var (
	quadColor  = color.NRGBA{255, 0, 0, 255}
	frameColor = color.NRGBA{0, 255, 0, 255}
)

func debugPath(dir, kind string) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", err
	}
	return filepath.Join(dir, fmt.Sprintf("rect_%s_%d.png", kind, time.Now().UnixNano())), nil
}

// dumpOverlayPNG writes the source with the corner quadrilateral drawn on it.
func dumpOverlayPNG(dir string, src *raster.Raster, corners raster.CornerSet) error {
	path, err := debugPath(dir, "overlay")
	if err != nil {
		return err
	}
	canvas := src.ToImage()
	utils.DrawPolygon(canvas, corners[:], quadColor, 2)
	return imaging.Save(canvas, path)
}

// dumpComparePNG writes source and result side by side.
func dumpComparePNG(dir string, src *raster.Raster, corners raster.CornerSet, dst *raster.Raster) error {
	path, err := debugPath(dir, "compare")
	if err != nil {
		return err
	}
	gap := 10
	outW := src.Width + gap + dst.Width
	outH := max(src.Height, dst.Height)
	canvas := imaging.New(outW, outH, color.NRGBA{255, 255, 255, 255})

	draw.Draw(canvas, image.Rect(0, 0, src.Width, src.Height), src.ToImage(), image.Point{}, draw.Src)
	xoff := src.Width + gap
	draw.Draw(canvas, image.Rect(xoff, 0, xoff+dst.Width, dst.Height), dst.ToImage(), image.Point{}, draw.Src)

	utils.DrawPolygon(canvas, corners[:], quadColor, 2)
	frame := raster.FullFrame(dst.Width-1, dst.Height-1).Slice()
	for i := range frame {
		frame[i].X += float64(xoff)
	}
	utils.DrawPolygon(canvas, frame, frameColor, 2)
	return imaging.Save(canvas, path)
}
