package rectify

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/MeKo-Tech/docscan/internal/raster"
	"github.com/MeKo-Tech/docscan/internal/utils"
)

// Rectifier warps a document quadrilateral into an axis-aligned raster.
type Rectifier struct {
	cfg Config
}

// New creates a rectifier.
func New(cfg Config) (*Rectifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rectify config: %w", err)
	}
	return &Rectifier{cfg: cfg}, nil
}

// Config returns the rectifier configuration.
func (r *Rectifier) Config() Config { return r.cfg }

// Rectify maps corners (TL, TR, BR, BL) of src onto an outW x outH raster.
// Dimensions below the configured minimum are clamped up; dimensions above
// the configured maximum fail with raster.ErrUnsupportedInput. Degenerate
// corner sets fail with raster.ErrInvalidGeometry; the source is never modified.
func (r *Rectifier) Rectify(src *raster.Raster, corners raster.CornerSet, outW, outH int) (*raster.Raster, error) {
	if err := src.Validate(); err != nil {
		return nil, raster.Wrap("rectify", err)
	}
	if err := checkQuad(corners); err != nil {
		return nil, raster.Wrap("rectify", err)
	}

	outW = max(outW, r.cfg.MinOutputSize)
	outH = max(outH, r.cfg.MinOutputSize)
	if err := r.cfg.CheckOutputSize(outW, outH); err != nil {
		return nil, raster.Wrap("rectify", err)
	}

	h, ok := computeHomography(outputRect(outW, outH), [4]utils.Point(corners))
	if !ok {
		return nil, raster.Wrap("rectify", fmt.Errorf("%w: singular perspective transform", raster.ErrInvalidGeometry))
	}

	start := time.Now()
	dst := warpPerspective(src, h, outW, outH)
	slog.Debug("Rectified document",
		"src_width", src.Width, "src_height", src.Height,
		"width", outW, "height", outH,
		"duration_ms", time.Since(start).Milliseconds())

	if r.cfg.DebugDir != "" {
		if err := dumpOverlayPNG(r.cfg.DebugDir, src, corners); err != nil {
			slog.Warn("Failed to write rectify overlay", "dir", r.cfg.DebugDir, "error", err)
		}
		if err := dumpComparePNG(r.cfg.DebugDir, src, corners, dst); err != nil {
			slog.Warn("Failed to write rectify comparison", "dir", r.cfg.DebugDir, "error", err)
		}
	}
	return dst, nil
}

// RectifyPoints is Rectify for an unchecked point slice, such as decoded
// request input. It rejects anything but exactly four points.
func (r *Rectifier) RectifyPoints(src *raster.Raster, pts []raster.Point, outW, outH int) (*raster.Raster, error) {
	corners, err := raster.CornersFromSlice(pts)
	if err != nil {
		return nil, raster.Wrap("rectify", err)
	}
	return r.Rectify(src, corners, outW, outH)
}

// OptimalOutputSize returns the natural output size for corners using the
// rectifier's margin and minimum size.
func (r *Rectifier) OptimalOutputSize(corners raster.CornerSet) (int, int) {
	return naturalSize(corners, r.cfg.MarginPercent, r.cfg.MinOutputSize)
}

// OptimalOutputSize averages the top and bottom edges for the width and the
// left and right edges for the height, adds a 1% margin and floors the
// result at MinOutputSize. A 200x300 rectangle yields 202x303.
func OptimalOutputSize(corners raster.CornerSet) (int, int) {
	cfg := DefaultConfig()
	return naturalSize(corners, cfg.MarginPercent, cfg.MinOutputSize)
}

func naturalSize(c raster.CornerSet, marginPercent float64, minSize int) (int, int) {
	avgW := (utils.Distance(c[0], c[1]) + utils.Distance(c[3], c[2])) / 2
	avgH := (utils.Distance(c[0], c[3]) + utils.Distance(c[1], c[2])) / 2
	return withMargin(avgW, marginPercent, minSize), withMargin(avgH, marginPercent, minSize)
}

func withMargin(v, marginPercent float64, minSize int) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return minSize
	}
	scaled := v * (100 + marginPercent) / 100
	return max(minSize, int(math.Ceil(scaled-1e-9)))
}

// checkQuad rejects corner sets no perspective transform can map onto a
// rectangle: non-finite points, coincident points, or three consecutive
// collinear corners.
func checkQuad(c raster.CornerSet) error {
	if err := c.Validate(); err != nil {
		return err
	}
	for i := range 4 {
		a, b, d := c[i], c[(i+1)%4], c[(i+2)%4]
		la, lb := utils.Distance(a, b), utils.Distance(b, d)
		if la == 0 || lb == 0 {
			return fmt.Errorf("%w: corners %d and %d coincide", raster.ErrInvalidGeometry, i, (i+1)%4)
		}
		if math.Abs(utils.Cross(a, b, d)) <= 1e-9*la*lb {
			return fmt.Errorf("%w: corners %d, %d and %d are collinear", raster.ErrInvalidGeometry, i, (i+1)%4, (i+2)%4)
		}
	}
	if c.Area() == 0 {
		return fmt.Errorf("%w: zero-area quadrilateral", raster.ErrInvalidGeometry)
	}
	return nil
}
