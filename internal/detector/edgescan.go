package detector

import (
	"fmt"
	"math"

	"github.com/MeKo-Tech/docscan/internal/raster"
)

// EdgeScanStrategy is the simplified fallback: starting a margin in from
// each border it scans towards the centre for the first row or column that
// contains ink (luminance below the threshold) and pads the resulting box
// by the margin. It assumes light paper with dark content.
type EdgeScanStrategy struct {
	threshold   uint8
	minContrast int
	marginRatio float64
}

// NewEdgeScanStrategy returns the fallback strategy with its fixed settings.
func NewEdgeScanStrategy() *EdgeScanStrategy {
	return &EdgeScanStrategy{threshold: 200, minContrast: 30, marginRatio: 0.1}
}

// Name implements DetectionStrategy.
func (s *EdgeScanStrategy) Name() string { return StrategyEdgeScan }

// Find implements DetectionStrategy.
func (s *EdgeScanStrategy) Find(g *GrayMap) (Candidate, error) {
	w, h := g.Width, g.Height
	margin := int(math.Floor(float64(min(w, h)) * s.marginRatio))
	if margin < 1 {
		return Candidate{}, fmt.Errorf("%w: %dx%d too small to scan", raster.ErrDetectionFailure, w, h)
	}

	lo, hi := uint8(255), uint8(0)
	for _, v := range g.Pix {
		lo, hi = min(lo, v), max(hi, v)
	}
	if int(hi)-int(lo) < s.minContrast {
		return Candidate{}, fmt.Errorf("%w: contrast %d below %d", raster.ErrDetectionFailure, int(hi)-int(lo), s.minContrast)
	}

	rowHasInk := func(y int) bool {
		for x := margin; x < w-margin; x++ {
			if g.Pix[y*w+x] < s.threshold {
				return true
			}
		}
		return false
	}
	colHasInk := func(x int) bool {
		for y := margin; y < h-margin; y++ {
			if g.Pix[y*w+x] < s.threshold {
				return true
			}
		}
		return false
	}

	top, bottom, left, right := -1, -1, -1, -1
	for y := margin; y < h/2; y++ {
		if rowHasInk(y) {
			top = y
			break
		}
	}
	for y := h - margin - 1; y > h/2; y-- {
		if rowHasInk(y) {
			bottom = y
			break
		}
	}
	for x := margin; x < w/2; x++ {
		if colHasInk(x) {
			left = x
			break
		}
	}
	for x := w - margin - 1; x > w/2; x-- {
		if colHasInk(x) {
			right = x
			break
		}
	}
	if top < 0 || bottom < 0 || left < 0 || right < 0 {
		return Candidate{}, fmt.Errorf("%w: no content edges found", raster.ErrDetectionFailure)
	}

	x0 := float64(max(0, left-margin))
	y0 := float64(max(0, top-margin))
	x1 := float64(min(w, right+margin))
	y1 := float64(min(h, bottom+margin))
	cs := raster.CornerSet{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
	return Candidate{Corners: cs, Area: (x1 - x0) * (y1 - y0)}, nil
}
