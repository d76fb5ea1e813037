package detector

import (
	"fmt"
	"math"
	"sort"

	"github.com/MeKo-Tech/docscan/internal/raster"
	"github.com/MeKo-Tech/docscan/internal/utils"
)

// Mask modes for ContourStrategy.
const (
	MaskAuto  = "auto"
	MaskOtsu  = "otsu"
	MaskCanny = "canny"
)

// ContourStrategy isolates the document with a binary mask, traces the
// outer contours of its connected components and approximates the largest
// qualifying one by a quadrilateral.
type ContourStrategy struct {
	minAreaRatio float64
	maskMode     string
	cannyLow     float64
	cannyHigh    float64
}

// NewContourStrategy creates the primary strategy from detector configuration.
func NewContourStrategy(cfg Config) *ContourStrategy {
	return &ContourStrategy{
		minAreaRatio: cfg.MinAreaRatio,
		maskMode:     cfg.MaskMode,
		cannyLow:     cfg.CannyLow,
		cannyHigh:    cfg.CannyHigh,
	}
}

// Name implements DetectionStrategy.
func (s *ContourStrategy) Name() string { return StrategyContour }

// Find implements DetectionStrategy. In auto mode an Otsu body mask is
// tried first and a Canny edge mask second.
func (s *ContourStrategy) Find(g *GrayMap) (Candidate, error) {
	minArea := s.minAreaRatio * float64(g.Width*g.Height)

	if s.maskMode != MaskCanny {
		if mask, ok := otsuMask(g); ok {
			if c, ok := s.largestQuad(mask, g.Width, g.Height, minArea); ok {
				return c, nil
			}
		}
	}
	if s.maskMode != MaskOtsu {
		mask := edgeMask(g, s.cannyLow, s.cannyHigh)
		if c, ok := s.largestQuad(mask, g.Width, g.Height, minArea); ok {
			return c, nil
		}
	}

	return Candidate{}, fmt.Errorf("%w: no contour encloses %.0f px", raster.ErrDetectionFailure, minArea)
}

// otsuMask thresholds the plane globally and cleans the result with a
// closing (fills text holes) followed by an opening (drops speckle).
func otsuMask(g *GrayMap) ([]bool, bool) {
	hist := raster.HistogramOf(g.Pix)
	t, ok := hist.OtsuThreshold()
	if !ok {
		return nil, false
	}
	mask := make([]bool, len(g.Pix))
	for i, v := range g.Pix {
		mask[i] = int(v) > t
	}
	mask = ApplyMorphology(mask, g.Width, g.Height, MorphConfig{Operation: MorphClosing, KernelSize: 5, Iterations: 1})
	mask = ApplyMorphology(mask, g.Width, g.Height, MorphConfig{Operation: MorphOpening, KernelSize: 5, Iterations: 1})
	return mask, true
}

// edgeMask runs Canny and dilates twice with a 3x3 kernel to close gaps in the outline.
func edgeMask(g *GrayMap, low, high float64) []bool {
	edges := cannyEdges(g, low, high)
	return ApplyMorphology(edges, g.Width, g.Height, MorphConfig{Operation: MorphDilate, KernelSize: 3, Iterations: 2})
}

// largestQuad picks the component whose outer contour encloses the largest
// area above minArea and approximates it by four corners. Components that
// span the whole frame are background, not a document.
func (s *ContourStrategy) largestQuad(mask []bool, w, h int, minArea float64) (Candidate, bool) {
	comps, labels := connectedComponents(mask, w, h)
	sort.Slice(comps, func(i, j int) bool { return comps[i].boxArea() > comps[j].boxArea() })

	var best []utils.Point
	bestArea := 0.0
	for _, c := range comps {
		if float64(c.boxArea()) < math.Max(minArea, bestArea) {
			// sorted by bounding box area, so nothing later can win
			break
		}
		if c.touchesAllBorders(w, h) {
			continue
		}
		contour := traceOuterContour(labels, w, h, c)
		area := math.Abs(utils.PolygonArea(contour))
		if area >= minArea && area > bestArea {
			best, bestArea = contour, area
		}
	}
	if best == nil {
		return Candidate{}, false
	}

	hull := utils.ConvexHull(best)
	return Candidate{Corners: approximateQuad(hull, w, h), Area: bestArea}, true
}
