package detector

import (
	"fmt"

	"github.com/MeKo-Tech/docscan/internal/raster"
)

// Candidate is a quadrilateral proposed by a strategy, in the coordinates
// of the gray plane it was found on.
type Candidate struct {
	Corners raster.CornerSet
	// Area is the enclosed contour area in plane pixels.
	Area float64
}

// DetectionStrategy finds a document quadrilateral on a preprocessed
// luminance plane. Implementations return an error wrapping
// raster.ErrDetectionFailure when nothing qualifies.
type DetectionStrategy interface {
	Name() string
	Find(g *GrayMap) (Candidate, error)
}

// Strategy names accepted in Config.Strategy.
const (
	StrategyContour  = "contour"
	StrategyEdgeScan = "edge-scan"
	// StrategyFullFrame labels results that fell back to the raster bounds.
	StrategyFullFrame = "full-frame"
)

// strategiesFor builds the ordered strategy chain for a configuration.
func strategiesFor(cfg Config) ([]DetectionStrategy, error) {
	switch cfg.Strategy {
	case "", StrategyContour:
		return []DetectionStrategy{NewContourStrategy(cfg), NewEdgeScanStrategy()}, nil
	case StrategyEdgeScan:
		return []DetectionStrategy{NewEdgeScanStrategy()}, nil
	default:
		return nil, fmt.Errorf("unknown detection strategy %q", cfg.Strategy)
	}
}
