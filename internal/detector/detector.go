package detector

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/docscan/internal/raster"
)

// Result is the outcome of corner detection.
type Result struct {
	Corners raster.CornerSet
	// Fallback is true when no strategy succeeded and Corners is the full frame.
	Fallback bool
	// Strategy names the strategy that produced Corners.
	Strategy string
	// Reason holds the last strategy error when Fallback is set.
	Reason error
	// AreaRatio is the detected region's share of the raster area.
	AreaRatio float64
	Duration  time.Duration
}

// Detector locates a document quadrilateral by running detection strategies in order.
type Detector struct {
	config     Config
	strategies []DetectionStrategy
}

// NewDetector creates a detector with the strategy chain selected by config.
func NewDetector(config Config) (*Detector, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detector config: %w", err)
	}
	strategies, err := strategiesFor(config)
	if err != nil {
		return nil, err
	}
	return &Detector{config: config, strategies: strategies}, nil
}

// NewDetectorWithStrategies creates a detector that runs the given strategies in order.
func NewDetectorWithStrategies(config Config, strategies ...DetectionStrategy) (*Detector, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detector config: %w", err)
	}
	if len(strategies) == 0 {
		return nil, errors.New("at least one detection strategy is required")
	}
	return &Detector{config: config, strategies: strategies}, nil
}

// Config returns the detector configuration.
func (d *Detector) Config() Config { return d.config }

// Detect returns four corners for any valid raster. It only fails for
// unusable input; when every strategy fails the raster bounds are returned
// with Fallback set so callers can ask the user to adjust the corners.
func (d *Detector) Detect(r *raster.Raster) (Result, error) {
	if err := r.Validate(); err != nil {
		return Result{}, raster.Wrap("detect", err)
	}
	start := time.Now()

	g, sx, sy := prepareGray(r, d.config.MaxDimension, d.config.BlurRadius)
	planeArea := float64(g.Width * g.Height)

	var lastErr error
	for _, s := range d.strategies {
		cand, err := d.runStrategy(s, g)
		if err != nil {
			slog.Debug("Detection strategy failed", "strategy", s.Name(), "error", err)
			lastErr = err
			continue
		}
		res := Result{
			Corners:   cand.Corners.Scale(sx, sy).Clamp(r.Width, r.Height),
			Strategy:  s.Name(),
			AreaRatio: cand.Area / planeArea,
			Duration:  time.Since(start),
		}
		slog.Debug("Document corners detected",
			"strategy", res.Strategy,
			"area_ratio", res.AreaRatio,
			"duration_ms", res.Duration.Milliseconds())
		return res, nil
	}

	if lastErr == nil {
		lastErr = raster.ErrDetectionFailure
	}
	return Result{
		Corners:  raster.FullFrame(r.Width, r.Height),
		Fallback: true,
		Strategy: StrategyFullFrame,
		Reason:   lastErr,
		Duration: time.Since(start),
	}, nil
}

// runStrategy shields the detector from a misbehaving strategy.
func (d *Detector) runStrategy(s DetectionStrategy, g *GrayMap) (cand Candidate, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: strategy %s panicked: %v", raster.ErrDetectionFailure, s.Name(), rec)
		}
	}()
	cand, err = s.Find(g)
	if err != nil {
		return Candidate{}, err
	}
	if err := cand.Corners.Validate(); err != nil {
		return Candidate{}, fmt.Errorf("%w: %w", raster.ErrDetectionFailure, err)
	}
	return cand, nil
}
