package detector

import (
	"errors"
	"fmt"
)

// Config controls corner detection.
type Config struct {
	// Strategy selects the chain: "contour" (contour, then edge scan) or "edge-scan".
	Strategy string
	// MaskMode selects the contour mask: "auto", "otsu" or "canny".
	MaskMode string
	// MaxDimension bounds the longest side of the working copy; 0 disables downscaling.
	MaxDimension int
	// BlurRadius is the Gaussian smoothing radius applied before masking.
	BlurRadius float64
	// MinAreaRatio is the smallest contour area accepted, as a fraction of the raster.
	MinAreaRatio float64
	CannyLow     float64
	CannyHigh    float64
}

// DefaultConfig returns the detector defaults.
func DefaultConfig() Config {
	return Config{
		Strategy:     StrategyContour,
		MaskMode:     MaskAuto,
		MaxDimension: 800,
		BlurRadius:   2,
		MinAreaRatio: 0.10,
		CannyLow:     50,
		CannyHigh:    150,
	}
}

// Validate checks the configuration for obviously invalid values.
func (c Config) Validate() error {
	if c.MinAreaRatio < 0 || c.MinAreaRatio >= 1 {
		return fmt.Errorf("min area ratio must be in [0,1), got %v", c.MinAreaRatio)
	}
	if c.MaxDimension < 0 {
		return errors.New("max dimension must be non-negative")
	}
	if c.BlurRadius < 0 {
		return errors.New("blur radius must be non-negative")
	}
	if c.CannyLow < 0 || c.CannyHigh < c.CannyLow {
		return fmt.Errorf("invalid canny thresholds %v/%v", c.CannyLow, c.CannyHigh)
	}
	switch c.MaskMode {
	case "", MaskAuto, MaskOtsu, MaskCanny:
	default:
		return fmt.Errorf("unknown mask mode %q", c.MaskMode)
	}
	return nil
}
