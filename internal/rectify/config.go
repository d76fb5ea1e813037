package rectify

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/docscan/internal/raster"
)

// MinOutputSize is the smallest width or height a rectified raster may have.
const MinOutputSize = 100

// MaxOutputSize is the default largest width or height a rectified raster may have.
const MaxOutputSize = 10000

// Config holds configuration for perspective rectification.
type Config struct {
	MinOutputSize int     // output dimensions below this are clamped up
	MaxOutputSize int     // output dimensions above this are rejected; 0 means MaxOutputSize
	MarginPercent float64 // added to the natural output size, in percent
	// Debug dumping
	DebugDir string // if non-empty, writes overlay and comparison PNGs here
}

// DefaultConfig returns sensible defaults for rectification.
func DefaultConfig() Config {
	return Config{
		MinOutputSize: MinOutputSize,
		MaxOutputSize: MaxOutputSize,
		MarginPercent: 1,
		DebugDir:      "",
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MinOutputSize < 1 {
		return fmt.Errorf("min output size must be positive, got %d", c.MinOutputSize)
	}
	if c.MaxOutputSize < 0 || (c.MaxOutputSize > 0 && c.MaxOutputSize < c.MinOutputSize) {
		return fmt.Errorf("max output size %d must be at least the min output size %d", c.MaxOutputSize, c.MinOutputSize)
	}
	if c.MarginPercent < 0 || c.MarginPercent > 100 {
		return errors.New("margin percent must be in [0,100]")
	}
	return nil
}

// maxSize returns the effective output size limit.
func (c Config) maxSize() int {
	if c.MaxOutputSize <= 0 {
		return MaxOutputSize
	}
	return c.MaxOutputSize
}

// CheckOutputSize rejects requested dimensions above the limit with
// raster.ErrUnsupportedInput. Zero and negative values mean "choose
// automatically" and pass.
func (c Config) CheckOutputSize(w, h int) error {
	if limit := c.maxSize(); w > limit || h > limit {
		return fmt.Errorf("%w: output size %dx%d exceeds the limit of %d pixels per side",
			raster.ErrUnsupportedInput, w, h, limit)
	}
	return nil
}
