package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/MeKo-Tech/docscan/internal/detector"
	"github.com/MeKo-Tech/docscan/internal/export"
	"github.com/MeKo-Tech/docscan/internal/filters"
	"github.com/MeKo-Tech/docscan/internal/rectify"
	"github.com/MeKo-Tech/docscan/internal/scan"
	"github.com/MeKo-Tech/docscan/internal/utils"
	"gopkg.in/yaml.v3"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	det := detector.DefaultConfig()
	rect := rectify.DefaultConfig()
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Detector: DetectorConfig{
			Strategy:     det.Strategy,
			MaskMode:     det.MaskMode,
			MaxDimension: det.MaxDimension,
			MinAreaRatio: det.MinAreaRatio,
			BlurRadius:   det.BlurRadius,
			CannyLow:     det.CannyLow,
			CannyHigh:    det.CannyHigh,
		},
		Rectify: RectifyConfig{
			MinOutputSize: rect.MinOutputSize,
			MaxOutputSize: rect.MaxOutputSize,
			MarginPercent: rect.MarginPercent,
			DebugDir:      rect.DebugDir,
		},
		Filters: FiltersConfig{},
		Export: ExportConfig{
			Format:         string(export.FormatPNG),
			JPEGQuality:    export.DefaultJPEGQuality,
			PDFImageFormat: string(export.FormatPNG),
		},
		Input: InputConfig{
			MaxFileMB: int(utils.DefaultMaxImageBytes >> 20),
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     int(utils.DefaultMaxImageBytes >> 20),
			TimeoutSec:      30,
			ShutdownTimeout: 10,
			DebounceMS:      150,
			PreviewMaxDim:   1024,
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerMinute: 60,
				RequestsPerHour:   1000,
				MaxRequestsPerDay: 5000,
				MaxDataPerDayMB:   1024,
			},
		},
	}
}

// Validate validates the configuration and returns the first problem found.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if err := c.ToDetectorConfig().Validate(); err != nil {
		return fmt.Errorf("invalid detector settings: %w", err)
	}
	validStrategies := []string{detector.StrategyContour, detector.StrategyEdgeScan}
	if !slices.Contains(validStrategies, c.Detector.Strategy) {
		return fmt.Errorf("invalid detector strategy: %s (must be one of: %s)", c.Detector.Strategy, strings.Join(validStrategies, ", "))
	}
	if err := c.ToRectifyConfig().Validate(); err != nil {
		return fmt.Errorf("invalid rectify settings: %w", err)
	}

	if c.Filters.Preset != "" {
		if _, err := filters.ParsePreset(c.Filters.Preset); err != nil {
			return err
		}
	}
	if err := c.Filters.Params.Validate(); err != nil {
		return err
	}

	if _, err := export.ParseFormat(c.Export.Format); err != nil {
		return fmt.Errorf("invalid export format: %w", err)
	}
	if c.Export.JPEGQuality < 1 || c.Export.JPEGQuality > 100 {
		return fmt.Errorf("invalid jpeg quality: %d (must be between 1 and 100)", c.Export.JPEGQuality)
	}
	if f, err := export.ParseFormat(c.Export.PDFImageFormat); err != nil || f == export.FormatPDF {
		return fmt.Errorf("invalid pdf image format: %s (must be png or jpeg)", c.Export.PDFImageFormat)
	}

	if c.Input.MaxFileMB <= 0 {
		return fmt.Errorf("invalid max file size: %d (must be positive)", c.Input.MaxFileMB)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	if c.Server.DebounceMS < 0 {
		return fmt.Errorf("invalid debounce: %d (must not be negative)", c.Server.DebounceMS)
	}
	return nil
}

// ToDetectorConfig converts to detector.Config.
func (c *Config) ToDetectorConfig() detector.Config {
	cfg := detector.DefaultConfig()
	cfg.Strategy = c.Detector.Strategy
	cfg.MaskMode = c.Detector.MaskMode
	cfg.MaxDimension = c.Detector.MaxDimension
	cfg.MinAreaRatio = c.Detector.MinAreaRatio
	cfg.BlurRadius = c.Detector.BlurRadius
	cfg.CannyLow = c.Detector.CannyLow
	cfg.CannyHigh = c.Detector.CannyHigh
	return cfg
}

// ToRectifyConfig converts to rectify.Config.
func (c *Config) ToRectifyConfig() rectify.Config {
	cfg := rectify.DefaultConfig()
	cfg.MinOutputSize = c.Rectify.MinOutputSize
	cfg.MaxOutputSize = c.Rectify.MaxOutputSize
	cfg.MarginPercent = c.Rectify.MarginPercent
	cfg.DebugDir = c.Rectify.DebugDir
	return cfg
}

// ToScanConfig converts to scan.Config.
func (c *Config) ToScanConfig() scan.Config {
	return scan.Config{Detector: c.ToDetectorConfig(), Rectify: c.ToRectifyConfig()}
}

// ToExportOptions converts to export.Options. Invalid formats fall back to defaults.
func (c *Config) ToExportOptions() export.Options {
	opts := export.DefaultOptions()
	opts.JPEGQuality = c.Export.JPEGQuality
	if f, err := export.ParseFormat(c.Export.PDFImageFormat); err == nil && f != export.FormatPDF {
		opts.PDFImageFormat = f
	}
	return opts
}

// ExportFormat returns the configured output format.
func (c *Config) ExportFormat() (export.Format, error) {
	return export.ParseFormat(c.Export.Format)
}

// DefaultScanOptions returns the enhancement selected by the filters
// section: the preset when set, otherwise the params when not neutral.
func (c *Config) DefaultScanOptions() (scan.Options, error) {
	var opts scan.Options
	switch {
	case c.Filters.Preset != "":
		preset, err := filters.ParsePreset(c.Filters.Preset)
		if err != nil {
			return opts, err
		}
		opts.Preset = preset
	case !c.Filters.Params.IsNeutral():
		params := c.Filters.Params
		opts.Params = &params
	}
	return opts, nil
}

// MaxInputBytes returns the input file size cap in bytes.
func (c *Config) MaxInputBytes() int64 {
	return int64(c.Input.MaxFileMB) << 20
}

// YAML renders the configuration as a YAML document.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
