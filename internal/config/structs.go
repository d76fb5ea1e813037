//nolint:lll
package config

import "github.com/MeKo-Tech/docscan/internal/filters"

// Config represents the complete configuration for docscan. It covers all
// commands (detect, scan, enhance, serve) and is loaded from configuration
// files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Detector DetectorConfig `mapstructure:"detector" yaml:"detector" json:"detector"`
	Rectify  RectifyConfig  `mapstructure:"rectify" yaml:"rectify" json:"rectify"`
	Filters  FiltersConfig  `mapstructure:"filters" yaml:"filters" json:"filters"`
	Export   ExportConfig   `mapstructure:"export" yaml:"export" json:"export"`
	Input    InputConfig    `mapstructure:"input" yaml:"input" json:"input"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// DetectorConfig contains corner detection settings.
type DetectorConfig struct {
	Strategy     string  `mapstructure:"strategy" yaml:"strategy" json:"strategy"`
	MaskMode     string  `mapstructure:"mask_mode" yaml:"mask_mode" json:"mask_mode"`
	MaxDimension int     `mapstructure:"max_dimension" yaml:"max_dimension" json:"max_dimension"`
	MinAreaRatio float64 `mapstructure:"min_area_ratio" yaml:"min_area_ratio" json:"min_area_ratio"`
	BlurRadius   float64 `mapstructure:"blur_radius" yaml:"blur_radius" json:"blur_radius"`
	CannyLow     float64 `mapstructure:"canny_low" yaml:"canny_low" json:"canny_low"`
	CannyHigh    float64 `mapstructure:"canny_high" yaml:"canny_high" json:"canny_high"`
}

// RectifyConfig contains perspective rectification settings.
type RectifyConfig struct {
	MinOutputSize int     `mapstructure:"min_output_size" yaml:"min_output_size" json:"min_output_size"`
	MaxOutputSize int     `mapstructure:"max_output_size" yaml:"max_output_size" json:"max_output_size"`
	MarginPercent float64 `mapstructure:"margin_percent" yaml:"margin_percent" json:"margin_percent"`
	DebugDir      string  `mapstructure:"debug_dir" yaml:"debug_dir" json:"debug_dir"`
}

// FiltersConfig selects the default enhancement. Preset wins over Params
// when both are set.
type FiltersConfig struct {
	Preset string         `mapstructure:"preset" yaml:"preset" json:"preset"`
	Params filters.Params `mapstructure:"params" yaml:"params" json:"params"`
}

// ExportConfig contains output encoding settings.
type ExportConfig struct {
	Format         string `mapstructure:"format" yaml:"format" json:"format"`
	JPEGQuality    int    `mapstructure:"jpeg_quality" yaml:"jpeg_quality" json:"jpeg_quality"`
	PDFImageFormat string `mapstructure:"pdf_image_format" yaml:"pdf_image_format" json:"pdf_image_format"`
}

// InputConfig limits accepted input files.
type InputConfig struct {
	MaxFileMB int `mapstructure:"max_file_mb" yaml:"max_file_mb" json:"max_file_mb"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string          `mapstructure:"host" yaml:"host" json:"host"`
	Port            int             `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string          `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int             `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int             `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int             `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	DebounceMS      int             `mapstructure:"debounce_ms" yaml:"debounce_ms" json:"debounce_ms"`
	PreviewMaxDim   int             `mapstructure:"preview_max_dim" yaml:"preview_max_dim" json:"preview_max_dim"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
}

// RateLimitConfig contains per-client request and data quotas. Zero disables a limit.
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	RequestsPerHour   int  `mapstructure:"requests_per_hour" yaml:"requests_per_hour" json:"requests_per_hour"`
	MaxRequestsPerDay int  `mapstructure:"max_requests_per_day" yaml:"max_requests_per_day" json:"max_requests_per_day"`
	MaxDataPerDayMB   int  `mapstructure:"max_data_per_day_mb" yaml:"max_data_per_day_mb" json:"max_data_per_day_mb"`
}
